package camunda

import (
	"context"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
)

// StartProcess creates an instance of the latest deployed version of
// processID with vars as its variables, retrying transient failures.
func (c *Client) StartProcess(ctx context.Context, processID string, vars interface{}) (int64, error) {
	instance, err := withRetry(ctx, c, "create-instance:"+processID, func(ctx context.Context) (*pb.CreateProcessInstanceResponse, error) {
		cmd, err := c.client.NewCreateInstanceCommand().
			BPMNProcessId(processID).
			LatestVersion().
			VariablesFromObject(vars)
		if err != nil {
			return nil, fmt.Errorf("encode variables: %w", err)
		}
		return cmd.Send(ctx)
	})
	if err != nil {
		return 0, err
	}
	return instance.GetProcessInstanceKey(), nil
}
