package alertshortage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	commonaws "shop-concierge/internal/common/aws"
	apperrors "shop-concierge/internal/common/errors"
	"shop-concierge/internal/common/logger"
)

const (
	TaskType = "alert-inventory-shortage"
)

type Handler struct {
	config     *Config
	snsClient  commonaws.SNSService
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, snsClient commonaws.SNSService, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		snsClient:  snsClient,
		errHandler: apperrors.NewErrorHandler(log),
		logger:     log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errHandler.HandleJobError(context.Background(), client, job,
			apperrors.NewBusinessRuleError("invalid job variables", fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	// The log line is the alert of last resort when SNS is off.
	h.logger.Warn("inventory shortage", map[string]interface{}{
		"sessionId": input.SessionID,
		"plan":      input.Plan,
		"areas":     input.Areas,
		"required":  input.Required,
		"actual":    input.Actual,
		"area":      input.Area,
	})

	if !h.config.Enabled || h.snsClient == nil || h.config.TopicARN == "" {
		return &Output{AlertStatus: StatusSkipped}, nil
	}

	out, err := h.snsClient.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(h.config.TopicARN),
		Subject:  aws.String(subject(input)),
		Message:  aws.String(message(input)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"plan": {DataType: aws.String("String"), StringValue: aws.String(planOrUnknown(input.Plan))},
		},
	})
	if err != nil {
		return nil, apperrors.NewNotificationSendFailedError("sns", err).WithMetadata("sessionId", input.SessionID)
	}

	output := &Output{AlertStatus: StatusPublished}
	if out != nil && out.MessageId != nil {
		output.MessageID = *out.MessageId
	}
	return output, nil
}

func subject(in *Input) string {
	return fmt.Sprintf("Inventory shortage: %s", planOrUnknown(in.Plan))
}

func message(in *Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Plan: %s\n", planOrUnknown(in.Plan))
	fmt.Fprintf(&b, "Areas: %s\n", strings.Join(in.Areas, ", "))
	if in.Area != "" {
		fmt.Fprintf(&b, "Short area: %s\n", in.Area)
	}
	fmt.Fprintf(&b, "Required: %d\nActual: %d\n", in.Required, in.Actual)
	fmt.Fprintf(&b, "Session: %s\n", in.SessionID)
	if in.DetectedAt != "" {
		fmt.Fprintf(&b, "Detected at: %s\n", in.DetectedAt)
	}
	return b.String()
}

func planOrUnknown(p string) string {
	if p == "" {
		return "unknown"
	}
	return p
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
