// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"shop-concierge/internal/common/errors"
)

// Client starts processes on a Zeebe gateway and retries transient
// gateway failures.
type Client struct {
	client zbc.Client
	config *ClientConfig
}

type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	RetryConfig            *RetryConfig
}

type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryConfig retries three times, doubling from one second.
var DefaultRetryConfig = &RetryConfig{
	MaxRetries: 3,
	BaseDelay:  1 * time.Second,
	MaxDelay:   10 * time.Second,
}

// NewClient connects in plaintext with default timeouts.
func NewClient(address string) (*Client, error) {
	return NewClientWithConfig(&ClientConfig{
		GatewayAddress:         address,
		UsePlaintextConnection: true,
		ConnectionTimeout:      10 * time.Second,
		RetryConfig:            DefaultRetryConfig,
	})
}

// NewClientWithConfig connects and fails unless the gateway answers a
// topology request within ConnectionTimeout.
func NewClientWithConfig(config *ClientConfig) (*Client, error) {
	if config.RetryConfig == nil {
		config.RetryConfig = DefaultRetryConfig
	}

	zc, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         config.GatewayAddress,
		UsePlaintextConnection: config.UsePlaintextConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	c := &Client{client: zc, config: config}
	if err := c.HealthCheck(context.Background()); err != nil {
		zc.Close()
		return nil, fmt.Errorf("gateway %s: %w", config.GatewayAddress, err)
	}
	return c, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// HealthCheck asks the gateway for its topology.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}

// failure groups gateway errors by how the caller should react.
type failure int

const (
	failureOther failure = iota
	failureUnavailable
	failureTimeout
	failureNotFound
	failureConflict
	failureDenied
)

func (f failure) retryable() bool {
	return f == failureUnavailable || f == failureTimeout
}

// classify prefers the gRPC status code and falls back to the message for
// errors raised before a call reached the gateway.
func classify(err error) failure {
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.Unavailable, codes.ResourceExhausted, codes.Aborted:
			return failureUnavailable
		case codes.DeadlineExceeded:
			return failureTimeout
		case codes.NotFound:
			return failureNotFound
		case codes.AlreadyExists:
			return failureConflict
		case codes.PermissionDenied, codes.Unauthenticated:
			return failureDenied
		}
	}

	msg := strings.ToLower(err.Error())
	has := func(phrases ...string) bool {
		for _, p := range phrases {
			if strings.Contains(msg, p) {
				return true
			}
		}
		return false
	}
	switch {
	case has("deadline exceeded", "timeout"):
		return failureTimeout
	case has("connection refused", "connection reset", "unavailable", "unreachable", "broken pipe"):
		return failureUnavailable
	case has("not found"):
		return failureNotFound
	case has("already exists"):
		return failureConflict
	case has("permission denied", "unauthorized", "unauthenticated"):
		return failureDenied
	}
	return failureOther
}

// withRetry runs call with exponential backoff while it fails transiently.
// The final error is a *errors.StandardError.
func withRetry[T any](ctx context.Context, c *Client, operation string, call func(context.Context) (T, error)) (T, error) {
	var zero T
	retry := c.config.RetryConfig

	for attempt := 0; ; attempt++ {
		res, err := call(ctx)
		if err == nil {
			return res, nil
		}

		kind := classify(err)
		if !kind.retryable() || attempt >= retry.MaxRetries {
			return zero, toStandard(kind, operation, attempt+1, err)
		}

		delay := retry.BaseDelay * time.Duration(1<<attempt)
		if delay > retry.MaxDelay {
			delay = retry.MaxDelay
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, errors.NewTimeoutError("zeebe",
				fmt.Errorf("%s cancelled after %d attempts: %w", operation, attempt+1, ctx.Err()))
		}
	}
}

func toStandard(kind failure, operation string, attempts int, err error) error {
	wrapped := fmt.Errorf("zeebe %s failed after %d attempt(s): %w", operation, attempts, err)
	switch kind {
	case failureTimeout:
		return errors.NewTimeoutError("zeebe", wrapped)
	case failureNotFound:
		return errors.NewResourceNotFoundError("zeebe", wrapped.Error())
	case failureConflict:
		return errors.NewBusinessRuleError(wrapped.Error(), "Resource already exists")
	case failureDenied:
		return errors.NewAuthenticationError(wrapped.Error())
	default:
		return errors.NewExternalServiceError("zeebe", wrapped)
	}
}
