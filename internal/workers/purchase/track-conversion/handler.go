package trackconversion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"shop-concierge/internal/analytics"
	apperrors "shop-concierge/internal/common/errors"
	"shop-concierge/internal/common/logger"
)

const (
	TaskType = "track-purchase-conversion"
)

// Tracker is the analytics client the handler reports through.
type Tracker interface {
	TrackPurchase(ctx context.Context, p analytics.Purchase) error
}

type Handler struct {
	config     *Config
	tracker    Tracker
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, tracker Tracker, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		tracker:    tracker,
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
	err := h.tracker.TrackPurchase(ctx, analytics.Purchase{
		ClientID:      input.GAClientID,
		TransactionID: input.SessionID,
		AmountMinor:   input.AmountTotal,
		Currency:      input.Currency,
		Plan:          input.Plan,
	})
	switch {
	case errors.Is(err, analytics.ErrNotConfigured):
		h.logger.Info("GA4 not configured; conversion skipped", map[string]interface{}{"sessionId": input.SessionID})
		return &Output{ConversionStatus: StatusSkipped, SkipReason: "not_configured"}, nil
	case errors.Is(err, analytics.ErrMissingClientID):
		h.logger.Info("GA4 client id missing; conversion skipped", map[string]interface{}{"sessionId": input.SessionID})
		return &Output{ConversionStatus: StatusSkipped, SkipReason: "missing_client_id"}, nil
	case err != nil:
		return nil, apperrors.NewAnalyticsSendFailedError(err).WithMetadata("sessionId", input.SessionID)
	}

	h.logger.Info("conversion tracked", map[string]interface{}{
		"sessionId": input.SessionID,
		"plan":      input.Plan,
	})
	return &Output{ConversionStatus: StatusTracked}, nil
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
