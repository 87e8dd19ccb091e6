package sendreceipt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	commonaws "shop-concierge/internal/common/aws"
	apperrors "shop-concierge/internal/common/errors"
	"shop-concierge/internal/common/logger"
	"shop-concierge/internal/common/validation"
)

const (
	TaskType = "send-purchase-receipt"
)

var (
	ErrInvalidRecipient = errors.New("INVALID_RECIPIENT")
)

type Handler struct {
	config     *Config
	sesClient  commonaws.SESService
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, sesClient commonaws.SESService, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		sesClient:  sesClient,
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
	to := strings.TrimSpace(input.CustomerEmail)
	if !h.config.Enabled || h.sesClient == nil || to == "" {
		h.logger.Info("receipt skipped", map[string]interface{}{
			"sessionId":  input.SessionID,
			"sesEnabled": h.config.Enabled,
			"hasEmail":   to != "",
		})
		return &Output{ReceiptStatus: StatusSkipped}, nil
	}
	if !validation.ValidateEmail(to) {
		return nil, apperrors.NewBusinessRuleError("receipt recipient is not a valid address", ErrInvalidRecipient.Error())
	}

	subject, body, err := render(input, h.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}

	out, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	if err != nil {
		return nil, apperrors.NewNotificationSendFailedError("ses", err).WithMetadata("sessionId", input.SessionID)
	}

	output := &Output{
		ReceiptStatus: StatusSent,
		SentAt:        time.Now().UTC().Format(time.RFC3339),
	}
	if out != nil && out.MessageId != nil {
		output.MessageID = *out.MessageId
	}

	h.logger.Info("receipt sent", map[string]interface{}{
		"sessionId": input.SessionID,
		"messageId": output.MessageID,
	})
	return output, nil
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
