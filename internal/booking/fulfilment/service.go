// Package fulfilment records paid checkout sessions delivered by the
// payment provider's webhook and hands them to the notifier.
package fulfilment

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	apperrors "shop-concierge/internal/common/errors"
	"shop-concierge/internal/common/logger"
	"shop-concierge/internal/common/metrics"
	"shop-concierge/internal/common/observability"
	"shop-concierge/internal/models"
	"shop-concierge/internal/notify"
	"shop-concierge/internal/payment"
	"shop-concierge/internal/store"
)

type Input struct {
	Payload   []byte
	Signature string
}

type Output struct {
	Received bool `json:"received"`
	Ignored  bool `json:"ignored,omitempty"`
}

type Service struct {
	config    *Config
	gateway   payment.Gateway
	prices    payment.Prices
	purchases store.PurchaseStore
	notifier  notify.Notifier
	logger    logger.Logger
	now       func() time.Time
}

func NewService(config *Config, gateway payment.Gateway, prices payment.Prices, purchases store.PurchaseStore, notifier notify.Notifier, log logger.Logger) *Service {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Service{
		config:    config,
		gateway:   gateway,
		prices:    prices,
		purchases: purchases,
		notifier:  notifier,
		logger:    log.WithFields(map[string]interface{}{"service": "fulfilment"}),
		now:       time.Now,
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	ctx, span := observability.StartSpan(ctx, "fulfilment.Execute")
	defer span.End()

	if input.Signature == "" {
		metrics.WebhookEvents.WithLabelValues("unknown", "invalid_signature").Inc()
		return nil, apperrors.NewInvalidSignatureError(errors.New("missing Stripe-Signature header"))
	}
	event, err := s.gateway.ConstructEvent(input.Payload, input.Signature)
	if err != nil {
		s.logger.Warn("webhook signature verification failed", map[string]interface{}{"error": err.Error()})
		metrics.WebhookEvents.WithLabelValues("unknown", "invalid_signature").Inc()
		return nil, apperrors.NewInvalidSignatureError(err)
	}
	span.SetAttributes(attribute.String("stripe.event_type", event.Type))

	if event.Type != payment.EventCheckoutCompleted {
		metrics.WebhookEvents.WithLabelValues(event.Type, "ignored").Inc()
		return &Output{Received: true, Ignored: true}, nil
	}
	if event.Session == nil || event.Session.ID == "" {
		s.logger.Error("checkout event without session id", map[string]interface{}{"eventId": event.ID})
		metrics.WebhookEvents.WithLabelValues(event.Type, "missing_session").Inc()
		return &Output{Received: true}, nil
	}

	purchase := PurchaseFromSession(event.Session, s.prices, s.now())
	log := s.logger.WithFields(map[string]interface{}{
		"sessionId": purchase.SessionID,
		"eventId":   event.ID,
	})

	upsertCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	saved, err := s.purchases.Upsert(upsertCtx, purchase)
	cancel()
	if err != nil {
		log.Error("purchase upsert failed", map[string]interface{}{"error": err.Error()})
		metrics.WebhookEvents.WithLabelValues(event.Type, "upsert_failed").Inc()
		return nil, apperrors.NewPurchaseUpsertFailedError(purchase.SessionID, err)
	}

	s.notify(ctx, log, *saved)

	log.Info("purchase recorded", map[string]interface{}{
		"plan":          saved.Plan,
		"paymentStatus": saved.PaymentStatus,
	})
	metrics.WebhookEvents.WithLabelValues(event.Type, "recorded").Inc()
	return &Output{Received: true}, nil
}

// notify runs detached from the inbound request's cancellation.
func (s *Service) notify(ctx context.Context, log logger.Logger, p models.Purchase) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.Timeout)
	defer cancel()

	if err := s.notifier.PurchaseCompleted(ctx, models.NewPurchaseEvent(p)); err != nil {
		log.Warn("purchase notification failed", map[string]interface{}{"error": err.Error()})
	}
}
