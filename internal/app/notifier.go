package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"shop-concierge/internal/analytics"
	commonaws "shop-concierge/internal/common/aws"
	"shop-concierge/internal/common/camunda"
	"shop-concierge/internal/common/config"
	"shop-concierge/internal/common/logger"
	"shop-concierge/internal/models"
	"shop-concierge/internal/notify"
	alertshortage "shop-concierge/internal/workers/inventory/alert-shortage"
	sendreceipt "shop-concierge/internal/workers/purchase/send-receipt"
	trackconversion "shop-concierge/internal/workers/purchase/track-conversion"
)

// Handlers are the purchase and inventory job handlers, shared by the
// worker manager and the inline notifier.
type Handlers struct {
	Receipt    *sendreceipt.Handler
	Conversion *trackconversion.Handler
	Shortage   *alertshortage.Handler
}

// NewHandlers builds the handlers with SES and SNS clients for whichever of
// the two is enabled.
func NewHandlers(ctx context.Context, cfg *config.Config, log logger.Logger) (*Handlers, error) {
	region := cfg.Integrations.AWS.Region

	var ses commonaws.SESService
	if cfg.Integrations.AWS.SES.Enabled {
		client, err := commonaws.NewSESClient(ctx, region)
		if err != nil {
			return nil, fmt.Errorf("ses client: %w", err)
		}
		ses = client
	}

	var sns commonaws.SNSService
	if cfg.Integrations.AWS.SNS.Enabled {
		client, err := commonaws.NewSNSClient(ctx, region)
		if err != nil {
			return nil, fmt.Errorf("sns client: %w", err)
		}
		sns = client
	}

	ga4 := cfg.Integrations.GA4
	tracker := analytics.NewClient(ga4.Endpoint, ga4.MeasurementID, ga4.APISecret, config.GetDuration(ga4.Timeout))

	return &Handlers{
		Receipt:    sendreceipt.NewHandler(sendreceipt.LoadConfig(cfg), ses, log),
		Conversion: trackconversion.NewHandler(trackconversion.LoadConfig(cfg), tracker, log),
		Shortage:   alertshortage.NewHandler(alertshortage.LoadConfig(cfg), sns, log),
	}, nil
}

// Inline returns a notifier that runs the handlers in-process.
func (h *Handlers) Inline(log logger.Logger) *notify.InlineNotifier {
	return notify.NewInlineNotifier(log).
		OnPurchase(sendreceipt.TaskType, func(ctx context.Context, ev models.PurchaseEvent) error {
			_, err := h.Receipt.Execute(ctx, &sendreceipt.Input{PurchaseEvent: ev})
			return err
		}).
		OnPurchase(trackconversion.TaskType, func(ctx context.Context, ev models.PurchaseEvent) error {
			_, err := h.Conversion.Execute(ctx, &trackconversion.Input{PurchaseEvent: ev})
			return err
		}).
		OnShortage(alertshortage.TaskType, func(ctx context.Context, ev models.ShortageEvent) error {
			_, err := h.Shortage.Execute(ctx, &alertshortage.Input{ShortageEvent: ev})
			return err
		})
}

// Notifier is the configured notifier plus what it holds open.
type Notifier struct {
	notify.Notifier
	Check Check
	close func() error
}

func (n *Notifier) Close() error {
	if n.close == nil {
		return nil
	}
	return n.close()
}

// OpenNotifier builds the notifier for cfg.Notifications.Mode.
func OpenNotifier(ctx context.Context, cfg *config.Config, opts StoreOptions, log logger.Logger) (*Notifier, error) {
	zapLog := logger.Unwrap(log)
	mode := cfg.Notifications.Mode
	if mode == "" {
		mode = notify.ModeInline
	}

	switch mode {
	case notify.ModeProcess:
		var client *camunda.Client
		err := RetryWithBackoff(func() error {
			var err error
			client, err = camunda.NewClient(cfg.Camunda.BrokerAddress)
			return err
		}, max(opts.Attempts, 1), opts.Delay, zapLog, "Zeebe client initialization")
		if err != nil {
			return nil, err
		}
		zapLog.Info("Zeebe client connected successfully", zap.String("broker", cfg.Camunda.BrokerAddress))
		return &Notifier{
			Notifier: notify.NewProcessNotifier(client,
				cfg.Notifications.PurchaseProcess,
				cfg.Notifications.ShortageProcess,
				log,
			),
			Check: client.HealthCheck,
			close: client.Close,
		}, nil

	case notify.ModeInline:
		handlers, err := NewHandlers(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return &Notifier{Notifier: handlers.Inline(log)}, nil

	case notify.ModeNone:
		return &Notifier{Notifier: notify.Noop{}}, nil
	}
	return nil, fmt.Errorf("unknown notifications mode %q", mode)
}
