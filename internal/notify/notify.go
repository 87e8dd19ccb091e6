// Package notify fans purchase and shortage events out to the fulfilment
// side: a Zeebe process, in-process worker logic, or nowhere.
package notify

import (
	"context"
	"fmt"
	"strings"

	"shop-concierge/internal/common/logger"
	"shop-concierge/internal/models"
)

const (
	ModeProcess = "process"
	ModeInline  = "inline"
	ModeNone    = "none"
)

// Notifier receives events the booking API raises. Implementations must not
// block the caller on slow downstreams for longer than ctx allows.
type Notifier interface {
	PurchaseCompleted(ctx context.Context, ev models.PurchaseEvent) error
	InventoryShortage(ctx context.Context, ev models.ShortageEvent) error
}

// ProcessStarter starts a process instance; *camunda.Client satisfies it.
type ProcessStarter interface {
	StartProcess(ctx context.Context, processID string, vars interface{}) (int64, error)
}

// ProcessNotifier starts one process instance per event.
type ProcessNotifier struct {
	starter         ProcessStarter
	purchaseProcess string
	shortageProcess string
	logger          logger.Logger
}

func NewProcessNotifier(starter ProcessStarter, purchaseProcess, shortageProcess string, log logger.Logger) *ProcessNotifier {
	return &ProcessNotifier{
		starter:         starter,
		purchaseProcess: purchaseProcess,
		shortageProcess: shortageProcess,
		logger:          log.WithFields(map[string]interface{}{"component": "notify", "mode": ModeProcess}),
	}
}

func (n *ProcessNotifier) PurchaseCompleted(ctx context.Context, ev models.PurchaseEvent) error {
	return n.start(ctx, n.purchaseProcess, ev.SessionID, ev)
}

func (n *ProcessNotifier) InventoryShortage(ctx context.Context, ev models.ShortageEvent) error {
	return n.start(ctx, n.shortageProcess, ev.SessionID, ev)
}

func (n *ProcessNotifier) start(ctx context.Context, processID, sessionID string, vars interface{}) error {
	if processID == "" {
		return nil
	}
	key, err := n.starter.StartProcess(ctx, processID, vars)
	if err != nil {
		return fmt.Errorf("start %s: %w", processID, err)
	}
	n.logger.Info("process started", map[string]interface{}{
		"processId":   processID,
		"instanceKey": key,
		"sessionId":   sessionID,
	})
	return nil
}

// Step is one in-process action run for an event.
type Step[E any] struct {
	Name string
	Run  func(ctx context.Context, ev E) error
}

// InlineNotifier runs worker logic directly in the API process. Every step
// runs; failures are logged and the first one is returned.
type InlineNotifier struct {
	purchase []Step[models.PurchaseEvent]
	shortage []Step[models.ShortageEvent]
	logger   logger.Logger
}

func NewInlineNotifier(log logger.Logger) *InlineNotifier {
	return &InlineNotifier{
		logger: log.WithFields(map[string]interface{}{"component": "notify", "mode": ModeInline}),
	}
}

func (n *InlineNotifier) OnPurchase(name string, run func(ctx context.Context, ev models.PurchaseEvent) error) *InlineNotifier {
	n.purchase = append(n.purchase, Step[models.PurchaseEvent]{Name: name, Run: run})
	return n
}

func (n *InlineNotifier) OnShortage(name string, run func(ctx context.Context, ev models.ShortageEvent) error) *InlineNotifier {
	n.shortage = append(n.shortage, Step[models.ShortageEvent]{Name: name, Run: run})
	return n
}

func (n *InlineNotifier) PurchaseCompleted(ctx context.Context, ev models.PurchaseEvent) error {
	return runSteps(ctx, n.logger, n.purchase, ev, ev.SessionID)
}

func (n *InlineNotifier) InventoryShortage(ctx context.Context, ev models.ShortageEvent) error {
	return runSteps(ctx, n.logger, n.shortage, ev, ev.SessionID)
}

func runSteps[E any](ctx context.Context, log logger.Logger, steps []Step[E], ev E, sessionID string) error {
	var first error
	for _, s := range steps {
		if err := s.Run(ctx, ev); err != nil {
			log.Warn("notification step failed", map[string]interface{}{
				"step":      s.Name,
				"sessionId": sessionID,
				"error":     err.Error(),
			})
			if first == nil {
				first = fmt.Errorf("%s: %w", s.Name, err)
			}
		}
	}
	return first
}

// Noop discards every event.
type Noop struct{}

func (Noop) PurchaseCompleted(context.Context, models.PurchaseEvent) error { return nil }
func (Noop) InventoryShortage(context.Context, models.ShortageEvent) error { return nil }

// ValidMode reports whether mode names a known notifier.
func ValidMode(mode string) bool {
	switch strings.ToLower(mode) {
	case ModeProcess, ModeInline, ModeNone, "":
		return true
	}
	return false
}
