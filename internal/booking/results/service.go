// Package results turns a paid checkout session into its shop
// recommendations.
package results

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"shop-concierge/internal/booking/allocator"
	"shop-concierge/internal/booking/fulfilment"
	"shop-concierge/internal/booking/preference"
	apperrors "shop-concierge/internal/common/errors"
	"shop-concierge/internal/common/logger"
	"shop-concierge/internal/common/metrics"
	"shop-concierge/internal/common/observability"
	"shop-concierge/internal/models"
	"shop-concierge/internal/notify"
	"shop-concierge/internal/payment"
	"shop-concierge/internal/store"
)

const unknownPlan = "unknown"

type Service struct {
	config    *Config
	purchases store.PurchaseStore
	shops     store.ShopStore
	gateway   payment.Gateway
	prices    payment.Prices
	notifier  notify.Notifier
	obs       *observability.Observability
	logger    logger.Logger
	now       func() time.Time
}

type Deps struct {
	Purchases store.PurchaseStore
	Shops     store.ShopStore
	Gateway   payment.Gateway
	Prices    payment.Prices
	Notifier  notify.Notifier
	Obs       *observability.Observability
}

func NewService(config *Config, deps Deps, log logger.Logger) *Service {
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Service{
		config:    config,
		purchases: deps.Purchases,
		shops:     deps.Shops,
		gateway:   deps.Gateway,
		prices:    deps.Prices,
		notifier:  notifier,
		obs:       deps.Obs,
		logger:    log.WithFields(map[string]interface{}{"service": "results"}),
		now:       time.Now,
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	ctx, span := observability.StartSpan(ctx, "results.Execute")
	defer span.End()

	sessionID := strings.TrimSpace(input.SessionID)
	if sessionID == "" {
		return nil, apperrors.NewMissingSessionIDError()
	}
	span.SetAttributes(attribute.String("session.id", sessionID))
	log := s.logger.WithFields(map[string]interface{}{"sessionId": sessionID})

	purchase, err := s.loadPurchase(ctx, log, sessionID)
	if err != nil {
		s.record(ctx, unknownPlan, "error", 0)
		return nil, err
	}

	if status := models.NormalizePaymentStatus(purchase.PaymentStatus); status != models.PaymentStatusPaid {
		s.record(ctx, unknownPlan, "not_paid", 0)
		return nil, apperrors.NewNotPaidError(sessionID, status)
	}

	prefs, err := preference.Parse(purchase.Metadata(), s.config.Parse)
	if err != nil {
		s.record(ctx, unknownPlan, "invalid", 0)
		return nil, validationError(err)
	}
	plan := string(prefs.Plan)
	span.SetAttributes(attribute.String("booking.plan", plan))

	pools, err := s.fetchPools(ctx, sessionID, prefs.AreaSelections)
	if err != nil {
		log.Error("shop lookup failed", map[string]interface{}{"error": err.Error()})
		s.record(ctx, plan, "error", 0)
		return nil, err
	}

	picks, err := allocator.Allocate(pools, prefs, s.config.Policy)
	if err != nil {
		var shortage *allocator.Shortage
		if errors.As(err, &shortage) {
			s.reportShortage(ctx, log, sessionID, prefs, shortage)
			s.record(ctx, plan, "shortage", 0)
			return nil, apperrors.NewInsufficientInventoryError(err)
		}
		s.record(ctx, plan, "invalid", 0)
		return nil, validationError(err)
	}

	out := &Output{
		OK:    true,
		Plan:  plan,
		Who:   who(prefs),
		Shops: make([]ShopResult, len(picks)),
	}
	for i, p := range picks {
		out.Shops[i] = ShopResult{Shop: p.Shop, Match: p.Tier.String(), Reason: p.Reason}
		metrics.PicksByTier.WithLabelValues(p.Tier.String()).Inc()
	}

	log.Info("results served", map[string]interface{}{
		"plan":  plan,
		"areas": prefs.AreaSelections,
		"shops": len(picks),
	})
	s.record(ctx, plan, "ok", len(picks))
	return out, nil
}

// loadPurchase prefers the stored record. Without one it asks the payment
// provider and, for a paid session, writes the missing record back.
func (s *Service) loadPurchase(ctx context.Context, log logger.Logger, sessionID string) (*models.Purchase, error) {
	p, err := s.purchases.FindBySessionID(ctx, sessionID)
	if err != nil {
		log.Error("purchase lookup failed", map[string]interface{}{"error": err.Error()})
		return nil, apperrors.NewDatastoreQueryFailedError("purchase lookup", err)
	}
	if p != nil {
		return p, nil
	}

	session, err := s.gateway.RetrieveSession(ctx, sessionID)
	if errors.Is(err, payment.ErrSessionNotFound) {
		return nil, apperrors.NewNotPaidError(sessionID, "")
	}
	if err != nil {
		log.Error("checkout session lookup failed", map[string]interface{}{"error": err.Error()})
		return nil, apperrors.NewPaymentProviderFailedError("retrieve session", err)
	}
	if !session.Paid() {
		return nil, apperrors.NewNotPaidError(sessionID, models.NormalizePaymentStatus(session.PaymentStatus))
	}

	p = fulfilment.PurchaseFromSession(session, s.prices, s.now())
	p.PaymentStatus = models.PaymentStatusPaid

	saved, err := s.purchases.Upsert(ctx, p)
	if err != nil {
		log.Warn("purchase self-heal failed", map[string]interface{}{"error": err.Error()})
		return p, nil
	}
	log.Info("purchase self-healed from checkout session", map[string]interface{}{"plan": saved.Plan})
	return saved, nil
}

// fetchPools queries every area concurrently and shuffles each pool with a
// seed fixed per purchase and area. The first failure cancels the rest.
func (s *Service) fetchPools(ctx context.Context, sessionID string, areas []string) ([]allocator.AreaPool, error) {
	pools := make([]allocator.AreaPool, len(areas))
	g, gctx := errgroup.WithContext(ctx)
	for i, area := range areas {
		i, area := i, area
		g.Go(func() error {
			qctx, cancel := context.WithTimeout(gctx, s.config.QueryTimeout)
			defer cancel()

			shops, err := s.shops.ListByArea(qctx, area)
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					return apperrors.NewTimeoutError("datastore", err).WithMetadata("area", area)
				}
				return apperrors.NewDatastoreQueryFailedError("list shops", err).WithMetadata("area", area)
			}
			pools[i] = allocator.AreaPool{
				Area:  area,
				Shops: allocator.SeededShuffle(shops, sessionID+":"+area),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pools, nil
}

func (s *Service) reportShortage(ctx context.Context, log logger.Logger, sessionID string, prefs preference.Preferences, shortage *allocator.Shortage) {
	metrics.InventoryShortages.WithLabelValues(string(prefs.Plan)).Inc()
	log.Warn("inventory shortage", map[string]interface{}{
		"plan":     prefs.Plan,
		"areas":    prefs.AreaSelections,
		"required": shortage.Required,
		"actual":   shortage.Actual,
		"area":     shortage.Area,
	})

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.QueryTimeout)
	defer cancel()
	err := s.notifier.InventoryShortage(ctx, models.ShortageEvent{
		SessionID:  sessionID,
		Plan:       string(prefs.Plan),
		Areas:      prefs.AreaSelections,
		Required:   shortage.Required,
		Actual:     shortage.Actual,
		Area:       shortage.Area,
		DetectedAt: s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Warn("shortage notification failed", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Service) record(ctx context.Context, plan, outcome string, size int) {
	metrics.ResultsServed.WithLabelValues(plan, outcome).Inc()
	s.obs.RecordAllocation(ctx, plan, outcome, size)
}

func validationError(err error) error {
	code := preference.ErrorCode(err)
	if code == "" {
		return err
	}
	return apperrors.NewValidationError(apperrors.ErrorCode(code), err)
}

// who echoes the companion type, or the vibes when none was given.
func who(p preference.Preferences) string {
	if p.CompanionType != "" {
		return p.CompanionType
	}
	return strings.Join(p.VibeTags, ",")
}
