// Package bookingtest provides in-memory collaborators for booking service
// tests.
package bookingtest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"shop-concierge/internal/models"
	"shop-concierge/internal/payment"
	"shop-concierge/internal/store"
)

// PurchaseStore keeps purchases in memory, one per session id.
type PurchaseStore struct {
	mu        sync.Mutex
	records   map[string]models.Purchase
	FindErr   error
	UpsertErr error
	Upserts   int
}

func NewPurchaseStore(seed ...models.Purchase) *PurchaseStore {
	s := &PurchaseStore{records: map[string]models.Purchase{}}
	for _, p := range seed {
		s.records[p.SessionID] = p
	}
	return s
}

func (s *PurchaseStore) FindBySessionID(_ context.Context, sessionID string) (*models.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	p, ok := s.records[sessionID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *PurchaseStore) Upsert(_ context.Context, p *models.Purchase) (*models.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Upserts++
	if s.UpsertErr != nil {
		return nil, s.UpsertErr
	}
	saved := *p
	if prev, ok := s.records[p.SessionID]; ok {
		saved.ID = prev.ID
	}
	if saved.ID == "" {
		saved.ID = "rec_" + p.SessionID
	}
	s.records[p.SessionID] = saved
	return &saved, nil
}

// Get returns the stored record for sessionID.
func (s *PurchaseStore) Get(sessionID string) (models.Purchase, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.records[sessionID]
	return p, ok
}

// ShopStore answers catalog queries from a fixed slice.
type ShopStore struct {
	Shops []models.Shop
	// Err, when set, fails every query.
	Err error
	// AreaErr fails ListByArea for the named areas only.
	AreaErr map[string]error

	mu      sync.Mutex
	queried []string
}

func (s *ShopStore) ListByArea(ctx context.Context, area string) ([]models.Shop, error) {
	s.mu.Lock()
	s.queried = append(s.queried, area)
	s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}
	if err := s.AreaErr[area]; err != nil {
		return nil, err
	}
	var out []models.Shop
	for _, shop := range s.Shops {
		if shop.AreaGroup == area && strings.EqualFold(shop.Status, store.StatusActive) {
			out = append(out, shop)
		}
	}
	return out, nil
}

func (s *ShopStore) ListAreaDetails(_ context.Context, pref string) ([]string, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return store.DistinctAreaDetails(s.Shops, pref), nil
}

func (s *ShopStore) Search(_ context.Context, f models.ShopFilter) ([]models.Shop, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	f = store.NormalizeFilter(f)
	var out []models.Shop
	for _, shop := range s.Shops {
		switch {
		case !strings.EqualFold(shop.Status, f.Status):
		case f.AreaGroup != "" && shop.AreaGroup != f.AreaGroup:
		case f.AreaDetail != "" && shop.AreaDetail != f.AreaDetail:
		case f.Tier != "" && shop.Tier != f.Tier:
		case f.TimeSlot != "" && shop.TimeSlot != f.TimeSlot:
		default:
			out = append(out, shop)
		}
	}
	return out, nil
}

// Queried returns the areas ListByArea was called with, sorted.
func (s *ShopStore) Queried() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]string(nil), s.queried...)
	sort.Strings(out)
	return out
}

// Gateway is a payment.Gateway with per-method hooks.
type Gateway struct {
	CreateFunc    func(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error)
	RetrieveFunc  func(ctx context.Context, id string) (*payment.CheckoutSession, error)
	ConstructFunc func(payload []byte, signature string) (*payment.Event, error)
}

func (g *Gateway) CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	return g.CreateFunc(ctx, req)
}

func (g *Gateway) RetrieveSession(ctx context.Context, id string) (*payment.CheckoutSession, error) {
	if g.RetrieveFunc == nil {
		return nil, payment.ErrSessionNotFound
	}
	return g.RetrieveFunc(ctx, id)
}

func (g *Gateway) ConstructEvent(payload []byte, signature string) (*payment.Event, error) {
	return g.ConstructFunc(payload, signature)
}

// Notifier records every event it receives.
type Notifier struct {
	mu        sync.Mutex
	Purchases []models.PurchaseEvent
	Shortages []models.ShortageEvent
	Err       error
}

func (n *Notifier) PurchaseCompleted(_ context.Context, ev models.PurchaseEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Purchases = append(n.Purchases, ev)
	return n.Err
}

func (n *Notifier) InventoryShortage(_ context.Context, ev models.ShortageEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Shortages = append(n.Shortages, ev)
	return n.Err
}
