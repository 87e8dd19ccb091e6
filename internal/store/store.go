// Package store declares the datastore contracts the booking services run
// against. Implementations live in the subpackages.
package store

import (
	"context"
	"sort"
	"strings"

	"shop-concierge/internal/models"
)

// StatusActive is the only catalog status the funnel ever selects.
const StatusActive = "active"

// ShopStore is the read side of the shop catalog.
type ShopStore interface {
	// ListByArea returns active shops whose area_group equals area.
	ListByArea(ctx context.Context, area string) ([]models.Shop, error)
	// ListAreaDetails returns the distinct, sorted area_detail values of
	// active shops whose area_group contains pref.
	ListAreaDetails(ctx context.Context, pref string) ([]string, error)
	// Search returns shops matching every non-empty field of f.
	Search(ctx context.Context, f models.ShopFilter) ([]models.Shop, error)
}

// AreaSource is the subset of ShopStore the area lookup needs. The search
// index implements it too.
type AreaSource interface {
	ListAreaDetails(ctx context.Context, pref string) ([]string, error)
}

// CatalogReader lists every shop regardless of status.
type CatalogReader interface {
	ListAll(ctx context.Context) ([]models.Shop, error)
}

// CatalogWriter replaces read-model copies of the catalog.
type CatalogWriter interface {
	UpsertShops(ctx context.Context, shops []models.Shop) error
}

// PurchaseStore keeps one logical purchase per checkout session.
type PurchaseStore interface {
	// FindBySessionID returns nil, nil when no record exists.
	FindBySessionID(ctx context.Context, sessionID string) (*models.Purchase, error)
	// Upsert creates the record, or updates the oldest one and removes any
	// duplicates for the same session.
	Upsert(ctx context.Context, p *models.Purchase) (*models.Purchase, error)
}

// DistinctAreaDetails collects the sorted, distinct non-empty area_detail
// values of active shops whose area_group contains pref.
func DistinctAreaDetails(shops []models.Shop, pref string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, s := range shops {
		if !strings.EqualFold(strings.TrimSpace(s.Status), StatusActive) {
			continue
		}
		if pref != "" && !strings.Contains(s.AreaGroup, pref) {
			continue
		}
		d := strings.TrimSpace(s.AreaDetail)
		if d == "" {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// NormalizeFilter fills the default status.
func NormalizeFilter(f models.ShopFilter) models.ShopFilter {
	f.Status = strings.TrimSpace(f.Status)
	if f.Status == "" {
		f.Status = StatusActive
	}
	f.AreaGroup = strings.TrimSpace(f.AreaGroup)
	f.AreaDetail = strings.TrimSpace(f.AreaDetail)
	f.Tier = strings.TrimSpace(f.Tier)
	f.TimeSlot = strings.TrimSpace(f.TimeSlot)
	return f
}
