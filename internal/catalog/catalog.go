// Package catalog audits shop inventory per area and copies the catalog
// from the system of record into the read-model stores.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"shop-concierge/internal/common/logger"
	"shop-concierge/internal/models"
	"shop-concierge/internal/store"
)

// AreaStock is the active shop count for one area group.
type AreaStock struct {
	Area     string `json:"area"`
	Active   int    `json:"active"`
	Inactive int    `json:"inactive"`
	Required int    `json:"required"`
	Short    int    `json:"short"`
}

func (a AreaStock) OK() bool { return a.Short == 0 }

// Audit counts shops per area group and how far each falls below required.
// Shops without an area group are ignored. The result is sorted by area.
func Audit(shops []models.Shop, required int) []AreaStock {
	byArea := map[string]*AreaStock{}
	for _, s := range shops {
		area := strings.TrimSpace(s.AreaGroup)
		if area == "" {
			continue
		}
		st, ok := byArea[area]
		if !ok {
			st = &AreaStock{Area: area, Required: required}
			byArea[area] = st
		}
		if strings.EqualFold(strings.TrimSpace(s.Status), store.StatusActive) {
			st.Active++
		} else {
			st.Inactive++
		}
	}

	out := make([]AreaStock, 0, len(byArea))
	for _, st := range byArea {
		if st.Active < required {
			st.Short = required - st.Active
		}
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Area < out[j].Area })
	return out
}

// Target is one read model the catalog is copied into.
type Target struct {
	Name   string
	Writer store.CatalogWriter
	// Prepare runs before the first write, e.g. to create an index.
	Prepare func(ctx context.Context) error
}

// Invalidator drops cached catalog reads.
type Invalidator interface {
	Invalidate(ctx context.Context) (int, error)
}

type SyncReport struct {
	Read        int            `json:"read"`
	Written     map[string]int `json:"written"`
	Invalidated int            `json:"invalidated"`
}

type Syncer struct {
	source  store.CatalogReader
	targets []Target
	cache   Invalidator
	logger  logger.Logger
}

// NewSyncer copies source into targets in order. cache may be nil.
func NewSyncer(source store.CatalogReader, targets []Target, cache Invalidator, log logger.Logger) *Syncer {
	return &Syncer{
		source:  source,
		targets: targets,
		cache:   cache,
		logger:  log.WithFields(map[string]interface{}{"component": "catalog-sync"}),
	}
}

// Run stops at the first failing target. The cache is only invalidated once
// every target has been written.
func (s *Syncer) Run(ctx context.Context) (*SyncReport, error) {
	shops, err := s.source.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	report := &SyncReport{Read: len(shops), Written: map[string]int{}}

	for _, t := range s.targets {
		if t.Prepare != nil {
			if err := t.Prepare(ctx); err != nil {
				return report, fmt.Errorf("prepare %s: %w", t.Name, err)
			}
		}
		if err := t.Writer.UpsertShops(ctx, shops); err != nil {
			return report, fmt.Errorf("sync %s: %w", t.Name, err)
		}
		report.Written[t.Name] = len(shops)
		s.logger.Info("catalog synced", map[string]interface{}{"target": t.Name, "shops": len(shops)})
	}

	if s.cache != nil {
		n, err := s.cache.Invalidate(ctx)
		report.Invalidated = n
		if err != nil {
			return report, fmt.Errorf("invalidate cache: %w", err)
		}
	}
	return report, nil
}
