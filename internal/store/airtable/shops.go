// Package airtable implements the stores on top of an Airtable base.
package airtable

import (
	"context"
	"time"

	"shop-concierge/internal/common/airtable"
	"shop-concierge/internal/common/logger"
	"shop-concierge/internal/common/metrics"
	"shop-concierge/internal/models"
	"shop-concierge/internal/store"
)

const backend = "airtable"

// searchMaxRecords bounds ad-hoc searches.
const searchMaxRecords = 100

type ShopStore struct {
	client     *airtable.Client
	table      string
	maxRecords int
	logger     logger.Logger
}

func NewShopStore(client *airtable.Client, table string, maxRecords int, log logger.Logger) *ShopStore {
	return &ShopStore{
		client:     client,
		table:      table,
		maxRecords: maxRecords,
		logger:     log.WithFields(map[string]interface{}{"store": "shops", "backend": backend}),
	}
}

func (s *ShopStore) ListByArea(ctx context.Context, area string) ([]models.Shop, error) {
	return s.list(ctx, "list_by_area", airtable.ListParams{
		FilterByFormula: airtable.And(airtable.Eq("status", store.StatusActive), airtable.Eq("area_group", area)),
		MaxRecords:      s.maxRecords,
	})
}

func (s *ShopStore) ListAreaDetails(ctx context.Context, pref string) ([]string, error) {
	shops, err := s.list(ctx, "list_area_details", airtable.ListParams{
		FilterByFormula: airtable.And(airtable.Contains("area_group", pref), airtable.Eq("status", store.StatusActive)),
		Fields:          []string{"area_detail", "area_group", "status"},
	})
	if err != nil {
		return nil, err
	}
	return store.DistinctAreaDetails(shops, pref), nil
}

func (s *ShopStore) Search(ctx context.Context, f models.ShopFilter) ([]models.Shop, error) {
	f = store.NormalizeFilter(f)
	conds := []string{airtable.Eq("status", f.Status)}
	if f.AreaGroup != "" {
		conds = append(conds, airtable.Eq("area_group", f.AreaGroup))
	}
	if f.AreaDetail != "" {
		conds = append(conds, airtable.Eq("area_detail", f.AreaDetail))
	}
	if f.Tier != "" {
		conds = append(conds, airtable.Eq("tier", f.Tier))
	}
	if f.TimeSlot != "" {
		conds = append(conds, airtable.Eq("time_slot", f.TimeSlot))
	}

	max := searchMaxRecords
	if f.Limit > 0 && f.Limit < max {
		max = f.Limit
	}
	return s.list(ctx, "search", airtable.ListParams{
		FilterByFormula: airtable.And(conds...),
		MaxRecords:      max,
	})
}

// ListAll pages through the whole table.
func (s *ShopStore) ListAll(ctx context.Context) ([]models.Shop, error) {
	return s.list(ctx, "list_all", airtable.ListParams{})
}

func (s *ShopStore) list(ctx context.Context, op string, p airtable.ListParams) ([]models.Shop, error) {
	start := time.Now()
	recs, err := s.client.List(ctx, s.table, p)
	metrics.DatastoreQueryDuration.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	shops := make([]models.Shop, 0, len(recs))
	for _, rec := range recs {
		var shop models.Shop
		if err := rec.DecodeFields(&shop); err != nil {
			s.logger.Warn("skipping undecodable shop record", map[string]interface{}{
				"recordId": rec.ID,
				"error":    err,
			})
			continue
		}
		shop.RecordID = rec.ID
		shops = append(shops, shop)
	}
	return shops, nil
}
