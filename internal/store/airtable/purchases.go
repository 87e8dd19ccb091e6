package airtable

import (
	"context"
	"fmt"
	"math"
	"time"

	"shop-concierge/internal/common/airtable"
	"shop-concierge/internal/common/logger"
	"shop-concierge/internal/common/metrics"
	"shop-concierge/internal/models"
)

// duplicateScan bounds how many same-session rows an upsert looks at.
const duplicateScan = 10

// purchaseFields is the stored row. List-like columns may come back as
// arrays when the base uses multi-select fields.
type purchaseFields struct {
	SessionID     string         `json:"session_id"`
	PaymentStatus string         `json:"payment_status"`
	AmountTotal   *float64       `json:"amount_total"`
	Currency      string         `json:"currency"`
	Plan          string         `json:"plan"`
	CreatedAt     string         `json:"created_at"`
	CustomerEmail string         `json:"customer_email"`
	AreaGroups    models.TagList `json:"area_groups"`
	Who           string         `json:"who"`
	Vibes         models.TagList `json:"vibes"`
	GAClientID    string         `json:"ga_client_id"`
	Hearing       string         `json:"hearing"`
}

func (f purchaseFields) toModel(id string) *models.Purchase {
	p := &models.Purchase{
		ID:            id,
		SessionID:     f.SessionID,
		PaymentStatus: f.PaymentStatus,
		Currency:      f.Currency,
		Plan:          f.Plan,
		CreatedAt:     f.CreatedAt,
		CustomerEmail: f.CustomerEmail,
		AreaGroups:    f.AreaGroups.String(),
		Who:           f.Who,
		Vibes:         f.Vibes.String(),
		GAClientID:    f.GAClientID,
		Hearing:       f.Hearing,
	}
	if f.AmountTotal != nil {
		v := int64(math.Round(*f.AmountTotal))
		p.AmountTotal = &v
	}
	return p
}

// writeFields renders the non-empty columns of p.
func writeFields(p *models.Purchase) map[string]interface{} {
	out := map[string]interface{}{"session_id": p.SessionID}
	set := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	set("payment_status", p.PaymentStatus)
	set("currency", p.Currency)
	set("plan", p.Plan)
	set("created_at", p.CreatedAt)
	set("customer_email", p.CustomerEmail)
	set("area_groups", p.AreaGroups)
	set("who", p.Who)
	set("vibes", p.Vibes)
	set("ga_client_id", p.GAClientID)
	set("hearing", p.Hearing)
	if p.AmountTotal != nil {
		out["amount_total"] = *p.AmountTotal
	}
	return out
}

type PurchaseStore struct {
	client *airtable.Client
	table  string
	logger logger.Logger
}

func NewPurchaseStore(client *airtable.Client, table string, log logger.Logger) *PurchaseStore {
	return &PurchaseStore{
		client: client,
		table:  table,
		logger: log.WithFields(map[string]interface{}{"store": "purchases", "backend": backend}),
	}
}

func (s *PurchaseStore) FindBySessionID(ctx context.Context, sessionID string) (*models.Purchase, error) {
	recs, err := s.bySession(ctx, "find_purchase", sessionID, 1)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return decodePurchase(recs[0])
}

func (s *PurchaseStore) Upsert(ctx context.Context, p *models.Purchase) (*models.Purchase, error) {
	if p == nil || p.SessionID == "" {
		return nil, fmt.Errorf("upsert purchase: session id is required")
	}

	recs, err := s.bySession(ctx, "upsert_purchase", p.SessionID, duplicateScan)
	if err != nil {
		return nil, err
	}

	if len(recs) == 0 {
		rec, err := s.client.Create(ctx, s.table, writeFields(p))
		if err != nil {
			return nil, err
		}
		return decodePurchase(rec)
	}

	rec, err := s.client.Update(ctx, s.table, recs[0].ID, writeFields(p))
	if err != nil {
		return nil, err
	}
	for _, dup := range recs[1:] {
		if err := s.client.Delete(ctx, s.table, dup.ID); err != nil {
			s.logger.Warn("failed to delete duplicate purchase", map[string]interface{}{
				"sessionId": p.SessionID,
				"recordId":  dup.ID,
				"error":     err,
			})
		}
	}
	return decodePurchase(rec)
}

func (s *PurchaseStore) bySession(ctx context.Context, op, sessionID string, max int) ([]airtable.Record, error) {
	start := time.Now()
	recs, err := s.client.List(ctx, s.table, airtable.ListParams{
		FilterByFormula: airtable.Eq("session_id", sessionID),
		MaxRecords:      max,
	})
	metrics.DatastoreQueryDuration.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())
	return recs, err
}

func decodePurchase(rec airtable.Record) (*models.Purchase, error) {
	var f purchaseFields
	if err := rec.DecodeFields(&f); err != nil {
		return nil, fmt.Errorf("decode purchase %s: %w", rec.ID, err)
	}
	return f.toModel(rec.ID), nil
}
