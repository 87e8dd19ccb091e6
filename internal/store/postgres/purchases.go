package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"shop-concierge/internal/common/logger"
	"shop-concierge/internal/models"
)

const purchaseColumns = `id, session_id, payment_status, amount_total, currency, plan, created_at,
	customer_email, area_groups, who, vibes, ga_client_id, hearing`

type PurchaseStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPurchaseStore(db *sql.DB, log logger.Logger) *PurchaseStore {
	return &PurchaseStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"store": "purchases", "backend": backend}),
	}
}

func (s *PurchaseStore) FindBySessionID(ctx context.Context, sessionID string) (*models.Purchase, error) {
	start := time.Now()
	defer observe("find_purchase", start)

	row := s.db.QueryRowContext(ctx, `SELECT `+purchaseColumns+` FROM purchases
		WHERE session_id = $1 ORDER BY created_at, id LIMIT 1`, sessionID)
	p, err := scanPurchase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find purchase: %w", err)
	}
	return p, nil
}

// Upsert locks the session's rows, updates the oldest and deletes the rest.
func (s *PurchaseStore) Upsert(ctx context.Context, p *models.Purchase) (*models.Purchase, error) {
	if p == nil || p.SessionID == "" {
		return nil, fmt.Errorf("upsert purchase: session id is required")
	}
	start := time.Now()
	defer observe("upsert_purchase", start)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var keep string
	err = tx.QueryRowContext(ctx, `SELECT id FROM purchases WHERE session_id = $1
		ORDER BY created_at, id LIMIT 1 FOR UPDATE`, p.SessionID).Scan(&keep)

	var amount sql.NullInt64
	if p.AmountTotal != nil {
		amount = sql.NullInt64{Int64: *p.AmountTotal, Valid: true}
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		keep = uuid.New().String()
		_, err = tx.ExecContext(ctx, `INSERT INTO purchases (`+purchaseColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, COALESCE(NULLIF($7, '')::timestamptz, now()), $8, $9, $10, $11, $12, $13)`,
			keep, p.SessionID, p.PaymentStatus, amount, p.Currency, p.Plan, p.CreatedAt,
			p.CustomerEmail, p.AreaGroups, p.Who, p.Vibes, p.GAClientID, p.Hearing)
		if err != nil {
			return nil, fmt.Errorf("insert purchase: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("lock purchase: %w", err)
	default:
		_, err = tx.ExecContext(ctx, `UPDATE purchases SET
			payment_status = $2, amount_total = $3, currency = $4, plan = $5,
			customer_email = $6, area_groups = $7, who = $8, vibes = $9,
			ga_client_id = $10, hearing = $11, updated_at = now()
			WHERE id = $1`,
			keep, p.PaymentStatus, amount, p.Currency, p.Plan,
			p.CustomerEmail, p.AreaGroups, p.Who, p.Vibes, p.GAClientID, p.Hearing)
		if err != nil {
			return nil, fmt.Errorf("update purchase: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM purchases WHERE session_id = $1 AND id <> $2`, p.SessionID, keep)
		if err != nil {
			return nil, fmt.Errorf("delete duplicate purchases: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			s.logger.Info("removed duplicate purchases", map[string]interface{}{
				"sessionId": p.SessionID,
				"removed":   n,
			})
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	out := *p
	out.ID = keep
	return &out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPurchase(row rowScanner) (*models.Purchase, error) {
	var (
		p      models.Purchase
		amount sql.NullInt64
	)
	err := row.Scan(&p.ID, &p.SessionID, &p.PaymentStatus, &amount, &p.Currency, &p.Plan, &p.CreatedAt,
		&p.CustomerEmail, &p.AreaGroups, &p.Who, &p.Vibes, &p.GAClientID, &p.Hearing)
	if err != nil {
		return nil, err
	}
	if amount.Valid {
		v := amount.Int64
		p.AmountTotal = &v
	}
	return &p, nil
}
