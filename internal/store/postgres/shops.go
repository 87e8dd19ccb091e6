// Package postgres implements the stores on the Postgres read model
// created by database.Migrate.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"shop-concierge/internal/common/metrics"
	"shop-concierge/internal/models"
	"shop-concierge/internal/store"
)

const backend = "postgres"

const shopColumns = `shop_id, shop_name, area_group, area_detail, status, best_with, best_vibe, genre, short_desc, tier, time_slot`

const searchMaxRecords = 100

type ShopStore struct {
	db         *sql.DB
	maxRecords int
}

func NewShopStore(db *sql.DB, maxRecords int) *ShopStore {
	if maxRecords <= 0 {
		maxRecords = 200
	}
	return &ShopStore{db: db, maxRecords: maxRecords}
}

func (s *ShopStore) ListByArea(ctx context.Context, area string) ([]models.Shop, error) {
	query := `SELECT ` + shopColumns + ` FROM shops
		WHERE lower(status) = 'active' AND area_group = $1
		ORDER BY shop_id LIMIT $2`
	return s.query(ctx, "list_by_area", query, area, s.maxRecords)
}

func (s *ShopStore) ListAreaDetails(ctx context.Context, pref string) ([]string, error) {
	start := time.Now()
	defer observe("list_area_details", start)

	query := `SELECT DISTINCT area_detail FROM shops
		WHERE lower(status) = 'active' AND strpos(area_group, $1) > 0 AND area_detail <> ''
		ORDER BY area_detail`
	rows, err := s.db.QueryContext(ctx, query, pref)
	if err != nil {
		return nil, fmt.Errorf("list area details: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan area detail: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *ShopStore) Search(ctx context.Context, f models.ShopFilter) ([]models.Shop, error) {
	f = store.NormalizeFilter(f)

	conds := []string{"status = $1"}
	args := []interface{}{f.Status}
	add := func(col, v string) {
		if v == "" {
			return
		}
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	add("area_group", f.AreaGroup)
	add("area_detail", f.AreaDetail)
	add("tier", f.Tier)
	add("time_slot", f.TimeSlot)

	limit := searchMaxRecords
	if f.Limit > 0 && f.Limit < limit {
		limit = f.Limit
	}
	args = append(args, limit)

	query := fmt.Sprintf(`SELECT %s FROM shops WHERE %s ORDER BY shop_id LIMIT $%d`,
		shopColumns, strings.Join(conds, " AND "), len(args))
	return s.query(ctx, "search", query, args...)
}

func (s *ShopStore) ListAll(ctx context.Context) ([]models.Shop, error) {
	return s.query(ctx, "list_all", `SELECT `+shopColumns+` FROM shops ORDER BY shop_id`)
}

// UpsertShops writes shops in one transaction, keyed by shop_id. Records
// without a shop_id are skipped.
func (s *ShopStore) UpsertShops(ctx context.Context, shops []models.Shop) error {
	start := time.Now()
	defer observe("upsert_shops", start)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO shops (`+shopColumns+`, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		ON CONFLICT (shop_id) DO UPDATE SET
			shop_name = EXCLUDED.shop_name,
			area_group = EXCLUDED.area_group,
			area_detail = EXCLUDED.area_detail,
			status = EXCLUDED.status,
			best_with = EXCLUDED.best_with,
			best_vibe = EXCLUDED.best_vibe,
			genre = EXCLUDED.genre,
			short_desc = EXCLUDED.short_desc,
			tier = EXCLUDED.tier,
			time_slot = EXCLUDED.time_slot,
			updated_at = now()`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, sh := range shops {
		if strings.TrimSpace(sh.ShopID) == "" {
			continue
		}
		_, err := stmt.ExecContext(ctx,
			sh.ShopID, sh.ShopName, sh.AreaGroup, sh.AreaDetail, sh.Status,
			pq.Array([]string(sh.CompanionFit)), pq.Array([]string(sh.VibeFit)),
			sh.Genre, sh.ShortDesc, sh.Tier, sh.TimeSlot,
		)
		if err != nil {
			return fmt.Errorf("upsert shop %s: %w", sh.ShopID, err)
		}
	}
	return tx.Commit()
}

func (s *ShopStore) query(ctx context.Context, op, query string, args ...interface{}) ([]models.Shop, error) {
	start := time.Now()
	defer observe(op, start)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var shops []models.Shop
	for rows.Next() {
		var (
			sh        models.Shop
			with, vib []string
		)
		err := rows.Scan(&sh.ShopID, &sh.ShopName, &sh.AreaGroup, &sh.AreaDetail, &sh.Status,
			pq.Array(&with), pq.Array(&vib), &sh.Genre, &sh.ShortDesc, &sh.Tier, &sh.TimeSlot)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		sh.RecordID = sh.ShopID
		sh.CompanionFit = models.TagList(with)
		sh.VibeFit = models.TagList(vib)
		shops = append(shops, sh)
	}
	return shops, rows.Err()
}

func observe(op string, start time.Time) {
	metrics.DatastoreQueryDuration.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())
}
