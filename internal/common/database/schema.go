package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema is applied statement by statement; every statement is idempotent.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS shops (
		shop_id     TEXT PRIMARY KEY,
		shop_name   TEXT NOT NULL,
		area_group  TEXT NOT NULL,
		area_detail TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL DEFAULT 'active',
		best_with   TEXT[] NOT NULL DEFAULT '{}',
		best_vibe   TEXT[] NOT NULL DEFAULT '{}',
		genre       TEXT NOT NULL DEFAULT '',
		short_desc  TEXT NOT NULL DEFAULT '',
		tier        TEXT NOT NULL DEFAULT '',
		time_slot   TEXT NOT NULL DEFAULT '',
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS shops_area_status_idx ON shops (area_group, status)`,
	`CREATE TABLE IF NOT EXISTS purchases (
		id             UUID PRIMARY KEY,
		session_id     TEXT NOT NULL,
		payment_status TEXT NOT NULL DEFAULT '',
		amount_total   BIGINT,
		currency       TEXT NOT NULL DEFAULT '',
		plan           TEXT NOT NULL DEFAULT '',
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		customer_email TEXT NOT NULL DEFAULT '',
		area_groups    TEXT NOT NULL DEFAULT '',
		who            TEXT NOT NULL DEFAULT '',
		vibes          TEXT NOT NULL DEFAULT '',
		ga_client_id   TEXT NOT NULL DEFAULT '',
		hearing        TEXT NOT NULL DEFAULT '',
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS purchases_session_idx ON purchases (session_id, created_at)`,
}

// Migrate applies Schema in order.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
