package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Granary store (SQLite).
var Migrations = migrate.NewGroup("granary")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_granary_batches",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS granary_batches (
    id                    TEXT PRIMARY KEY,
    label                 TEXT NOT NULL DEFAULT '',
    currency              TEXT NOT NULL DEFAULT '',
    price_amount_cents    INTEGER NOT NULL DEFAULT 0,
    price_currency        TEXT NOT NULL DEFAULT '',
    buyer                 TEXT NOT NULL DEFAULT '',
    received_amount_cents INTEGER NOT NULL DEFAULT 0,
    received_currency     TEXT NOT NULL DEFAULT '',
    created_at            TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at            TEXT NOT NULL DEFAULT (datetime('now'))
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS granary_batches`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_granary_contributions",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS granary_contributions (
    row_key           TEXT PRIMARY KEY,
    pool_id           TEXT NOT NULL DEFAULT '',
    member_id         TEXT NOT NULL DEFAULT '',
    display_name      TEXT NOT NULL DEFAULT '',
    contact_phone     TEXT NOT NULL DEFAULT '',
    quantity_kg       INTEGER NOT NULL DEFAULT 0,
    paid              INTEGER NOT NULL DEFAULT 0,
    paid_amount_cents INTEGER NOT NULL DEFAULT 0,
    paid_currency     TEXT NOT NULL DEFAULT '',
    position          INTEGER NOT NULL DEFAULT 0,
    created_at        TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at        TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_granary_contributions_pool_member ON granary_contributions (pool_id, member_id);
CREATE INDEX IF NOT EXISTS idx_granary_contributions_pool_position ON granary_contributions (pool_id, position);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS granary_contributions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_granary_receipts",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS granary_receipts (
    id           TEXT PRIMARY KEY,
    pool_id      TEXT NOT NULL DEFAULT '',
    member_id    TEXT NOT NULL DEFAULT '',
    amount_cents INTEGER NOT NULL DEFAULT 0,
    currency     TEXT NOT NULL DEFAULT '',
    quantity_kg  INTEGER NOT NULL DEFAULT 0,
    created_at   TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at   TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_granary_receipts_pool ON granary_receipts (pool_id);
CREATE INDEX IF NOT EXISTS idx_granary_receipts_pool_member ON granary_receipts (pool_id, member_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS granary_receipts`)
				return err
			},
		},
	)
}
