package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// migrations is an ordered list of idempotent DDL statements applied at
// startup.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS visitors (
		id                   BIGSERIAL PRIMARY KEY,
		pass_id              TEXT        NOT NULL UNIQUE,
		name                 TEXT        NOT NULL,
		phone                TEXT        NOT NULL,
		visitor_type         TEXT        NOT NULL DEFAULT 'Visitor',
		company_type         TEXT        NOT NULL DEFAULT '',
		company              TEXT        NOT NULL DEFAULT '',
		rico_unit            TEXT        NOT NULL DEFAULT '',
		visit_type           TEXT        NOT NULL,
		person_to_meet       TEXT        NOT NULL,
		department           TEXT        NOT NULL DEFAULT '',
		id_proof_type        TEXT        NOT NULL DEFAULT '',
		id_proof_number      TEXT        NOT NULL DEFAULT '',
		carries_laptop       BOOLEAN     NOT NULL DEFAULT FALSE,
		laptop_serial_number TEXT        NOT NULL DEFAULT '',
		remarks              TEXT        NOT NULL DEFAULT '',
		is_vip               BOOLEAN     NOT NULL DEFAULT FALSE,
		vip_access_id        TEXT        NOT NULL DEFAULT '',
		qr_payload           TEXT        NOT NULL DEFAULT '',
		status               TEXT        NOT NULL DEFAULT 'active',
		date                 TIMESTAMPTZ NOT NULL DEFAULT now(),
		time_in              TIMESTAMPTZ NOT NULL DEFAULT now(),
		time_out             TIMESTAMPTZ,
		created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_visitors_phone ON visitors (phone)`,
	`CREATE INDEX IF NOT EXISTS idx_visitors_status ON visitors (status)`,
	`CREATE INDEX IF NOT EXISTS idx_visitors_date ON visitors (date)`,
	`CREATE INDEX IF NOT EXISTS idx_visitors_is_vip ON visitors (is_vip)`,
	`CREATE INDEX IF NOT EXISTS idx_visitors_name_lower ON visitors (lower(name))`,
	`CREATE TABLE IF NOT EXISTS vip_passes (
		id                  BIGSERIAL PRIMARY KEY,
		vip_access_id       TEXT        NOT NULL UNIQUE,
		label               TEXT        NOT NULL DEFAULT 'VIP',
		status              TEXT        NOT NULL DEFAULT 'active',
		issue_count         INTEGER     NOT NULL DEFAULT 0,
		last_issued_pass_id TEXT        NOT NULL DEFAULT '',
		last_issued_at      TIMESTAMPTZ,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS rate_limits (
		key          TEXT PRIMARY KEY,
		count        INTEGER     NOT NULL,
		window_start TIMESTAMPTZ NOT NULL,
		expires_at   TIMESTAMPTZ NOT NULL
	)`,
}

// Migrate applies all migrations in order.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, m := range migrations {
		if _, err := pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
