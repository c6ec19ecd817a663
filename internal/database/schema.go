package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is idempotent DDL. Balance columns carry CHECK constraints as the last line of
// defence behind the ledger's own insufficient-funds check.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS positions (
		id                  BIGSERIAL PRIMARY KEY,
		name                TEXT NOT NULL UNIQUE,
		level               INT NOT NULL UNIQUE,
		deposit_requirement BIGINT NOT NULL DEFAULT 0,
		tasks_per_day       INT NOT NULL,
		unit_price          BIGINT NOT NULL,
		validity_days       INT NOT NULL DEFAULT 0,
		is_intern           BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id                  BIGSERIAL PRIMARY KEY,
		username            TEXT NOT NULL UNIQUE,
		password            TEXT NOT NULL,
		referral_code       TEXT NOT NULL UNIQUE,
		referrer_id         BIGINT REFERENCES users(id),
		current_position_id BIGINT REFERENCES positions(id),
		position_start_date TIMESTAMPTZ,
		is_intern           BOOLEAN NOT NULL DEFAULT TRUE,
		status              TEXT NOT NULL DEFAULT 'ACTIVE',
		role                TEXT NOT NULL DEFAULT 'user',
		wallet_balance      BIGINT NOT NULL DEFAULT 0 CHECK (wallet_balance >= 0),
		commission_balance  BIGINT NOT NULL DEFAULT 0 CHECK (commission_balance >= 0),
		total_earnings      BIGINT NOT NULL DEFAULT 0,
		fund_password       TEXT,
		version             INT NOT NULL DEFAULT 1,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS referral_hierarchy (
		id          BIGSERIAL PRIMARY KEY,
		user_id     BIGINT NOT NULL REFERENCES users(id),
		referrer_id BIGINT NOT NULL REFERENCES users(id),
		level       TEXT NOT NULL CHECK (level IN ('A_LEVEL', 'B_LEVEL', 'C_LEVEL')),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, referrer_id),
		UNIQUE (user_id, level)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_referral_hierarchy_referrer ON referral_hierarchy (referrer_id, level)`,
	`CREATE TABLE IF NOT EXISTS wallet_transactions (
		id            BIGSERIAL PRIMARY KEY,
		user_id       BIGINT NOT NULL REFERENCES users(id),
		type          TEXT NOT NULL,
		amount        BIGINT NOT NULL,
		balance_after BIGINT NOT NULL,
		description   TEXT NOT NULL DEFAULT '',
		reference_id  TEXT NOT NULL,
		status        TEXT NOT NULL DEFAULT 'COMPLETED',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (reference_id, user_id, type)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_wallet_transactions_user ON wallet_transactions (user_id, id)`,
	`CREATE INDEX IF NOT EXISTS idx_wallet_transactions_reference ON wallet_transactions (reference_id)`,
	`CREATE TABLE IF NOT EXISTS user_video_tasks (
		id              BIGSERIAL PRIMARY KEY,
		user_id         BIGINT NOT NULL REFERENCES users(id),
		video_id        BIGINT NOT NULL,
		position_id     BIGINT NOT NULL REFERENCES positions(id),
		reward          BIGINT NOT NULL,
		watched_seconds INT NOT NULL DEFAULT 0,
		watched_at      TIMESTAMPTZ NOT NULL,
		UNIQUE (user_id, video_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_user_video_tasks_day ON user_video_tasks (user_id, watched_at)`,
	`CREATE TABLE IF NOT EXISTS upgrade_commission_claims (
		user_id      BIGINT NOT NULL REFERENCES users(id),
		position_id  BIGINT NOT NULL REFERENCES positions(id),
		reference_id TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, position_id)
	)`,
	`CREATE TABLE IF NOT EXISTS upgrade_commission_payouts (
		reference_id    TEXT PRIMARY KEY,
		user_id         BIGINT NOT NULL REFERENCES users(id),
		position_id     BIGINT NOT NULL REFERENCES positions(id),
		deposit_amount  BIGINT NOT NULL,
		status          TEXT NOT NULL DEFAULT 'PENDING',
		attempts        INT NOT NULL DEFAULT 0,
		last_error      TEXT NOT NULL DEFAULT '',
		next_attempt_at TIMESTAMPTZ NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_upgrade_commission_payouts_due ON upgrade_commission_payouts (status, next_attempt_at)`,
	`CREATE TABLE IF NOT EXISTS topup_requests (
		id           BIGSERIAL PRIMARY KEY,
		user_id      BIGINT NOT NULL REFERENCES users(id),
		amount       BIGINT NOT NULL CHECK (amount > 0),
		status       TEXT NOT NULL DEFAULT 'PENDING',
		reason       TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		processed_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS withdrawal_requests (
		id           BIGSERIAL PRIMARY KEY,
		user_id      BIGINT NOT NULL REFERENCES users(id),
		amount       BIGINT NOT NULL CHECK (amount > 0),
		status       TEXT NOT NULL DEFAULT 'PENDING',
		reason       TEXT NOT NULL DEFAULT '',
		reference_id TEXT NOT NULL UNIQUE,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		processed_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS security_refund_requests (
		id           BIGSERIAL PRIMARY KEY,
		user_id      BIGINT NOT NULL REFERENCES users(id),
		amount       BIGINT NOT NULL CHECK (amount > 0),
		status       TEXT NOT NULL DEFAULT 'PENDING',
		reason       TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		processed_at TIMESTAMPTZ
	)`,
}

// EnsureSchema creates missing tables and indexes.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
