package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied idempotently by Migrate. trips and trip_members are
// owned by the trip service; they are created here so a standalone
// deployment has somewhere to read membership from.
const schema = `
CREATE TABLE IF NOT EXISTS trips (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS trip_members (
	id        BIGSERIAL PRIMARY KEY,
	trip_id   BIGINT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
	user_id   BIGINT NOT NULL,
	role      TEXT NOT NULL DEFAULT 'member',
	joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (trip_id, user_id)
);

CREATE TABLE IF NOT EXISTS expenses (
	id            BIGSERIAL PRIMARY KEY,
	trip_id       BIGINT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
	payer_id      BIGINT NOT NULL,
	title         TEXT NOT NULL,
	description   TEXT,
	amount_cents  BIGINT NOT NULL CHECK (amount_cents > 0),
	currency      CHAR(3) NOT NULL,
	category      TEXT NOT NULL DEFAULT 'other',
	status        TEXT NOT NULL DEFAULT 'pending',
	expense_date  TIMESTAMPTZ NOT NULL,
	receipt_url   TEXT,
	split_equally BOOLEAN NOT NULL DEFAULT TRUE,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_expenses_trip ON expenses (trip_id, expense_date DESC);

CREATE TABLE IF NOT EXISTS expense_members (
	id          BIGSERIAL PRIMARY KEY,
	expense_id  BIGINT NOT NULL REFERENCES expenses(id) ON DELETE CASCADE,
	user_id     BIGINT NOT NULL,
	is_included BOOLEAN NOT NULL DEFAULT TRUE,
	UNIQUE (expense_id, user_id)
);

CREATE TABLE IF NOT EXISTS expense_splits (
	id           BIGSERIAL PRIMARY KEY,
	expense_id   BIGINT NOT NULL REFERENCES expenses(id) ON DELETE CASCADE,
	user_id      BIGINT NOT NULL,
	amount_cents BIGINT NOT NULL CHECK (amount_cents >= 0),
	is_paid      BOOLEAN NOT NULL DEFAULT FALSE,
	paid_at      TIMESTAMPTZ,
	notes        TEXT,
	UNIQUE (expense_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_expense_splits_user ON expense_splits (user_id, is_paid);

CREATE TABLE IF NOT EXISTS settlements (
	id              BIGSERIAL PRIMARY KEY,
	trip_id         BIGINT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
	from_user_id    BIGINT NOT NULL,
	to_user_id      BIGINT NOT NULL,
	amount_cents    BIGINT NOT NULL CHECK (amount_cents > 0),
	currency        CHAR(3) NOT NULL,
	notes           TEXT,
	confirmed       BOOLEAN NOT NULL DEFAULT FALSE,
	confirmed_at    TIMESTAMPTZ,
	settlement_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	created_by      BIGINT NOT NULL,
	CHECK (from_user_id <> to_user_id)
);

CREATE INDEX IF NOT EXISTS idx_settlements_trip ON settlements (trip_id, settlement_date DESC);

CREATE TABLE IF NOT EXISTS notifications (
	id                  BIGSERIAL PRIMARY KEY,
	recipient_id        BIGINT NOT NULL,
	type                TEXT NOT NULL,
	message             TEXT NOT NULL,
	is_read             BOOLEAN NOT NULL DEFAULT FALSE,
	related_entity_type TEXT,
	related_entity_id   BIGINT,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications (recipient_id, is_read);
`

// Migrate creates the schema when it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
