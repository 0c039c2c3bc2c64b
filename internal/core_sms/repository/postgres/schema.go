package postgres

import (
	"context"
	"fmt"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS outbound_messages (
	id           UUID PRIMARY KEY,
	recipient    TEXT NOT NULL,
	display_name TEXT,
	body         TEXT NOT NULL,
	provider_ref TEXT,
	status       TEXT NOT NULL,
	error_info   TEXT,
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_outbound_messages_provider_ref ON outbound_messages (provider_ref);
CREATE INDEX IF NOT EXISTS idx_outbound_messages_created_at ON outbound_messages (created_at DESC);

CREATE TABLE IF NOT EXISTS inbound_messages (
	id         UUID PRIMARY KEY,
	sender     TEXT NOT NULL,
	body       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_inbound_messages_created_at ON inbound_messages (created_at DESC);

CREATE TABLE IF NOT EXISTS opt_outs (
	id         UUID PRIMARY KEY,
	identifier TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema creates the tables and indexes if they do not exist yet.
func EnsureSchema(ctx context.Context, db Querier) error {
	if _, err := db.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}
