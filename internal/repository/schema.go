package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Schema creates the tables used by the complaint engine. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	full_name TEXT NOT NULL,
	role TEXT NOT NULL CHECK (role IN ('resident', 'staff', 'admin')),
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS complaints (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	category TEXT NOT NULL,
	priority TEXT NOT NULL,
	status TEXT NOT NULL CHECK (status IN ('pending', 'in_progress', 'resolved', 'cancelled')),
	submitter_id TEXT NOT NULL REFERENCES users(id),
	assignee_id TEXT REFERENCES users(id),
	notes JSONB NOT NULL DEFAULT '[]',
	attachments JSONB NOT NULL DEFAULT '[]',
	resolved_at TIMESTAMPTZ,
	feedback JSONB,
	version BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CHECK ((status = 'resolved') = (resolved_at IS NOT NULL)),
	CHECK (feedback IS NULL OR status = 'resolved')
);

CREATE INDEX IF NOT EXISTS idx_complaints_submitter ON complaints (submitter_id);
CREATE INDEX IF NOT EXISTS idx_complaints_assignee ON complaints (assignee_id);

CREATE TABLE IF NOT EXISTS complaint_assignments (
	id TEXT PRIMARY KEY,
	complaint_id TEXT NOT NULL REFERENCES complaints(id),
	assignee_id TEXT NOT NULL REFERENCES users(id),
	assigner_id TEXT NOT NULL REFERENCES users(id),
	assigned_at TIMESTAMPTZ NOT NULL,
	due_date TIMESTAMPTZ,
	status TEXT NOT NULL CHECK (status IN ('active', 'completed', 'cancelled')),
	note TEXT NOT NULL DEFAULT ''
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_complaint_assignments_active
	ON complaint_assignments (complaint_id) WHERE status = 'active';
`

// Migrate applies Schema.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
