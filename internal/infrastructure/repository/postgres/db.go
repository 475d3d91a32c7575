package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

const schemaLockID int64 = 2026101401

const schemaDDL = `
CREATE TABLE IF NOT EXISTS movers (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	company_name TEXT NOT NULL DEFAULT '',
	siret TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	manager_firstname TEXT NOT NULL DEFAULT '',
	manager_lastname TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	postal_code TEXT NOT NULL DEFAULT '',
	city TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_movers_siret ON movers(siret);
CREATE INDEX IF NOT EXISTS idx_movers_email ON movers(lower(email));

CREATE TABLE IF NOT EXISTS trucks (
	id TEXT PRIMARY KEY,
	mover_id TEXT NOT NULL REFERENCES movers(id) ON DELETE CASCADE,
	license_plate TEXT NOT NULL DEFAULT '',
	registration_card_path TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_trucks_mover ON trucks(mover_id);

CREATE TABLE IF NOT EXISTS mover_documents (
	id TEXT PRIMARY KEY,
	mover_id TEXT NOT NULL REFERENCES movers(id) ON DELETE CASCADE,
	document_type TEXT NOT NULL,
	document_name TEXT NOT NULL DEFAULT '',
	document_url TEXT NOT NULL DEFAULT '',
	verification_status TEXT NOT NULL DEFAULT 'pending',
	expiration_date DATE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_mover_documents_mover ON mover_documents(mover_id);
CREATE INDEX IF NOT EXISTS idx_mover_documents_expiration ON mover_documents(expiration_date);

CREATE TABLE IF NOT EXISTS verification_documents (
	id TEXT PRIMARY KEY,
	mover_id TEXT NOT NULL REFERENCES movers(id) ON DELETE CASCADE,
	document_type TEXT NOT NULL,
	storage_path TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	expiration_date DATE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_verification_documents_mover ON verification_documents(mover_id);
CREATE INDEX IF NOT EXISTS idx_verification_documents_expiration ON verification_documents(expiration_date);

CREATE TABLE IF NOT EXISTS document_verifications (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	document_id TEXT NOT NULL DEFAULT '',
	document_type TEXT NOT NULL,
	document_url TEXT NOT NULL DEFAULT '',
	verification_status TEXT NOT NULL,
	verification_data JSONB NOT NULL DEFAULT '{}'::jsonb,
	confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	rejection_reason TEXT NOT NULL DEFAULT '',
	verified_by TEXT NOT NULL DEFAULT 'auto',
	verified_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_document_verifications_type ON document_verifications(document_type, user_id);

CREATE TABLE IF NOT EXISTS verification_reports (
	id TEXT PRIMARY KEY,
	mover_id TEXT NOT NULL,
	overall_status TEXT NOT NULL,
	score INTEGER NOT NULL,
	checks JSONB NOT NULL DEFAULT '[]'::jsonb,
	alerts JSONB NOT NULL DEFAULT '[]'::jsonb,
	expiration_warnings JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_verification_reports_mover ON verification_reports(mover_id, created_at DESC);

CREATE TABLE IF NOT EXISTS notifications (
	id TEXT PRIMARY KEY,
	user_id TEXT,
	notification_type TEXT NOT NULL,
	title TEXT NOT NULL,
	message TEXT NOT NULL,
	severity TEXT NOT NULL,
	related_entity_type TEXT NOT NULL DEFAULT '',
	related_entity_id TEXT NOT NULL DEFAULT '',
	is_read BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(user_id, notification_type, created_at DESC);

CREATE TABLE IF NOT EXISTS fraud_alerts (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	alert_type TEXT NOT NULL,
	severity TEXT NOT NULL,
	details JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS payment_release_requests (
	id TEXT PRIMARY KEY,
	payment_id TEXT NOT NULL,
	ai_analysis JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema creates every table the service reads or writes.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}
	if _, err := tx.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// placeholders renders "$from, $from+1, ..." for n arguments.
func placeholders(from, n int) string {
	out := make([]byte, 0, n*4)
	for i := 0; i < n; i++ {
		if i > 0 {
			out = append(out, ", "...)
		}
		out = append(out, fmt.Sprintf("$%d", from+i)...)
	}
	return string(out)
}
