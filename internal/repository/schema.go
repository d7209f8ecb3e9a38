package repository

import (
	"context"
	"fmt"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/common"
)

const documentsTableSQLite = `CREATE TABLE IF NOT EXISTS documents (
	id                TEXT PRIMARY KEY,
	filename          TEXT NOT NULL,
	source_path       TEXT NOT NULL,
	kind              TEXT NOT NULL,
	status            TEXT NOT NULL,
	pages             INTEGER NOT NULL DEFAULT 0,
	text_output_path  TEXT,
	table_output_path TEXT,
	error_message     TEXT,
	created_at        DATETIME NOT NULL,
	started_at        DATETIME,
	finished_at       DATETIME
)`

const documentsTablePostgres = `CREATE TABLE IF NOT EXISTS documents (
	id                UUID PRIMARY KEY,
	filename          TEXT NOT NULL,
	source_path       TEXT NOT NULL,
	kind              TEXT NOT NULL,
	status            TEXT NOT NULL,
	pages             INTEGER NOT NULL DEFAULT 0,
	text_output_path  TEXT,
	table_output_path TEXT,
	error_message     TEXT,
	created_at        TIMESTAMPTZ NOT NULL,
	started_at        TIMESTAMPTZ,
	finished_at       TIMESTAMPTZ
)`

const documentsCreatedIndex = `CREATE INDEX IF NOT EXISTS documents_created_at_idx ON documents (created_at)`

// Migrate creates the documents table and its index.
func Migrate(ctx context.Context, db *DB) error {
	ddl := documentsTableSQLite
	if db.Dialect == DialectPostgres {
		ddl = documentsTablePostgres
	}
	for _, stmt := range []string{ddl, documentsCreatedIndex} {
		if _, err := db.SQL.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: migrate: %v", common.ErrDatabase, err)
		}
	}
	return nil
}
