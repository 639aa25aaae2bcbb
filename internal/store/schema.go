package store

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is written to run unchanged on both postgres and sqlite: TEXT and
// INTEGER columns only, timestamps stored as RFC 3339 strings.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS auth_tokens (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		value TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS works (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		title TEXT NOT NULL,
		path TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS chapters (
		id TEXT PRIMARY KEY,
		work_id TEXT NOT NULL,
		title TEXT NOT NULL,
		number INTEGER NOT NULL,
		path TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS note_categories (
		id TEXT PRIMARY KEY,
		work_id TEXT NOT NULL,
		name TEXT NOT NULL,
		notes TEXT NOT NULL
	)`,
}

// Migrate applies the schema. Statements are idempotent so this runs on every
// startup.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
