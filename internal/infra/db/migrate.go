package db

import (
	"context"
	"database/sql"
	"fmt"
)

// MigrateUp creates the watermarks table for the given driver.
// Postgres stores the instant as TIMESTAMPTZ; SQLite stores unix nanoseconds
// so that ordering comparisons stay exact.
func MigrateUp(ctx context.Context, db *sql.DB, driver string) error {
	var ddl string
	switch driver {
	case DriverPostgres:
		ddl = `
CREATE TABLE IF NOT EXISTS watermarks (
    key          TEXT PRIMARY KEY,
    watermark    TIMESTAMPTZ NOT NULL,
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	case DriverSQLite:
		ddl = `
CREATE TABLE IF NOT EXISTS watermarks (
    key          TEXT PRIMARY KEY,
    watermark_ns INTEGER NOT NULL,
    updated_at   INTEGER NOT NULL
)`
	default:
		return fmt.Errorf("MigrateUp: unsupported driver %q", driver)
	}

	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("MigrateUp: %w", err)
	}
	return nil
}

// MigrateDown drops the watermarks table. Every key falls back to the
// default look-back afterwards.
func MigrateDown(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS watermarks`); err != nil {
		return fmt.Errorf("MigrateDown: %w", err)
	}
	return nil
}
