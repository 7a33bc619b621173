// Package database holds the PostgreSQL schema of the country registry.
package database

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed migrations/000001_init.up.sql
var initMigrationUp string

//go:embed migrations/000001_init.down.sql
var initMigrationDown string

// Execer is satisfied by *pgx.Conn, *pgxpool.Pool and pgx.Tx
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// MigrateUp creates the countries table. It is safe to run on every start.
func MigrateUp(ctx context.Context, db Execer) error {
	if _, err := db.Exec(ctx, initMigrationUp); err != nil {
		return fmt.Errorf("failed to apply schema migration: %w", err)
	}
	return nil
}

// MigrateDown drops the countries table
func MigrateDown(ctx context.Context, db Execer) error {
	if _, err := db.Exec(ctx, initMigrationDown); err != nil {
		return fmt.Errorf("failed to revert schema migration: %w", err)
	}
	return nil
}
