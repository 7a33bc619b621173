// Package db contains code for connecting to the database.
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/country-registry/internal/config"
)

const (
	defaultMaxOpenConns    = 10
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnectTimeout  = 30 * time.Second
)

// Connection wraps the pgx connection pool
type Connection struct {
	Pool *pgxpool.Pool
}

// NewConnection creates a pool from the provided configuration and waits for the
// database to answer a ping, retrying with exponential backoff until ConnectTimeout.
func NewConnection(ctx context.Context, cfg *config.DatabaseConfig) (*Connection, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration is required")
	}

	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	connectTimeout := defaultConnectTimeout
	if cfg.ConnectTimeout != "" {
		connectTimeout, err = time.ParseDuration(cfg.ConnectTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid connect timeout: %w", err)
		}
	}

	pool, err := backoff.Retry(ctx, func() (*pgxpool.Pool, error) {
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg.Copy())
		if err != nil {
			// a config the pool rejects will not get better
			return nil, backoff.Permanent(err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return pool, nil
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(connectTimeout),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.Warn("Database not reachable yet, retrying",
				"host", cfg.Host,
				"retry_in", next,
				"error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("Database connection established",
		"user", cfg.User,
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.Database)

	return &Connection{Pool: pool}, nil
}

func poolConfig(cfg *config.DatabaseConfig) (*pgxpool.Config, error) {
	connString, err := cfg.GetConnectionString()
	if err != nil {
		return nil, fmt.Errorf("failed to build connection string: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxOpenConns
	if poolCfg.MaxConns == 0 {
		poolCfg.MaxConns = defaultMaxOpenConns
	}

	poolCfg.MaxConnLifetime = defaultConnMaxLifetime
	if cfg.ConnMaxLifetime != "" {
		lifetime, err := time.ParseDuration(cfg.ConnMaxLifetime)
		if err != nil {
			return nil, fmt.Errorf("invalid connection max lifetime: %w", err)
		}
		poolCfg.MaxConnLifetime = lifetime
	}

	return poolCfg, nil
}

// Close closes the pool
func (c *Connection) Close() {
	if c != nil && c.Pool != nil {
		c.Pool.Close()
	}
}
