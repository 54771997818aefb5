// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Postpen Contributors

// Package store provides the PostgreSQL connection pool and schema migrations.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Connection retry defaults.
const (
	DefaultConnectAttempts = 8
	DefaultConnectBackoff  = 250 * time.Millisecond
	DefaultConnectMaxDelay = 5 * time.Second
)

// ConnectOptions control how Connect waits for the database.
type ConnectOptions struct {
	// Attempts is the number of ping attempts before giving up.
	Attempts uint64
	// Backoff is the initial delay between attempts; it doubles each retry.
	Backoff time.Duration
	// MaxDelay caps a single delay.
	MaxDelay time.Duration
	// Logger receives a warning for every failed attempt.
	Logger *slog.Logger
}

func (o ConnectOptions) withDefaults() ConnectOptions {
	if o.Attempts == 0 {
		o.Attempts = DefaultConnectAttempts
	}
	if o.Backoff <= 0 {
		o.Backoff = DefaultConnectBackoff
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = DefaultConnectMaxDelay
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Connect opens a pool for databaseURL and waits until the server answers a ping.
// The database is commonly started alongside the service, so failed pings are
// retried with exponential backoff.
func Connect(ctx context.Context, databaseURL string, opts ConnectOptions) (*pgxpool.Pool, error) {
	opts = opts.withDefaults()

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").
			With("operation", "parse database url").
			Wrap(err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("operation", "create pool").
			Wrap(err)
	}

	backoff := retry.WithMaxRetries(opts.Attempts-1,
		retry.WithCappedDuration(opts.MaxDelay, retry.NewExponential(opts.Backoff)))

	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if pingErr := pool.Ping(ctx); pingErr != nil {
			opts.Logger.WarnContext(ctx, "database not ready",
				"attempt", attempt,
				"host", cfg.ConnConfig.Host,
				"error", pingErr.Error())
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("operation", "ping database").
			With("attempts", attempt).
			Wrap(err)
	}

	return pool, nil
}

// PoolChecker reports pool readiness for health probes.
type PoolChecker struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewPoolChecker creates a readiness checker for pool.
func NewPoolChecker(pool *pgxpool.Pool) *PoolChecker {
	return &PoolChecker{pool: pool, timeout: 2 * time.Second}
}

// IsReady returns true when the database answers a ping.
func (c *PoolChecker) IsReady() bool {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	return c.pool.Ping(ctx) == nil
}
