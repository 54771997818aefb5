// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Postpen Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/postpen/postpen/internal/auth"
	"github.com/postpen/postpen/internal/auth/postgres"
	"github.com/postpen/postpen/internal/config"
	"github.com/postpen/postpen/internal/session"
	"github.com/postpen/postpen/internal/store"
)

// postgresDatabase is the default Database.
type postgresDatabase struct {
	pool     *pgxpool.Pool
	accounts *postgres.AccountRepository
	checker  *store.PoolChecker
}

func connectPostgres(ctx context.Context, url string, logger *slog.Logger) (Database, error) {
	pool, err := store.Connect(ctx, url, store.ConnectOptions{Logger: logger})
	if err != nil {
		return nil, err //nolint:wrapcheck // store errors carry their own oops codes
	}
	return &postgresDatabase{
		pool:     pool,
		accounts: postgres.NewAccountRepository(pool),
		checker:  store.NewPoolChecker(pool),
	}, nil
}

func (d *postgresDatabase) Accounts() auth.AccountRepository { return d.accounts }
func (d *postgresDatabase) IsReady() bool                    { return d.checker.IsReady() }
func (d *postgresDatabase) Close()                           { d.pool.Close() }

// redisBackend is the default SessionBackend for the redis store.
type redisBackend struct {
	client  *redis.Client
	store   *session.RedisStore
	checker *session.RedisChecker
}

func (b *redisBackend) Store() session.Store { return b.store }
func (b *redisBackend) IsReady() bool        { return b.checker.IsReady() }

func (b *redisBackend) Close() error {
	if err := b.client.Close(); err != nil {
		return oops.Code("SESSION_CLOSE_FAILED").Wrap(err)
	}
	return nil
}

// memoryBackend keeps sessions in process memory.
type memoryBackend struct {
	store *session.MemoryStore
}

func (b *memoryBackend) Store() session.Store { return b.store }
func (b *memoryBackend) IsReady() bool        { return true }
func (b *memoryBackend) Close() error         { return nil }

func openSessionBackend(ctx context.Context, cfg config.SessionConfig) (SessionBackend, error) {
	switch cfg.Store {
	case config.SessionStoreMemory:
		return &memoryBackend{store: session.NewMemoryStore()}, nil
	case config.SessionStoreRedis:
		client, err := session.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err //nolint:wrapcheck // session errors carry their own oops codes
		}
		return &redisBackend{
			client:  client,
			store:   session.NewRedisStore(client),
			checker: session.NewRedisChecker(client),
		}, nil
	default:
		return nil, oops.Code("CONFIG_INVALID").
			With("store", cfg.Store).
			Errorf("unknown session store %q", cfg.Store)
	}
}

func openMigrator(url string) (Migrator, error) {
	m, err := store.NewMigrator(url)
	if err != nil {
		return nil, err //nolint:wrapcheck // store errors carry their own oops codes
	}
	return m, nil
}
