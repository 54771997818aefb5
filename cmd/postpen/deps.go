// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Postpen Contributors

package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/postpen/postpen/internal/auth"
	"github.com/postpen/postpen/internal/config"
	"github.com/postpen/postpen/internal/observability"
	"github.com/postpen/postpen/internal/session"
	"github.com/postpen/postpen/internal/store"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// DatabaseFactory connects to the account database.
	// Default: store.Connect + postgres.NewAccountRepository
	DatabaseFactory func(ctx context.Context, url string, logger *slog.Logger) (Database, error)

	// MigratorFactory opens a schema migrator.
	// Default: store.NewMigrator
	MigratorFactory MigratorFactory

	// SessionStoreFactory opens the session store selected by configuration.
	// Default: session.RedisStore or session.MemoryStore
	SessionStoreFactory func(ctx context.Context, cfg config.SessionConfig) (SessionBackend, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, ready observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer

	// APIServerFactory creates the API server.
	// Default: api.NewServer
	APIServerFactory func(addr string, handler http.Handler, logger *slog.Logger) APIServer

	// LogWriter receives log output. Default: os.Stderr
	LogWriter io.Writer
}

// Database is an open account database.
type Database interface {
	Accounts() auth.AccountRepository
	IsReady() bool
	Close()
}

// SessionBackend is an open session store.
type SessionBackend interface {
	Store() session.Store
	IsReady() bool
	Close() error
}

// Migrator wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Force(version int) error
	Status() (*store.MigrationStatus, error)
	Close() error
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

// APIServer wraps the methods used from api.Server.
type APIServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}
