// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Postpen Contributors

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/postpen/postpen/internal/api"
	"github.com/postpen/postpen/internal/auth"
	"github.com/postpen/postpen/internal/config"
	"github.com/postpen/postpen/internal/logging"
	"github.com/postpen/postpen/internal/observability"
	"github.com/postpen/postpen/internal/session"
	"github.com/postpen/postpen/pkg/errutil"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand. deps may be nil.
func NewServeCmd(deps *ServeDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the JSON API server along with the metrics and health endpoints.
Pending migrations are applied first unless database.auto_migrate is false.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServeWithDeps(ctx, cfg, cmd, deps)
		},
	}

	config.RegisterFlags(cmd.Flags())
	return cmd
}

func (d *ServeDeps) withDefaults() *ServeDeps {
	out := ServeDeps{}
	if d != nil {
		out = *d
	}
	if out.DatabaseFactory == nil {
		out.DatabaseFactory = connectPostgres
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = openMigrator
	}
	if out.SessionStoreFactory == nil {
		out.SessionStoreFactory = openSessionBackend
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer {
			return observability.NewServer(addr, ready, logger)
		}
	}
	if out.APIServerFactory == nil {
		out.APIServerFactory = func(addr string, handler http.Handler, logger *slog.Logger) APIServer {
			return api.NewServer(addr, handler, logger)
		}
	}
	return &out
}

// runServeWithDeps boots every component, serves until ctx is cancelled or a
// server fails, then shuts down.
func runServeWithDeps(ctx context.Context, cfg *config.Config, cmd *cobra.Command, deps *ServeDeps) error {
	deps = deps.withDefaults()

	if err := cfg.Validate(); err != nil {
		return err //nolint:wrapcheck // already a CONFIG_INVALID oops error
	}

	logger := logging.Setup("postpen", version, cfg.Log.Format, cfg.Log.Level, deps.LogWriter)
	logger.Info("starting postpen",
		"http_addr", cfg.HTTP.Addr,
		"metrics_addr", cfg.Metrics.Addr,
		"session_store", cfg.Session.Store,
	)

	if cfg.Database.AutoMigrate {
		if err := autoMigrate(deps, cfg.Database.URL, logger); err != nil {
			return err
		}
	}

	db, err := deps.DatabaseFactory(ctx, cfg.Database.URL, logger)
	if err != nil {
		return oops.With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()
	logger.Info("connected to database")

	sessions, err := deps.SessionStoreFactory(ctx, cfg.Session)
	if err != nil {
		return oops.With("operation", "open session store").Wrap(err)
	}
	defer func() {
		if closeErr := sessions.Close(); closeErr != nil {
			logger.Warn("error closing session store", "error", closeErr.Error())
		}
	}()

	hasher := auth.NewArgon2idHasherWithParams(auth.Argon2Params{
		Time:    cfg.Hasher.Time,
		Memory:  cfg.Hasher.MemoryKiB,
		Threads: cfg.Hasher.Threads,
	})
	authService, err := auth.NewServiceWithLogger(db.Accounts(), hasher, logger.With("component", "auth"))
	if err != nil {
		return oops.With("operation", "create auth service").Wrap(err)
	}

	manager, err := session.NewManager(sessions.Store(), session.Options{
		CookieName: cfg.Session.CookieName,
		Secret:     cfg.Session.Secret,
		MaxAge:     cfg.Session.MaxAge,
		Secure:     cfg.Session.Secure,
	}, logger.With("component", "session"))
	if err != nil {
		return oops.With("operation", "create session manager").Wrap(err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	failures := make(chan error, 2)

	var obsServer ObservabilityServer
	var metrics *observability.Metrics
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr,
			observability.AllReady(db.IsReady, sessions.IsReady), logger)
		obsErrCh, startErr := obsServer.Start()
		if startErr != nil {
			return oops.With("operation", "start observability server").Wrap(startErr)
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, failures, "observability", logger)
		metrics = obsServer.Metrics()
	}

	handler, err := api.NewHandler(api.Deps{
		Auth:     authService,
		Sessions: manager,
		Metrics:  metrics,
		Logger:   logger.With("component", "api"),
	})
	if err != nil {
		stopServers(logger, obsServer, nil)
		return oops.With("operation", "create api handler").Wrap(err)
	}

	apiServer := deps.APIServerFactory(cfg.HTTP.Addr, handler, logger)
	apiErrCh, err := apiServer.Start()
	if err != nil {
		stopServers(logger, obsServer, nil)
		return oops.With("operation", "start api server").Wrap(err)
	}
	go monitorServerErrors(ctx, cancel, apiErrCh, failures, "api", logger)

	cmd.Println("Postpen started on " + apiServer.Addr())
	logger.Info("postpen ready", "addr", apiServer.Addr())

	<-ctx.Done()
	logger.Info("shutting down...")

	stopServers(logger, obsServer, apiServer)
	logger.Info("shutdown complete")

	select {
	case err := <-failures:
		return oops.Code("SERVE_FAILED").Wrap(err)
	default:
		return nil
	}
}

// autoMigrate applies pending migrations before the database is used.
func autoMigrate(deps *ServeDeps, url string, logger *slog.Logger) error {
	migrator, err := deps.MigratorFactory(url)
	if err != nil {
		return oops.With("operation", "open migrator").Wrap(err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Warn("error closing migrator", "error", closeErr.Error())
		}
	}()

	if err := migrator.Up(); err != nil {
		return oops.With("operation", "apply migrations").Wrap(err)
	}
	logger.Info("database schema up to date")
	return nil
}

// stopServers stops the API server before the observability server.
func stopServers(logger *slog.Logger, obsServer ObservabilityServer, apiServer APIServer) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if apiServer != nil {
		if err := apiServer.Stop(ctx); err != nil {
			errutil.LogError(logger, "error stopping api server", err)
		}
	}
	if obsServer != nil {
		if err := obsServer.Stop(ctx); err != nil {
			errutil.LogError(logger, "error stopping observability server", err)
		}
	}
}

// monitorServerErrors forwards a server error to failures and cancels ctx.
// It exits when an error arrives, the channel closes, or ctx ends.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, failures chan<- error, serverName string, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			logger.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err.Error(),
			)
			failures <- oops.With("server", serverName).Wrap(err)
			cancel()
		}
	case <-ctx.Done():
	}
}
