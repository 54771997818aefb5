// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Postpen Contributors

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"testing"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postpen/postpen/internal/api"
	"github.com/postpen/postpen/internal/auth"
	"github.com/postpen/postpen/internal/auth/authtest"
	"github.com/postpen/postpen/internal/config"
	"github.com/postpen/postpen/internal/observability"
	"github.com/postpen/postpen/pkg/errutil"
)

type fakeDatabase struct {
	accounts *authtest.AccountRepository
	closed   bool
}

func (d *fakeDatabase) Accounts() auth.AccountRepository { return d.accounts }
func (d *fakeDatabase) IsReady() bool                    { return true }
func (d *fakeDatabase) Close()                           { d.closed = true }

// startedAPIServer reports its address once listening.
type startedAPIServer struct {
	*api.Server
	started chan string
}

func (s *startedAPIServer) Start() (<-chan error, error) {
	ch, err := s.Server.Start()
	if err == nil {
		s.started <- s.Addr()
	}
	return ch, err //nolint:wrapcheck // passthrough
}

// startedObsServer reports its address once listening.
type startedObsServer struct {
	*observability.Server
	started chan string
}

func (s *startedObsServer) Start() (<-chan error, error) {
	ch, err := s.Server.Start()
	if err == nil {
		s.started <- s.Addr()
	}
	return ch, err //nolint:wrapcheck // passthrough
}

// failingAPIServer reports a serve error right after starting.
type failingAPIServer struct {
	errCh chan error
}

func (s *failingAPIServer) Start() (<-chan error, error) {
	s.errCh <- errors.New("accept tcp: too many open files")
	return s.errCh, nil
}
func (s *failingAPIServer) Stop(context.Context) error { return nil }
func (s *failingAPIServer) Addr() string                { return "127.0.0.1:1" }

func testConfig() *config.Config {
	return &config.Config{
		HTTP:     config.HTTPConfig{Addr: "127.0.0.1:0"},
		Metrics:  config.MetricsConfig{Addr: "127.0.0.1:0"},
		Log:      config.LogConfig{Format: "json", Level: "error"},
		Database: config.DatabaseConfig{URL: "postgres://fake/postpen", AutoMigrate: true},
		Session: config.SessionConfig{
			Store:      config.SessionStoreMemory,
			CookieName: "qid",
			Secret:     "test-secret",
			MaxAge:     time.Hour,
		},
		Hasher: config.HasherConfig{Time: 1, MemoryKiB: 1024, Threads: 1},
	}
}

type serveHarness struct {
	deps       *ServeDeps
	db         *fakeDatabase
	migrator   *fakeMigrator
	apiAddr    chan string
	obsAddr    chan string
	dbRequests int
}

func newServeHarness() *serveHarness {
	h := &serveHarness{
		db:       &fakeDatabase{accounts: authtest.NewAccountRepository()},
		migrator: &fakeMigrator{},
		apiAddr:  make(chan string, 1),
		obsAddr:  make(chan string, 1),
	}
	h.deps = &ServeDeps{
		DatabaseFactory: func(context.Context, string, *slog.Logger) (Database, error) {
			h.dbRequests++
			return h.db, nil
		},
		MigratorFactory: h.migrator.factory(),
		ObservabilityServerFactory: func(addr string, ready observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer {
			return &startedObsServer{Server: observability.NewServer(addr, ready, logger), started: h.obsAddr}
		},
		APIServerFactory: func(addr string, handler http.Handler, logger *slog.Logger) APIServer {
			return &startedAPIServer{Server: api.NewServer(addr, handler, logger), started: h.apiAddr}
		},
		LogWriter: io.Discard,
	}
	return h
}

func waitAddr(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case addr := <-ch:
		return addr
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
		return ""
	}
}

func postJSON(t *testing.T, client *http.Client, url, body string) api.UserResponse {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out api.UserResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func getBody(t *testing.T, client *http.Client, url string) (int, string) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServe_EndToEnd(t *testing.T) {
	h := newServeHarness()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := new(bytes.Buffer)
	cmd := &cobra.Command{}
	cmd.SetOut(out)

	done := make(chan error, 1)
	go func() { done <- runServeWithDeps(ctx, testConfig(), cmd, h.deps) }()

	obsAddr := waitAddr(t, h.obsAddr)
	apiAddr := waitAddr(t, h.apiAddr)
	base := "http://" + apiAddr

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar, Transport: &http.Transport{}}
	defer client.CloseIdleConnections()

	res := postJSON(t, client, base+"/api/register", `{"username":"alice","password":"abcdef"}`)
	require.Empty(t, res.Errors)
	res = postJSON(t, client, base+"/api/login", `{"username":"alice","password":"abcdef"}`)
	require.Empty(t, res.Errors)

	status, body := getBody(t, client, base+"/api/me")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"username":"alice"`)

	status, body = getBody(t, client, "http://"+obsAddr+"/healthz/readiness")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", strings.TrimSpace(body))

	_, body = getBody(t, client, "http://"+obsAddr+"/metrics")
	assert.Contains(t, body, `postpen_auth_results_total{operation="login",outcome="success"} 1`)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("serve did not shut down")
	}

	assert.Equal(t, []string{"up"}, h.migrator.calls)
	assert.True(t, h.migrator.closed)
	assert.True(t, h.db.closed)
	assert.Contains(t, out.String(), "Postpen started on "+apiAddr)
}

func TestServe_InvalidConfig(t *testing.T) {
	h := newServeHarness()
	cfg := testConfig()
	cfg.Session.Secret = ""

	err := runServeWithDeps(context.Background(), cfg, &cobra.Command{}, h.deps)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	assert.Empty(t, h.migrator.calls)
	assert.Zero(t, h.dbRequests)
}

func TestServe_MigrationFailureStopsStartup(t *testing.T) {
	h := newServeHarness()
	h.migrator.upErr = oops.Code("MIGRATION_UP_FAILED").Errorf("relation already exists")

	err := runServeWithDeps(context.Background(), testConfig(), &cobra.Command{}, h.deps)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_UP_FAILED")
	assert.Zero(t, h.dbRequests)
	assert.True(t, h.migrator.closed)
}

func TestServe_AutoMigrateDisabled(t *testing.T) {
	h := newServeHarness()
	cfg := testConfig()
	cfg.Database.AutoMigrate = false
	cfg.Metrics.Addr = ""

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServeWithDeps(ctx, cfg, &cobra.Command{}, h.deps) }()

	waitAddr(t, h.apiAddr)
	cancel()
	require.NoError(t, <-done)
	assert.Empty(t, h.migrator.calls)
	assert.Empty(t, h.obsAddr, "metrics server disabled")
}

func TestServe_DatabaseFailure(t *testing.T) {
	h := newServeHarness()
	h.deps.DatabaseFactory = func(context.Context, string, *slog.Logger) (Database, error) {
		return nil, oops.Code("DB_CONNECT_FAILED").Errorf("connection refused")
	}

	err := runServeWithDeps(context.Background(), testConfig(), &cobra.Command{}, h.deps)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "DB_CONNECT_FAILED")
}

func TestServe_ServerFailureTriggersShutdown(t *testing.T) {
	h := newServeHarness()
	cfg := testConfig()
	cfg.Metrics.Addr = ""
	h.deps.APIServerFactory = func(string, http.Handler, *slog.Logger) APIServer {
		return &failingAPIServer{errCh: make(chan error, 1)}
	}

	done := make(chan error, 1)
	go func() { done <- runServeWithDeps(context.Background(), cfg, &cobra.Command{}, h.deps) }()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too many open files")
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after server failure")
	}
	assert.True(t, h.db.closed)
}

func TestOpenSessionBackend(t *testing.T) {
	backend, err := openSessionBackend(context.Background(), config.SessionConfig{Store: config.SessionStoreMemory})
	require.NoError(t, err)
	assert.True(t, backend.IsReady())
	assert.NotNil(t, backend.Store())
	assert.NoError(t, backend.Close())

	_, err = openSessionBackend(context.Background(), config.SessionConfig{Store: "disk"})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")

	_, err = openSessionBackend(context.Background(), config.SessionConfig{Store: config.SessionStoreRedis, RedisURL: "not a url"})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "SESSION_REDIS_CONFIG_INVALID")
}
