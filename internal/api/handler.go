// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Postpen Contributors

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/postpen/postpen/internal/auth"
	"github.com/postpen/postpen/internal/observability"
	"github.com/postpen/postpen/internal/session"
	"github.com/postpen/postpen/pkg/errutil"
)

// maxBodyBytes bounds register and login request bodies.
const maxBodyBytes = 1 << 20

// AuthService is the subset of auth.Service the handlers use.
type AuthService interface {
	ListUsers(ctx context.Context) ([]*auth.Account, error)
	CurrentUser(ctx context.Context, sess auth.Session) (*auth.Account, error)
	Register(ctx context.Context, creds auth.Credentials) (*auth.Result, error)
	Login(ctx context.Context, creds auth.Credentials, sess auth.Session) (*auth.Result, error)
}

// SessionManager loads and commits cookie-backed sessions.
type SessionManager interface {
	Load(ctx context.Context, r *http.Request) (*session.Session, error)
	Commit(ctx context.Context, w http.ResponseWriter, s *session.Session) error
}

// Deps are the collaborators of the HTTP handler.
type Deps struct {
	Auth     AuthService
	Sessions SessionManager
	// Metrics may be nil.
	Metrics *observability.Metrics
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

type handler struct {
	auth     AuthService
	sessions SessionManager
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewHandler returns the API routes wrapped in panic recovery, a trace span,
// and request logging with metrics.
func NewHandler(deps Deps) (http.Handler, error) {
	if deps.Auth == nil {
		return nil, oops.Code("API_INVALID_HANDLER").Errorf("auth service is required")
	}
	if deps.Sessions == nil {
		return nil, oops.Code("API_INVALID_HANDLER").Errorf("session manager is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	h := &handler{
		auth:     deps.Auth,
		sessions: deps.Sessions,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users", h.handleUsers)
	mux.HandleFunc("GET /api/me", h.handleMe)
	mux.HandleFunc("POST /api/register", h.handleRegister)
	mux.HandleFunc("POST /api/login", h.handleLogin)

	return chain(mux,
		recoverer(h.logger),
		traced(),
		observe(h.logger, h.metrics),
	), nil
}

func (h *handler) handleUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accounts, err := h.auth.ListUsers(ctx)
	if err != nil {
		h.fail(ctx, w, "list users failed", err)
		return
	}

	users := make([]User, 0, len(accounts))
	for _, a := range accounts {
		users = append(users, *toUser(a))
	}
	writeJSON(w, http.StatusOK, UsersResponse{Users: users})
}

func (h *handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, err := h.sessions.Load(ctx, r)
	if err != nil {
		h.fail(ctx, w, "load session failed", err)
		return
	}

	account, err := h.auth.CurrentUser(ctx, sess)
	if err != nil {
		h.fail(ctx, w, "current user failed", err)
		return
	}
	writeJSON(w, http.StatusOK, MeResponse{User: toUser(account)})
}

func (h *handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	creds, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	res, err := h.auth.Register(ctx, creds)
	if err != nil {
		h.metrics.ObserveAuthResult("register", "error")
		h.fail(ctx, w, "register failed", err)
		return
	}
	h.metrics.ObserveAuthResult("register", outcome(res))
	writeJSON(w, http.StatusOK, toUserResponse(res))
}

func (h *handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	creds, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	sess, err := h.sessions.Load(ctx, r)
	if err != nil {
		h.fail(ctx, w, "load session failed", err)
		return
	}

	res, err := h.auth.Login(ctx, creds, sess)
	if err != nil {
		h.metrics.ObserveAuthResult("login", "error")
		h.fail(ctx, w, "login failed", err)
		return
	}

	// Commit before the body so Set-Cookie is part of the response headers.
	if err := h.sessions.Commit(ctx, w, sess); err != nil {
		h.metrics.ObserveAuthResult("login", "error")
		h.fail(ctx, w, "commit session failed", err)
		return
	}

	h.metrics.ObserveAuthResult("login", outcome(res))
	writeJSON(w, http.StatusOK, toUserResponse(res))
}

func (h *handler) decodeCredentials(w http.ResponseWriter, r *http.Request) (auth.Credentials, bool) {
	var body CredentialsRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		h.logger.DebugContext(r.Context(), "rejecting request body", "error", err.Error())
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return auth.Credentials{}, false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return auth.Credentials{}, false
	}
	return auth.Credentials{Username: body.Username, Password: body.Password}, true
}

// fail logs err with its oops context and hides it behind a generic 500.
func (h *handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	errutil.LogErrorContext(ctx, h.logger, msg, err)
	writeError(w, http.StatusInternalServerError, internalErrorMessage)
}
