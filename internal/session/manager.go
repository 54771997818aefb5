// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Postpen Contributors

package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/oops"
)

// Cookie defaults.
const (
	DefaultCookieName = "qid"
	DefaultMaxAge     = 10 * 365 * 24 * time.Hour
)

// Options configure the session cookie.
type Options struct {
	// CookieName defaults to DefaultCookieName.
	CookieName string
	// Secret signs cookie values. Required.
	Secret string
	// MaxAge is both the cookie lifetime and the store TTL. Defaults to DefaultMaxAge.
	MaxAge time.Duration
	// Secure restricts the cookie to HTTPS.
	Secure bool
}

// Manager loads sessions from request cookies and commits modified sessions.
type Manager struct {
	store  Store
	opts   Options
	logger *slog.Logger
}

// NewManager creates a Manager backed by store.
func NewManager(store Store, opts Options, logger *slog.Logger) (*Manager, error) {
	if store == nil {
		return nil, oops.Code("SESSION_INVALID_MANAGER").Errorf("session store is required")
	}
	if opts.Secret == "" {
		return nil, oops.Code("SESSION_INVALID_MANAGER").Errorf("session secret is required")
	}
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultMaxAge
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{store: store, opts: opts, logger: logger}, nil
}

// CookieName returns the configured cookie name.
func (m *Manager) CookieName() string {
	return m.opts.CookieName
}

// Load returns the session referenced by the request cookie.
// A missing, forged, or expired cookie yields a new empty session; only store
// failures are returned as errors.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.opts.CookieName)
	if err != nil {
		return newSession(), nil
	}

	token, ok := unsign(cookie.Value, m.opts.Secret)
	if !ok {
		m.logger.DebugContext(ctx, "ignoring session cookie with bad signature")
		return newSession(), nil
	}

	values, err := m.store.Load(ctx, storeKey(token))
	if errors.Is(err, ErrSessionNotFound) {
		return newSession(), nil
	}
	if err != nil {
		return nil, oops.Code("SESSION_LOAD_FAILED").
			With("operation", "load session").
			Wrap(err)
	}

	return &Session{token: token, values: values}, nil
}

// Commit persists s and sets the cookie when s was modified.
// Unmodified sessions are neither saved nor re-issued, so their TTL is unchanged.
func (m *Manager) Commit(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if s == nil || !s.modified {
		return nil
	}

	if s.IsNew() {
		token, err := generateToken()
		if err != nil {
			return oops.Code("SESSION_COMMIT_FAILED").
				With("operation", "generate token").
				Wrap(err)
		}
		s.token = token
	}

	if err := m.store.Save(ctx, storeKey(s.token), s.values, m.opts.MaxAge); err != nil {
		return oops.Code("SESSION_COMMIT_FAILED").
			With("operation", "save session").
			Wrap(err)
	}
	s.modified = false

	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    sign(s.token, m.opts.Secret),
		Path:     "/",
		MaxAge:   int(m.opts.MaxAge / time.Second),
		Expires:  time.Now().Add(m.opts.MaxAge).UTC(),
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
