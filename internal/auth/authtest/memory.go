// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Postpen Contributors

// Package authtest provides in-memory implementations of the auth contracts
// for tests and local development.
package authtest

import (
	"context"
	"sort"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/postpen/postpen/internal/auth"
)

// AccountRepository is an in-memory auth.AccountRepository.
// Usernames are unique; Create is atomic with respect to that check.
type AccountRepository struct {
	mu       sync.RWMutex
	byID     map[ulid.ULID]*auth.Account
	byName   map[string]ulid.ULID
	inserted []ulid.ULID
}

// NewAccountRepository creates an empty repository.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byID:   make(map[ulid.ULID]*auth.Account),
		byName: make(map[string]ulid.ULID),
	}
}

// Create stores a copy of account.
func (r *AccountRepository) Create(_ context.Context, account *auth.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byName[account.Username]; taken {
		return oops.Code("ACCOUNT_CONFLICT").
			With("username", account.Username).
			Wrap(&auth.ConflictError{Field: auth.ConflictColumnUsername, Value: account.Username})
	}

	stored := *account
	r.byID[account.ID] = &stored
	r.byName[account.Username] = account.ID
	r.inserted = append(r.inserted, account.ID)
	return nil
}

// GetByID returns a copy of the account with the given ID.
func (r *AccountRepository) GetByID(_ context.Context, id ulid.ULID) (*auth.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.byID[id]
	if !ok {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	out := *account
	return &out, nil
}

// GetByUsername returns a copy of the account with the exact username.
func (r *AccountRepository) GetByUsername(_ context.Context, username string) (*auth.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[username]
	if !ok {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With("username", username).Wrap(auth.ErrNotFound)
	}
	out := *r.byID[id]
	return &out, nil
}

// List returns copies of all accounts in insertion order.
func (r *AccountRepository) List(_ context.Context) ([]*auth.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*auth.Account, 0, len(r.inserted))
	for _, id := range r.inserted {
		account := *r.byID[id]
		out = append(out, &account)
	}
	return out, nil
}

var _ auth.AccountRepository = (*AccountRepository)(nil)

// Session is a map-backed auth.Session that records whether it was written.
type Session struct {
	values  map[string]string
	written bool
}

// NewSession creates an empty, anonymous session.
func NewSession() *Session {
	return &Session{values: make(map[string]string)}
}

// Get returns the value stored under key.
func (s *Session) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key.
func (s *Session) Set(key, value string) {
	s.values[key] = value
	s.written = true
}

// Written reports whether Set has been called.
func (s *Session) Written() bool {
	return s.written
}

// Keys returns the stored keys in sorted order.
func (s *Session) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var _ auth.Session = (*Session)(nil)
