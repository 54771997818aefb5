// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Postpen Contributors

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Account represents a registered user.
type Account struct {
	ID           ulid.ULID
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewAccount creates a new Account with a fresh ID and timestamps.
// The hash must already be produced by a PasswordHasher.
func NewAccount(username, passwordHash string) (*Account, error) {
	if strings.TrimSpace(username) == "" {
		return nil, oops.Code("ACCOUNT_INVALID_USERNAME").Errorf("username cannot be empty")
	}
	if passwordHash == "" {
		return nil, oops.Code("ACCOUNT_INVALID_PASSWORD_HASH").Errorf("password hash cannot be empty")
	}

	now := time.Now().UTC()
	return &Account{
		ID:           ulid.Make(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// AccountRepository manages account persistence.
type AccountRepository interface {
	// Create stores a new account.
	// Returns an error wrapping *ConflictError if the username is taken.
	Create(ctx context.Context, account *Account) error

	// GetByID retrieves an account by ID.
	// Returns an error wrapping ErrNotFound if no account has the given ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// GetByUsername retrieves an account by exact username.
	// Returns an error wrapping ErrNotFound if no account has the given username.
	GetByUsername(ctx context.Context, username string) (*Account, error)

	// List returns all accounts in creation order.
	List(ctx context.Context) ([]*Account, error)
}
