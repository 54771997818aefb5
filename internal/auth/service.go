// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Postpen Contributors

package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/samber/oops"
)

// Service provides account listing, registration, login, and session identity.
// It holds no mutable state and is safe for concurrent use.
type Service struct {
	accounts AccountRepository
	hasher   PasswordHasher
	logger   *slog.Logger
}

// NewService creates a new Service that discards its logs.
func NewService(accounts AccountRepository, hasher PasswordHasher) (*Service, error) {
	return NewServiceWithLogger(accounts, hasher, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// NewServiceWithLogger creates a new Service with a custom logger.
func NewServiceWithLogger(accounts AccountRepository, hasher PasswordHasher, logger *slog.Logger) (*Service, error) {
	if accounts == nil {
		return nil, oops.Code("AUTH_INVALID_SERVICE").Errorf("accounts repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_SERVICE").Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Code("AUTH_INVALID_SERVICE").Errorf("logger is required")
	}
	return &Service{
		accounts: accounts,
		hasher:   hasher,
		logger:   logger,
	}, nil
}

// ListUsers returns every account in store order.
// The returned slice is never nil.
func (s *Service) ListUsers(ctx context.Context) ([]*Account, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, oops.Code("AUTH_LIST_FAILED").
			With("operation", "list accounts").
			Wrap(err)
	}
	if accounts == nil {
		accounts = []*Account{}
	}
	return accounts, nil
}

// CurrentUser returns the account bound to sess, or nil for an anonymous session.
// A session whose account no longer exists is treated as anonymous.
func (s *Service) CurrentUser(ctx context.Context, sess Session) (*Account, error) {
	id, ok := SessionAccountID(sess)
	if !ok {
		return nil, nil
	}

	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.DebugContext(ctx, "session bound to missing account",
				"account_id", id.String())
			return nil, nil
		}
		return nil, oops.Code("AUTH_CURRENT_USER_FAILED").
			With("operation", "get account by id").
			With("account_id", id.String()).
			Wrap(err)
	}
	return account, nil
}

// Register creates a new account. It does not authenticate any session.
func (s *Service) Register(ctx context.Context, creds Credentials) (*Result, error) {
	if fieldErr := ValidateCredentials(creds); fieldErr != nil {
		return &Result{Errors: []FieldError{*fieldErr}}, nil
	}

	hash, err := s.hasher.Hash(creds.Password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	account, err := NewAccount(creds.Username, hash)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "build account").
			Wrap(err)
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if IsConflict(err) {
			return failure(FieldUsername, MsgUsernameTaken), nil
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create account").
			With("username", creds.Username).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "account registered",
		"account_id", account.ID.String(),
		"username", account.Username)
	return success(account), nil
}

// Login verifies credentials and, on success, binds sess to the account.
// The session is left untouched on any failure.
func (s *Service) Login(ctx context.Context, creds Credentials, sess Session) (*Result, error) {
	if sess == nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").Errorf("session is required")
	}

	account, err := s.accounts.GetByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return failure(FieldUsername, MsgUsernameNotFound), nil
		}
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get account by username").
			Wrap(err)
	}

	valid, err := s.hasher.Verify(creds.Password, account.PasswordHash)
	if err != nil {
		// An unreadable stored hash can never match.
		s.logger.WarnContext(ctx, "stored password hash could not be verified",
			"account_id", account.ID.String(),
			"error", err.Error())
		valid = false
	}
	if !valid {
		return failure(FieldPassword, MsgPasswordIncorrect), nil
	}

	BindSession(sess, account.ID)
	s.logger.InfoContext(ctx, "account logged in",
		"account_id", account.ID.String())
	return success(account), nil
}
