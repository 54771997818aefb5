// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Postpen Contributors

package session

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is returned by a Store when a key is absent or expired.
var ErrSessionNotFound = errors.New("session not found")

// Store persists session values by key.
type Store interface {
	// Load returns the values stored under key, or ErrSessionNotFound.
	Load(ctx context.Context, key string) (map[string]string, error)

	// Save replaces the values stored under key. The record expires after ttl.
	Save(ctx context.Context, key string, values map[string]string, ttl time.Duration) error
}
