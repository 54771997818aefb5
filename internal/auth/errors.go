// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Postpen Contributors

package auth

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ConflictColumnUsername names the username column in a ConflictError.
const ConflictColumnUsername = "username"

// ConflictError is returned by an AccountRepository when a write violates a
// uniqueness guarantee of the store.
type ConflictError struct {
	// Field is the account field that collided, e.g. "username".
	Field string
	// Value is the rejected value.
	Value string
	// Err is the store-specific cause, if any.
	Err error
}

// Error implements error.
func (e *ConflictError) Error() string {
	if e.Field == "" {
		return "account already exists"
	}
	return fmt.Sprintf("account with %s %q already exists", e.Field, e.Value)
}

// Unwrap returns the store-specific cause.
func (e *ConflictError) Unwrap() error {
	return e.Err
}

// IsConflict reports whether err carries a ConflictError anywhere in its chain.
func IsConflict(err error) bool {
	var conflict *ConflictError
	return errors.As(err, &conflict)
}
