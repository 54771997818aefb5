// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Postpen Contributors

// Package session binds server-side key/value sessions to clients through a
// signed cookie.
//
// A session is only persisted, and a cookie only issued, when the request
// changed it. Reading a session never extends its lifetime.
package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"github.com/samber/oops"

	"github.com/postpen/postpen/internal/auth"
)

const tokenBytes = 32

// Session is the per-request view of a stored session.
// It is not safe for concurrent use.
type Session struct {
	token    string
	values   map[string]string
	modified bool
}

func newSession() *Session {
	return &Session{values: make(map[string]string)}
}

// Get returns the value stored under key.
func (s *Session) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key and marks the session for persistence.
func (s *Session) Set(key, value string) {
	if cur, ok := s.values[key]; ok && cur == value {
		return
	}
	s.values[key] = value
	s.modified = true
}

// IsNew reports whether the session has never been persisted.
func (s *Session) IsNew() bool {
	return s.token == ""
}

// Modified reports whether Set changed the session during this request.
func (s *Session) Modified() bool {
	return s.modified
}

var _ auth.Session = (*Session)(nil)

// generateToken returns a random hex token for a new session.
func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", oops.Code("SESSION_TOKEN_FAILED").Wrap(err)
	}
	return hex.EncodeToString(b), nil
}

// storeKey derives the storage key for a token, so stored keys never reveal
// a usable cookie value.
func storeKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
