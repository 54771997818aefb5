// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Postpen Contributors

package auth

import "github.com/oklog/ulid/v2"

// SessionUserIDKey is the session key holding the authenticated account ID.
const SessionUserIDKey = "userId"

// Session is the server-side key/value bag bound to one client.
// Implementations are not required to be safe for concurrent use.
type Session interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// SessionAccountID returns the account ID bound to sess.
// The second value is false when the session is anonymous or the stored value
// is not a valid ID.
func SessionAccountID(sess Session) (ulid.ULID, bool) {
	if sess == nil {
		return ulid.ULID{}, false
	}
	raw, ok := sess.Get(SessionUserIDKey)
	if !ok || raw == "" {
		return ulid.ULID{}, false
	}
	id, err := ulid.Parse(raw)
	if err != nil {
		return ulid.ULID{}, false
	}
	return id, true
}

// BindSession marks sess as authenticated for id.
func BindSession(sess Session, id ulid.ULID) {
	sess.Set(SessionUserIDKey, id.String())
}
