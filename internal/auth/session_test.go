// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Postpen Contributors

package auth_test

import (
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"

	"github.com/postpen/postpen/internal/auth"
	"github.com/postpen/postpen/internal/auth/authtest"
)

func TestSessionAccountID(t *testing.T) {
	t.Run("anonymous session", func(t *testing.T) {
		_, ok := auth.SessionAccountID(authtest.NewSession())
		assert.False(t, ok)
	})

	t.Run("nil session", func(t *testing.T) {
		_, ok := auth.SessionAccountID(nil)
		assert.False(t, ok)
	})

	t.Run("bound session", func(t *testing.T) {
		sess := authtest.NewSession()
		id := ulid.Make()
		auth.BindSession(sess, id)

		got, ok := auth.SessionAccountID(sess)
		assert.True(t, ok)
		assert.Equal(t, id, got)

		raw, _ := sess.Get("userId")
		assert.Equal(t, id.String(), raw)
	})

	t.Run("garbage value is anonymous", func(t *testing.T) {
		sess := authtest.NewSession()
		sess.Set(auth.SessionUserIDKey, "not-an-id")

		_, ok := auth.SessionAccountID(sess)
		assert.False(t, ok)
	})
}
