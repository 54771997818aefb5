// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Postpen Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postpen/postpen/internal/auth"
	"github.com/postpen/postpen/pkg/errutil"
)

func TestHashPassword(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	t.Run("produces valid hash", func(t *testing.T) {
		hash, err := hasher.Hash("password123")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$"))
	})

	t.Run("different passwords produce different hashes", func(t *testing.T) {
		hash1, err := hasher.Hash("password1")
		require.NoError(t, err)
		hash2, err := hasher.Hash("password2")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("same password produces different hashes (salt)", func(t *testing.T) {
		hash1, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		hash2, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash("")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_EMPTY_PASSWORD")
	})

	t.Run("encodes default parameters", func(t *testing.T) {
		hash, err := hasher.Hash("password123")
		require.NoError(t, err)
		parts := strings.Split(hash, "$")
		require.Len(t, parts, 6)
		assert.Equal(t, "v=19", parts[2])
		assert.Equal(t, "m=65536,t=1,p=4", parts[3])
	})

	t.Run("hash never contains plaintext", func(t *testing.T) {
		hash, err := hasher.Hash("abcdef")
		require.NoError(t, err)
		assert.NotContains(t, hash, "abcdef")
	})
}

func TestVerifyPassword(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	t.Run("correct password verifies", func(t *testing.T) {
		hash, err := hasher.Hash("correctpassword")
		require.NoError(t, err)

		ok, err := hasher.Verify("correctpassword", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("incorrect password fails", func(t *testing.T) {
		hash, err := hasher.Hash("correctpassword")
		require.NoError(t, err)

		ok, err := hasher.Verify("wrongpassword", hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("invalid hash format returns error", func(t *testing.T) {
		ok, err := hasher.Verify("password", "not-a-valid-hash")
		require.Error(t, err)
		assert.False(t, ok)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_HASH")
	})

	t.Run("empty hash returns error", func(t *testing.T) {
		ok, err := hasher.Verify("password", "")
		require.Error(t, err)
		assert.False(t, ok)
	})

	t.Run("zero cost parameters return error instead of panicking", func(t *testing.T) {
		assert.NotPanics(t, func() {
			_, err := hasher.Verify("password", "$argon2id$v=19$m=65536,t=0,p=0$c2FsdA$aGFzaA")
			assert.Error(t, err)
		})
	})

	t.Run("unsupported version returns error", func(t *testing.T) {
		_, err := hasher.Verify("password", "$argon2id$v=16$m=65536,t=1,p=4$c2FsdA$aGFzaA")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported argon2 version")
	})

	t.Run("wrong algorithm returns error", func(t *testing.T) {
		_, err := hasher.Verify("password", "$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported hash algorithm")
	})

	t.Run("invalid version format returns error", func(t *testing.T) {
		_, err := hasher.Verify("password", "$argon2id$vXX$m=65536,t=1,p=4$c2FsdA$aGFzaA")
		assert.Error(t, err)
	})

	t.Run("invalid parameters format returns error", func(t *testing.T) {
		_, err := hasher.Verify("password", "$argon2id$v=19$invalid$c2FsdA$aGFzaA")
		assert.Error(t, err)
	})

	t.Run("invalid salt base64 returns error", func(t *testing.T) {
		_, err := hasher.Verify("password", "$argon2id$v=19$m=65536,t=1,p=4$!!!invalid!!!$aGFzaA")
		assert.Error(t, err)
	})

	t.Run("invalid hash base64 returns error", func(t *testing.T) {
		_, err := hasher.Verify("password", "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$!!!invalid!!!")
		assert.Error(t, err)
	})

	t.Run("excessive memory cost is rejected before hashing", func(t *testing.T) {
		ok, err := hasher.Verify("x", "$argon2id$v=19$m=4294967295,t=1,p=1$c2FsdHNhbHRzYWx0$aGFzaGhhc2hoYXNoaGFzaA")
		require.Error(t, err)
		assert.False(t, ok)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_HASH")
		errutil.AssertErrorContext(t, err, "memory_kib", uint32(4294967295))
	})

	t.Run("excessive time cost is rejected before hashing", func(t *testing.T) {
		ok, err := hasher.Verify("x", "$argon2id$v=19$m=1024,t=4294967295,p=1$c2FsdHNhbHRzYWx0$aGFzaGhhc2hoYXNoaGFzaA")
		require.Error(t, err)
		assert.False(t, ok)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_HASH")
	})

	t.Run("costs within the limits verify normally", func(t *testing.T) {
		bounded := auth.NewArgon2idHasherWithParams(auth.Argon2Params{Time: 1, Memory: 1024, Threads: 1})
		hash, err := bounded.Hash("secret")
		require.NoError(t, err)
		ok, err := bounded.Verify("secret", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("threads overflow returns error", func(t *testing.T) {
		// threads=256 exceeds uint8 max (255)
		_, err := hasher.Verify("password", "$argon2id$v=19$m=65536,t=1,p=256$c2FsdA$aGFzaA")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "threads value")
	})
}

func TestArgon2idHasherWithParams(t *testing.T) {
	t.Run("encodes custom parameters and verifies", func(t *testing.T) {
		hasher := auth.NewArgon2idHasherWithParams(auth.Argon2Params{Time: 2, Memory: 8 * 1024, Threads: 1})

		hash, err := hasher.Hash("secret")
		require.NoError(t, err)
		assert.Contains(t, hash, "$m=8192,t=2,p=1$")

		ok, err := hasher.Verify("secret", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("zero values fall back to defaults", func(t *testing.T) {
		hasher := auth.NewArgon2idHasherWithParams(auth.Argon2Params{})

		hash, err := hasher.Hash("secret")
		require.NoError(t, err)
		assert.Contains(t, hash, "$m=65536,t=1,p=4$")
	})

	t.Run("verifies hashes produced with other parameters", func(t *testing.T) {
		cheap := auth.NewArgon2idHasherWithParams(auth.Argon2Params{Time: 1, Memory: 1024, Threads: 1})
		hash, err := cheap.Hash("secret")
		require.NoError(t, err)

		ok, err := auth.NewArgon2idHasher().Verify("secret", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
