// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Postpen Contributors

// Package auth provides account registration, login, and session identity for Postpen.
//
// # Domain Types
//
// Accounts should be created with NewAccount, which validates the username and
// password hash and assigns a fresh ID. Direct struct initialization bypasses
// validation and may create invalid state. Repository implementations receive
// pre-validated accounts.
//
// # Results
//
// Register and Login report expected failures (short input, duplicate username,
// unknown username, wrong password) as a Result carrying FieldErrors. Only
// unexpected store failures are returned as Go errors.
//
// # Sessions
//
// The service never creates or persists sessions. Callers hand it a Session bag
// that the transport loaded for the current client; Login writes the account ID
// under SessionUserIDKey and the transport decides whether to persist it.
package auth
