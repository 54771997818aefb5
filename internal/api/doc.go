// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Postpen Contributors

// Package api exposes the account operations as JSON over HTTP.
//
// Routes:
//
//	GET  /api/users     list every account
//	GET  /api/me        the account bound to the session cookie, or null
//	POST /api/register  create an account
//	POST /api/login     authenticate and bind the session
//
// Validation, conflict and credential failures are reported as field errors
// with status 200. Malformed bodies are 400 and infrastructure failures 500.
package api
