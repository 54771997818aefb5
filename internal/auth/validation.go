// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Postpen Contributors

package auth

import "unicode/utf8"

// Credentials is a username/password pair submitted by a client.
type Credentials struct {
	Username string
	Password string
}

// Field names reported in FieldErrors.
const (
	FieldUsername = "Username"
	FieldPassword = "Password"
)

// MinCredentialLength is the shortest accepted username or password, in code
// points. A character outside the Basic Multilingual Plane counts once.
const MinCredentialLength = 3

// User-facing validation and authentication messages.
const (
	MsgUsernameTooShort  = "Username must be at least 3 or more characters long"
	MsgPasswordTooShort  = "Password must be at least 3 or more characters long"
	MsgUsernameTaken     = "Username already exists"
	MsgUsernameNotFound  = "Username does not exist"
	MsgPasswordIncorrect = "Password is incorrect"
)

// ValidateCredentials checks the shape of submitted credentials.
// It returns the first failing rule, or nil when the credentials are acceptable.
// Username is checked before password.
func ValidateCredentials(creds Credentials) *FieldError {
	if utf8.RuneCountInString(creds.Username) < MinCredentialLength {
		return &FieldError{Field: FieldUsername, Message: MsgUsernameTooShort}
	}
	if utf8.RuneCountInString(creds.Password) < MinCredentialLength {
		return &FieldError{Field: FieldPassword, Message: MsgPasswordTooShort}
	}
	return nil
}
