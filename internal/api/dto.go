// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Postpen Contributors

package api

import (
	"time"

	"github.com/postpen/postpen/internal/auth"
)

// User is the public view of an account. The password hash is never exposed.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FieldError is a user-facing validation or credential failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// UserResponse is returned by register and login.
// Exactly one of Errors and User is set.
type UserResponse struct {
	Errors []FieldError `json:"errors,omitempty"`
	User   *User        `json:"user,omitempty"`
}

// MeResponse is returned by /api/me; User is null when anonymous.
type MeResponse struct {
	User *User `json:"user"`
}

// UsersResponse is returned by /api/users.
type UsersResponse struct {
	Users []User `json:"users"`
}

// CredentialsRequest is the register and login body.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ErrorResponse carries a non-field failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

func toUser(a *auth.Account) *User {
	if a == nil {
		return nil
	}
	return &User{
		ID:        a.ID.String(),
		Username:  a.Username,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func toUserResponse(res *auth.Result) UserResponse {
	if res.OK() {
		return UserResponse{User: toUser(res.User)}
	}
	errs := make([]FieldError, 0, len(res.Errors))
	for _, fe := range res.Errors {
		errs = append(errs, FieldError{Field: fe.Field, Message: fe.Message})
	}
	return UserResponse{Errors: errs}
}

// outcome classifies a register or login result for metrics.
func outcome(res *auth.Result) string {
	if res.OK() {
		return "success"
	}
	if res == nil || len(res.Errors) == 0 {
		return "error"
	}
	switch res.Errors[0].Message {
	case auth.MsgUsernameTaken:
		return "conflict"
	case auth.MsgUsernameNotFound:
		return "unknown_user"
	case auth.MsgPasswordIncorrect:
		return "bad_password"
	default:
		return "invalid_input"
	}
}
