// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Postpen Contributors

package auth

// FieldError is a user-facing failure tied to one input field.
type FieldError struct {
	Field   string
	Message string
}

// Result is the outcome of Register or Login.
// Exactly one of User or Errors is set.
type Result struct {
	User   *Account
	Errors []FieldError
}

// OK reports whether the result carries an account.
func (r *Result) OK() bool {
	return r != nil && len(r.Errors) == 0 && r.User != nil
}

func success(account *Account) *Result {
	return &Result{User: account}
}

func failure(field, message string) *Result {
	return &Result{Errors: []FieldError{{Field: field, Message: message}}}
}
