// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Postpen Contributors

package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/postpen/postpen/internal/auth"
)

// MockPasswordHasher is a mock implementation of auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a new instance of MockPasswordHasher.
// It registers a cleanup that asserts all expectations were met.
func NewMockPasswordHasher(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// Hash provides a mock function with given fields: password
func (_m *MockPasswordHasher) Hash(password string) (string, error) {
	ret := _m.Called(password)

	if len(ret) == 0 {
		panic("no return value specified for Hash")
	}

	return ret.String(0), ret.Error(1)
}

// Verify provides a mock function with given fields: password, hash
func (_m *MockPasswordHasher) Verify(password, hash string) (bool, error) {
	ret := _m.Called(password, hash)

	if len(ret) == 0 {
		panic("no return value specified for Verify")
	}

	return ret.Bool(0), ret.Error(1)
}

var _ auth.PasswordHasher = (*MockPasswordHasher)(nil)
