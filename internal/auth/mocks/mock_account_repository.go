// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Postpen Contributors

// Package mocks provides testify mocks for the auth package interfaces.
package mocks

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/postpen/postpen/internal/auth"
)

// MockAccountRepository is a mock implementation of auth.AccountRepository.
type MockAccountRepository struct {
	mock.Mock
}

// NewMockAccountRepository creates a new instance of MockAccountRepository.
// It registers a cleanup that asserts all expectations were met.
func NewMockAccountRepository(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockAccountRepository {
	m := &MockAccountRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// Create provides a mock function with given fields: ctx, account
func (_m *MockAccountRepository) Create(ctx context.Context, account *auth.Account) error {
	ret := _m.Called(ctx, account)

	if len(ret) == 0 {
		panic("no return value specified for Create")
	}

	if rf, ok := ret.Get(0).(func(context.Context, *auth.Account) error); ok {
		return rf(ctx, account)
	}
	return ret.Error(0)
}

// GetByID provides a mock function with given fields: ctx, id
func (_m *MockAccountRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Account, error) {
	ret := _m.Called(ctx, id)

	if len(ret) == 0 {
		panic("no return value specified for GetByID")
	}

	var r0 *auth.Account
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*auth.Account)
	}
	return r0, ret.Error(1)
}

// GetByUsername provides a mock function with given fields: ctx, username
func (_m *MockAccountRepository) GetByUsername(ctx context.Context, username string) (*auth.Account, error) {
	ret := _m.Called(ctx, username)

	if len(ret) == 0 {
		panic("no return value specified for GetByUsername")
	}

	var r0 *auth.Account
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*auth.Account)
	}
	return r0, ret.Error(1)
}

// List provides a mock function with given fields: ctx
func (_m *MockAccountRepository) List(ctx context.Context) ([]*auth.Account, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for List")
	}

	var r0 []*auth.Account
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*auth.Account)
	}
	return r0, ret.Error(1)
}

var _ auth.AccountRepository = (*MockAccountRepository)(nil)
