// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

// Package mocks provides testify mocks for the post interfaces.
package mocks

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/agora-social/agora/internal/auth"
	"github.com/agora-social/agora/internal/post"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockRepository is a mock post.Repository.
type MockRepository struct {
	mock.Mock
}

// NewMockRepository creates a mock that asserts its expectations on cleanup.
func NewMockRepository(t testingT) *MockRepository {
	m := &MockRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockRepository) Create(ctx context.Context, p *post.Post) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockRepository) Get(ctx context.Context, id ulid.ULID) (*post.Post, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*post.Post)
	return p, args.Error(1)
}

func (m *MockRepository) List(ctx context.Context) ([]*post.Post, error) {
	args := m.Called(ctx)
	posts, _ := args.Get(0).([]*post.Post)
	return posts, args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, id ulid.ULID) error {
	return m.Called(ctx, id).Error(0)
}

// MockAccountLookup is a mock post.AccountLookup.
type MockAccountLookup struct {
	mock.Mock
}

// NewMockAccountLookup creates a mock that asserts its expectations on cleanup.
func NewMockAccountLookup(t testingT) *MockAccountLookup {
	m := &MockAccountLookup{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockAccountLookup) Lookup(ctx context.Context, id ulid.ULID) (*auth.Account, error) {
	args := m.Called(ctx, id)
	account, _ := args.Get(0).(*auth.Account)
	return account, args.Error(1)
}

var (
	_ post.Repository    = (*MockRepository)(nil)
	_ post.AccountLookup = (*MockAccountLookup)(nil)
)
