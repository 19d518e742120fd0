// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

// Package mocks provides testify mocks for the profile interfaces.
package mocks

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/agora-social/agora/internal/profile"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockRepository is a mock profile.Repository.
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

func (m *MockRepository) GetByOwner(ctx context.Context, owner ulid.ULID) (*profile.Profile, error) {
	args := m.Called(ctx, owner)
	p, _ := args.Get(0).(*profile.Profile)
	return p, args.Error(1)
}

func (m *MockRepository) List(ctx context.Context) ([]*profile.Profile, error) {
	args := m.Called(ctx)
	profiles, _ := args.Get(0).([]*profile.Profile)
	return profiles, args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, p *profile.Profile) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockRepository) Update(ctx context.Context, p *profile.Profile, expectedVersion int64) error {
	return m.Called(ctx, p, expectedVersion).Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, owner ulid.ULID) error {
	return m.Called(ctx, owner).Error(0)
}

var _ profile.Repository = (*MockRepository)(nil)
