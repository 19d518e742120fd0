// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

// Package mocks provides testify mocks for the api service interfaces.
package mocks

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/agora-social/agora/internal/api"
	"github.com/agora-social/agora/internal/auth"
	"github.com/agora-social/agora/internal/post"
	"github.com/agora-social/agora/internal/profile"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockAuthService is a mock api.AuthService.
type MockAuthService struct {
	mock.Mock
}

// NewMockAuthService creates a mock that asserts its expectations on cleanup.
func NewMockAuthService(t testingT) *MockAuthService {
	m := &MockAuthService{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockAuthService) Register(ctx context.Context, in auth.RegisterInput) (string, error) {
	args := m.Called(ctx, in)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, in auth.LoginInput) (string, error) {
	args := m.Called(ctx, in)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) CurrentIdentity(ctx context.Context, accountID ulid.ULID) (*auth.Account, error) {
	args := m.Called(ctx, accountID)
	a, _ := args.Get(0).(*auth.Account)
	return a, args.Error(1)
}

// MockPostService is a mock api.PostService.
type MockPostService struct {
	mock.Mock
}

// NewMockPostService creates a mock that asserts its expectations on cleanup.
func NewMockPostService(t testingT) *MockPostService {
	m := &MockPostService{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPostService) Create(ctx context.Context, actor ulid.ULID, in post.CreateInput) (*post.Post, error) {
	args := m.Called(ctx, actor, in)
	p, _ := args.Get(0).(*post.Post)
	return p, args.Error(1)
}

func (m *MockPostService) List(ctx context.Context) ([]*post.Post, error) {
	args := m.Called(ctx)
	posts, _ := args.Get(0).([]*post.Post)
	return posts, args.Error(1)
}

func (m *MockPostService) Get(ctx context.Context, rawID string) (*post.Post, error) {
	args := m.Called(ctx, rawID)
	p, _ := args.Get(0).(*post.Post)
	return p, args.Error(1)
}

func (m *MockPostService) Delete(ctx context.Context, actor ulid.ULID, rawID string) error {
	return m.Called(ctx, actor, rawID).Error(0)
}

func (m *MockPostService) Like(ctx context.Context, actor ulid.ULID, rawID string) ([]post.Like, error) {
	args := m.Called(ctx, actor, rawID)
	likes, _ := args.Get(0).([]post.Like)
	return likes, args.Error(1)
}

func (m *MockPostService) Unlike(ctx context.Context, actor ulid.ULID, rawID string) ([]post.Like, error) {
	args := m.Called(ctx, actor, rawID)
	likes, _ := args.Get(0).([]post.Like)
	return likes, args.Error(1)
}

func (m *MockPostService) AddComment(ctx context.Context, actor ulid.ULID, rawID string, in post.CommentInput) ([]post.Comment, error) {
	args := m.Called(ctx, actor, rawID, in)
	comments, _ := args.Get(0).([]post.Comment)
	return comments, args.Error(1)
}

func (m *MockPostService) RemoveComment(ctx context.Context, actor ulid.ULID, rawPostID, rawCommentID string) ([]post.Comment, error) {
	args := m.Called(ctx, actor, rawPostID, rawCommentID)
	comments, _ := args.Get(0).([]post.Comment)
	return comments, args.Error(1)
}

// MockProfileService is a mock api.ProfileService.
type MockProfileService struct {
	mock.Mock
}

// NewMockProfileService creates a mock that asserts its expectations on cleanup.
func NewMockProfileService(t testingT) *MockProfileService {
	m := &MockProfileService{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockProfileService) Me(ctx context.Context, actor ulid.ULID) (*profile.Profile, error) {
	return m.profile(m.Called(ctx, actor))
}

func (m *MockProfileService) Upsert(ctx context.Context, actor ulid.ULID, in profile.UpsertInput) (*profile.Profile, error) {
	return m.profile(m.Called(ctx, actor, in))
}

func (m *MockProfileService) List(ctx context.Context) ([]*profile.Profile, error) {
	args := m.Called(ctx)
	profiles, _ := args.Get(0).([]*profile.Profile)
	return profiles, args.Error(1)
}

func (m *MockProfileService) GetByOwner(ctx context.Context, rawOwnerID string) (*profile.Profile, error) {
	return m.profile(m.Called(ctx, rawOwnerID))
}

func (m *MockProfileService) Delete(ctx context.Context, actor ulid.ULID) error {
	return m.Called(ctx, actor).Error(0)
}

func (m *MockProfileService) AddExperience(ctx context.Context, actor ulid.ULID, in profile.ExperienceInput) (*profile.Profile, error) {
	return m.profile(m.Called(ctx, actor, in))
}

func (m *MockProfileService) RemoveExperience(ctx context.Context, actor ulid.ULID, rawID string) (*profile.Profile, error) {
	return m.profile(m.Called(ctx, actor, rawID))
}

func (m *MockProfileService) AddEducation(ctx context.Context, actor ulid.ULID, in profile.EducationInput) (*profile.Profile, error) {
	return m.profile(m.Called(ctx, actor, in))
}

func (m *MockProfileService) RemoveEducation(ctx context.Context, actor ulid.ULID, rawID string) (*profile.Profile, error) {
	return m.profile(m.Called(ctx, actor, rawID))
}

func (m *MockProfileService) profile(args mock.Arguments) (*profile.Profile, error) {
	p, _ := args.Get(0).(*profile.Profile)
	return p, args.Error(1)
}

// MockTokenVerifier is a mock api.TokenVerifier.
type MockTokenVerifier struct {
	mock.Mock
}

// NewMockTokenVerifier creates a mock that asserts its expectations on cleanup.
func NewMockTokenVerifier(t testingT) *MockTokenVerifier {
	m := &MockTokenVerifier{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTokenVerifier) Verify(token string) (ulid.ULID, error) {
	args := m.Called(token)
	id, _ := args.Get(0).(ulid.ULID)
	return id, args.Error(1)
}

var (
	_ api.AuthService    = (*MockAuthService)(nil)
	_ api.PostService    = (*MockPostService)(nil)
	_ api.ProfileService = (*MockProfileService)(nil)
	_ api.TokenVerifier  = (*MockTokenVerifier)(nil)
)
