// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

// Package profile implements developer profiles with their experience and
// education history.
package profile

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/agora-social/agora/internal/auth"
)

// Profile is the public profile of one account. Each account has at most one.
type Profile struct {
	ID   ulid.ULID `json:"id"`
	User ulid.ULID `json:"user"`
	// Owner is read from the account on every load.
	Owner          *auth.Summary `json:"owner,omitempty"`
	Company        string        `json:"company,omitempty"`
	Website        string        `json:"website,omitempty"`
	Location       string        `json:"location,omitempty"`
	Bio            string        `json:"bio,omitempty"`
	Status         string        `json:"status"`
	Skills         []string      `json:"skills"`
	GitHubUsername string        `json:"githubusername,omitempty"`
	Social         Social        `json:"social"`
	Experience     []Experience  `json:"experience"`
	Education      []Education   `json:"education"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	Version        int64         `json:"-"`
}

// Social holds optional social network links.
type Social struct {
	YouTube   string `json:"youtube,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Instagram string `json:"instagram,omitempty"`
}

// Experience is one job held.
type Experience struct {
	ID          ulid.ULID  `json:"id"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Location    string     `json:"location,omitempty"`
	From        time.Time  `json:"from"`
	To          *time.Time `json:"to,omitempty"`
	Current     bool       `json:"current"`
	Description string     `json:"description,omitempty"`
}

// Education is one course of study.
type Education struct {
	ID           ulid.ULID  `json:"id"`
	School       string     `json:"school"`
	Degree       string     `json:"degree"`
	FieldOfStudy string     `json:"fieldofstudy"`
	From         time.Time  `json:"from"`
	To           *time.Time `json:"to,omitempty"`
	Current      bool       `json:"current"`
	Description  string     `json:"description,omitempty"`
}

// Repository persists profiles. Experience and education are written
// through collection stores; reads return them populated along with Owner.
type Repository interface {
	// GetByOwner returns NotFound when owner has no profile.
	GetByOwner(ctx context.Context, owner ulid.ULID) (*Profile, error)
	List(ctx context.Context) ([]*Profile, error)
	// Create returns DuplicateEntry when owner already has a profile.
	Create(ctx context.Context, p *Profile) error
	// Update writes the scalar fields of p if its stored version is still
	// expectedVersion, and returns store.ErrConflict otherwise.
	Update(ctx context.Context, p *Profile, expectedVersion int64) error
	// Delete returns NotFound when owner has no profile.
	Delete(ctx context.Context, owner ulid.ULID) error
}
