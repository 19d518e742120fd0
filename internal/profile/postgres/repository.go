// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

// Package postgres implements profile persistence on PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/lo"
	"github.com/samber/oops"

	"github.com/agora-social/agora/internal/apperr"
	"github.com/agora-social/agora/internal/auth"
	collectionpg "github.com/agora-social/agora/internal/collection/postgres"
	"github.com/agora-social/agora/internal/profile"
	"github.com/agora-social/agora/internal/store"
)

const (
	notFoundMessage = "There is no profile for this user"
	ownerConstraint = "profiles_owner_key"

	selectProfile = `SELECT p.id, p.owner_id, a.name, a.avatar, p.company, p.website, p.location,
		p.bio, p.status, p.skills, p.github_username, p.social, p.version, p.created_at, p.updated_at
		FROM profiles p JOIN accounts a ON a.id = p.owner_id`
)

// Repository implements profile.Repository using PostgreSQL.
type Repository struct {
	pool       store.Pool
	experience *collectionpg.Store[profile.Experience]
	education  *collectionpg.Store[profile.Education]
}

// NewRepository creates a Repository and the collection stores it reads
// experience and education through.
func NewRepository(pool store.Pool) (*Repository, error) {
	experience, err := NewExperienceStore(pool)
	if err != nil {
		return nil, err
	}
	education, err := NewEducationStore(pool)
	if err != nil {
		return nil, err
	}
	return &Repository{pool: pool, experience: experience, education: education}, nil
}

// Experience returns the experience collection store.
func (r *Repository) Experience() *collectionpg.Store[profile.Experience] { return r.experience }

// Education returns the education collection store.
func (r *Repository) Education() *collectionpg.Store[profile.Education] { return r.education }

// GetByOwner retrieves owner's profile with its nested entries.
func (r *Repository) GetByOwner(ctx context.Context, owner ulid.ULID) (*profile.Profile, error) {
	row := store.Conn(ctx, r.pool).QueryRow(ctx, selectProfile+` WHERE p.owner_id = $1`, owner.String())
	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("owner_id", owner.String()).
			Wrap(apperr.NotFound("PROFILE_NOT_FOUND", notFoundMessage))
	}
	if err != nil {
		return nil, oops.Code("PROFILE_GET_FAILED").
			With("operation", "get profile").
			With("owner_id", owner.String()).
			Wrap(err)
	}

	if p.Experience, err = r.experience.LoadEntries(ctx, p.ID); err != nil {
		return nil, err
	}
	if p.Education, err = r.education.LoadEntries(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// List retrieves every profile in creation order.
func (r *Repository) List(ctx context.Context) ([]*profile.Profile, error) {
	rows, err := store.Conn(ctx, r.pool).Query(ctx, selectProfile+` ORDER BY p.created_at, p.id`)
	if err != nil {
		return nil, oops.Code("PROFILE_LIST_FAILED").With("operation", "list profiles").Wrap(err)
	}
	defer rows.Close()

	profiles := []*profile.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, oops.Code("PROFILE_LIST_FAILED").With("operation", "scan profiles").Wrap(err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("PROFILE_LIST_FAILED").With("operation", "iterate profiles").Wrap(err)
	}
	if len(profiles) == 0 {
		return profiles, nil
	}

	ids := lo.Map(profiles, func(p *profile.Profile, _ int) ulid.ULID { return p.ID })
	experience, err := r.experience.LoadMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	education, err := r.education.LoadMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		p.Experience, p.Education = experience[p.ID], education[p.ID]
	}
	return profiles, nil
}

// Create stores a new profile.
func (r *Repository) Create(ctx context.Context, p *profile.Profile) error {
	_, err := store.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO profiles (id, owner_id, company, website, location, bio, status, skills,
			github_username, social, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, $11, $12)
	`, p.ID.String(), p.User.String(), p.Company, p.Website, p.Location, p.Bio, p.Status,
		skills(p), p.GitHubUsername, p.Social, p.CreatedAt, p.UpdatedAt)
	if store.IsUniqueViolation(err, ownerConstraint) {
		return oops.With("owner_id", p.User.String()).
			Wrap(apperr.Duplicate("PROFILE_DUPLICATE", "Profile already exists"))
	}
	if err != nil {
		return oops.Code("PROFILE_CREATE_FAILED").
			With("operation", "insert profile").
			With("owner_id", p.User.String()).
			Wrap(err)
	}
	return nil
}

// Update writes the scalar fields of p when the stored version matches.
func (r *Repository) Update(ctx context.Context, p *profile.Profile, expectedVersion int64) error {
	tag, err := store.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE profiles
		SET company = $3, website = $4, location = $5, bio = $6, status = $7, skills = $8,
			github_username = $9, social = $10, updated_at = $11, version = version + 1
		WHERE owner_id = $1 AND version = $2
	`, p.User.String(), expectedVersion, p.Company, p.Website, p.Location, p.Bio, p.Status,
		skills(p), p.GitHubUsername, p.Social, p.UpdatedAt)
	if err != nil {
		return oops.Code("PROFILE_UPDATE_FAILED").
			With("operation", "update profile").
			With("owner_id", p.User.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrConflict
	}
	return nil
}

// Delete removes owner's profile. Experience and education cascade.
func (r *Repository) Delete(ctx context.Context, owner ulid.ULID) error {
	tag, err := store.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM profiles WHERE owner_id = $1`, owner.String())
	if err != nil {
		return oops.Code("PROFILE_DELETE_FAILED").
			With("operation", "delete profile").
			With("owner_id", owner.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.With("owner_id", owner.String()).
			Wrap(apperr.NotFound("PROFILE_NOT_FOUND", notFoundMessage))
	}
	return nil
}

func skills(p *profile.Profile) []string {
	if p.Skills == nil {
		return []string{}
	}
	return p.Skills
}

func scanProfile(row pgx.Row) (*profile.Profile, error) {
	var (
		p              profile.Profile
		owner          auth.Summary
		idStr, ownerID string
	)
	err := row.Scan(&idStr, &ownerID, &owner.Name, &owner.Avatar, &p.Company, &p.Website, &p.Location,
		&p.Bio, &p.Status, &p.Skills, &p.GitHubUsername, &p.Social, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with operation context
	}
	if p.ID, err = parseID(idStr); err != nil {
		return nil, err
	}
	if p.User, err = parseID(ownerID); err != nil {
		return nil, err
	}
	owner.ID = p.User
	p.Owner = &owner
	if p.Skills == nil {
		p.Skills = []string{}
	}
	p.Experience, p.Education = []profile.Experience{}, []profile.Education{}
	return &p, nil
}

var _ profile.Repository = (*Repository)(nil)
