// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

package profile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/agora-social/agora/internal/apperr"
	"github.com/agora-social/agora/internal/collection"
	"github.com/agora-social/agora/internal/store"
)

const notFoundMessage = "There is no profile for this user"

// Config holds the optional Service settings.
type Config struct {
	Retry      store.RetryPolicy
	OnConflict func(collection string)
	Logger     *slog.Logger
	Now        func() time.Time
}

// Service implements the profile operations.
type Service struct {
	profiles   Repository
	experience *collection.Mutator[Experience]
	education  *collection.Mutator[Education]
	retry      store.RetryPolicy
	onConflict func(collection string)
	logger     *slog.Logger
	now        func() time.Time
}

// ownerOnly builds a policy for collections only the profile owner edits.
// Entries carry no actor of their own.
func ownerOnly[E any](name, missing string, id func(E) ulid.ULID) collection.Policy[E] {
	return collection.Policy[E]{
		Name:    name,
		EntryID: id,
		Actor:   func(E) ulid.ULID { return ulid.ULID{} },
		Admit: func(actor ulid.ULID, snap *collection.Snapshot[E], _ E) error {
			if snap.Owner != actor {
				return apperr.Forbidden(name+"_FORBIDDEN", "User not authorized")
			}
			return nil
		},
		Authorize: func(actor ulid.ULID, snap *collection.Snapshot[E], _ E) bool {
			return snap.Owner == actor
		},
		MissingMessage: missing,
	}
}

// ExperiencePolicy lets only the profile owner edit experience.
func ExperiencePolicy() collection.Policy[Experience] {
	return ownerOnly("EXPERIENCE", "Experience does not exist", func(e Experience) ulid.ULID { return e.ID })
}

// EducationPolicy lets only the profile owner edit education.
func EducationPolicy() collection.Policy[Education] {
	return ownerOnly("EDUCATION", "Education does not exist", func(e Education) ulid.ULID { return e.ID })
}

// NewService creates a Service.
func NewService(
	profiles Repository,
	experience collection.Store[Experience],
	education collection.Store[Education],
	cfg Config,
) (*Service, error) {
	if profiles == nil {
		return nil, oops.Errorf("profile repository is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	opts := []collection.Option{
		collection.WithRetryPolicy(cfg.Retry),
		collection.WithConflictObserver(cfg.OnConflict),
		collection.WithLogger(cfg.Logger),
	}
	exp, err := collection.New(experience, ExperiencePolicy(), opts...)
	if err != nil {
		return nil, oops.With("collection", "experience").Wrap(err)
	}
	edu, err := collection.New(education, EducationPolicy(), opts...)
	if err != nil {
		return nil, oops.With("collection", "education").Wrap(err)
	}

	return &Service{
		profiles:   profiles,
		experience: exp,
		education:  edu,
		retry:      cfg.Retry,
		onConflict: cfg.OnConflict,
		logger:     cfg.Logger,
		now:        cfg.Now,
	}, nil
}

// Me returns the actor's own profile.
func (s *Service) Me(ctx context.Context, actor ulid.ULID) (*Profile, error) {
	return s.byOwner(ctx, actor)
}

// GetByOwner returns the profile of the account rawOwnerID.
func (s *Service) GetByOwner(ctx context.Context, rawOwnerID string) (*Profile, error) {
	owner, err := apperr.ParseID(rawOwnerID, "PROFILE_NOT_FOUND", notFoundMessage)
	if err != nil {
		return nil, err
	}
	return s.byOwner(ctx, owner)
}

// List returns every profile.
func (s *Service) List(ctx context.Context) ([]*Profile, error) {
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, apperr.FromStore(err, "PROFILE_LIST_FAILED", "list profiles")
	}
	return profiles, nil
}

// Upsert creates the actor's profile or updates the supplied fields of the
// existing one.
func (s *Service) Upsert(ctx context.Context, actor ulid.ULID, in UpsertInput) (*Profile, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	policy := s.retry
	policy.OnConflict = func() {
		if s.onConflict != nil {
			s.onConflict("PROFILE")
		}
	}
	created := false
	err := store.RetryOnConflict(ctx, policy, func(ctx context.Context) error {
		p, err := s.profiles.GetByOwner(ctx, actor)
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			created = true
			return s.create(ctx, actor, in)
		case err != nil:
			return err
		}
		created = false
		version := p.Version
		in.apply(p)
		p.UpdatedAt = s.now().UTC()
		return s.profiles.Update(ctx, p, version)
	})
	if errors.Is(err, store.ErrConflict) {
		s.logger.WarnContext(ctx, "profile upsert kept conflicting", "owner_id", actor.String())
		return nil, apperr.Unavailable(err, "PROFILE_CONFLICT", "upsert profile")
	}
	if err != nil {
		return nil, apperr.FromStore(err, "PROFILE_UPSERT_FAILED", "upsert profile")
	}

	s.logger.InfoContext(ctx, "profile saved", "owner_id", actor.String(), "created", created)
	return s.byOwner(ctx, actor)
}

func (s *Service) create(ctx context.Context, actor ulid.ULID, in UpsertInput) error {
	now := s.now().UTC()
	p := &Profile{
		ID:         ulid.Make(),
		User:       actor,
		Skills:     []string{},
		Experience: []Experience{},
		Education:  []Education{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	in.apply(p)
	err := s.profiles.Create(ctx, p)
	if errors.Is(err, apperr.ErrDuplicate) {
		// Created concurrently; the retry turns this into an update.
		return store.ErrConflict
	}
	return err
}

// Delete removes the actor's profile with its experience and education.
func (s *Service) Delete(ctx context.Context, actor ulid.ULID) error {
	if err := s.profiles.Delete(ctx, actor); err != nil {
		return apperr.FromStore(err, "PROFILE_DELETE_FAILED", "delete profile")
	}
	s.logger.InfoContext(ctx, "profile deleted", "owner_id", actor.String())
	return nil
}

// AddExperience adds an experience entry to the actor's profile.
func (s *Service) AddExperience(ctx context.Context, actor ulid.ULID, in ExperienceInput) (*Profile, error) {
	entry, err := in.toExperience()
	if err != nil {
		return nil, err
	}
	entry.ID = ulid.Make()
	p, err := s.byOwner(ctx, actor)
	if err != nil {
		return nil, err
	}
	if p.Experience, err = s.experience.Insert(ctx, actor, p.ID, entry); err != nil {
		return nil, err
	}
	return p, nil
}

// RemoveExperience removes an experience entry from the actor's profile.
func (s *Service) RemoveExperience(ctx context.Context, actor ulid.ULID, rawID string) (*Profile, error) {
	id, err := apperr.ParseID(rawID, "EXPERIENCE_NOT_FOUND", "Experience does not exist")
	if err != nil {
		return nil, err
	}
	p, err := s.byOwner(ctx, actor)
	if err != nil {
		return nil, err
	}
	if p.Experience, err = s.experience.Remove(ctx, actor, p.ID, collection.ByID(id)); err != nil {
		return nil, err
	}
	return p, nil
}

// AddEducation adds an education entry to the actor's profile.
func (s *Service) AddEducation(ctx context.Context, actor ulid.ULID, in EducationInput) (*Profile, error) {
	entry, err := in.toEducation()
	if err != nil {
		return nil, err
	}
	entry.ID = ulid.Make()
	p, err := s.byOwner(ctx, actor)
	if err != nil {
		return nil, err
	}
	if p.Education, err = s.education.Insert(ctx, actor, p.ID, entry); err != nil {
		return nil, err
	}
	return p, nil
}

// RemoveEducation removes an education entry from the actor's profile.
func (s *Service) RemoveEducation(ctx context.Context, actor ulid.ULID, rawID string) (*Profile, error) {
	id, err := apperr.ParseID(rawID, "EDUCATION_NOT_FOUND", "Education does not exist")
	if err != nil {
		return nil, err
	}
	p, err := s.byOwner(ctx, actor)
	if err != nil {
		return nil, err
	}
	if p.Education, err = s.education.Remove(ctx, actor, p.ID, collection.ByID(id)); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) byOwner(ctx context.Context, owner ulid.ULID) (*Profile, error) {
	p, err := s.profiles.GetByOwner(ctx, owner)
	if err != nil {
		return nil, apperr.FromStore(err, "PROFILE_GET_FAILED", "get profile")
	}
	return p, nil
}
