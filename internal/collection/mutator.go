// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

package collection

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/agora-social/agora/internal/apperr"
	"github.com/agora-social/agora/internal/store"
)

// Mutator runs the load, check, write protocol for one collection.
type Mutator[E any] struct {
	store      Store[E]
	policy     Policy[E]
	retry      store.RetryPolicy
	onConflict func(collection string)
	logger     *slog.Logger
}

// Option customizes a Mutator.
type Option func(*options)

type options struct {
	retry      store.RetryPolicy
	onConflict func(string)
	logger     *slog.Logger
}

// WithRetryPolicy bounds conflict retries.
func WithRetryPolicy(p store.RetryPolicy) Option {
	return func(o *options) { o.retry = p }
}

// WithConflictObserver is called with the policy name on every version
// conflict, e.g. to count them.
func WithConflictObserver(fn func(collection string)) Option {
	return func(o *options) { o.onConflict = fn }
}

// WithLogger sets the logger used for exhausted retries.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates a Mutator.
func New[E any](s Store[E], policy Policy[E], opts ...Option) (*Mutator[E], error) {
	if s == nil {
		return nil, oops.Errorf("collection store is required")
	}
	if policy.Name == "" || policy.EntryID == nil || policy.Actor == nil {
		return nil, oops.Errorf("collection policy needs Name, EntryID and Actor")
	}
	if policy.MissingMessage == "" {
		policy.MissingMessage = "entry not found"
	}
	if policy.ForbiddenMessage == "" {
		policy.ForbiddenMessage = "User not authorized"
	}

	o := options{retry: store.DefaultRetryPolicy, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.retry.Attempts == 0 {
		o.retry.Attempts = store.DefaultRetryPolicy.Attempts
	}
	return &Mutator[E]{
		store:      s,
		policy:     policy,
		retry:      o.retry,
		onConflict: o.onConflict,
		logger:     o.logger,
	}, nil
}

// Name returns the policy name.
func (m *Mutator[E]) Name() string { return m.policy.Name }

// Load returns the current collection of parentID.
func (m *Mutator[E]) Load(ctx context.Context, parentID ulid.ULID) ([]E, error) {
	snap, err := m.store.Load(ctx, parentID)
	if err != nil {
		return nil, apperr.FromStore(err, m.policy.Name+"_STORE_FAILED", "load collection")
	}
	return snap.Entries, nil
}

// Insert admits entry into parentID's collection on behalf of actor and
// returns the collection with entry at the front.
func (m *Mutator[E]) Insert(ctx context.Context, actor, parentID ulid.ULID, entry E) ([]E, error) {
	var result []E
	err := m.withRetry(ctx, "insert", parentID, func(ctx context.Context) error {
		snap, err := m.store.Load(ctx, parentID)
		if err != nil {
			return err
		}
		if m.policy.Admit != nil {
			if err := m.policy.Admit(actor, snap, entry); err != nil {
				return err
			}
		}
		if err := m.store.Insert(ctx, parentID, snap.Version, entry); err != nil {
			return err
		}
		result = make([]E, 0, len(snap.Entries)+1)
		result = append(result, entry)
		result = append(result, snap.Entries...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Remove deletes the targeted entry of parentID's collection on behalf of
// actor and returns the remaining collection. A missing parent or entry is
// NotFound; an entry the actor may not remove is Forbidden.
func (m *Mutator[E]) Remove(ctx context.Context, actor, parentID ulid.ULID, target Target) ([]E, error) {
	var result []E
	err := m.withRetry(ctx, "remove", parentID, func(ctx context.Context) error {
		snap, err := m.store.Load(ctx, parentID)
		if err != nil {
			return err
		}

		idx := -1
		for i, e := range snap.Entries {
			if target.matches(actor, m.policy.EntryID(e), m.policy.Actor(e)) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return apperr.NotFound(m.policy.Name+"_NOT_FOUND", m.policy.MissingMessage)
		}

		entry := snap.Entries[idx]
		if !m.authorized(actor, snap, entry) {
			return apperr.Forbidden(m.policy.Name+"_FORBIDDEN", m.policy.ForbiddenMessage)
		}

		if err := m.store.Delete(ctx, parentID, snap.Version, m.policy.EntryID(entry)); err != nil {
			return err
		}
		result = make([]E, 0, len(snap.Entries)-1)
		result = append(result, snap.Entries[:idx]...)
		result = append(result, snap.Entries[idx+1:]...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (m *Mutator[E]) authorized(actor ulid.ULID, snap *Snapshot[E], entry E) bool {
	if m.policy.Authorize != nil {
		return m.policy.Authorize(actor, snap, entry)
	}
	return m.policy.Actor(entry) == actor
}

// withRetry re-runs fn on version conflicts and maps the final error to a
// caller-facing kind.
func (m *Mutator[E]) withRetry(ctx context.Context, op string, parentID ulid.ULID, fn func(ctx context.Context) error) error {
	policy := m.retry
	policy.OnConflict = func() {
		if m.onConflict != nil {
			m.onConflict(m.policy.Name)
		}
	}

	err := store.RetryOnConflict(ctx, policy, fn)
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrConflict) {
		m.logger.WarnContext(ctx, "collection write kept conflicting",
			"collection", m.policy.Name,
			"operation", op,
			"parent_id", parentID.String(),
			"attempts", policy.Attempts)
		return apperr.Unavailable(err, m.policy.Name+"_CONFLICT", op+" "+m.policy.Name)
	}
	return apperr.FromStore(err, m.policy.Name+"_STORE_FAILED", op+" "+m.policy.Name)
}
