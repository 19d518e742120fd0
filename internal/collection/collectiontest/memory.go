// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

// Package collectiontest provides test helpers for nested collections.
package collectiontest

import (
	"context"
	"slices"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/agora-social/agora/internal/apperr"
	"github.com/agora-social/agora/internal/collection"
	"github.com/agora-social/agora/internal/store"
)

// MemoryStore is an in-process collection.Store with the same compare-and-swap
// semantics as the PostgreSQL store.
type MemoryStore[E any] struct {
	mu      sync.Mutex
	entryID func(E) ulid.ULID
	parents map[ulid.ULID]*memParent[E]
}

type memParent[E any] struct {
	owner   ulid.ULID
	version int64
	entries []E
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore[E any](entryID func(E) ulid.ULID) *MemoryStore[E] {
	return &MemoryStore[E]{entryID: entryID, parents: make(map[ulid.ULID]*memParent[E])}
}

// AddParent registers a parent document owned by owner.
func (s *MemoryStore[E]) AddParent(parentID, owner ulid.ULID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parents[parentID] = &memParent[E]{owner: owner}
}

// RemoveParent drops a parent and its entries.
func (s *MemoryStore[E]) RemoveParent(parentID ulid.ULID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.parents, parentID)
}

// Load implements collection.Store.
func (s *MemoryStore[E]) Load(_ context.Context, parentID ulid.ULID) (*collection.Snapshot[E], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parents[parentID]
	if !ok {
		return nil, apperr.NotFound("PARENT_NOT_FOUND", "parent not found")
	}
	return &collection.Snapshot[E]{Owner: p.owner, Version: p.version, Entries: slices.Clone(p.entries)}, nil
}

// Insert implements collection.Store.
func (s *MemoryStore[E]) Insert(_ context.Context, parentID ulid.ULID, expectedVersion int64, entry E) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.casLocked(parentID, expectedVersion)
	if err != nil {
		return err
	}
	p.entries = append([]E{entry}, p.entries...)
	return nil
}

// Delete implements collection.Store.
func (s *MemoryStore[E]) Delete(_ context.Context, parentID ulid.ULID, expectedVersion int64, entryID ulid.ULID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.casLocked(parentID, expectedVersion)
	if err != nil {
		return err
	}
	p.entries = slices.DeleteFunc(p.entries, func(e E) bool { return s.entryID(e) == entryID })
	return nil
}

func (s *MemoryStore[E]) casLocked(parentID ulid.ULID, expectedVersion int64) (*memParent[E], error) {
	p, ok := s.parents[parentID]
	if !ok {
		return nil, apperr.NotFound("PARENT_NOT_FOUND", "parent not found")
	}
	if p.version != expectedVersion {
		return nil, store.ErrConflict
	}
	p.version++
	return p, nil
}

var _ collection.Store[struct{}] = (*MemoryStore[struct{}])(nil)
