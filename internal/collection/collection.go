// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

// Package collection applies ownership-checked inserts and removals to the
// nested collections of a parent document: the likes and comments of a
// post, the experience and education entries of a profile.
//
// Every write is a compare-and-swap on the parent's version. A write that
// loses a race is re-read and re-attempted a bounded number of times, so
// concurrent writers never overwrite each other's entries.
package collection

import (
	"context"

	"github.com/oklog/ulid/v2"
)

// Snapshot is a nested collection as read at one parent version.
type Snapshot[E any] struct {
	// Owner is the account that owns the parent document.
	Owner ulid.ULID
	// Version is the parent version the entries were read at.
	Version int64
	// Entries are ordered most recent first.
	Entries []E
}

// Store persists one kind of nested collection.
type Store[E any] interface {
	// Load reads the parent's owner, version and entries. A missing parent
	// is NotFound.
	Load(ctx context.Context, parentID ulid.ULID) (*Snapshot[E], error)

	// Insert adds entry if the parent is still at expectedVersion and
	// returns store.ErrConflict otherwise.
	Insert(ctx context.Context, parentID ulid.ULID, expectedVersion int64, entry E) error

	// Delete removes the entry with entryID if the parent is still at
	// expectedVersion and returns store.ErrConflict otherwise.
	Delete(ctx context.Context, parentID ulid.ULID, expectedVersion int64, entryID ulid.ULID) error
}

// Policy describes one collection: how to identify entries, who wrote them,
// what may be inserted and who may remove what.
type Policy[E any] struct {
	// Name prefixes error codes, e.g. "LIKE" yields LIKE_NOT_FOUND.
	Name string

	EntryID func(E) ulid.ULID
	Actor   func(E) ulid.ULID

	// Admit rejects a candidate entry given the current snapshot.
	// Nil admits everything.
	Admit func(actor ulid.ULID, snap *Snapshot[E], candidate E) error

	// Authorize reports whether actor may remove entry. Nil allows only
	// the entry's own actor.
	Authorize func(actor ulid.ULID, snap *Snapshot[E], entry E) bool

	// MissingMessage is shown when the removal target does not exist.
	MissingMessage string
	// ForbiddenMessage is shown when the actor may not remove the target.
	ForbiddenMessage string
}

// Target selects the entry a removal applies to.
type Target struct {
	id      ulid.ULID
	byActor bool
}

// ByID targets the entry with the given identifier.
func ByID(id ulid.ULID) Target { return Target{id: id} }

// ByActor targets the entry written by the acting account.
func ByActor() Target { return Target{byActor: true} }

func (t Target) matches(actor ulid.ULID, entryID, entryActor ulid.ULID) bool {
	if t.byActor {
		return entryActor == actor
	}
	return entryID == t.id
}
