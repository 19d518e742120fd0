// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

// Package postgres stores nested collections as child tables whose rows
// carry the parent version they were written at.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/agora-social/agora/internal/apperr"
	"github.com/agora-social/agora/internal/collection"
	"github.com/agora-social/agora/internal/store"
)

// Table describes how one collection maps onto its parent and child tables.
// All names are trusted identifiers written in code.
type Table[E any] struct {
	// Name prefixes error codes, e.g. "POST" yields POST_NOT_FOUND.
	Name string
	// NotFoundMessage is shown when the parent row does not exist.
	NotFoundMessage string

	Parent      string // parent table, keyed by id, with a version column
	OwnerColumn string // parent column holding the owning account
	// Touch is an optional extra SET clause for the parent, e.g. "updated_at = now()".
	Touch string

	Child     string   // child table
	ParentRef string   // child column referencing the parent id
	Columns   []string // child columns in Values and Scan order; the first is the entry id

	Values func(E) []any
	Scan   func(row pgx.Row) (E, error)
	ID     func(E) ulid.ULID
}

// Store implements collection.Store for one Table.
type Store[E any] struct {
	pool  store.Pool
	tx    *store.Transactor
	table Table[E]

	loadParent  string
	loadEntries string
	loadMany    string
	bump        string
	insert      string
	remove      string
}

// NewStore prepares the statements for table.
func NewStore[E any](pool store.Pool, table Table[E]) (*Store[E], error) {
	if pool == nil {
		return nil, oops.Errorf("pool is required")
	}
	if table.Parent == "" || table.Child == "" || table.ParentRef == "" || table.OwnerColumn == "" ||
		len(table.Columns) == 0 || table.Values == nil || table.Scan == nil || table.ID == nil {
		return nil, oops.With("child", table.Child).Errorf("incomplete collection table")
	}
	if table.NotFoundMessage == "" {
		table.NotFoundMessage = "not found"
	}

	cols := strings.Join(table.Columns, ", ")
	placeholders := make([]string, len(table.Columns))
	for i := range table.Columns {
		placeholders[i] = fmt.Sprintf("$%d", i+3)
	}
	set := "version = version + 1"
	if table.Touch != "" {
		set += ", " + table.Touch
	}

	return &Store[E]{
		pool:  pool,
		tx:    store.NewTransactor(pool),
		table: table,
		loadParent: fmt.Sprintf(`SELECT %s, version FROM %s WHERE id = $1`,
			table.OwnerColumn, table.Parent),
		loadEntries: fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY position DESC`,
			cols, table.Child, table.ParentRef),
		loadMany: fmt.Sprintf(`SELECT %s, %s FROM %s WHERE %s = ANY($1) ORDER BY position DESC`,
			table.ParentRef, cols, table.Child, table.ParentRef),
		bump: fmt.Sprintf(`UPDATE %s SET %s WHERE id = $1 AND version = $2`,
			table.Parent, set),
		insert: fmt.Sprintf(`INSERT INTO %s (%s, position, %s) VALUES ($1, $2, %s)`,
			table.Child, table.ParentRef, cols, strings.Join(placeholders, ", ")),
		remove: fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`,
			table.Child, table.ParentRef, table.Columns[0]),
	}, nil
}

// Load implements collection.Store.
func (s *Store[E]) Load(ctx context.Context, parentID ulid.ULID) (*collection.Snapshot[E], error) {
	db := store.Conn(ctx, s.pool)

	var (
		ownerStr string
		snap     collection.Snapshot[E]
	)
	err := db.QueryRow(ctx, s.loadParent, parentID.String()).Scan(&ownerStr, &snap.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("id", parentID.String()).
			Wrap(apperr.NotFound(s.table.Name+"_NOT_FOUND", s.table.NotFoundMessage))
	}
	if err != nil {
		return nil, oops.Code(s.table.Name+"_LOAD_FAILED").
			With("operation", "load "+s.table.Parent).
			With("id", parentID.String()).
			Wrap(err)
	}
	owner, err := ulid.Parse(ownerStr)
	if err != nil {
		return nil, oops.Code(s.table.Name+"_OWNER_CORRUPT").With("owner", ownerStr).Wrap(err)
	}
	snap.Owner = owner

	entries, err := s.LoadEntries(ctx, parentID)
	if err != nil {
		return nil, err
	}
	snap.Entries = entries
	return &snap, nil
}

// LoadEntries reads only the child rows of parentID, most recent first.
func (s *Store[E]) LoadEntries(ctx context.Context, parentID ulid.ULID) ([]E, error) {
	rows, err := store.Conn(ctx, s.pool).Query(ctx, s.loadEntries, parentID.String())
	if err != nil {
		return nil, oops.Code(s.table.Name+"_LOAD_FAILED").
			With("operation", "load "+s.table.Child).
			With("id", parentID.String()).
			Wrap(err)
	}
	defer rows.Close()

	entries := []E{}
	for rows.Next() {
		e, err := s.table.Scan(rows)
		if err != nil {
			return nil, oops.Code(s.table.Name+"_LOAD_FAILED").
				With("operation", "scan "+s.table.Child).
				Wrap(err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code(s.table.Name+"_LOAD_FAILED").
			With("operation", "iterate "+s.table.Child).
			Wrap(err)
	}
	return entries, nil
}

// LoadMany reads the child rows of every parent in parentIDs, most recent
// first per parent. Parents without entries map to an empty slice.
func (s *Store[E]) LoadMany(ctx context.Context, parentIDs []ulid.ULID) (map[ulid.ULID][]E, error) {
	out := make(map[ulid.ULID][]E, len(parentIDs))
	if len(parentIDs) == 0 {
		return out, nil
	}
	raw := make([]string, len(parentIDs))
	for i, id := range parentIDs {
		raw[i] = id.String()
		out[id] = []E{}
	}

	rows, err := store.Conn(ctx, s.pool).Query(ctx, s.loadMany, raw)
	if err != nil {
		return nil, oops.Code(s.table.Name+"_LOAD_FAILED").
			With("operation", "load many "+s.table.Child).
			Wrap(err)
	}
	defer rows.Close()

	for rows.Next() {
		var parent string
		e, err := s.table.Scan(prefixedRow{row: rows, prefix: &parent})
		if err != nil {
			return nil, oops.Code(s.table.Name+"_LOAD_FAILED").
				With("operation", "scan "+s.table.Child).
				Wrap(err)
		}
		id, err := ulid.Parse(parent)
		if err != nil {
			return nil, oops.Code(s.table.Name+"_PARENT_CORRUPT").With("id", parent).Wrap(err)
		}
		out[id] = append(out[id], e)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code(s.table.Name+"_LOAD_FAILED").
			With("operation", "iterate "+s.table.Child).
			Wrap(err)
	}
	return out, nil
}

// prefixedRow scans the leading parent reference before the entry columns
// so Table.Scan is shared by single and batched loads.
type prefixedRow struct {
	row    pgx.Row
	prefix *string
}

func (p prefixedRow) Scan(dest ...any) error {
	return p.row.Scan(append([]any{p.prefix}, dest...)...) //nolint:wrapcheck // callers wrap
}

// Insert implements collection.Store.
func (s *Store[E]) Insert(ctx context.Context, parentID ulid.ULID, expectedVersion int64, entry E) error {
	return s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.bumpVersion(ctx, parentID, expectedVersion); err != nil {
			return err
		}
		args := append([]any{parentID.String(), expectedVersion + 1}, s.table.Values(entry)...)
		_, err := store.Conn(ctx, s.pool).Exec(ctx, s.insert, args...)
		if store.IsUniqueViolation(err, "") {
			// A concurrent writer got there first; the next read will see it.
			return store.ErrConflict
		}
		if err != nil {
			return oops.Code(s.table.Name+"_WRITE_FAILED").
				With("operation", "insert "+s.table.Child).
				With("parent_id", parentID.String()).
				With("entry_id", s.table.ID(entry).String()).
				Wrap(err)
		}
		return nil
	})
}

// Delete implements collection.Store.
func (s *Store[E]) Delete(ctx context.Context, parentID ulid.ULID, expectedVersion int64, entryID ulid.ULID) error {
	return s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.bumpVersion(ctx, parentID, expectedVersion); err != nil {
			return err
		}
		tag, err := store.Conn(ctx, s.pool).Exec(ctx, s.remove, parentID.String(), entryID.String())
		if err != nil {
			return oops.Code(s.table.Name+"_WRITE_FAILED").
				With("operation", "delete "+s.table.Child).
				With("parent_id", parentID.String()).
				With("entry_id", entryID.String()).
				Wrap(err)
		}
		if tag.RowsAffected() == 0 {
			return store.ErrConflict
		}
		return nil
	})
}

func (s *Store[E]) bumpVersion(ctx context.Context, parentID ulid.ULID, expectedVersion int64) error {
	tag, err := store.Conn(ctx, s.pool).Exec(ctx, s.bump, parentID.String(), expectedVersion)
	if err != nil {
		return oops.Code(s.table.Name+"_WRITE_FAILED").
			With("operation", "bump "+s.table.Parent+" version").
			With("parent_id", parentID.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrConflict
	}
	return nil
}

var _ collection.Store[struct{}] = (*Store[struct{}])(nil)
