// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

// Package postgres implements post persistence on PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/lo"
	"github.com/samber/oops"

	"github.com/agora-social/agora/internal/apperr"
	collectionpg "github.com/agora-social/agora/internal/collection/postgres"
	"github.com/agora-social/agora/internal/post"
	"github.com/agora-social/agora/internal/store"
)

const selectPost = `SELECT id, author_id, name, avatar, text, version, created_at FROM posts`

// Repository implements post.Repository using PostgreSQL.
type Repository struct {
	pool     store.Pool
	likes    *collectionpg.Store[post.Like]
	comments *collectionpg.Store[post.Comment]
}

// NewRepository creates a Repository and the collection stores it reads
// likes and comments through.
func NewRepository(pool store.Pool) (*Repository, error) {
	likes, err := NewLikeStore(pool)
	if err != nil {
		return nil, err
	}
	comments, err := NewCommentStore(pool)
	if err != nil {
		return nil, err
	}
	return &Repository{pool: pool, likes: likes, comments: comments}, nil
}

// Likes returns the likes collection store.
func (r *Repository) Likes() *collectionpg.Store[post.Like] { return r.likes }

// Comments returns the comments collection store.
func (r *Repository) Comments() *collectionpg.Store[post.Comment] { return r.comments }

// Create stores a new post.
func (r *Repository) Create(ctx context.Context, p *post.Post) error {
	_, err := store.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO posts (id, author_id, name, avatar, text, version, created_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6)
	`, p.ID.String(), p.Author.String(), p.Name, p.Avatar, p.Text, p.CreatedAt)
	if err != nil {
		return oops.Code("POST_CREATE_FAILED").
			With("operation", "insert post").
			With("post_id", p.ID.String()).
			Wrap(err)
	}
	return nil
}

// Get retrieves a post with its likes and comments.
func (r *Repository) Get(ctx context.Context, id ulid.ULID) (*post.Post, error) {
	row := store.Conn(ctx, r.pool).QueryRow(ctx, selectPost+` WHERE id = $1`, id.String())
	p, err := scanPost(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("id", id.String()).Wrap(apperr.NotFound("POST_NOT_FOUND", "Post not found"))
	}
	if err != nil {
		return nil, oops.Code("POST_GET_FAILED").
			With("operation", "get post").
			With("id", id.String()).
			Wrap(err)
	}

	if p.Likes, err = r.likes.LoadEntries(ctx, id); err != nil {
		return nil, err
	}
	if p.Comments, err = r.comments.LoadEntries(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

// List retrieves every post, newest first, with likes and comments.
func (r *Repository) List(ctx context.Context) ([]*post.Post, error) {
	rows, err := store.Conn(ctx, r.pool).Query(ctx, selectPost+` ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, oops.Code("POST_LIST_FAILED").With("operation", "list posts").Wrap(err)
	}
	posts, err := collectRows(rows, scanPost)
	if err != nil {
		return nil, oops.Code("POST_LIST_FAILED").With("operation", "scan posts").Wrap(err)
	}
	if len(posts) == 0 {
		return posts, nil
	}

	ids := lo.Map(posts, func(p *post.Post, _ int) ulid.ULID { return p.ID })
	likes, err := r.likes.LoadMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	comments, err := r.comments.LoadMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		p.Likes, p.Comments = likes[p.ID], comments[p.ID]
	}
	return posts, nil
}

// Delete removes a post. Likes and comments cascade.
func (r *Repository) Delete(ctx context.Context, id ulid.ULID) error {
	tag, err := store.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM posts WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("POST_DELETE_FAILED").
			With("operation", "delete post").
			With("id", id.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.With("id", id.String()).Wrap(apperr.NotFound("POST_NOT_FOUND", "Post not found"))
	}
	return nil
}

func scanPost(row pgx.Row) (*post.Post, error) {
	var (
		p              post.Post
		idStr, authorS string
	)
	if err := row.Scan(&idStr, &authorS, &p.Name, &p.Avatar, &p.Text, &p.Version, &p.CreatedAt); err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with operation context
	}
	ids, err := parseIDs(idStr, authorS)
	if err != nil {
		return nil, err
	}
	p.ID, p.Author = ids[0], ids[1]
	p.Likes, p.Comments = []post.Like{}, []post.Comment{}
	return &p, nil
}

func collectRows[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

var _ post.Repository = (*Repository)(nil)
