// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

package postgres

import (
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	collectionpg "github.com/agora-social/agora/internal/collection/postgres"
	"github.com/agora-social/agora/internal/post"
	"github.com/agora-social/agora/internal/store"
)

var (
	likeColumns    = []string{"id", "user_id", "created_at"}
	commentColumns = []string{"id", "user_id", "name", "avatar", "text", "created_at"}
)

// LikeTable maps post likes onto post_likes.
func LikeTable() collectionpg.Table[post.Like] {
	return collectionpg.Table[post.Like]{
		Name:            "POST",
		NotFoundMessage: "Post not found",
		Parent:          "posts",
		OwnerColumn:     "author_id",
		Child:           "post_likes",
		ParentRef:       "post_id",
		Columns:         likeColumns,
		Values: func(l post.Like) []any {
			return []any{l.ID.String(), l.User.String(), l.CreatedAt}
		},
		Scan: scanLike,
		ID:   func(l post.Like) ulid.ULID { return l.ID },
	}
}

// CommentTable maps post comments onto post_comments.
func CommentTable() collectionpg.Table[post.Comment] {
	return collectionpg.Table[post.Comment]{
		Name:            "POST",
		NotFoundMessage: "Post not found",
		Parent:          "posts",
		OwnerColumn:     "author_id",
		Child:           "post_comments",
		ParentRef:       "post_id",
		Columns:         commentColumns,
		Values: func(c post.Comment) []any {
			return []any{c.ID.String(), c.User.String(), c.Name, c.Avatar, c.Text, c.CreatedAt}
		},
		Scan: scanComment,
		ID:   func(c post.Comment) ulid.ULID { return c.ID },
	}
}

// NewLikeStore creates the likes collection store.
func NewLikeStore(pool store.Pool) (*collectionpg.Store[post.Like], error) {
	return collectionpg.NewStore(pool, LikeTable())
}

// NewCommentStore creates the comments collection store.
func NewCommentStore(pool store.Pool) (*collectionpg.Store[post.Comment], error) {
	return collectionpg.NewStore(pool, CommentTable())
}

func scanLike(row pgx.Row) (post.Like, error) {
	var (
		l         post.Like
		id, user  string
		createdAt time.Time
	)
	if err := row.Scan(&id, &user, &createdAt); err != nil {
		return post.Like{}, err //nolint:wrapcheck // wrapped by the collection store
	}
	ids, err := parseIDs(id, user)
	if err != nil {
		return post.Like{}, err
	}
	l.ID, l.User, l.CreatedAt = ids[0], ids[1], createdAt
	return l, nil
}

func scanComment(row pgx.Row) (post.Comment, error) {
	var (
		c        post.Comment
		id, user string
	)
	if err := row.Scan(&id, &user, &c.Name, &c.Avatar, &c.Text, &c.CreatedAt); err != nil {
		return post.Comment{}, err //nolint:wrapcheck // wrapped by the collection store
	}
	ids, err := parseIDs(id, user)
	if err != nil {
		return post.Comment{}, err
	}
	c.ID, c.User = ids[0], ids[1]
	return c, nil
}

func parseIDs(raw ...string) ([]ulid.ULID, error) {
	ids := make([]ulid.ULID, len(raw))
	for i, r := range raw {
		id, err := ulid.Parse(r)
		if err != nil {
			return nil, oops.Code("POST_ID_CORRUPT").With("id", r).Wrap(err)
		}
		ids[i] = id
	}
	return ids, nil
}
