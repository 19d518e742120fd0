// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

// Package post implements posts and their likes and comments.
package post

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/agora-social/agora/internal/apperr"
)

// Post is a short text published by an account.
type Post struct {
	ID     ulid.ULID `json:"id"`
	Author ulid.ULID `json:"user"`
	// Name and Avatar are the author's at the time of posting.
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	Text      string    `json:"text"`
	Likes     []Like    `json:"likes"`
	Comments  []Comment `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
	Version   int64     `json:"-"`
}

// Like records that an account liked a post.
type Like struct {
	ID        ulid.ULID `json:"id"`
	User      ulid.ULID `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment is a reply to a post. Name and Avatar are the commenter's at the
// time of commenting.
type Comment struct {
	ID        ulid.ULID `json:"id"`
	User      ulid.ULID `json:"user"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository persists posts. Likes and comments are written through
// collection stores; reads return them populated.
type Repository interface {
	Create(ctx context.Context, post *Post) error
	// Get returns NotFound for a missing post.
	Get(ctx context.Context, id ulid.ULID) (*Post, error)
	// List returns every post, newest first.
	List(ctx context.Context) ([]*Post, error)
	// Delete returns NotFound for a missing post.
	Delete(ctx context.Context, id ulid.ULID) error
}

// CreateInput is the new post request.
type CreateInput struct {
	Text string `json:"text" jsonschema:"minLength=1"`
}

// Validate requires non-blank text.
func (in CreateInput) Validate() error {
	return validateText("POST_INVALID", in.Text)
}

// CommentInput is the new comment request.
type CommentInput struct {
	Text string `json:"text" jsonschema:"minLength=1"`
}

// Validate requires non-blank text.
func (in CommentInput) Validate() error {
	return validateText("COMMENT_INVALID", in.Text)
}

func validateText(code, text string) error {
	if strings.TrimSpace(text) == "" {
		return apperr.Validation(code, apperr.Field("text", "Text is required"))
	}
	return nil
}
