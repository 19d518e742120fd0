// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

package post

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/agora-social/agora/internal/apperr"
	"github.com/agora-social/agora/internal/auth"
	"github.com/agora-social/agora/internal/collection"
	"github.com/agora-social/agora/internal/store"
)

const notFoundMessage = "Post not found"

// AccountLookup resolves the acting account for name and avatar snapshots.
type AccountLookup interface {
	Lookup(ctx context.Context, id ulid.ULID) (*auth.Account, error)
}

// Service implements the post operations.
type Service struct {
	posts    Repository
	accounts AccountLookup
	likes    *collection.Mutator[Like]
	comments *collection.Mutator[Comment]
	logger   *slog.Logger
	now      func() time.Time
}

// Config holds the optional Service settings.
type Config struct {
	Retry      store.RetryPolicy
	OnConflict func(collection string)
	Logger     *slog.Logger
	Now        func() time.Time
}

// LikePolicy admits one like per account and lets only the liker unlike.
func LikePolicy() collection.Policy[Like] {
	return collection.Policy[Like]{
		Name:    "LIKE",
		EntryID: func(l Like) ulid.ULID { return l.ID },
		Actor:   func(l Like) ulid.ULID { return l.User },
		Admit: func(actor ulid.ULID, snap *collection.Snapshot[Like], _ Like) error {
			for _, l := range snap.Entries {
				if l.User == actor {
					return apperr.Duplicate("LIKE_DUPLICATE", "Post already liked")
				}
			}
			return nil
		},
		MissingMessage: "Post has not yet been liked",
	}
}

// CommentPolicy lets the commenter or the post author remove a comment.
func CommentPolicy() collection.Policy[Comment] {
	return collection.Policy[Comment]{
		Name:    "COMMENT",
		EntryID: func(c Comment) ulid.ULID { return c.ID },
		Actor:   func(c Comment) ulid.ULID { return c.User },
		Authorize: func(actor ulid.ULID, snap *collection.Snapshot[Comment], c Comment) bool {
			return c.User == actor || snap.Owner == actor
		},
		MissingMessage: "Comment does not exist",
	}
}

// NewService creates a Service.
func NewService(
	posts Repository,
	accounts AccountLookup,
	likes collection.Store[Like],
	comments collection.Store[Comment],
	cfg Config,
) (*Service, error) {
	if posts == nil {
		return nil, oops.Errorf("post repository is required")
	}
	if accounts == nil {
		return nil, oops.Errorf("account lookup is required")
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
	likeMutator, err := collection.New(likes, LikePolicy(), opts...)
	if err != nil {
		return nil, oops.With("collection", "likes").Wrap(err)
	}
	commentMutator, err := collection.New(comments, CommentPolicy(), opts...)
	if err != nil {
		return nil, oops.With("collection", "comments").Wrap(err)
	}

	return &Service{
		posts:    posts,
		accounts: accounts,
		likes:    likeMutator,
		comments: commentMutator,
		logger:   cfg.Logger,
		now:      cfg.Now,
	}, nil
}

// Create publishes a post by actor.
func (s *Service) Create(ctx context.Context, actor ulid.ULID, in CreateInput) (*Post, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	author, err := s.accounts.Lookup(ctx, actor)
	if err != nil {
		return nil, err
	}

	p := &Post{
		ID:        ulid.Make(),
		Author:    actor,
		Name:      author.Name,
		Avatar:    author.Avatar,
		Text:      in.Text,
		Likes:     []Like{},
		Comments:  []Comment{},
		CreatedAt: s.now().UTC(),
	}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, apperr.FromStore(err, "POST_CREATE_FAILED", "create post")
	}
	s.logger.InfoContext(ctx, "post created", "post_id", p.ID.String(), "author_id", actor.String())
	return p, nil
}

// List returns every post, newest first.
func (s *Service) List(ctx context.Context) ([]*Post, error) {
	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, apperr.FromStore(err, "POST_LIST_FAILED", "list posts")
	}
	return posts, nil
}

// Get returns one post.
func (s *Service) Get(ctx context.Context, rawID string) (*Post, error) {
	id, err := parsePostID(rawID)
	if err != nil {
		return nil, err
	}
	p, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(err, "POST_GET_FAILED", "get post")
	}
	return p, nil
}

// Delete removes a post. Only its author may delete it.
func (s *Service) Delete(ctx context.Context, actor ulid.ULID, rawID string) error {
	p, err := s.Get(ctx, rawID)
	if err != nil {
		return err
	}
	if p.Author != actor {
		return apperr.Forbidden("POST_FORBIDDEN", "User not authorized")
	}
	if err := s.posts.Delete(ctx, p.ID); err != nil {
		return apperr.FromStore(err, "POST_DELETE_FAILED", "delete post")
	}
	s.logger.InfoContext(ctx, "post deleted", "post_id", p.ID.String())
	return nil
}

// Like adds actor's like and returns the post's likes.
func (s *Service) Like(ctx context.Context, actor ulid.ULID, rawID string) ([]Like, error) {
	id, err := parsePostID(rawID)
	if err != nil {
		return nil, err
	}
	return s.likes.Insert(ctx, actor, id, Like{
		ID:        ulid.Make(),
		User:      actor,
		CreatedAt: s.now().UTC(),
	})
}

// Unlike removes actor's like and returns the post's likes.
func (s *Service) Unlike(ctx context.Context, actor ulid.ULID, rawID string) ([]Like, error) {
	id, err := parsePostID(rawID)
	if err != nil {
		return nil, err
	}
	return s.likes.Remove(ctx, actor, id, collection.ByActor())
}

// AddComment adds actor's comment and returns the post's comments.
func (s *Service) AddComment(ctx context.Context, actor ulid.ULID, rawID string, in CommentInput) ([]Comment, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	id, err := parsePostID(rawID)
	if err != nil {
		return nil, err
	}
	author, err := s.accounts.Lookup(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.comments.Insert(ctx, actor, id, Comment{
		ID:        ulid.Make(),
		User:      actor,
		Name:      author.Name,
		Avatar:    author.Avatar,
		Text:      in.Text,
		CreatedAt: s.now().UTC(),
	})
}

// RemoveComment deletes a comment. The commenter and the post author may
// remove it.
func (s *Service) RemoveComment(ctx context.Context, actor ulid.ULID, rawPostID, rawCommentID string) ([]Comment, error) {
	postID, err := parsePostID(rawPostID)
	if err != nil {
		return nil, err
	}
	commentID, err := apperr.ParseID(rawCommentID, "COMMENT_NOT_FOUND", "Comment does not exist")
	if err != nil {
		return nil, err
	}
	return s.comments.Remove(ctx, actor, postID, collection.ByID(commentID))
}

func parsePostID(raw string) (ulid.ULID, error) {
	return apperr.ParseID(raw, "POST_NOT_FOUND", notFoundMessage)
}
