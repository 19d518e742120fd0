// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

// Package api exposes the Agora services over HTTP.
//
// Routes follow the client contract under /api. Request bodies are checked
// against JSON schemas before any service call; every failure is rendered
// as {"kind","message","errors"} with the status of its error kind.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/agora-social/agora/internal/auth"
	"github.com/agora-social/agora/internal/observability"
	"github.com/agora-social/agora/internal/post"
	"github.com/agora-social/agora/internal/profile"
)

// DefaultTokenHeader is the header the original clients send tokens in.
const DefaultTokenHeader = "x-auth-token"

// AuthService is the identity surface used by the handlers.
type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) (string, error)
	Login(ctx context.Context, in auth.LoginInput) (string, error)
	CurrentIdentity(ctx context.Context, accountID ulid.ULID) (*auth.Account, error)
}

// PostService is the post surface used by the handlers.
type PostService interface {
	Create(ctx context.Context, actor ulid.ULID, in post.CreateInput) (*post.Post, error)
	List(ctx context.Context) ([]*post.Post, error)
	Get(ctx context.Context, rawID string) (*post.Post, error)
	Delete(ctx context.Context, actor ulid.ULID, rawID string) error
	Like(ctx context.Context, actor ulid.ULID, rawID string) ([]post.Like, error)
	Unlike(ctx context.Context, actor ulid.ULID, rawID string) ([]post.Like, error)
	AddComment(ctx context.Context, actor ulid.ULID, rawID string, in post.CommentInput) ([]post.Comment, error)
	RemoveComment(ctx context.Context, actor ulid.ULID, rawPostID, rawCommentID string) ([]post.Comment, error)
}

// ProfileService is the profile surface used by the handlers.
type ProfileService interface {
	Me(ctx context.Context, actor ulid.ULID) (*profile.Profile, error)
	Upsert(ctx context.Context, actor ulid.ULID, in profile.UpsertInput) (*profile.Profile, error)
	List(ctx context.Context) ([]*profile.Profile, error)
	GetByOwner(ctx context.Context, rawOwnerID string) (*profile.Profile, error)
	Delete(ctx context.Context, actor ulid.ULID) error
	AddExperience(ctx context.Context, actor ulid.ULID, in profile.ExperienceInput) (*profile.Profile, error)
	RemoveExperience(ctx context.Context, actor ulid.ULID, rawID string) (*profile.Profile, error)
	AddEducation(ctx context.Context, actor ulid.ULID, in profile.EducationInput) (*profile.Profile, error)
	RemoveEducation(ctx context.Context, actor ulid.ULID, rawID string) (*profile.Profile, error)
}

// TokenVerifier checks identity tokens.
type TokenVerifier interface {
	Verify(token string) (ulid.ULID, error)
}

var (
	_ AuthService    = (*auth.Service)(nil)
	_ PostService    = (*post.Service)(nil)
	_ ProfileService = (*profile.Service)(nil)
	_ TokenVerifier  = (*auth.TokenService)(nil)
)

// Config wires the router. Auth, Posts, Profiles and Tokens are required.
type Config struct {
	Auth     AuthService
	Posts    PostService
	Profiles ProfileService
	Tokens   TokenVerifier

	// TokenHeader defaults to DefaultTokenHeader.
	TokenHeader string
	// RequestTimeout bounds each request when positive.
	RequestTimeout time.Duration
	// CORSOrigins are glob patterns of allowed origins.
	CORSOrigins []string
	Metrics     *observability.Metrics
	Logger      *slog.Logger
}

type handler struct {
	auth     AuthService
	posts    PostService
	profiles ProfileService
	schemas  *Schemas
	logger   *slog.Logger
}

// NewRouter builds the HTTP handler for the API.
func NewRouter(cfg Config) (http.Handler, error) {
	if cfg.Auth == nil || cfg.Posts == nil || cfg.Profiles == nil || cfg.Tokens == nil {
		return nil, oops.Code("API_CONFIG_INVALID").Errorf("auth, post and profile services and a token verifier are required")
	}
	if cfg.TokenHeader == "" {
		cfg.TokenHeader = DefaultTokenHeader
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	cors, err := CORS(cfg.CORSOrigins, cfg.TokenHeader)
	if err != nil {
		return nil, err
	}
	schemas, err := NewSchemas()
	if err != nil {
		return nil, err
	}

	h := &handler{
		auth:     cfg.Auth,
		posts:    cfg.Posts,
		profiles: cfg.Profiles,
		schemas:  schemas,
		logger:   cfg.Logger,
	}
	// Guarded routes sit in inline groups, so the guard runs after the leaf
	// route matches and rejected requests keep their route label.
	guard := Guard(cfg.Tokens, cfg.TokenHeader, cfg.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, Trace, Observe(cfg.Metrics, cfg.Logger), cors)
	if cfg.RequestTimeout > 0 {
		r.Use(Timeout(cfg.RequestTimeout))
	}
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Kind: "NotFound", Message: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Kind: "NotFound", Message: "method not allowed"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/users", h.register)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/", h.login)
			r.With(guard).Get("/", h.me)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", h.listPosts)
			r.Get("/{id}", h.getPost)

			r.Group(func(r chi.Router) {
				r.Use(guard)
				r.Post("/", h.createPost)
				r.Delete("/{id}", h.deletePost)
				r.Put("/like/{id}", h.likePost)
				r.Put("/unlike/{id}", h.unlikePost)
				r.Post("/comment/{id}", h.addComment)
				r.Delete("/comment/{id}/{comment_id}", h.removeComment)
			})
		})

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", h.listProfiles)
			r.Get("/user/{user_id}", h.profileByOwner)

			r.Group(func(r chi.Router) {
				r.Use(guard)
				r.Get("/me", h.myProfile)
				r.Post("/", h.upsertProfile)
				r.Delete("/", h.deleteProfile)
				r.Put("/experience", h.addExperience)
				r.Delete("/experience/{exp_id}", h.removeExperience)
				r.Put("/education", h.addEducation)
				r.Delete("/education/{edu_id}", h.removeEducation)
			})
		})
	})
	return r, nil
}
