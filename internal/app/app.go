// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

// Package app assembles repositories, services and the HTTP router on top
// of one database pool.
package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/oops"

	"github.com/agora-social/agora/internal/api"
	"github.com/agora-social/agora/internal/auth"
	authpg "github.com/agora-social/agora/internal/auth/postgres"
	"github.com/agora-social/agora/internal/config"
	"github.com/agora-social/agora/internal/observability"
	"github.com/agora-social/agora/internal/post"
	postpg "github.com/agora-social/agora/internal/post/postgres"
	"github.com/agora-social/agora/internal/profile"
	profilepg "github.com/agora-social/agora/internal/profile/postgres"
	"github.com/agora-social/agora/internal/store"
)

// Options configures New.
type Options struct {
	TokenSecret     auth.Secret
	TokenTTL        time.Duration
	TokenHeader     string
	RequestTimeout  time.Duration
	CORSOrigins     []string
	Hasher          auth.HasherParams
	ConflictRetries uint64
	// Metrics may be nil.
	Metrics *observability.Metrics
	Logger  *slog.Logger
}

// OptionsFromConfig maps server configuration onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		TokenSecret:     cfg.JWTSecret,
		TokenTTL:        cfg.TokenTTL,
		TokenHeader:     cfg.TokenHeader,
		RequestTimeout:  cfg.RequestTimeout,
		CORSOrigins:     cfg.CORSOrigins,
		Hasher:          cfg.HasherParams(),
		ConflictRetries: cfg.ConflictRetries,
	}
}

// App holds the assembled services and router.
type App struct {
	Tokens   *auth.TokenService
	Auth     *auth.Service
	Posts    *post.Service
	Profiles *profile.Service
	Handler  http.Handler
}

// New wires every Agora component to pool.
func New(pool store.Pool, opts Options) (*App, error) {
	if pool == nil {
		return nil, oops.Code("APP_CONFIG_INVALID").Errorf("database pool is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Hasher == (auth.HasherParams{}) {
		opts.Hasher = auth.DefaultHasherParams
	}
	if err := opts.Hasher.Validate(); err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret: opts.TokenSecret,
		TTL:    opts.TokenTTL,
	})
	if err != nil {
		return nil, err
	}

	accounts := authpg.NewAccountRepository(pool)
	authSvc, err := auth.NewService(accounts, auth.NewArgon2idHasher(opts.Hasher), tokens,
		auth.WithLogger(opts.Logger))
	if err != nil {
		return nil, err
	}

	retry := store.RetryPolicy{Attempts: opts.ConflictRetries}
	var onConflict func(string)
	if opts.Metrics != nil {
		onConflict = opts.Metrics.RecordConflict
	}

	posts, err := postpg.NewRepository(pool)
	if err != nil {
		return nil, err
	}
	postSvc, err := post.NewService(posts, authSvc, posts.Likes(), posts.Comments(), post.Config{
		Retry:      retry,
		OnConflict: onConflict,
		Logger:     opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	profiles, err := profilepg.NewRepository(pool)
	if err != nil {
		return nil, err
	}
	profileSvc, err := profile.NewService(profiles, profiles.Experience(), profiles.Education(), profile.Config{
		Retry:      retry,
		OnConflict: onConflict,
		Logger:     opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	handler, err := api.NewRouter(api.Config{
		Auth:           authSvc,
		Posts:          postSvc,
		Profiles:       profileSvc,
		Tokens:         tokens,
		TokenHeader:    opts.TokenHeader,
		RequestTimeout: opts.RequestTimeout,
		CORSOrigins:    opts.CORSOrigins,
		Metrics:        opts.Metrics,
		Logger:         opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	return &App{
		Tokens:   tokens,
		Auth:     authSvc,
		Posts:    postSvc,
		Profiles: profileSvc,
		Handler:  handler,
	}, nil
}
