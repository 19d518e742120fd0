// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

// Package pgtest starts a throwaway PostgreSQL container with the Agora
// schema applied. It is used by integration tests only.
package pgtest

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/agora-social/agora/internal/store"
)

// Database is a running, migrated test database.
type Database struct {
	ConnString string
	Pool       *pgxpool.Pool
	container  testcontainers.Container
}

// Start launches postgres:16-alpine, applies every embedded migration and
// opens a pool.
func Start(ctx context.Context) (*Database, error) {
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("agora_test"),
		postgres.WithUsername("agora"),
		postgres.WithPassword("agora"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, oops.With("operation", "start postgres container").Wrap(err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, oops.With("operation", "get connection string").Wrap(err)
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		_ = container.Terminate(ctx)
		return nil, err
	}
	_ = migrator.Close()

	pool, err := store.Connect(ctx, connStr, store.ConnectOptions{Attempts: 3})
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	return &Database{ConnString: connStr, Pool: pool, container: container}, nil
}

// Truncate empties every application table between tests.
func (d *Database) Truncate(ctx context.Context) error {
	_, err := d.Pool.Exec(ctx, `TRUNCATE accounts, posts, post_likes, post_comments,
		profiles, profile_experience, profile_education CASCADE`)
	if err != nil {
		return oops.With("operation", "truncate tables").Wrap(err)
	}
	return nil
}

// Close releases the pool and terminates the container.
func (d *Database) Close(ctx context.Context) {
	d.Pool.Close()
	_ = d.container.Terminate(ctx)
}
