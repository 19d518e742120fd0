// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"
)

// ErrConflict is returned by compare-and-swap writes when the row's version
// changed since it was read.
var ErrConflict = errors.New("version conflict")

// RetryPolicy bounds how often a conflicting write is re-attempted.
type RetryPolicy struct {
	Attempts uint64
	Base     time.Duration
	// OnConflict is called once per conflict, before the next attempt.
	OnConflict func()
}

// DefaultRetryPolicy is used when a caller passes the zero RetryPolicy.
var DefaultRetryPolicy = RetryPolicy{Attempts: 5, Base: 5 * time.Millisecond}

// RetryOnConflict runs fn until it succeeds, fails with anything other than
// ErrConflict, or the attempts are spent. Only ErrConflict is retried;
// every other error is returned as is on first sight.
func RetryOnConflict(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) error {
	if policy.Attempts == 0 {
		policy.Attempts = DefaultRetryPolicy.Attempts
	}
	if policy.Base <= 0 {
		policy.Base = DefaultRetryPolicy.Base
	}

	backoff := retry.WithJitterPercent(50, retry.NewExponential(policy.Base))
	backoff = retry.WithMaxRetries(policy.Attempts-1, backoff)

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if errors.Is(err, ErrConflict) {
			if policy.OnConflict != nil {
				policy.OnConflict()
			}
			return retry.RetryableError(err)
		}
		return err
	})
}

// IsUniqueViolation reports whether err is a PostgreSQL unique violation,
// optionally restricted to the named constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
