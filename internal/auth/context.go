// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

package auth

import (
	"context"

	"github.com/oklog/ulid/v2"
)

type accountIDKey struct{}

// WithAccountID returns a context carrying the authenticated account id.
func WithAccountID(ctx context.Context, id ulid.ULID) context.Context {
	return context.WithValue(ctx, accountIDKey{}, id)
}

// AccountIDFromContext returns the authenticated account id, if any.
func AccountIDFromContext(ctx context.Context) (ulid.ULID, bool) {
	id, ok := ctx.Value(accountIDKey{}).(ulid.ULID)
	return id, ok
}
