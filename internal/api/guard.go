// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/agora-social/agora/internal/apperr"
	"github.com/agora-social/agora/internal/auth"
)

// Guard admits requests carrying a valid identity token and stores the
// account id in the request context. The token is read from header, or
// from an "Authorization: Bearer" header. The store is never consulted.
func Guard(tokens TokenVerifier, header string, logger *slog.Logger) func(http.Handler) http.Handler {
	if header == "" {
		header = DefaultTokenHeader
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFrom(r, header)
			if token == "" {
				writeError(w, r, logger, apperr.Unauthenticated("AUTH_TOKEN_MISSING", "No token, authorization denied"))
				return
			}
			id, err := tokens.Verify(token)
			if err != nil {
				logger.DebugContext(r.Context(), "token rejected", "error", err)
				writeError(w, r, logger, apperr.Unauthenticated("AUTH_TOKEN_INVALID", "Token is not valid"))
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithAccountID(r.Context(), id)))
		})
	}
}

func tokenFrom(r *http.Request, header string) string {
	if token := strings.TrimSpace(r.Header.Get(header)); token != "" {
		return token
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

// actor returns the account id stored by Guard.
func actor(r *http.Request) ulid.ULID {
	id, _ := auth.AccountIDFromContext(r.Context())
	return id
}
