// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

package auth_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agora-social/agora/internal/apperr"
	"github.com/agora-social/agora/internal/auth"
	"github.com/agora-social/agora/pkg/errutil"
)

var testSecret = auth.Secret("0123456789abcdef0123456789abcdef")

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newTokens(t *testing.T, clock *fakeClock) *auth.TokenService {
	t.Helper()
	svc, err := auth.NewTokenService(auth.TokenConfig{Secret: testSecret, Now: clock.Now})
	require.NoError(t, err)
	return svc
}

func TestNewTokenService(t *testing.T) {
	t.Run("short secret rejected", func(t *testing.T) {
		_, err := auth.NewTokenService(auth.TokenConfig{Secret: auth.Secret("short")})
		errutil.AssertErrorCode(t, err, "TOKEN_SECRET_TOO_SHORT")
	})

	t.Run("negative ttl rejected", func(t *testing.T) {
		_, err := auth.NewTokenService(auth.TokenConfig{Secret: testSecret, TTL: -time.Second})
		errutil.AssertErrorCode(t, err, "TOKEN_TTL_INVALID")
	})

	t.Run("defaults", func(t *testing.T) {
		svc, err := auth.NewTokenService(auth.TokenConfig{Secret: testSecret})
		require.NoError(t, err)
		assert.Equal(t, auth.DefaultTokenTTL, svc.TTL())
	})
}

func TestTokenService_RoundTrip(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	svc := newTokens(t, clock)
	id := ulid.Make()

	token, expiresAt, err := svc.Issue(id)
	require.NoError(t, err)
	assert.Equal(t, clock.now.Add(time.Hour), expiresAt)

	got, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	t.Run("payload carries the user claim", func(t *testing.T) {
		parts := strings.Split(token, ".")
		require.Len(t, parts, 3)
		raw, err := base64.RawURLEncoding.DecodeString(parts[1])
		require.NoError(t, err)

		var payload map[string]any
		require.NoError(t, json.Unmarshal(raw, &payload))
		assert.Equal(t, map[string]any{"id": id.String()}, payload["user"])
		assert.Equal(t, "agora", payload["iss"])
		assert.EqualValues(t, clock.now.Unix(), payload["iat"])
		assert.EqualValues(t, expiresAt.Unix(), payload["exp"])
	})
}

func TestTokenService_Verify(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	svc := newTokens(t, clock)
	id := ulid.Make()
	valid, _, err := svc.Issue(id)
	require.NoError(t, err)

	otherSecret, err := auth.NewTokenService(auth.TokenConfig{
		Secret: auth.Secret("ffffffffffffffffffffffffffffffff"),
		Now:    clock.Now,
	})
	require.NoError(t, err)
	forged, _, err := otherSecret.Issue(id)
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"user": map[string]string{"id": id.String()},
		"exp":  clock.now.Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user": map[string]string{"id": "not-a-ulid"},
		"exp":  clock.now.Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		advance time.Duration
		want    error
		code    string
	}{
		{"garbage", "abc", 0, auth.ErrTokenMalformed, "TOKEN_MALFORMED"},
		{"empty", "", 0, auth.ErrTokenMalformed, "TOKEN_MALFORMED"},
		{"other secret", forged, 0, auth.ErrTokenInvalidSignature, "TOKEN_INVALID_SIGNATURE"},
		{"alg none", noneAlg, 0, auth.ErrTokenInvalidSignature, "TOKEN_INVALID_SIGNATURE"},
		{"tampered payload", tamper(valid), 0, auth.ErrTokenInvalidSignature, "TOKEN_INVALID_SIGNATURE"},
		{"expired", valid, time.Hour, auth.ErrTokenExpired, "TOKEN_EXPIRED"},
		{"non ulid subject", badSubject, 0, auth.ErrTokenMalformed, "TOKEN_MALFORMED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.now = clock.now.Add(tt.advance)
			defer func() { clock.now = clock.now.Add(-tt.advance) }()

			_, err := svc.Verify(tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
			errutil.AssertErrorCode(t, err, tt.code)
		})
	}

	t.Run("valid one second before expiry", func(t *testing.T) {
		clock.now = clock.now.Add(time.Hour - time.Second)
		defer func() { clock.now = clock.now.Add(-(time.Hour - time.Second)) }()
		got, err := svc.Verify(valid)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	})
}

// tamper swaps the payload for one naming a different user while keeping
// the original signature.
func tamper(token string) string {
	parts := strings.Split(token, ".")
	payload := fmt.Sprintf(`{"user":{"id":%q},"exp":4102444800}`, ulid.Make().String())
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(payload))
	return strings.Join(parts, ".")
}

func TestSecret_Redacted(t *testing.T) {
	assert.Equal(t, "[REDACTED]", testSecret.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", testSecret))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%#v", testSecret))

	var buf bytes.Buffer
	slog.New(slog.NewJSONHandler(&buf, nil)).Info("config", "secret", testSecret)
	assert.NotContains(t, buf.String(), string(testSecret))
	assert.Contains(t, buf.String(), "[REDACTED]")
}
