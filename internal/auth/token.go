// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/agora-social/agora/internal/apperr"
)

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = time.Hour

// MinSecretLength is the shortest accepted signing secret, in bytes.
const MinSecretLength = 32

// DefaultIssuer is written to the iss claim.
const DefaultIssuer = "agora"

// Token verification failures. All of them are Unauthenticated.
var (
	ErrTokenMalformed        = fmt.Errorf("token is malformed: %w", apperr.ErrUnauthenticated)
	ErrTokenExpired          = fmt.Errorf("token has expired: %w", apperr.ErrUnauthenticated)
	ErrTokenInvalidSignature = fmt.Errorf("token signature is invalid: %w", apperr.ErrUnauthenticated)
)

// Secret is token signing key material. It never renders in logs.
type Secret []byte

// String implements fmt.Stringer.
func (Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer so %#v is redacted too.
func (Secret) GoString() string { return "[REDACTED]" }

// LogValue implements slog.LogValuer.
func (Secret) LogValue() slog.Value { return slog.StringValue("[REDACTED]") }

// TokenConfig configures a TokenService.
type TokenConfig struct {
	Secret Secret
	TTL    time.Duration
	Issuer string
	// Now defaults to time.Now.
	Now func() time.Time
}

// TokenService issues and verifies signed identity tokens.
type TokenService struct {
	secret Secret
	ttl    time.Duration
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

type userClaim struct {
	ID string `json:"id"`
}

type tokenClaims struct {
	User userClaim `json:"user"`
	jwt.RegisteredClaims
}

// NewTokenService validates cfg and creates a TokenService.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, oops.Code("TOKEN_SECRET_TOO_SHORT").
			With("min_length", MinSecretLength).
			Errorf("token secret must be at least %d bytes", MinSecretLength)
	}
	if cfg.TTL < 0 {
		return nil, oops.Code("TOKEN_TTL_INVALID").Errorf("token ttl must be positive")
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTokenTTL
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &TokenService{
		secret: cfg.Secret,
		ttl:    cfg.TTL,
		issuer: cfg.Issuer,
		now:    cfg.Now,
		// Expiry is checked against the injected clock in Verify.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

// TTL returns the validity period of issued tokens.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token naming accountID.
func (s *TokenService) Issue(accountID ulid.ULID) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := tokenClaims{
		User: userClaim{ID: accountID.String()},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.secret))
	if err != nil {
		return "", time.Time{}, apperr.Unavailable(err, "TOKEN_SIGN_FAILED", "sign token")
	}
	return signed, expiresAt, nil
}

// Verify checks the signature and expiry of token and returns the account id
// it names.
func (s *TokenService) Verify(token string) (ulid.ULID, error) {
	var claims tokenClaims
	_, err := s.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return []byte(s.secret), nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ulid.ULID{}, oops.Code("TOKEN_MALFORMED").Wrap(ErrTokenMalformed)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ulid.ULID{}, oops.Code("TOKEN_INVALID_SIGNATURE").Wrap(ErrTokenInvalidSignature)
	default:
		return ulid.ULID{}, oops.Code("TOKEN_MALFORMED").With("cause", err.Error()).Wrap(ErrTokenMalformed)
	}

	if claims.ExpiresAt == nil || !claims.VerifyExpiresAt(s.now(), true) {
		return ulid.ULID{}, oops.Code("TOKEN_EXPIRED").Wrap(ErrTokenExpired)
	}

	id, err := ulid.ParseStrict(claims.User.ID)
	if err != nil {
		return ulid.ULID{}, oops.Code("TOKEN_MALFORMED").With("cause", "user id").Wrap(ErrTokenMalformed)
	}
	return id, nil
}
