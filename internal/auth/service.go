// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/agora-social/agora/internal/apperr"
	"github.com/agora-social/agora/pkg/errutil"
)

// Issuer signs identity tokens. *TokenService implements it.
type Issuer interface {
	Issue(accountID ulid.ULID) (string, time.Time, error)
}

// Service registers accounts, exchanges credentials for tokens and resolves
// the current identity.
type Service struct {
	accounts AccountRepository
	hasher   PasswordHasher
	tokens   Issuer
	avatars  AvatarResolver
	logger   *slog.Logger
	now      func() time.Time

	// dummyHash is verified when no account matches, so a missing account
	// costs the same as a wrong password under the configured cost. It
	// hashes a random throwaway secret and matches nothing.
	dummyHash string
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAvatarResolver replaces the gravatar default.
func WithAvatarResolver(r AvatarResolver) ServiceOption {
	return func(s *Service) {
		if r != nil {
			s.avatars = r
		}
	}
}

// WithClock sets the time source for account creation stamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a Service.
func NewService(accounts AccountRepository, hasher PasswordHasher, tokens Issuer, opts ...ServiceOption) (*Service, error) {
	if accounts == nil {
		return nil, oops.Errorf("accounts repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Errorf("token issuer is required")
	}
	s := &Service{
		accounts: accounts,
		hasher:   hasher,
		tokens:   tokens,
		avatars:  Gravatar{},
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	dummy, err := hasher.Hash(ulid.Make().String())
	if err != nil {
		return nil, oops.Code("AUTH_DUMMY_HASH_FAILED").Wrap(err)
	}
	s.dummyHash = dummy
	return s, nil
}

// Register creates an account and returns a token for it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}
	email := NormalizeEmail(in.Email)

	_, err := s.accounts.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return "", apperr.Duplicate("ACCOUNT_EMAIL_TAKEN", "User already exists")
	case !errors.Is(err, apperr.ErrNotFound):
		return "", apperr.FromStore(err, "ACCOUNT_LOOKUP_FAILED", "get account by email")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return "", apperr.Unavailable(err, "ACCOUNT_HASH_FAILED", "hash password")
	}

	account := &Account{
		ID:           ulid.Make(),
		Name:         in.Name,
		Email:        email,
		PasswordHash: hash,
		Avatar:       s.avatars.AvatarURL(email),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, apperr.ErrDuplicate) {
			return "", apperr.Duplicate("ACCOUNT_EMAIL_TAKEN", "User already exists")
		}
		return "", apperr.FromStore(err, "ACCOUNT_CREATE_FAILED", "create account")
	}

	s.logger.InfoContext(ctx, "account registered", "account_id", account.ID.String())

	token, _, err := s.tokens.Issue(account.ID)
	if err != nil {
		return "", apperr.FromStore(err, "TOKEN_SIGN_FAILED", "issue token")
	}
	return token, nil
}

// Login exchanges valid credentials for a token. Unknown emails and wrong
// passwords fail identically.
func (s *Service) Login(ctx context.Context, in LoginInput) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}

	account, lookupErr := s.accounts.GetByEmail(ctx, NormalizeEmail(in.Email))

	var targetHash string
	var accountExists bool
	switch {
	case lookupErr == nil:
		targetHash = account.PasswordHash
		accountExists = true
	case errors.Is(lookupErr, apperr.ErrNotFound):
		targetHash = s.dummyHash
	default:
		return "", apperr.FromStore(lookupErr, "AUTH_LOGIN_FAILED", "get account by email")
	}

	valid, verifyErr := s.hasher.Verify(in.Password, targetHash)
	if verifyErr != nil && accountExists {
		errutil.LogError(ctx, s.logger, "stored password hash is unreadable", verifyErr,
			"account_id", account.ID.String())
	}
	if !accountExists || verifyErr != nil || !valid {
		return "", invalidCredentials()
	}

	if s.hasher.NeedsUpgrade(account.PasswordHash) {
		s.upgradeHash(ctx, account, in.Password)
	}

	token, _, err := s.tokens.Issue(account.ID)
	if err != nil {
		return "", apperr.FromStore(err, "TOKEN_SIGN_FAILED", "issue token")
	}
	return token, nil
}

// upgradeHash re-hashes with the current parameters. Login succeeds even if
// the new hash cannot be stored.
func (s *Service) upgradeHash(ctx context.Context, account *Account, password string) {
	newHash, err := s.hasher.Hash(password)
	if err != nil {
		errutil.LogError(ctx, s.logger, "password rehash failed", err, "account_id", account.ID.String())
		return
	}
	if err := s.accounts.UpdatePassword(ctx, account.ID, newHash); err != nil {
		errutil.LogError(ctx, s.logger, "password rehash not persisted", err, "account_id", account.ID.String())
		return
	}
	s.logger.InfoContext(ctx, "password hash upgraded", "account_id", account.ID.String())
}

func invalidCredentials() error {
	return apperr.Unauthenticated("AUTH_INVALID_CREDENTIALS", "Invalid Credentials")
}

// CurrentIdentity returns the account behind a verified token.
func (s *Service) CurrentIdentity(ctx context.Context, accountID ulid.ULID) (*Account, error) {
	return s.Lookup(ctx, accountID)
}

// Lookup returns an account by id. Missing accounts are NotFound.
func (s *Service) Lookup(ctx context.Context, accountID ulid.ULID) (*Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, apperr.FromStore(err, "ACCOUNT_LOOKUP_FAILED", "get account by id")
	}
	return account, nil
}
