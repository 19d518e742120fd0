// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

package auth

import (
	"context"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"github.com/agora-social/agora/internal/apperr"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// Account is a registered user.
type Account struct {
	ID           ulid.ULID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Avatar       string    `json:"avatar"`
	CreatedAt    time.Time `json:"created_at"`
}

// Summary is the public part of an account embedded in other documents.
type Summary struct {
	ID     ulid.ULID `json:"id"`
	Name   string    `json:"name"`
	Avatar string    `json:"avatar"`
}

// Summary returns the account's public fields.
func (a *Account) Summary() Summary {
	return Summary{ID: a.ID, Name: a.Name, Avatar: a.Avatar}
}

// AccountRepository manages account persistence.
type AccountRepository interface {
	// Create stores a new account. A taken email yields DuplicateEntry.
	Create(ctx context.Context, account *Account) error

	// GetByID retrieves an account. Missing accounts yield NotFound.
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// GetByEmail retrieves an account by normalized email.
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// UpdatePassword replaces only the password hash.
	UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error
}

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
// Emails are stored and looked up in this form only.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterInput is the registration request.
type RegisterInput struct {
	Name     string `json:"name" jsonschema:"minLength=1"`
	Email    string `json:"email" jsonschema:"format=email"`
	Password string `json:"password" jsonschema:"minLength=6"`
}

// Validate returns a ValidationFailed error listing every bad field.
func (in RegisterInput) Validate() error {
	var fields []apperr.FieldError
	if strings.TrimSpace(in.Name) == "" {
		fields = append(fields, apperr.Field("name", "Name is required"))
	}
	if !validEmail(in.Email) {
		fields = append(fields, apperr.Field("email", "Please include a valid email"))
	}
	if utf8.RuneCountInString(in.Password) < MinPasswordLength {
		fields = append(fields, apperr.Field("password", "Please enter a password with 6 or more characters"))
	}
	return apperr.Validation("ACCOUNT_INVALID", fields...)
}

// LoginInput is the credential exchange request.
type LoginInput struct {
	Email    string `json:"email" jsonschema:"format=email"`
	Password string `json:"password" jsonschema:"minLength=1"`
}

// Validate returns a ValidationFailed error listing every bad field.
func (in LoginInput) Validate() error {
	var fields []apperr.FieldError
	if !validEmail(in.Email) {
		fields = append(fields, apperr.Field("email", "Please include a valid email"))
	}
	if in.Password == "" {
		fields = append(fields, apperr.Field("password", "Password is required"))
	}
	return apperr.Validation("LOGIN_INVALID", fields...)
}

// validEmail accepts a bare addr-spec such as "a@b.co"; display names
// and angle brackets are rejected.
func validEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	return at > 0 && strings.Contains(email[at+1:], ".")
}
