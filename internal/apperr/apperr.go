// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

// Package apperr defines the caller-facing error kinds shared by every
// Agora service.
//
// Domain errors are samber/oops errors with a stable code that wrap one of
// the kind sentinels below, so callers can branch with errors.Is and logs
// still carry the oops code and context.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/oops"
)

// Kind is the externally visible category of an error.
type Kind int

// Error kinds.
const (
	KindUnavailable Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindDuplicate
)

var kindNames = [...]string{
	"Unavailable",
	"ValidationFailed",
	"Unauthenticated",
	"Forbidden",
	"NotFound",
	"DuplicateEntry",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Kind sentinels. Wrap these, never return them bare.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrDuplicate       = errors.New("duplicate entry")
	ErrUnavailable     = errors.New("service unavailable")
)

// KindOf classifies err. Errors that match no sentinel are Unavailable.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnavailable
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrDuplicate):
		return KindDuplicate
	default:
		return KindUnavailable
	}
}

// HTTPStatus maps a kind to its response status code.
func HTTPStatus(k Kind) int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindDuplicate:
		return http.StatusConflict
	default:
		return http.StatusServiceUnavailable
	}
}

// NotFound builds a NOT_FOUND style error with a human readable message.
func NotFound(code, msg string) error {
	return oops.Code(code).Wrap(fmt.Errorf("%s: %w", msg, ErrNotFound))
}

// Forbidden builds an authorization failure.
func Forbidden(code, msg string) error {
	return oops.Code(code).Wrap(fmt.Errorf("%s: %w", msg, ErrForbidden))
}

// Duplicate builds a uniqueness conflict.
func Duplicate(code, msg string) error {
	return oops.Code(code).Wrap(fmt.Errorf("%s: %w", msg, ErrDuplicate))
}

// Unauthenticated builds an identity failure.
func Unauthenticated(code, msg string) error {
	return oops.Code(code).Wrap(fmt.Errorf("%s: %w", msg, ErrUnauthenticated))
}

// Unavailable wraps a store or signer fault. The cause stays reachable
// through errors.Unwrap for logging but is never shown to callers.
func Unavailable(err error, code, operation string) error {
	return oops.Code(code).
		With("operation", operation).
		Wrap(fmt.Errorf("%w: %w", ErrUnavailable, err))
}

// FromStore passes through errors that already carry a caller-facing kind
// and converts everything else into Unavailable.
func FromStore(err error, code, operation string) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindUnavailable || errors.Is(err, ErrUnavailable) {
		return err
	}
	return Unavailable(err, code, operation)
}

// Message returns the text that is safe to show a caller for err.
func Message(err error) string {
	kind := KindOf(err)
	if kind == KindUnavailable {
		return "server error"
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	return trimSentinel(err.Error())
}

// trimSentinel strips the ": <sentinel>" suffix added by the constructors.
func trimSentinel(msg string) string {
	for _, s := range []error{ErrValidation, ErrUnauthenticated, ErrForbidden, ErrNotFound, ErrDuplicate} {
		suffix := ": " + s.Error()
		if trimmed, ok := strings.CutSuffix(msg, suffix); ok && trimmed != "" {
			return trimmed
		}
	}
	return msg
}
