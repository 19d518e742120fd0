// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

package apperr

import (
	"errors"
	"strings"

	"github.com/samber/oops"
)

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports malformed or missing request fields.
type ValidationError struct {
	Message string
	Fields  []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Validation builds a ValidationFailed error carrying field details.
// It returns nil when fields is empty so callers can collect and return.
func Validation(code string, fields ...FieldError) error {
	if len(fields) == 0 {
		return nil
	}
	return oops.Code(code).Wrap(&ValidationError{
		Message: "invalid request",
		Fields:  fields,
	})
}

// Field is shorthand for a FieldError literal.
func Field(name, msg string) FieldError {
	return FieldError{Field: name, Message: msg}
}

// FieldsOf returns the field details of a validation error, if any.
func FieldsOf(err error) []FieldError {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return nil
}
