// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/agora-social/agora/internal/apperr"
	"github.com/agora-social/agora/internal/auth"
	"github.com/agora-social/agora/internal/post"
	"github.com/agora-social/agora/internal/profile"
)

// SchemaBaseURL prefixes every request schema $id.
const SchemaBaseURL = "https://agora.social/schemas/"

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Request schema names, also the file names written by gen-schema.
const (
	SchemaRegister   = "register"
	SchemaLogin      = "login"
	SchemaPost       = "post"
	SchemaComment    = "comment"
	SchemaProfile    = "profile"
	SchemaExperience = "experience"
	SchemaEducation  = "education"
)

var requestTypes = map[string]any{
	SchemaRegister:   auth.RegisterInput{},
	SchemaLogin:      auth.LoginInput{},
	SchemaPost:       post.CreateInput{},
	SchemaComment:    post.CommentInput{},
	SchemaProfile:    profile.UpsertInput{},
	SchemaExperience: profile.ExperienceInput{},
	SchemaEducation:  profile.EducationInput{},
}

var printer = message.NewPrinter(language.English)

// SchemaNames returns the request schema names in sorted order.
func SchemaNames() []string {
	names := make([]string, 0, len(requestTypes))
	for name := range requestTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GenerateSchema returns the JSON schema document for a request body.
func GenerateSchema(name string) ([]byte, error) {
	v, ok := requestTypes[name]
	if !ok {
		return nil, oops.Code("SCHEMA_UNKNOWN").With("name", name).Errorf("unknown request schema %q", name)
	}
	r := jsonschema.Reflector{
		DoNotReference:            true,
		AllowAdditionalProperties: true,
	}
	s := r.ReflectFromType(reflect.TypeOf(v))
	s.ID = jsonschema.ID(schemaURL(name))
	s.Title = "Agora " + name + " request"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, oops.Code("SCHEMA_MARSHAL_FAILED").With("name", name).Wrap(err)
	}
	return data, nil
}

func schemaURL(name string) string {
	return SchemaBaseURL + name + ".schema.json"
}

// Schemas holds the compiled request schemas.
type Schemas struct {
	compiled map[string]*jschema.Schema
}

// NewSchemas generates and compiles every request schema with format
// assertions enabled.
func NewSchemas() (*Schemas, error) {
	c := jschema.NewCompiler()
	c.AssertFormat()

	for _, name := range SchemaNames() {
		data, err := GenerateSchema(name)
		if err != nil {
			return nil, err
		}
		doc, err := jschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			return nil, oops.Code("SCHEMA_COMPILE_FAILED").With("name", name).Wrap(err)
		}
		if err := c.AddResource(schemaURL(name), doc); err != nil {
			return nil, oops.Code("SCHEMA_COMPILE_FAILED").With("name", name).Wrap(err)
		}
	}

	s := &Schemas{compiled: make(map[string]*jschema.Schema, len(requestTypes))}
	for _, name := range SchemaNames() {
		sch, err := c.Compile(schemaURL(name))
		if err != nil {
			return nil, oops.Code("SCHEMA_COMPILE_FAILED").With("name", name).Wrap(err)
		}
		s.compiled[name] = sch
	}
	return s, nil
}

// Validate checks body against the named schema. Failures are
// ValidationFailed errors with one FieldError per violation.
func (s *Schemas) Validate(name string, body []byte) error {
	sch, ok := s.compiled[name]
	if !ok {
		return oops.Code("SCHEMA_UNKNOWN").With("name", name).Errorf("unknown request schema %q", name)
	}
	doc, err := jschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return apperr.Validation("REQUEST_MALFORMED", apperr.Field("body", "Request body must be a JSON object"))
	}
	err = sch.Validate(doc)
	if err == nil {
		return nil
	}
	var verr *jschema.ValidationError
	if !errors.As(err, &verr) {
		return oops.Code("SCHEMA_VALIDATE_FAILED").With("name", name).Wrap(err)
	}
	return apperr.Validation("REQUEST_INVALID", fieldErrors(verr)...)
}

// fieldErrors flattens the leaves of a schema validation error.
func fieldErrors(verr *jschema.ValidationError) []apperr.FieldError {
	if len(verr.Causes) > 0 {
		var fields []apperr.FieldError
		for _, cause := range verr.Causes {
			fields = append(fields, fieldErrors(cause)...)
		}
		return fields
	}

	if req, ok := verr.ErrorKind.(*kind.Required); ok {
		fields := make([]apperr.FieldError, 0, len(req.Missing))
		for _, name := range req.Missing {
			fields = append(fields, apperr.Field(fieldPath(verr.InstanceLocation, name), "is required"))
		}
		return fields
	}
	field := fieldPath(verr.InstanceLocation, "")
	if field == "" {
		field = "body"
	}
	return []apperr.FieldError{apperr.Field(field, verr.ErrorKind.LocalizedString(printer))}
}

func fieldPath(location []string, leaf string) string {
	parts := location
	if leaf != "" {
		parts = append(append([]string(nil), location...), leaf)
	}
	return strings.Join(parts, ".")
}

// decode reads the request body, validates it against the named schema
// and decodes it into dst.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, name string, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Validation("REQUEST_TOO_LARGE", apperr.Field("body", "Request body is too large"))
		}
		return apperr.Validation("REQUEST_MALFORMED", apperr.Field("body", "Request body could not be read"))
	}
	if err := h.schemas.Validate(name, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperr.Validation("REQUEST_MALFORMED", apperr.Field("body", "Request body must be a JSON object"))
	}
	return nil
}
