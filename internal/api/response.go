// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/agora-social/agora/internal/apperr"
	"github.com/agora-social/agora/pkg/errutil"
)

type errorBody struct {
	Kind    string              `json:"kind"`
	Message string              `json:"message"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
}

type tokenBody struct {
	Token string `json:"token"`
}

type messageBody struct {
	Msg string `json:"msg"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // client may disconnect
	json.NewEncoder(w).Encode(v)
}

// writeError renders err by kind. Unavailable errors are logged with their
// cause and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindUnavailable {
		errutil.LogError(r.Context(), logger, "request failed", err,
			"method", r.Method,
			"path", r.URL.Path)
	}
	body := errorBody{Kind: kind.String(), Message: apperr.Message(err)}
	if kind == apperr.KindValidation {
		body.Errors = apperr.FieldsOf(err)
	}
	writeJSON(w, apperr.HTTPStatus(kind), body)
}
