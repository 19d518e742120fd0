// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

package apperr

import (
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// ParseID parses a caller-supplied identifier. A malformed identifier can
// never name an existing record, so it is reported as NotFound with the
// given code and message.
func ParseID(raw, code, msg string) (ulid.ULID, error) {
	id, err := ulid.ParseStrict(strings.TrimSpace(raw))
	if err != nil {
		return ulid.ULID{}, oops.With("id", raw).Wrap(NotFound(code, msg))
	}
	return id, nil
}
