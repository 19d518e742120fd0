// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

package auth

import (
	"crypto/md5" //nolint:gosec // gravatar addresses are md5 of the email by protocol
	"encoding/hex"
	"net/url"
)

// AvatarResolver derives a display image URL from an email address.
type AvatarResolver interface {
	AvatarURL(email string) string
}

// Gravatar resolves avatars through gravatar.com: 200px, PG rated, with the
// "mystery person" fallback.
type Gravatar struct {
	// BaseURL defaults to https://www.gravatar.com/avatar/.
	BaseURL string
}

// AvatarURL returns the gravatar URL for the normalized email.
func (g Gravatar) AvatarURL(email string) string {
	base := g.BaseURL
	if base == "" {
		base = "https://www.gravatar.com/avatar/"
	}
	sum := md5.Sum([]byte(NormalizeEmail(email))) //nolint:gosec // see import
	q := url.Values{"s": {"200"}, "r": {"pg"}, "d": {"mm"}}
	return base + hex.EncodeToString(sum[:]) + "?" + q.Encode()
}

// AvatarFunc adapts a function to AvatarResolver.
type AvatarFunc func(email string) string

// AvatarURL calls f.
func (f AvatarFunc) AvatarURL(email string) string { return f(email) }
