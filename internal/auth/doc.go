// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agora Contributors

// Package auth provides the identity layer for Agora.
//
// # Domain Types
//
// Account is a registered user. Its password hash never leaves the
// package boundary in serialized form.
//
// # Services
//
//   - PasswordHasher - argon2id hashing with legacy bcrypt verification
//   - TokenService - signed, self-contained identity tokens
//   - Service - registration, login and current identity
//
// Services are created with New* constructors that validate dependencies.
package auth
