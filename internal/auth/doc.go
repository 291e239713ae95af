// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth is the single source of truth for "who is logged in".
//
// The manager owns the session fields (user profile, access token,
// refresh token, authenticated flag) and guards one invariant: when
// authenticated is true, both tokens are non-empty and the user profile
// is populated. Any failure during verification clears all four fields
// together under one lock; consumers can never observe a half-cleared
// session.
//
// Session-mutating operations are serialized by a monotonically
// increasing version. A verification that started before a login or
// logout completes carries a stale version and its result is dropped,
// which closes the race where a timer tick could resurrect a session
// right after logout cleared it.
package auth
