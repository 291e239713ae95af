// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store persists the small pieces of client state that survive a
// restart: the token cookies, the user role, the mirrored conversation id,
// and the saved pre-login destination.
//
// The layout mirrors what the browser console keeps: a cookie jar with
// per-entry expiry (cookies.json) and a plain key/value local store with
// no expiry semantics (local.json), both under the state directory
// (default ~/.admitcon). Writes are atomic replace-on-write.
package store
