// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui implements the admitcon terminal interface with Bubble
// Tea.
//
// Screens are addressed by path, mirroring the product's URL scheme:
// /auth/login, /auth/signup, /chat/new, /chat/<id>, and /admin. The
// Router owns the current path and satisfies the navigation interface
// the session and chat managers push redirects through, so a session
// expiry observed by a background verify loop lands the user on the
// login screen without the managers knowing anything about Bubble Tea.
package ui
