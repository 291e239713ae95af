// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the HTTP client for the admission console
// backend.
//
// The backend speaks plain REST with three response shapes: a flat JSON
// body (login, chat), a {status, message, data} envelope (most admin
// endpoints), and empty bodies on deletes. A response with HTTP 200 but
// envelope status != "success" is still a failure and is surfaced as an
// *APIError.
//
// One convention is deliberate and must not be "fixed": authenticated
// calls send the REFRESH token as the bearer credential. That is what
// the backend validates against its session table; sending the access
// token does not work.
//
// The client never retries. Callers own failure handling: the session
// manager clears state and redirects, everything else propagates the
// error to the presentation layer.
package api
