// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared between the API client,
// the session and chat managers, and the presentation layer.
//
// Every type here is a plain snapshot of what the backend returned. The
// client holds no derived state: consistency across users, conversations,
// collections and files is entirely the backend's job, and each command
// re-fetches authoritative state instead of patching local copies.
package model
