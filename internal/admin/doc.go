// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package admin wraps the administrative backend surface: collection
// and file management, the user registry, and the dashboard aggregate.
//
// The console holds no authoritative state. Every mutation is
// command-then-refetch, with one deliberate exception: the collection
// active toggle is applied optimistically through Optimistic so the
// switch flips immediately, and is rolled back to the pre-commit
// snapshot when the backend rejects it.
package admin
