// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat owns the identity of the current conversation and
// mediates every message send against the backend.
//
// Conversation identity is a small state machine: Unset (no
// conversation), NewPending (composing on the new-chat screen), and
// Bound (attached to a backend-assigned id). A successful send adopts
// the returned conversation id, mirrors it into a long-lived cookie,
// and navigates to the conversation's path. The one exception is the
// new-chat screen: sends issued there never move the state or navigate,
// so the composer is not yanked away before the reply renders.
//
// Rapid sends can resolve out of order. Each send is tagged with a
// sequence number at initiation and a response is only allowed to move
// the current-conversation state when its tag is still the latest; the
// reply itself is always returned to the caller regardless.
package chat
