// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the plain line-mode interface: a readline
// chat REPL with input history plus prompts for credentials. It serves
// terminals where the full-screen TUI is unwanted (ssh into a jump
// host, scripting, screen readers).
package cli
