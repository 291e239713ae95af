// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// NavigateMsg is delivered to the app when something requests a screen
// change, whether a keypress or a background session check.
type NavigateMsg struct {
	Path string
}

// Router tracks the current screen path and forwards navigation
// requests into the Bubble Tea event loop. It is safe for use from the
// manager goroutines.
type Router struct {
	mu   sync.Mutex
	path string
	send func(tea.Msg)
}

// NewRouter builds a router starting at the given path.
func NewRouter(initial string) *Router {
	return &Router{path: initial}
}

// Attach connects the router to a running program. Navigations
// requested before Attach only update the stored path.
func (r *Router) Attach(p *tea.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.send = p.Send
}

// CurrentPath returns the path of the screen being shown.
func (r *Router) CurrentPath() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.path
}

// Navigate records the new path and wakes the event loop. Repeated
// navigation to the current path is dropped so a verify loop bouncing
// an expired session to the login screen does not flood the program.
func (r *Router) Navigate(path string) {
	r.mu.Lock()
	if path == r.path {
		r.mu.Unlock()
		return
	}
	r.path = path
	send := r.send
	r.mu.Unlock()

	if send != nil {
		send(NavigateMsg{Path: path})
	}
}
