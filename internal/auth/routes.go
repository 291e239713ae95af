// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import "strings"

// Route paths shared between the managers and the presentation layer.
// The TUI keeps the browser console's URL scheme as its view routing
// vocabulary so the navigation rules transfer unchanged.
const (
	RouteHome    = "/"
	RouteLogin   = "/auth/login"
	RouteSignup  = "/auth/signup"
	RouteAdmin   = "/admin"
	RouteNewChat = "/chat/new"

	// RouteChatPrefix + id addresses one conversation.
	RouteChatPrefix = "/chat/"
)

// Navigator is the presentation-layer collaborator the managers drive.
// CurrentPath must return the route the user is looking at right now;
// Navigate requests a view change.
type Navigator interface {
	CurrentPath() string
	Navigate(path string)
}

// IsAuthRoute reports whether the path is one of the public auth
// screens, where session verification must not run (a failed probe
// there would redirect to the login screen in a loop).
func IsAuthRoute(path string) bool {
	// The login redirect carries the interrupted path in a query
	// parameter; the query never changes which screen this is.
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path == RouteLogin || path == RouteSignup
}
