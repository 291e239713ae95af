// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// Role is the backend-assigned user role.
type Role string

// Roles recognized by the backend. The wire values are upper-case.
const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// IsAdmin reports whether the role grants access to the admin console.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// Valid reports whether the role is one the backend hands out.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User is an immutable snapshot of a backend user profile. It is replaced
// wholesale on every session verification, never mutated in place.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"userrole"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}
