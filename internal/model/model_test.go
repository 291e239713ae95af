// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "testing"

func TestRoleIsAdmin(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleAdmin, true},
		{RoleUser, false},
		{Role(""), false},
		{Role("admin"), false}, // wire values are upper-case
	}

	for _, tt := range tests {
		if got := tt.role.IsAdmin(); got != tt.want {
			t.Errorf("Role(%q).IsAdmin() = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestRoleValid(t *testing.T) {
	if !RoleAdmin.Valid() || !RoleUser.Valid() {
		t.Error("known roles should be valid")
	}
	if Role("SUPERUSER").Valid() {
		t.Error("unknown role should not be valid")
	}
}

func TestNormalizeSender(t *testing.T) {
	tests := []struct {
		wire string
		want Sender
	}{
		{"user", SenderUser},
		{"bot", SenderAssistant},
		{"assistant", SenderAssistant},
		{"", SenderUser},
	}

	for _, tt := range tests {
		if got := NormalizeSender(tt.wire); got != tt.want {
			t.Errorf("NormalizeSender(%q) = %q, want %q", tt.wire, got, tt.want)
		}
	}
}

func TestMessageIsAssistant(t *testing.T) {
	if (Message{Sender: SenderUser}).IsAssistant() {
		t.Error("user message reported as assistant")
	}
	if !(Message{Sender: SenderAssistant}).IsAssistant() {
		t.Error("assistant message not reported as assistant")
	}
}
