// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// Sender identifies which side of a conversation produced a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// NormalizeSender maps the backend's sender_type values onto Sender.
// The backend persists assistant turns as "bot"; everything downstream
// of the API client only ever sees "assistant".
func NormalizeSender(wire string) Sender {
	switch wire {
	case "bot", "assistant":
		return SenderAssistant
	default:
		return SenderUser
	}
}

// Conversation identifies a chat thread. The title is server-derived
// (the first message's content) and may be empty for a thread that has
// just been created.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is a single turn within a conversation. Order is assigned by
// the server and preserved exactly as received.
type Message struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender_type"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// IsAssistant reports whether the message is an assistant reply.
func (m Message) IsAssistant() bool {
	return m.Sender == SenderAssistant
}
