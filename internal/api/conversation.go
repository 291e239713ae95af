// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"

	"github.com/jeranaias/admitcon-tui/internal/model"
)

// CreateChatRequest sends one user message. A nil ConversationID starts
// a new conversation; the backend 404s on an id that does not belong to
// the caller.
type CreateChatRequest struct {
	Message        string  `json:"message"`
	ConversationID *string `json:"conversation_id"`
}

// CreateChatResponse echoes the user message and carries the assistant
// reply plus the (new or unchanged) conversation id.
type CreateChatResponse struct {
	ConversationID string    `json:"conversation_id"`
	UserMessage    string    `json:"user_message"`
	BotMessage     string    `json:"bot_message"`
	CreatedAt      Timestamp `json:"created_at"`
}

type wireConversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}

type wireMessage struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender_type"`
	Content   string    `json:"content"`
	CreatedAt Timestamp `json:"created_at"`
}

// CreateChat sends a message, creating a conversation when the request
// carries no id.
func (c *Client) CreateChat(ctx context.Context, token string, req CreateChatRequest) (*CreateChatResponse, error) {
	var resp CreateChatResponse
	if err := c.sendJSON(ctx, http.MethodPost, "/api/conversation/create", token, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListConversations returns the caller's conversations in server order
// (most recently updated first); the client does not re-sort.
func (c *Client) ListConversations(ctx context.Context, token string) ([]model.Conversation, error) {
	var resp struct {
		Conversations []wireConversation `json:"conversations"`
	}
	if err := c.getJSON(ctx, "/api/conversation/", token, &resp); err != nil {
		return nil, err
	}

	conversations := make([]model.Conversation, 0, len(resp.Conversations))
	for _, wc := range resp.Conversations {
		conversations = append(conversations, model.Conversation{
			ID:        wc.ID,
			Title:     wc.Title,
			CreatedAt: wc.CreatedAt.Time,
			UpdatedAt: wc.UpdatedAt.Time,
		})
	}
	return conversations, nil
}

// GetConversation returns a conversation's full message history in
// server order. Assistant turns arrive as sender_type "bot" and are
// normalized here, at the wire boundary.
func (c *Client) GetConversation(ctx context.Context, token, conversationID string) ([]model.Message, error) {
	var resp struct {
		ConversationID string        `json:"conversation_id"`
		Messages       []wireMessage `json:"messages"`
	}
	if err := c.getJSON(ctx, "/api/conversation/"+pathEscape(conversationID), token, &resp); err != nil {
		return nil, err
	}

	messages := make([]model.Message, 0, len(resp.Messages))
	for _, wm := range resp.Messages {
		messages = append(messages, model.Message{
			ID:        wm.ID,
			Sender:    model.NormalizeSender(wm.Sender),
			Content:   wm.Content,
			CreatedAt: wm.CreatedAt.Time,
		})
	}
	return messages, nil
}

// RenameConversation updates a conversation's title.
func (c *Client) RenameConversation(ctx context.Context, token, conversationID, title string) error {
	req := struct {
		Title string `json:"title"`
	}{Title: title}
	return c.sendJSON(ctx, http.MethodPut, "/api/conversation/"+pathEscape(conversationID), token, req, nil)
}

// DeleteConversation removes a conversation and its messages.
func (c *Client) DeleteConversation(ctx context.Context, token, conversationID string) error {
	return c.delete(ctx, "/api/conversation/"+pathEscape(conversationID), token)
}
