// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"

	"github.com/jeranaias/admitcon-tui/internal/model"
)

// DashboardStats returns the admin dashboard aggregate: user and
// conversation counts plus the most recent conversations.
func (c *Client) DashboardStats(ctx context.Context, token string) (*model.DashboardStats, error) {
	var resp struct {
		NumUsers            int `json:"num_users"`
		NumConversations    int `json:"num_conversations"`
		RecentConversations []struct {
			ID        string    `json:"id"`
			Title     string    `json:"title"`
			UserID    string    `json:"user_id"`
			CreatedAt Timestamp `json:"created_at"`
			UpdatedAt Timestamp `json:"updated_at"`
		} `json:"recent_conversations"`
	}
	if err := c.getJSON(ctx, "/api/admin/stats", token, &resp); err != nil {
		return nil, err
	}

	stats := &model.DashboardStats{
		NumUsers:            resp.NumUsers,
		NumConversations:    resp.NumConversations,
		RecentConversations: make([]model.RecentConversation, 0, len(resp.RecentConversations)),
	}
	for _, rc := range resp.RecentConversations {
		stats.RecentConversations = append(stats.RecentConversations, model.RecentConversation{
			ID:        rc.ID,
			Title:     rc.Title,
			UserID:    rc.UserID,
			CreatedAt: rc.CreatedAt.Time,
			UpdatedAt: rc.UpdatedAt.Time,
		})
	}
	return stats, nil
}
