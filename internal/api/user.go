// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jeranaias/admitcon-tui/internal/model"
)

// UserPage is one page of the user listing.
type UserPage struct {
	Users       []model.User
	TotalPages  int
	CurrentPage int
}

// UserUpdate carries a partial user update. Nil fields are omitted.
// Password, when set, is re-hashed server-side.
type UserUpdate struct {
	Username *string     `json:"username,omitempty"`
	FullName *string     `json:"user_fullname,omitempty"`
	Email    *string     `json:"user_email,omitempty"`
	Role     *model.Role `json:"user_role,omitempty"`
	Disabled *bool       `json:"disabled,omitempty"`
	Password *string     `json:"password,omitempty"`
}

// ListUsers returns one page of users. Admin only on the backend side.
func (c *Client) ListUsers(ctx context.Context, token string, page, pageSize int) (*UserPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("page_size", strconv.Itoa(pageSize))

	var resp struct {
		Users       []wireUser `json:"users"`
		TotalPages  int        `json:"total_pages"`
		CurrentPage int        `json:"current_page"`
	}
	if err := c.getJSON(ctx, "/api/user/?"+query.Encode(), token, &resp); err != nil {
		return nil, err
	}

	users := make([]model.User, 0, len(resp.Users))
	for _, wu := range resp.Users {
		users = append(users, *wu.toModel())
	}
	return &UserPage{
		Users:       users,
		TotalPages:  resp.TotalPages,
		CurrentPage: resp.CurrentPage,
	}, nil
}

// UpdateUser applies a partial update to a user. Admin only.
func (c *Client) UpdateUser(ctx context.Context, token, userID string, update UserUpdate) error {
	return c.sendJSON(ctx, http.MethodPut, "/api/user/"+pathEscape(userID), token, update, nil)
}

// DeleteUser removes a user. Admin only.
func (c *Client) DeleteUser(ctx context.Context, token, userID string) error {
	return c.delete(ctx, "/api/user/"+pathEscape(userID), token)
}
