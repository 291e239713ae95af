// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/jeranaias/admitcon-tui/internal/model"
)

// LoginResponse is the flat login payload. Expiry fields arrive as
// backend-formatted strings and are informational only; the client's
// cookie TTLs are fixed, matching the browser console.
type LoginResponse struct {
	SessionID             string `json:"session_id"`
	AccessToken           string `json:"access_token"`
	AccessTokenExpiresIn  string `json:"access_token_expires_in"`
	RefreshToken          string `json:"refresh_token"`
	RefreshTokenExpiresIn string `json:"refresh_token_expires_in"`
	TokenType             string `json:"token_type"`
	Name                  string `json:"name"`
	Username              string `json:"username"`
	Email                 string `json:"email"`
	UserRole              string `json:"userrole"`
}

// RegisterRequest is the registration payload. Field names follow the
// backend's user_* convention.
type RegisterRequest struct {
	Username string     `json:"username"`
	Password string     `json:"password"`
	FullName string     `json:"user_fullname"`
	Email    string     `json:"user_email"`
	Role     model.Role `json:"user_role"`
}

// wireUser is the user profile as the backend spells it. Every user
// endpoint uses these keys; model.User uses the console's.
type wireUser struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	FullName  string     `json:"user_fullname"`
	Email     string     `json:"user_email"`
	Role      model.Role `json:"user_role"`
	Disabled  bool       `json:"disabled"`
	CreatedAt Timestamp  `json:"created_at"`
	UpdatedAt Timestamp  `json:"updated_at"`
}

func (w wireUser) toModel() *model.User {
	return &model.User{
		ID:        w.ID,
		Name:      w.FullName,
		Username:  w.Username,
		Email:     w.Email,
		Role:      w.Role,
		CreatedAt: w.CreatedAt.Time,
		UpdatedAt: w.UpdatedAt.Time,
	}
}

// Login authenticates with username and password. This is the one
// form-encoded endpoint (OAuth2 password flow on the backend side).
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := c.newRequest(ctx, http.MethodPost, "/api/auth/login", strings.NewReader(form.Encode()), "")
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var resp LoginResponse
	if err := decodeBody(body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates a new account and returns the created profile.
// Registration never authenticates the new user.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	var created wireUser
	if err := c.sendJSON(ctx, http.MethodPost, "/api/auth/register", "", req, &created); err != nil {
		return nil, err
	}
	return created.toModel(), nil
}

// Me fetches the profile of the user the given refresh token belongs
// to. This doubles as the session-validity probe.
func (c *Client) Me(ctx context.Context, refreshToken string) (*model.User, error) {
	var profile wireUser
	if err := c.getJSON(ctx, "/api/auth/me", refreshToken, &profile); err != nil {
		return nil, err
	}
	return profile.toModel(), nil
}
