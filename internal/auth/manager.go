// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/jeranaias/admitcon-tui/internal/api"
	"github.com/jeranaias/admitcon-tui/internal/model"
	"github.com/jeranaias/admitcon-tui/internal/store"
)

// DefaultVerifyInterval matches the browser console's five-minute
// session re-validation timer.
const DefaultVerifyInterval = 5 * time.Minute

// Session is a read-only snapshot of the authentication state.
type Session struct {
	User          *model.User
	AccessToken   string
	RefreshToken  string
	Authenticated bool
}

// Manager owns the session state and gatekeeps protected views.
type Manager struct {
	mu            sync.Mutex
	user          *model.User
	accessToken   string
	refreshToken  string
	authenticated bool

	// version increments on every session mutation. In-flight
	// verifications capture it at start and discard their result when
	// it has moved.
	version uint64

	api            *api.Client
	jar            *store.Jar
	local          *store.Local
	nav            Navigator
	verifyInterval time.Duration
	logf           func(format string, args ...any)
}

// Option configures a Manager.
type Option func(*Manager)

// WithVerifyInterval overrides the periodic verification interval.
func WithVerifyInterval(d time.Duration) Option {
	return func(m *Manager) {
		m.verifyInterval = d
	}
}

// WithLogger overrides the manager's log function.
func WithLogger(logf func(format string, args ...any)) Option {
	return func(m *Manager) {
		m.logf = logf
	}
}

// NewManager creates a session manager. The manager starts signed out;
// call Verify (or StartVerifyLoop) to pick up a persisted session.
func NewManager(client *api.Client, jar *store.Jar, local *store.Local, nav Navigator, opts ...Option) *Manager {
	m := &Manager{
		api:            client,
		jar:            jar,
		local:          local,
		nav:            nav,
		verifyInterval: DefaultVerifyInterval,
		logf:           log.Printf,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Session returns a read-only snapshot of the current session.
func (m *Manager) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Session{
		User:          m.user,
		AccessToken:   m.accessToken,
		RefreshToken:  m.refreshToken,
		Authenticated: m.authenticated,
	}
}

// Authenticated reports whether a verified session is present.
func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authenticated
}

// =============================================================================
// LOGIN / SIGNUP / LOGOUT
// =============================================================================

// Login authenticates with the backend, persists the token cookies,
// fetches the full profile, and navigates to the post-login
// destination: the saved pre-login path when one exists, otherwise the
// role-appropriate landing page. A backend rejection is returned to the
// caller; session state is untouched.
func (m *Manager) Login(ctx context.Context, username, password string) (*model.User, error) {
	resp, err := m.api.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	m.jar.Set(store.CookieAccessToken, resp.AccessToken, store.TokenTTL)
	m.jar.Set(store.CookieRefreshToken, resp.RefreshToken, store.TokenTTL)
	m.jar.Set(store.CookieUserRole, resp.UserRole, store.TokenTTL)

	// The login payload carries a partial profile; the full profile
	// comes from the me endpoint, authenticated with the refresh token.
	user, err := m.api.Me(ctx, resp.RefreshToken)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.version++
	m.user = user
	m.accessToken = resp.AccessToken
	m.refreshToken = resp.RefreshToken
	m.authenticated = true
	m.mu.Unlock()

	m.nav.Navigate(m.postLoginPath(user))
	return user, nil
}

// postLoginPath resolves where a fresh login should land: the path the
// user was bounced from, or the role landing page when they came
// straight to the login screen.
func (m *Manager) postLoginPath(user *model.User) string {
	path := m.local.Get(store.KeyRedirectPath)
	if path != "" {
		// Consumed on use; a saved destination applies to one login.
		m.local.Delete(store.KeyRedirectPath)
	}
	if path == "" || path == RouteLogin {
		if user.Role.IsAdmin() {
			return RouteAdmin
		}
		return RouteHome
	}
	return path
}

// SignupDetails are the registration fields collected from the form.
type SignupDetails struct {
	Name     string
	Username string
	Email    string
	Password string
}

// Signup registers a new account and returns the created profile.
// The new user is NOT authenticated; they log in afterwards.
func (m *Manager) Signup(ctx context.Context, details SignupDetails) (*model.User, error) {
	return m.api.Register(ctx, api.RegisterRequest{
		Username: details.Username,
		Password: details.Password,
		FullName: details.Name,
		Email:    details.Email,
		Role:     model.RoleUser,
	})
}

// Logout clears the session, expires both token cookies immediately,
// and navigates to the login screen.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.version++
	m.clearLocked()
	m.mu.Unlock()

	m.jar.Expire(store.CookieAccessToken)
	m.jar.Expire(store.CookieRefreshToken)

	m.nav.Navigate(RouteLogin)
}

// clearLocked zeroes every session field. Caller must hold m.mu; the
// fields always move together so consumers never see partial state.
func (m *Manager) clearLocked() {
	m.user = nil
	m.accessToken = ""
	m.refreshToken = ""
	m.authenticated = false
}

// =============================================================================
// SESSION VERIFICATION
// =============================================================================

// Verify re-validates the stored refresh token against the backend.
// Skipped entirely on the auth screens. A missing token or a failed
// probe clears the session and redirects to the login screen with the
// current path preserved in the redirect query parameter.
func (m *Manager) Verify(ctx context.Context) error {
	path := m.nav.CurrentPath()
	if IsAuthRoute(path) {
		return nil
	}

	m.mu.Lock()
	startVersion := m.version
	m.mu.Unlock()

	refreshToken := m.jar.Get(store.CookieRefreshToken)
	accessToken := m.jar.Get(store.CookieAccessToken)
	if refreshToken == "" || accessToken == "" {
		m.expireSession(startVersion, path)
		return api.ErrUnauthorized
	}

	user, err := m.api.Me(ctx, refreshToken)
	if err != nil {
		// Transport failures and explicit rejections are treated the
		// same way: the session is no longer trustworthy.
		m.expireSession(startVersion, path)
		return err
	}

	m.mu.Lock()
	if m.version != startVersion {
		// A login or logout finished while the probe was in flight;
		// this result describes a session that no longer exists.
		m.mu.Unlock()
		return nil
	}
	m.user = user
	m.accessToken = accessToken
	m.refreshToken = refreshToken
	m.authenticated = true
	m.mu.Unlock()
	return nil
}

// expireSession clears the session (unless the state has already moved
// on) and redirects to the login screen, preserving the interrupted
// path so login can return the user there.
func (m *Manager) expireSession(startVersion uint64, path string) {
	m.mu.Lock()
	if m.version != startVersion {
		m.mu.Unlock()
		return
	}
	m.version++
	m.clearLocked()
	m.mu.Unlock()

	m.local.Set(store.KeyRedirectPath, path)
	m.nav.Navigate(RouteLogin + "?redirect=" + url.QueryEscape(path))
}

// StartVerifyLoop verifies the session immediately and then on a fixed
// interval until ctx is cancelled. Run it in its own goroutine.
func (m *Manager) StartVerifyLoop(ctx context.Context) {
	if err := m.Verify(ctx); err != nil {
		m.logf("session verify: %v", err)
	}

	ticker := time.NewTicker(m.verifyInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Verify(ctx); err != nil {
				m.logf("session verify: %v", err)
			}
		}
	}
}
