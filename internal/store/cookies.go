// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jeranaias/admitcon-tui/internal/util"
)

// Cookie names used by the session and chat managers. Kept as the
// backend-facing console spells them so a jar written by either client
// is readable by the other.
const (
	CookieAccessToken    = "access_token"
	CookieRefreshToken   = "refresh_token"
	CookieUserRole       = "userrole"
	CookieConversationID = "conversation_id"
)

// Expiry windows matching the browser console's cookie settings.
const (
	// TokenTTL is the lifetime of the token and role cookies set on login.
	TokenTTL = 30 * time.Hour

	// ConversationTTL is the lifetime of the mirrored conversation id.
	ConversationTTL = 30 * 24 * time.Hour
)

// cookie is one persisted entry. A zero ExpiresAt means no expiry.
type cookie struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Jar is a file-backed cookie store with per-entry expiry.
// Safe for concurrent use. Readers always see current values: there is
// no in-process cache layered over the file beyond the jar itself, and
// every mutation is flushed before the call returns.
type Jar struct {
	mu      sync.Mutex
	path    string
	cookies map[string]cookie
	now     func() time.Time
	logf    func(format string, args ...any)
}

// NewJar opens (or creates) the cookie jar at dir/cookies.json.
func NewJar(dir string) (*Jar, error) {
	j := &Jar{
		path:    filepath.Join(dir, "cookies.json"),
		cookies: make(map[string]cookie),
		now:     time.Now,
		logf:    log.Printf,
	}
	if err := j.load(); err != nil {
		return nil, err
	}
	return j, nil
}

// load reads the jar file if present. A missing file is an empty jar.
func (j *Jar) load() error {
	data, err := os.ReadFile(j.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	// A corrupt jar is treated as empty rather than fatal: the worst
	// outcome is a forced re-login.
	var cookies map[string]cookie
	if err := json.Unmarshal(data, &cookies); err == nil {
		j.cookies = cookies
	}
	return nil
}

// flush writes the jar to disk. Caller must hold j.mu.
func (j *Jar) flush() error {
	data, err := json.MarshalIndent(j.cookies, "", "  ")
	if err != nil {
		return err
	}
	return util.AtomicWriteFile(j.path, data, 0600)
}

// Set stores a cookie with the given lifetime. A ttl <= 0 stores the
// cookie without expiry.
func (j *Jar) Set(name, value string, ttl time.Duration) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	c := cookie{Value: value}
	if ttl > 0 {
		c.ExpiresAt = j.now().Add(ttl)
	}
	j.cookies[name] = c
	return j.flush()
}

// Get returns the cookie value, or "" when absent or expired. Expired
// entries are pruned on read.
func (j *Jar) Get(name string) string {
	j.mu.Lock()
	defer j.mu.Unlock()

	c, ok := j.cookies[name]
	if !ok {
		return ""
	}
	if !c.ExpiresAt.IsZero() && !j.now().Before(c.ExpiresAt) {
		delete(j.cookies, name)
		if err := j.flush(); err != nil {
			// The read still succeeds; the expired entry is gone from
			// memory and the next mutation rewrites the file.
			j.logf("cookie jar: pruning %s: %v", name, err)
		}
		return ""
	}
	return c.Value
}

// Expire removes a cookie immediately, matching the browser console's
// maxAge: -1 logout behavior.
func (j *Jar) Expire(name string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, ok := j.cookies[name]; !ok {
		return nil
	}
	delete(j.cookies, name)
	return j.flush()
}

// Clear removes every cookie.
func (j *Jar) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.cookies = make(map[string]cookie)
	return j.flush()
}
