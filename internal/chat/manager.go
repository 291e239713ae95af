// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/jeranaias/admitcon-tui/internal/api"
	"github.com/jeranaias/admitcon-tui/internal/auth"
	"github.com/jeranaias/admitcon-tui/internal/model"
	"github.com/jeranaias/admitcon-tui/internal/store"
)

// =============================================================================
// CONVERSATION STATE
// =============================================================================

// State is the conversation-identity state.
type State int

const (
	// StateUnset means no conversation is selected.
	StateUnset State = iota
	// StateNewPending means the user is composing on the new-chat
	// screen; sends there do not bind a conversation.
	StateNewPending
	// StateBound means the manager is attached to a conversation id.
	StateBound
)

func (s State) String() string {
	switch s {
	case StateNewPending:
		return "new-pending"
	case StateBound:
		return "bound"
	default:
		return "unset"
	}
}

// =============================================================================
// MANAGER
// =============================================================================

// ErrRateLimited is returned by Send when the local rate limiter has no
// token available. The message is never queued.
var ErrRateLimited = errors.New("sending messages too fast")

// Recorder receives fetched conversation data for local persistence.
// Implementations must tolerate being called with data already recorded.
type Recorder interface {
	RecordConversations(convs []model.Conversation) error
	RecordMessages(conversationID string, msgs []model.Message) error
}

// Manager mediates chat operations and tracks the current conversation.
// Tokens are read from the cookie jar at call time, never cached, so a
// refreshed session is picked up without re-wiring.
type Manager struct {
	mu             sync.Mutex
	state          State
	conversationID string
	seq            uint64

	api      *api.Client
	jar      *store.Jar
	nav      auth.Navigator
	limiter  *rate.Limiter
	recorder Recorder
	logf     func(format string, args ...any)
}

// Option configures a Manager.
type Option func(*Manager)

// WithRecorder attaches a local history recorder. Recording failures
// are logged, never surfaced: the backend remains the source of truth.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// WithSendLimit overrides the send rate limit.
func WithSendLimit(l *rate.Limiter) Option {
	return func(m *Manager) { m.limiter = l }
}

// WithLogger overrides the debug logger.
func WithLogger(logf func(format string, args ...any)) Option {
	return func(m *Manager) { m.logf = logf }
}

// NewManager builds a chat manager. The default send limiter allows one
// message per second with a small burst, enough for a human typist and
// a guard against a stuck key or scripted loop hammering the backend.
func NewManager(client *api.Client, jar *store.Jar, nav auth.Navigator, opts ...Option) *Manager {
	m := &Manager{
		api:     client,
		jar:     jar,
		nav:     nav,
		limiter: rate.NewLimiter(rate.Limit(1), 3),
		logf:    func(string, ...any) {},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State reports the conversation-identity state and the bound id, if
// any.
func (m *Manager) State() (State, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.conversationID
}

// CurrentID returns the bound conversation id, or "" when not bound.
func (m *Manager) CurrentID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateBound {
		return ""
	}
	return m.conversationID
}

func (m *Manager) token() string {
	return m.jar.Get(store.CookieRefreshToken)
}

// =============================================================================
// SENDING
// =============================================================================

// SendResult is the outcome of one message send.
type SendResult struct {
	ConversationID string
	UserMessage    string
	BotMessage     string
}

// Send submits a user message. When bound, the current conversation id
// is attached so the thread continues; otherwise the backend starts a
// new conversation and assigns an id.
//
// On success, the returned id becomes the current conversation, is
// mirrored into the conversation cookie, and the navigator is pointed
// at the conversation's path. Both the adoption and the navigation are
// suppressed while on the new-chat screen, and a response that arrives
// after a newer send was initiated is returned to the caller but does
// not move the state.
func (m *Manager) Send(ctx context.Context, message string) (*SendResult, error) {
	// Sends are never queued; a burst past the limit fails immediately
	// and the caller decides whether to tell the user to slow down.
	if !m.limiter.Allow() {
		return nil, ErrRateLimited
	}

	m.mu.Lock()
	m.seq++
	seq := m.seq
	req := api.CreateChatRequest{Message: message}
	if m.state == StateBound {
		id := m.conversationID
		req.ConversationID = &id
	}
	m.mu.Unlock()

	resp, err := m.api.CreateChat(ctx, m.token(), req)
	if err != nil {
		return nil, err
	}

	result := &SendResult{
		ConversationID: resp.ConversationID,
		UserMessage:    resp.UserMessage,
		BotMessage:     resp.BotMessage,
	}

	onNewChat := m.nav.CurrentPath() == auth.RouteNewChat

	m.mu.Lock()
	stale := seq != m.seq
	if stale || onNewChat {
		if onNewChat && m.state == StateUnset {
			m.state = StateNewPending
		}
		m.mu.Unlock()
		return result, nil
	}
	m.state = StateBound
	navigate := m.conversationID != resp.ConversationID
	m.conversationID = resp.ConversationID
	m.mu.Unlock()

	if err := m.jar.Set(store.CookieConversationID, resp.ConversationID, store.ConversationTTL); err != nil {
		m.logf("chat: persist conversation cookie: %v", err)
	}
	if navigate {
		m.nav.Navigate(auth.RouteChatPrefix + resp.ConversationID)
	}
	return result, nil
}

// =============================================================================
// SELECTION / RESET
// =============================================================================

// Open binds an existing conversation, mirrors its id into the cookie,
// and navigates to it. Used when the user picks a thread from the
// sidebar.
func (m *Manager) Open(conversationID string) {
	m.mu.Lock()
	m.seq++ // in-flight sends against the previous thread are now stale
	m.state = StateBound
	m.conversationID = conversationID
	m.mu.Unlock()

	if err := m.jar.Set(store.CookieConversationID, conversationID, store.ConversationTTL); err != nil {
		m.logf("chat: persist conversation cookie: %v", err)
	}
	m.nav.Navigate(auth.RouteChatPrefix + conversationID)
}

// StartNew detaches from the current conversation and navigates to the
// new-chat screen. The next non-suppressed send binds a fresh id.
func (m *Manager) StartNew() {
	m.mu.Lock()
	m.seq++
	m.state = StateNewPending
	m.conversationID = ""
	m.mu.Unlock()

	m.nav.Navigate(auth.RouteNewChat)
}

// Reset drops all conversation state without navigating. Called on
// logout.
func (m *Manager) Reset() {
	m.mu.Lock()
	m.seq++
	m.state = StateUnset
	m.conversationID = ""
	m.mu.Unlock()
}

// Resume restores the conversation remembered in the cookie, if one is
// still present. It returns the bound id, or "" when there was nothing
// to resume. No navigation: callers decide where to land on startup.
func (m *Manager) Resume() string {
	id := m.jar.Get(store.CookieConversationID)
	if id == "" {
		return ""
	}
	m.mu.Lock()
	m.state = StateBound
	m.conversationID = id
	m.mu.Unlock()
	return id
}

// =============================================================================
// RETRIEVAL
// =============================================================================

// Conversations lists the user's conversations in backend order, which
// is newest first. The order is passed through untouched.
func (m *Manager) Conversations(ctx context.Context) ([]model.Conversation, error) {
	convs, err := m.api.ListConversations(ctx, m.token())
	if err != nil {
		return nil, err
	}
	if m.recorder != nil {
		if err := m.recorder.RecordConversations(convs); err != nil {
			m.logf("chat: record conversations: %v", err)
		}
	}
	return convs, nil
}

// History returns the full message history for a conversation, in
// server order.
func (m *Manager) History(ctx context.Context, conversationID string) ([]model.Message, error) {
	msgs, err := m.api.GetConversation(ctx, m.token(), conversationID)
	if err != nil {
		return nil, err
	}
	if m.recorder != nil {
		if err := m.recorder.RecordMessages(conversationID, msgs); err != nil {
			m.logf("chat: record messages: %v", err)
		}
	}
	return msgs, nil
}

// Rename sets a conversation's title.
func (m *Manager) Rename(ctx context.Context, conversationID, title string) error {
	title = strings.TrimSpace(title)
	return m.api.RenameConversation(ctx, m.token(), conversationID, title)
}

// Delete removes a conversation. Deleting the bound conversation resets
// the manager to the new-chat screen.
func (m *Manager) Delete(ctx context.Context, conversationID string) error {
	if err := m.api.DeleteConversation(ctx, m.token(), conversationID); err != nil {
		return err
	}

	m.mu.Lock()
	wasCurrent := m.state == StateBound && m.conversationID == conversationID
	m.mu.Unlock()

	if wasCurrent {
		if err := m.jar.Expire(store.CookieConversationID); err != nil {
			m.logf("chat: expire conversation cookie: %v", err)
		}
		m.StartNew()
	}
	return nil
}
