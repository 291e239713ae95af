// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/jeranaias/admitcon-tui/internal/api"
	"github.com/jeranaias/admitcon-tui/internal/auth"
	"github.com/jeranaias/admitcon-tui/internal/model"
	"github.com/jeranaias/admitcon-tui/internal/store"
)

type fakeNav struct {
	mu      sync.Mutex
	path    string
	visited []string
}

func (n *fakeNav) CurrentPath() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.path
}

func (n *fakeNav) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.visited = append(n.visited, path)
	n.path = path
}

func (n *fakeNav) setPath(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.path = path
}

func (n *fakeNav) navigations() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.visited)
}

// chatEcho answers the create endpoint, assigning conversation ids from
// a fixed list for new conversations and echoing continued ones.
func chatEcho(t *testing.T, newIDs ...string) http.HandlerFunc {
	var mu sync.Mutex
	next := 0
	return func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/conversation/create", r.URL.Path)
		var req struct {
			Message        string  `json:"message"`
			ConversationID *string `json:"conversation_id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		id := ""
		if req.ConversationID != nil {
			id = *req.ConversationID
		} else {
			mu.Lock()
			id = newIDs[next%len(newIDs)]
			next++
			mu.Unlock()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data": map[string]any{
				"conversation_id": id,
				"user_message":    req.Message,
				"bot_message":     "reply to " + req.Message,
				"created_at":      "2025-06-01T10:00:00.123456",
			},
		})
	}
}

func newTestManager(t *testing.T, handler http.Handler, opts ...Option) (*Manager, *fakeNav, *store.Jar) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	jar, err := store.NewJar(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, jar.Set(store.CookieRefreshToken, "R", store.TokenTTL))

	nav := &fakeNav{path: auth.RouteHome}
	opts = append([]Option{
		WithSendLimit(rate.NewLimiter(rate.Inf, 1)),
		WithLogger(func(string, ...any) {}),
	}, opts...)
	m := NewManager(api.NewClient(server.URL), jar, nav, opts...)
	return m, nav, jar
}

func TestSendBindsAndNavigates(t *testing.T) {
	m, nav, jar := newTestManager(t, chatEcho(t, "c1"))

	res, err := m.Send(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "c1", res.ConversationID)
	assert.Equal(t, "hello", res.UserMessage)
	assert.Equal(t, "reply to hello", res.BotMessage)

	state, id := m.State()
	assert.Equal(t, StateBound, state)
	assert.Equal(t, "c1", id)
	assert.Equal(t, "c1", jar.Get(store.CookieConversationID))
	assert.Equal(t, auth.RouteChatPrefix+"c1", nav.CurrentPath())
}

func TestSendOnNewChatScreenSuppressed(t *testing.T) {
	m, nav, jar := newTestManager(t, chatEcho(t, "c1"))
	nav.setPath(auth.RouteNewChat)

	res, err := m.Send(context.Background(), "hello")
	require.NoError(t, err)

	// The backend assigned an id and the caller sees it, but the
	// current-conversation state stays put and nothing navigates.
	assert.Equal(t, "c1", res.ConversationID)
	assert.NotEmpty(t, res.BotMessage)

	assert.Empty(t, m.CurrentID())
	assert.Empty(t, jar.Get(store.CookieConversationID))
	assert.Zero(t, nav.navigations())
	assert.Equal(t, auth.RouteNewChat, nav.CurrentPath())
}

func TestSendContinuesBoundConversation(t *testing.T) {
	m, nav, jar := newTestManager(t, chatEcho(t, "unused"))
	m.Open("c1")
	nav.setPath(auth.RouteChatPrefix + "c1")
	before := nav.navigations()

	res, err := m.Send(context.Background(), "hi")
	require.NoError(t, err)

	assert.Equal(t, "c1", res.ConversationID)
	assert.Equal(t, "c1", jar.Get(store.CookieConversationID))
	// Same id, already on the conversation path: no extra navigation.
	assert.Equal(t, before, nav.navigations())
}

func TestSendFailsFastPastRateLimit(t *testing.T) {
	m, _, _ := newTestManager(t, chatEcho(t, "c1"),
		WithSendLimit(rate.NewLimiter(rate.Limit(0.01), 1)))

	_, err := m.Send(context.Background(), "first")
	require.NoError(t, err)

	// The burst is spent; a rapid second send is rejected, not queued.
	start := time.Now()
	_, err = m.Send(context.Background(), "second")
	require.ErrorIs(t, err, ErrRateLimited)
	assert.Less(t, time.Since(start), time.Second)
}

func TestStaleSendResponseDiscarded(t *testing.T) {
	first := make(chan struct{})
	m, nav, _ := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Message string `json:"message"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		id := "c-" + req.Message
		if req.Message == "first" {
			<-first // resolves after the second send
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data": map[string]any{
				"conversation_id": id,
				"user_message":    req.Message,
				"bot_message":     "ok",
			},
		})
	}))

	done := make(chan *SendResult, 1)
	go func() {
		res, err := m.Send(context.Background(), "first")
		require.NoError(t, err)
		done <- res
	}()

	// Second send initiates after the first, resolves before it.
	// Wait for the first send to claim its sequence tag.
	for {
		m.mu.Lock()
		started := m.seq > 0
		m.mu.Unlock()
		if started {
			break
		}
		time.Sleep(time.Millisecond)
	}
	_, err := m.Send(context.Background(), "second")
	require.NoError(t, err)
	close(first)
	res := <-done

	// The caller still gets the late reply, but the current
	// conversation reflects the most recently initiated send.
	assert.Equal(t, "c-first", res.ConversationID)
	assert.Equal(t, "c-second", m.CurrentID())
	assert.Equal(t, auth.RouteChatPrefix+"c-second", nav.CurrentPath())
}

func TestStartNewDetaches(t *testing.T) {
	m, nav, _ := newTestManager(t, chatEcho(t, "c1"))
	m.Open("c9")

	m.StartNew()

	state, id := m.State()
	assert.Equal(t, StateNewPending, state)
	assert.Empty(t, id)
	assert.Equal(t, auth.RouteNewChat, nav.CurrentPath())
}

func TestResetOnLogout(t *testing.T) {
	m, nav, _ := newTestManager(t, chatEcho(t, "c1"))
	m.Open("c9")
	before := nav.navigations()

	m.Reset()

	state, id := m.State()
	assert.Equal(t, StateUnset, state)
	assert.Empty(t, id)
	assert.Equal(t, before, nav.navigations(), "reset must not navigate")
}

func TestResumeFromCookie(t *testing.T) {
	m, _, jar := newTestManager(t, chatEcho(t, "c1"))
	require.NoError(t, jar.Set(store.CookieConversationID, "c7", store.ConversationTTL))

	assert.Equal(t, "c7", m.Resume())
	assert.Equal(t, "c7", m.CurrentID())
}

func TestResumeWithoutCookie(t *testing.T) {
	m, _, _ := newTestManager(t, chatEcho(t, "c1"))
	assert.Empty(t, m.Resume())
	state, _ := m.State()
	assert.Equal(t, StateUnset, state)
}

func TestConversationsPreserveBackendOrder(t *testing.T) {
	m, _, _ := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/conversation/", r.URL.Path)
		w.Write([]byte(`{"status":"success","data":{"conversations":[
			{"id":"c3","title":"newest"},
			{"id":"c2","title":"middle"},
			{"id":"c1","title":"oldest"}]}}`))
	}))

	convs, err := m.Conversations(context.Background())
	require.NoError(t, err)
	require.Len(t, convs, 3)
	assert.Equal(t, "c3", convs[0].ID)
	assert.Equal(t, "c1", convs[2].ID)
}

type memRecorder struct {
	mu    sync.Mutex
	convs []model.Conversation
	msgs  map[string][]model.Message
}

func (r *memRecorder) RecordConversations(convs []model.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.convs = convs
	return nil
}

func (r *memRecorder) RecordMessages(id string, msgs []model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.msgs == nil {
		r.msgs = map[string][]model.Message{}
	}
	r.msgs[id] = msgs
	return nil
}

func TestHistoryWritesThroughRecorder(t *testing.T) {
	rec := &memRecorder{}
	m, _, _ := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","data":{"conversation_id":"c1","messages":[
			{"id":"m1","sender_type":"user","content":"hi"},
			{"id":"m2","sender_type":"bot","content":"hello"}]}}`))
	}), WithRecorder(rec))

	msgs, err := m.History(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, model.SenderAssistant, msgs[1].Sender)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Len(t, rec.msgs["c1"], 2)
}

func TestDeleteCurrentConversationResets(t *testing.T) {
	m, nav, jar := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	m.Open("c1")

	require.NoError(t, m.Delete(context.Background(), "c1"))

	state, _ := m.State()
	assert.Equal(t, StateNewPending, state)
	assert.Empty(t, jar.Get(store.CookieConversationID))
	assert.Equal(t, auth.RouteNewChat, nav.CurrentPath())
}

func TestDeleteOtherConversationKeepsBinding(t *testing.T) {
	m, _, jar := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	m.Open("c1")

	require.NoError(t, m.Delete(context.Background(), "c2"))

	assert.Equal(t, "c1", m.CurrentID())
	assert.Equal(t, "c1", jar.Get(store.CookieConversationID))
}
