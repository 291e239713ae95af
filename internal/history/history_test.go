// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/admitcon-tui/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordConversationsUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordConversations([]model.Conversation{
		{ID: "c1", Title: "first", CreatedAt: base, UpdatedAt: base},
		{ID: "c2", Title: "second", CreatedAt: base, UpdatedAt: base.Add(time.Hour)},
	}))

	// Re-fetch with a rename; same id must update, not duplicate.
	require.NoError(t, s.RecordConversations([]model.Conversation{
		{ID: "c1", Title: "first, renamed", CreatedAt: base, UpdatedAt: base.Add(2 * time.Hour)},
	}))

	convs, err := s.Conversations(ctx)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, "c1", convs[0].ID, "most recently updated first")
	assert.Equal(t, "first, renamed", convs[0].Title)
}

func TestRecordMessagesReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordMessages("c1", []model.Message{
		{ID: "m1", Sender: model.SenderUser, Content: "hello"},
		{ID: "m2", Sender: model.SenderAssistant, Content: "hi there"},
		{ID: "m3", Sender: model.SenderUser, Content: "scratch that"},
	}))

	// Backend deleted a message; the mirror must converge.
	require.NoError(t, s.RecordMessages("c1", []model.Message{
		{ID: "m1", Sender: model.SenderUser, Content: "hello"},
		{ID: "m2", Sender: model.SenderAssistant, Content: "hi there"},
	}))

	msgs, err := s.Messages(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "m1", msgs[0].ID)
	assert.Equal(t, model.SenderAssistant, msgs[1].Sender)
}

func TestForgetCascades(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordMessages("c1", []model.Message{
		{ID: "m1", Sender: model.SenderUser, Content: "hello"},
	}))
	require.NoError(t, s.Forget("c1"))

	msgs, err := s.Messages(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	convs, err := s.Conversations(ctx)
	require.NoError(t, err)
	assert.Empty(t, convs)
}

func TestSearch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, s.RecordConversations([]model.Conversation{
		{ID: "c1", Title: "deadlines", CreatedAt: now, UpdatedAt: now},
	}))
	require.NoError(t, s.RecordMessages("c1", []model.Message{
		{ID: "m1", Sender: model.SenderUser, Content: "When is the Application Deadline?"},
		{ID: "m2", Sender: model.SenderAssistant, Content: "March 15th."},
	}))

	results, err := s.Search(ctx, "deadline", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].ConversationID)
	assert.Equal(t, "deadlines", results[0].Title)
	assert.Equal(t, "m1", results[0].Message.ID)
}

func TestSearchEscapesLikeMetacharacters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordMessages("c1", []model.Message{
		{ID: "m1", Sender: model.SenderUser, Content: "tuition is 100% covered"},
		{ID: "m2", Sender: model.SenderUser, Content: "unrelated"},
	}))

	results, err := s.Search(ctx, "100%", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "m1", results[0].Message.ID)
}

func TestClosedStore(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.RecordConversations(nil), ErrClosed)
	_, err := s.Conversations(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}
