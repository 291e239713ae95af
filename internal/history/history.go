// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history mirrors fetched conversations into a local SQLite
// database so past threads remain browsable offline.
//
// The mirror is write-through and best-effort: the backend stays the
// source of truth, every fetch overwrites the local copy, and nothing
// here is ever pushed back upstream.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/admitcon-tui/internal/model"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("history store is closed")

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL,
	mirrored_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id              TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL,
	position        INTEGER NOT NULL,
	sender          TEXT NOT NULL,
	content         TEXT NOT NULL,
	created_at      TEXT NOT NULL,
	FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation
	ON messages(conversation_id, position);
`

// Store is the local conversation mirror.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	// A TUI has exactly one writer; a single connection sidesteps
	// SQLITE_BUSY entirely.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// =============================================================================
// RECORDING (write-through from fetches)
// =============================================================================

// RecordConversations upserts the conversation listing. Messages are
// untouched; they are mirrored separately when a thread is opened.
func (s *Store) RecordConversations(convs []model.Conversation) error {
	if s.db == nil {
		return ErrClosed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin history transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO conversations (id, title, created_at, updated_at, mirrored_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			updated_at = excluded.updated_at,
			mirrored_at = excluded.mirrored_at`)
	if err != nil {
		return fmt.Errorf("prepare conversation upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, conv := range convs {
		_, err := stmt.Exec(
			conv.ID,
			conv.Title,
			conv.CreatedAt.UTC().Format(time.RFC3339),
			conv.UpdatedAt.UTC().Format(time.RFC3339),
			now,
		)
		if err != nil {
			return fmt.Errorf("upsert conversation %s: %w", conv.ID, err)
		}
	}

	return tx.Commit()
}

// RecordMessages replaces the stored messages of one conversation with
// the fetched history. Replacement keeps local state converging on the
// backend even when messages were deleted server-side.
func (s *Store) RecordMessages(conversationID string, msgs []model.Message) error {
	if s.db == nil {
		return ErrClosed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin history transaction: %w", err)
	}
	defer tx.Rollback()

	// The conversation row may not exist yet when a thread is opened
	// directly by id.
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(`
		INSERT INTO conversations (id, title, created_at, updated_at, mirrored_at)
		VALUES (?, '', ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		conversationID, now, now, now); err != nil {
		return fmt.Errorf("ensure conversation %s: %w", conversationID, err)
	}

	if _, err := tx.Exec(`DELETE FROM messages WHERE conversation_id = ?`, conversationID); err != nil {
		return fmt.Errorf("clear messages for %s: %w", conversationID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO messages (id, conversation_id, position, sender, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare message insert: %w", err)
	}
	defer stmt.Close()

	for i, msg := range msgs {
		_, err := stmt.Exec(
			msg.ID,
			conversationID,
			i,
			string(msg.Sender),
			msg.Content,
			msg.CreatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("insert message %s: %w", msg.ID, err)
		}
	}

	return tx.Commit()
}

// Forget drops one conversation and its messages from the mirror.
func (s *Store) Forget(conversationID string) error {
	if s.db == nil {
		return ErrClosed
	}
	_, err := s.db.Exec(`DELETE FROM conversations WHERE id = ?`, conversationID)
	return err
}

// =============================================================================
// READING
// =============================================================================

// Conversations lists mirrored conversations, most recently updated
// first.
func (s *Store) Conversations(ctx context.Context) ([]model.Conversation, error) {
	if s.db == nil {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, created_at, updated_at
		FROM conversations
		ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list mirrored conversations: %w", err)
	}
	defer rows.Close()

	var convs []model.Conversation
	for rows.Next() {
		var conv model.Conversation
		var created, updated string
		if err := rows.Scan(&conv.ID, &conv.Title, &created, &updated); err != nil {
			return nil, err
		}
		conv.CreatedAt, _ = time.Parse(time.RFC3339, created)
		conv.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

// Messages returns the mirrored history of one conversation, in the
// order it was fetched.
func (s *Store) Messages(ctx context.Context, conversationID string) ([]model.Message, error) {
	if s.db == nil {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender, content, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY position`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("read mirrored messages: %w", err)
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		var msg model.Message
		var sender, created string
		if err := rows.Scan(&msg.ID, &sender, &msg.Content, &created); err != nil {
			return nil, err
		}
		msg.Sender = model.Sender(sender)
		msg.CreatedAt, _ = time.Parse(time.RFC3339, created)
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// SearchResult is one matching message with its conversation context.
type SearchResult struct {
	ConversationID string
	Title          string
	Message        model.Message
}

// Search finds mirrored messages containing the term,
// case-insensitively, newest conversations first.
func (s *Store) Search(ctx context.Context, term string, limit int) ([]SearchResult, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}
	if limit < 1 {
		limit = 50
	}

	// Escape LIKE metacharacters so a literal % in the term does not
	// match everything.
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)

	rows, err := s.db.QueryContext(ctx, `
		SELECT m.conversation_id, c.title, m.id, m.sender, m.content, m.created_at
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE m.content LIKE ? ESCAPE '\' COLLATE NOCASE
		ORDER BY c.updated_at DESC, m.position
		LIMIT ?`, "%"+escaped+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search mirror: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var sender, created string
		if err := rows.Scan(&r.ConversationID, &r.Title, &r.Message.ID, &sender, &r.Message.Content, &created); err != nil {
			return nil, err
		}
		r.Message.Sender = model.Sender(sender)
		r.Message.CreatedAt, _ = time.Parse(time.RFC3339, created)
		results = append(results, r)
	}
	return results, rows.Err()
}
