// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// Collection is a backend-managed grouping of uploaded documents. The
// client only issues commands against collections and re-fetches; it
// never maintains cross-entity invariants locally.
type Collection struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Files     []FileInfo `json:"files,omitempty"`
}

// FileInfo describes a document uploaded into a collection.
type FileInfo struct {
	ID           string    `json:"id"`
	CollectionID string    `json:"collection_id,omitempty"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// Chunk is one embedded slice of a file, as stored in the vector index.
type Chunk struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	Sequence int    `json:"chunk_sequence"`
}

// CollectionStats summarizes a single collection for the admin console.
type CollectionStats struct {
	CollectionID   string         `json:"collection_id"`
	CollectionName string         `json:"collection_name"`
	TotalFiles     int            `json:"total_files"`
	FilesByType    map[string]int `json:"files_by_type"`
}

// RecentConversation is one row of the admin dashboard's recent-activity
// listing.
type RecentConversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DashboardStats is the admin dashboard aggregate.
type DashboardStats struct {
	NumUsers            int                  `json:"num_users"`
	NumConversations    int                  `json:"num_conversations"`
	RecentConversations []RecentConversation `json:"recent_conversations"`
}
