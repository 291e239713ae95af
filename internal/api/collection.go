// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/jeranaias/admitcon-tui/internal/model"
)

// CollectionUpdate carries a partial update: rename, toggle, or both.
// Nil fields are omitted so the backend leaves them untouched.
type CollectionUpdate struct {
	Name     *string `json:"name,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

type wireCollection struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	IsActive  bool       `json:"is_active"`
	CreatedAt Timestamp  `json:"created_at"`
	UpdatedAt Timestamp  `json:"updated_at"`
	Files     []wireFile `json:"files"`
}

type wireFile struct {
	ID           string    `json:"id"`
	CollectionID string    `json:"collection_id"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	Size         int64     `json:"size"`
	UploadedAt   Timestamp `json:"uploaded_at"`
}

func (w wireCollection) toModel() model.Collection {
	files := make([]model.FileInfo, 0, len(w.Files))
	for _, f := range w.Files {
		files = append(files, f.toModel())
	}
	return model.Collection{
		ID:        w.ID,
		Name:      w.Name,
		IsActive:  w.IsActive,
		CreatedAt: w.CreatedAt.Time,
		UpdatedAt: w.UpdatedAt.Time,
		Files:     files,
	}
}

func (w wireFile) toModel() model.FileInfo {
	return model.FileInfo{
		ID:           w.ID,
		CollectionID: w.CollectionID,
		Name:         w.Name,
		Type:         w.Type,
		Size:         w.Size,
		UploadedAt:   w.UploadedAt.Time,
	}
}

// ListCollections returns all document collections.
func (c *Client) ListCollections(ctx context.Context, token string) ([]model.Collection, error) {
	var resp struct {
		Collections []wireCollection `json:"collections"`
	}
	if err := c.getJSON(ctx, "/api/collection/", token, &resp); err != nil {
		return nil, err
	}

	collections := make([]model.Collection, 0, len(resp.Collections))
	for _, wc := range resp.Collections {
		collections = append(collections, wc.toModel())
	}
	return collections, nil
}

// CreateCollection creates a named collection.
func (c *Client) CreateCollection(ctx context.Context, token, name string) (*model.Collection, error) {
	req := struct {
		Name string `json:"name"`
	}{Name: name}

	var created wireCollection
	if err := c.sendJSON(ctx, http.MethodPost, "/api/collection/", token, req, &created); err != nil {
		return nil, err
	}
	collection := created.toModel()
	return &collection, nil
}

// GetCollection fetches one collection with its files.
func (c *Client) GetCollection(ctx context.Context, token, collectionID string) (*model.Collection, error) {
	var wc wireCollection
	if err := c.getJSON(ctx, "/api/collection/"+pathEscape(collectionID), token, &wc); err != nil {
		return nil, err
	}
	collection := wc.toModel()
	return &collection, nil
}

// UpdateCollection applies a partial update (rename and/or active toggle).
func (c *Client) UpdateCollection(ctx context.Context, token, collectionID string, update CollectionUpdate) (*model.Collection, error) {
	var updated wireCollection
	if err := c.sendJSON(ctx, http.MethodPut, "/api/collection/"+pathEscape(collectionID), token, update, &updated); err != nil {
		return nil, err
	}
	collection := updated.toModel()
	return &collection, nil
}

// DeleteCollection removes a collection, its files, and its index.
func (c *Client) DeleteCollection(ctx context.Context, token, collectionID string) error {
	return c.delete(ctx, "/api/collection/"+pathEscape(collectionID), token)
}

// CollectionStats returns per-collection file statistics.
func (c *Client) CollectionStats(ctx context.Context, token, collectionID string) (*model.CollectionStats, error) {
	var stats model.CollectionStats
	if err := c.getJSON(ctx, "/api/collection/"+pathEscape(collectionID)+"/stats", token, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ListFiles returns the files uploaded into a collection.
func (c *Client) ListFiles(ctx context.Context, token, collectionID string) ([]model.FileInfo, error) {
	var resp struct {
		Files []wireFile `json:"files"`
	}
	if err := c.getJSON(ctx, "/api/collection/"+pathEscape(collectionID)+"/files", token, &resp); err != nil {
		return nil, err
	}

	files := make([]model.FileInfo, 0, len(resp.Files))
	for _, wf := range resp.Files {
		files = append(files, wf.toModel())
	}
	return files, nil
}

// UploadFile streams a document into a collection as multipart form
// data. The backend parses, chunks and embeds it before returning.
func (c *Client) UploadFile(ctx context.Context, token, collectionID, filename string, content io.Reader) (*model.FileInfo, error) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	// Stream the body so large documents never sit in memory whole.
	go func() {
		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, content); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(writer.Close())
	}()

	path := "/api/collection/" + pathEscape(collectionID) + "/files/upload"
	req, err := c.newRequest(ctx, http.MethodPost, path, pr, token)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}

	var uploaded wireFile
	if err := decodeBody(body, &uploaded); err != nil {
		return nil, err
	}
	file := uploaded.toModel()
	return &file, nil
}

// DeleteFile removes one file (and its chunks) from a collection.
func (c *Client) DeleteFile(ctx context.Context, token, collectionID, fileID string) error {
	return c.delete(ctx, "/api/collection/"+pathEscape(collectionID)+"/files/"+pathEscape(fileID), token)
}

// ListChunks returns the indexed chunks of one file.
func (c *Client) ListChunks(ctx context.Context, token, collectionID, fileID string) ([]model.Chunk, error) {
	var resp struct {
		Chunks []model.Chunk `json:"chunks"`
	}
	path := "/api/collection/" + pathEscape(collectionID) + "/files/" + pathEscape(fileID) + "/chunks"
	if err := c.getJSON(ctx, path, token, &resp); err != nil {
		return nil, err
	}
	return resp.Chunks, nil
}
