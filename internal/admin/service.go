// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package admin

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/admitcon-tui/internal/api"
	"github.com/jeranaias/admitcon-tui/internal/model"
	"github.com/jeranaias/admitcon-tui/internal/store"
)

// DefaultPageSize matches the backend's user-listing default.
const DefaultPageSize = 10

// Service fronts the admin endpoints. Like the chat manager it reads
// the bearer credential from the cookie jar at call time.
type Service struct {
	api  *api.Client
	jar  *store.Jar
	logf func(format string, args ...any)
}

// NewService builds an admin service.
func NewService(client *api.Client, jar *store.Jar, logf func(format string, args ...any)) *Service {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Service{api: client, jar: jar, logf: logf}
}

func (s *Service) token() string {
	return s.jar.Get(store.CookieRefreshToken)
}

// =============================================================================
// COLLECTIONS
// =============================================================================

// Collections lists every collection.
func (s *Service) Collections(ctx context.Context) ([]model.Collection, error) {
	return s.api.ListCollections(ctx, s.token())
}

// CreateCollection creates a collection and returns it.
func (s *Service) CreateCollection(ctx context.Context, name string) (*model.Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("collection name must not be empty")
	}
	return s.api.CreateCollection(ctx, s.token(), name)
}

// RenameCollection changes a collection's name.
func (s *Service) RenameCollection(ctx context.Context, col *model.Collection, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("collection name must not be empty")
	}
	return Optimistic(col, func(c *model.Collection) {
		c.Name = name
	}, func() error {
		_, err := s.api.UpdateCollection(ctx, s.token(), col.ID, api.CollectionUpdate{Name: &name})
		return err
	})
}

// ToggleCollection flips a collection's active flag optimistically: the
// local struct changes first so the UI reflects the action at once, and
// is rolled back if the backend refuses the update.
func (s *Service) ToggleCollection(ctx context.Context, col *model.Collection) error {
	next := !col.IsActive
	return Optimistic(col, func(c *model.Collection) {
		c.IsActive = next
	}, func() error {
		_, err := s.api.UpdateCollection(ctx, s.token(), col.ID, api.CollectionUpdate{IsActive: &next})
		return err
	})
}

// DeleteCollection removes a collection and everything in it.
func (s *Service) DeleteCollection(ctx context.Context, collectionID string) error {
	return s.api.DeleteCollection(ctx, s.token(), collectionID)
}

// CollectionStats returns the per-collection file summary.
func (s *Service) CollectionStats(ctx context.Context, collectionID string) (*model.CollectionStats, error) {
	return s.api.CollectionStats(ctx, s.token(), collectionID)
}

// =============================================================================
// FILES
// =============================================================================

// Files lists the documents in a collection.
func (s *Service) Files(ctx context.Context, collectionID string) ([]model.FileInfo, error) {
	return s.api.ListFiles(ctx, s.token(), collectionID)
}

// UploadFile streams a local file into a collection.
func (s *Service) UploadFile(ctx context.Context, collectionID, path string) (*model.FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	return s.api.UploadFile(ctx, s.token(), collectionID, filepath.Base(path), f)
}

// Upload streams arbitrary content into a collection under the given
// filename.
func (s *Service) Upload(ctx context.Context, collectionID, filename string, content io.Reader) (*model.FileInfo, error) {
	return s.api.UploadFile(ctx, s.token(), collectionID, filename, content)
}

// DeleteFile removes one document from a collection.
func (s *Service) DeleteFile(ctx context.Context, collectionID, fileID string) error {
	return s.api.DeleteFile(ctx, s.token(), collectionID, fileID)
}

// Chunks lists the embedded chunks of a file, in chunk order.
func (s *Service) Chunks(ctx context.Context, collectionID, fileID string) ([]model.Chunk, error) {
	return s.api.ListChunks(ctx, s.token(), collectionID, fileID)
}

// =============================================================================
// USERS
// =============================================================================

// Users returns one page of the user registry.
func (s *Service) Users(ctx context.Context, page, pageSize int) (*api.UserPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return s.api.ListUsers(ctx, s.token(), page, pageSize)
}

// UpdateUser applies a partial update to a user record.
func (s *Service) UpdateUser(ctx context.Context, userID string, update api.UserUpdate) error {
	return s.api.UpdateUser(ctx, s.token(), userID, update)
}

// SetUserRole changes a user's role optimistically, reverting the local
// record when the backend rejects the change.
func (s *Service) SetUserRole(ctx context.Context, user *model.User, role model.Role) error {
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}
	return Optimistic(user, func(u *model.User) {
		u.Role = role
	}, func() error {
		return s.api.UpdateUser(ctx, s.token(), user.ID, api.UserUpdate{Role: &role})
	})
}

// DeleteUser removes a user account.
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	return s.api.DeleteUser(ctx, s.token(), userID)
}

// =============================================================================
// DASHBOARD
// =============================================================================

// Dashboard returns the console's landing aggregate.
func (s *Service) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	return s.api.DashboardStats(ctx, s.token())
}
