// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/jeranaias/admitcon-tui/internal/util"
)

// KeyRedirectPath is where the pre-login destination is saved so the
// user lands back on the page they were denied from.
const KeyRedirectPath = "redirectPath"

// Local is a plain key/value store with no expiry, the analogue of the
// browser's localStorage. Kept separate from the cookie jar because the
// two have different lifetime semantics.
type Local struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// NewLocal opens (or creates) the local store at dir/local.json.
func NewLocal(dir string) (*Local, error) {
	l := &Local{
		path:   filepath.Join(dir, "local.json"),
		values: make(map[string]string),
	}

	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, err
	}
	var values map[string]string
	if err := json.Unmarshal(data, &values); err == nil {
		l.values = values
	}
	return l, nil
}

// Set stores a value and flushes to disk.
func (l *Local) Set(key, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.values[key] = value
	return l.flush()
}

// Get returns the stored value, or "" when absent.
func (l *Local) Get(key string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.values[key]
}

// Delete removes a key.
func (l *Local) Delete(key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.values[key]; !ok {
		return nil
	}
	delete(l.values, key)
	return l.flush()
}

func (l *Local) flush() error {
	data, err := json.MarshalIndent(l.values, "", "  ")
	if err != nil {
		return err
	}
	return util.AtomicWriteFile(l.path, data, 0600)
}
