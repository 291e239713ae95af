// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the burst of filesystem events an editor
// save produces into one reload.
const reloadDebounce = 250 * time.Millisecond

// Watcher reloads the config file when it changes on disk and hands
// each valid result to the registered callback. Invalid edits are
// reported through the error callback and the previous config stays in
// effect.
type Watcher struct {
	path     string
	onChange func(*Config)
	onError  func(error)

	mu      sync.Mutex
	current *Config
}

// NewWatcher builds a watcher for the given config path. onChange is
// required; onError may be nil.
func NewWatcher(path string, initial *Config, onChange func(*Config), onError func(error)) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("config watcher requires an onChange callback")
	}
	if onError == nil {
		onError = func(error) {}
	}
	return &Watcher{
		path:     path,
		onChange: onChange,
		onError:  onError,
		current:  initial,
	}, nil
}

// Current returns the most recently loaded config.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Run watches until ctx is cancelled. The parent directory is watched
// rather than the file itself so atomic rename-into-place saves, which
// replace the inode, keep being seen.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch config directory: %w", err)
	}

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
				timerC = timer.C
			} else {
				timer.Reset(reloadDebounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			w.reload()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.onError(fmt.Errorf("config watch: %w", err))
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadFromPath(w.path)
	if err != nil {
		w.onError(fmt.Errorf("config reload rejected: %w", err))
		return
	}

	w.mu.Lock()
	w.current = cfg
	w.mu.Unlock()

	w.onChange(cfg)
}
