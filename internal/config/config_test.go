// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/admitcon-tui/internal/util"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadFromPathTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
version = "1.0.0"

[server]
base_url = "https://backend.example.com"
timeout_secs = 30

[ui]
theme = "light"
page_size = 25
`), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "https://backend.example.com", cfg.Server.BaseURL)
	assert.Equal(t, 30, cfg.Server.TimeoutSecs)
	assert.Equal(t, "light", cfg.UI.Theme)
	assert.Equal(t, 25, cfg.UI.PageSize)

	// Unset sections fall back to defaults.
	assert.Equal(t, 300, cfg.Server.VerifyIntervalSecs)
	assert.Equal(t, float64(1), cfg.Chat.SendRatePerSec)
}

func TestLoadFromPathJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"server": {"base_url": "http://10.0.0.5:8000"}
	}`), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:8000", cfg.Server.BaseURL)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
base_url = "not a url"

[ui]
theme = "neon"
`), 0600))

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.base_url")
	assert.Contains(t, err.Error(), "ui.theme")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ADMITCON_SERVER_URL", "https://override.example.com/")
	t.Setenv("ADMITCON_THEME", "auto")
	t.Setenv("ADMITCON_NO_MARKDOWN", "1")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "https://override.example.com", cfg.Server.BaseURL, "trailing slash trimmed")
	assert.Equal(t, "auto", cfg.UI.Theme)
	assert.False(t, cfg.UI.Markdown)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Server.BaseURL = "https://saved.example.com"
	cfg.UI.PageSize = 50
	require.NoError(t, SaveTOML(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "https://saved.example.com", loaded.Server.BaseURL)
	assert.Equal(t, 50, loaded.UI.PageSize)
}

func TestValidationErrorMessages(t *testing.T) {
	cfg := Default()
	cfg.Server.TimeoutSecs = 0
	cfg.UI.PageSize = 999

	err := cfg.Validate()
	require.Error(t, err)

	var errs ValidateErrors
	require.ErrorAs(t, err, &errs)
	require.Len(t, errs, 2)
	assert.Equal(t, "server.timeout_secs", errs[0].Field)
	assert.Equal(t, "ui.page_size", errs[1].Field)
}

func TestWatcherReloadsOnAtomicSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	changed := make(chan *Config, 1)
	w, err := NewWatcher(path, Default(), func(cfg *Config) {
		select {
		case changed <- cfg:
		default:
		}
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()

	// Let the watcher register before writing.
	time.Sleep(100 * time.Millisecond)

	next := Default()
	next.Server.BaseURL = "https://moved.example.com"
	require.NoError(t, SaveTOML(next, path))

	select {
	case cfg := <-changed:
		assert.Equal(t, "https://moved.example.com", cfg.Server.BaseURL)
		assert.Equal(t, "https://moved.example.com", w.Current().Server.BaseURL)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not observe the config change")
	}

	cancel()
	<-done
}

func TestWatcherKeepsPreviousOnInvalidEdit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	errs := make(chan error, 1)
	w, err := NewWatcher(path, Default(), func(*Config) {
		t.Error("invalid config must not trigger onChange")
	}, func(e error) {
		select {
		case errs <- e:
		default:
		}
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, util.AtomicWriteFile(path, []byte(`[server]`+"\n"+`base_url = "bogus"`), 0600))

	select {
	case <-errs:
		assert.Equal(t, Default().Server.BaseURL, w.Current().Server.BaseURL)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the invalid edit")
	}
}
