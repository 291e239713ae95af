// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management
// for admitcon.
//
// Supports both TOML and JSON configuration formats, with sensible
// defaults, environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.admitcon/config.toml
//   - ~/.admitcon/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/admitcon-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete admitcon configuration.
type Config struct {
	// Version of the config schema, not the application.
	Version string `toml:"version" json:"version"`

	// Server is the backend connection configuration.
	Server ServerConfig `toml:"server" json:"server"`

	// Chat configuration.
	Chat ChatConfig `toml:"chat" json:"chat"`

	// History is the local conversation cache configuration.
	History HistoryConfig `toml:"history" json:"history"`

	// UI configuration.
	UI UIConfig `toml:"ui" json:"ui"`
}

// ServerConfig describes how to reach the backend.
type ServerConfig struct {
	// BaseURL is the backend's root URL, without a trailing slash.
	BaseURL string `toml:"base_url" json:"base_url"`
	// TimeoutSecs is the per-request timeout. Chat generation can take
	// a while, so the default is generous.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// VerifyIntervalSecs is how often the stored session is
	// re-validated against the backend.
	VerifyIntervalSecs int `toml:"verify_interval_secs" json:"verify_interval_secs"`
}

// ChatConfig contains chat behavior configuration.
type ChatConfig struct {
	// SendRatePerSec caps outgoing messages per second.
	SendRatePerSec float64 `toml:"send_rate_per_sec" json:"send_rate_per_sec"`
	// SendBurst is the burst allowance on top of the rate.
	SendBurst int `toml:"send_burst" json:"send_burst"`
}

// HistoryConfig contains the local conversation cache configuration.
type HistoryConfig struct {
	// Enabled controls whether fetched conversations are mirrored into
	// the local SQLite cache.
	Enabled bool `toml:"enabled" json:"enabled"`
	// Path is the cache database path (empty = ~/.admitcon/history.db).
	Path string `toml:"path" json:"path"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// Markdown renders assistant replies through the markdown renderer
	// when true, plain text when false.
	Markdown bool `toml:"markdown" json:"markdown"`
	// CompactMode uses a more compact UI layout
	CompactMode bool `toml:"compact_mode" json:"compact_mode"`
	// PageSize is the admin table page size.
	PageSize int `toml:"page_size" json:"page_size"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Server: ServerConfig{
			BaseURL:            "http://localhost:8000",
			TimeoutSecs:        60,
			VerifyIntervalSecs: 300,
		},

		Chat: ChatConfig{
			SendRatePerSec: 1,
			SendBurst:      3,
		},

		History: HistoryConfig{
			Enabled: true,
			Path:    "",
		},

		UI: UIConfig{
			Theme:       "dark",
			Markdown:    true,
			CompactMode: false,
			PageSize:    10,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// Dir returns the admitcon configuration directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".admitcon"), nil
}

// PathTOML returns the path to the TOML config file.
func PathTOML() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// PathJSON returns the path to the JSON config file.
func PathJSON() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureDir ensures the config directory exists.
func EnsureDir() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s). Tries TOML first,
// then JSON, and falls back to defaults. Environment overrides are
// applied last.
func Load() (*Config, error) {
	tomlPath, err := PathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			return LoadFromPath(tomlPath)
		}
	}

	jsonPath, err := PathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			return LoadFromPath(jsonPath)
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation. The format is chosen by file extension; anything that is
// not .json is treated as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode JSON config: %w", err)
		}
	} else {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode TOML config: %w", err)
		}
	}

	cfg.SetDefaults()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SetDefaults fills in any missing or zero-value fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = defaults.Server.BaseURL
	}
	if c.Server.TimeoutSecs <= 0 {
		c.Server.TimeoutSecs = defaults.Server.TimeoutSecs
	}
	if c.Server.VerifyIntervalSecs <= 0 {
		c.Server.VerifyIntervalSecs = defaults.Server.VerifyIntervalSecs
	}
	if c.Chat.SendRatePerSec <= 0 {
		c.Chat.SendRatePerSec = defaults.Chat.SendRatePerSec
	}
	if c.Chat.SendBurst <= 0 {
		c.Chat.SendBurst = defaults.Chat.SendBurst
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.UI.PageSize <= 0 {
		c.UI.PageSize = defaults.UI.PageSize
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := PathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with 0600
// permissions, atomically so a crash mid-write cannot truncate it.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("# admitcon configuration file\n")
	buf.WriteString("# Generated by admitcon - edit with care\n\n")

	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, []byte(buf.String()), 0600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "server.base_url",
			Message: fmt.Sprintf("invalid URL %q, must include scheme and host", c.Server.BaseURL),
		})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, ValidationError{
			Field:   "server.base_url",
			Message: fmt.Sprintf("unsupported scheme %q, must be http or https", u.Scheme),
		})
	}

	if c.Server.TimeoutSecs < 1 || c.Server.TimeoutSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "server.timeout_secs",
			Message: fmt.Sprintf("must be 1-600, got %d", c.Server.TimeoutSecs),
		})
	}

	if c.Server.VerifyIntervalSecs < 30 {
		errs = append(errs, ValidationError{
			Field:   "server.verify_interval_secs",
			Message: fmt.Sprintf("must be at least 30, got %d", c.Server.VerifyIntervalSecs),
		})
	}

	if c.Chat.SendRatePerSec <= 0 {
		errs = append(errs, ValidationError{
			Field:   "chat.send_rate_per_sec",
			Message: "must be positive",
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if c.UI.PageSize < 1 || c.UI.PageSize > 100 {
		errs = append(errs, ValidationError{
			Field:   "ui.page_size",
			Message: fmt.Sprintf("must be 1-100, got %d", c.UI.PageSize),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the
// config.
//
// Supported environment variables:
//   - ADMITCON_SERVER_URL: overrides server.base_url
//   - ADMITCON_TIMEOUT_SECS: overrides server.timeout_secs
//   - ADMITCON_THEME: overrides ui.theme
//   - ADMITCON_NO_MARKDOWN: set to "1" or "true" to disable markdown rendering
//   - ADMITCON_NO_HISTORY: set to "1" or "true" to disable the local cache
func (c *Config) ApplyEnvOverrides() {
	if base := os.Getenv("ADMITCON_SERVER_URL"); base != "" {
		c.Server.BaseURL = strings.TrimRight(base, "/")
	}

	if timeout := os.Getenv("ADMITCON_TIMEOUT_SECS"); timeout != "" {
		var secs int
		if _, err := fmt.Sscanf(timeout, "%d", &secs); err == nil && secs > 0 {
			c.Server.TimeoutSecs = secs
		}
	}

	if theme := os.Getenv("ADMITCON_THEME"); theme != "" {
		c.UI.Theme = theme
	}

	if v := os.Getenv("ADMITCON_NO_MARKDOWN"); v != "" {
		c.UI.Markdown = !(v == "1" || strings.ToLower(v) == "true")
	}

	if v := os.Getenv("ADMITCON_NO_HISTORY"); v != "" {
		c.History.Enabled = !(v == "1" || strings.ToLower(v) == "true")
	}
}

// HistoryPath resolves the local cache database path.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}
