// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"golang.org/x/term"

	"github.com/jeranaias/admitcon-tui/internal/config"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// Prompt provides input history and line editing for the REPL.
type Prompt struct {
	line        *liner.State
	historyFile string
}

// NewPrompt creates a prompt with history loaded from the config
// directory.
func NewPrompt() *Prompt {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.Dir()
	if err != nil {
		dir = os.TempDir()
	}

	p := &Prompt{
		line:        line,
		historyFile: filepath.Join(dir, "chat_history"),
	}
	p.loadHistory()
	return p
}

func (p *Prompt) loadHistory() {
	if f, err := os.Open(p.historyFile); err == nil {
		p.line.ReadHistory(f)
		f.Close()
	}
}

// Read reads one line with history navigation.
func (p *Prompt) Read(prompt string) (string, error) {
	input, err := p.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		p.line.AppendHistory(input)
	}
	return input, nil
}

// saveHistory persists history with owner-only permissions.
func (p *Prompt) saveHistory() {
	if err := config.EnsureDir(); err != nil {
		return
	}
	f, err := os.OpenFile(p.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	p.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (p *Prompt) Close() {
	p.saveHistory()
	p.line.Close()
}

// =============================================================================
// CREDENTIAL PROMPTS
// =============================================================================

// ReadCredentials prompts for a username and a password. The password
// is read without echo.
func (p *Prompt) ReadCredentials() (username, password string, err error) {
	username, err = p.Read("username: ")
	if err != nil {
		return "", "", err
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return "", "", fmt.Errorf("username is required")
	}

	fmt.Print("password: ")
	passBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", "", fmt.Errorf("read password: %w", err)
	}
	return username, string(passBytes), nil
}
