// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"net/url"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/admitcon-tui/internal/auth"
	"github.com/jeranaias/admitcon-tui/internal/ui/styles"
)

// =============================================================================
// LOGIN SCREEN
// =============================================================================

// loginDoneMsg reports a completed login attempt. Navigation on
// success already happened inside the session manager.
type loginDoneMsg struct {
	err error
}

type loginModel struct {
	theme   *styles.Theme
	session *auth.Manager
	router  *Router

	username textinput.Model
	password textinput.Model
	focus    int
	busy     bool
	errText  string
	hint     string
}

func newLoginModel(theme *styles.Theme, session *auth.Manager, router *Router) *loginModel {
	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 64
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return &loginModel{
		theme:    theme,
		session:  session,
		router:   router,
		username: username,
		password: password,
	}
}

func (m *loginModel) Init() tea.Cmd {
	m.busy = false
	m.errText = ""
	m.password.SetValue("")
	m.focus = 0
	m.username.Focus()
	m.password.Blur()
	return textinput.Blink
}

// setRedirectHint surfaces where a successful login will return to,
// parsed from the redirect query of the navigation that landed here.
func (m *loginModel) setRedirectHint(path string) {
	m.hint = ""
	if i := strings.IndexByte(path, '?'); i >= 0 {
		if vals, err := url.ParseQuery(path[i+1:]); err == nil {
			if dest := vals.Get("redirect"); dest != "" && dest != auth.RouteLogin {
				m.hint = "you'll return to " + dest
			}
		}
	}
}

func (m *loginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m, nil

	case loginDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.errText = loginErrorText(msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			m.focus = (m.focus + 1) % 2
			if m.focus == 0 {
				m.username.Focus()
				m.password.Blur()
			} else {
				m.username.Blur()
				m.password.Focus()
			}
			return m, textinput.Blink

		case "ctrl+u":
			m.router.Navigate(auth.RouteSignup)
			return m, nil

		case "enter":
			username := strings.TrimSpace(m.username.Value())
			password := m.password.Value()
			if username == "" || password == "" {
				m.errText = "username and password are required"
				return m, nil
			}
			m.busy = true
			m.errText = ""
			return m, func() tea.Msg {
				_, err := m.session.Login(context.Background(), username, password)
				return loginDoneMsg{err: err}
			}
		}
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *loginModel) View() string {
	t := m.theme

	rows := []string{
		t.FormTitle.Render("Sign in"),
		m.fieldRow("username", m.username.View(), m.focus == 0),
		m.fieldRow("password", m.password.View(), m.focus == 1),
	}

	switch {
	case m.busy:
		rows = append(rows, t.ThinkingText.Render("signing in..."))
	case m.errText != "":
		rows = append(rows, t.ErrorStyle.Render(m.errText))
	case m.hint != "":
		rows = append(rows, t.FormHint.Render(m.hint))
	}
	rows = append(rows, t.FormHint.Render("ctrl+u to create an account"))

	box := t.FormBox.Render(strings.Join(rows, "\n"))
	return lipgloss.Place(t.Width, max(t.Height-4, lipgloss.Height(box)), lipgloss.Center, lipgloss.Center, box)
}

func (m *loginModel) fieldRow(label, field string, focused bool) string {
	style := m.theme.FormLabel
	if focused {
		style = m.theme.FormLabelFocus
	}
	return style.Width(10).Render(label) + field
}

// loginErrorText maps backend failures onto the message the form
// shows.
func loginErrorText(err error) string {
	text := err.Error()
	if i := strings.LastIndex(text, ": "); i >= 0 && i+2 < len(text) {
		text = text[i+2:]
	}
	return text
}
