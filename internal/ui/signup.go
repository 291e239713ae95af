// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/admitcon-tui/internal/auth"
	"github.com/jeranaias/admitcon-tui/internal/ui/styles"
)

// =============================================================================
// SIGNUP SCREEN
// =============================================================================

type signupDoneMsg struct {
	err error
}

type signupModel struct {
	theme   *styles.Theme
	session *auth.Manager
	router  *Router

	fields  []textinput.Model
	focus   int
	busy    bool
	done    bool
	errText string
}

const (
	fieldName = iota
	fieldUsername
	fieldEmail
	fieldPassword
	fieldConfirm
	fieldCount
)

var signupLabels = [fieldCount]string{"full name", "username", "email", "password", "confirm"}

func newSignupModel(theme *styles.Theme, session *auth.Manager, router *Router) *signupModel {
	fields := make([]textinput.Model, fieldCount)
	for i := range fields {
		ti := textinput.New()
		ti.Placeholder = signupLabels[i]
		ti.CharLimit = 128
		if i == fieldPassword || i == fieldConfirm {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		fields[i] = ti
	}
	fields[fieldName].Focus()

	return &signupModel{
		theme:   theme,
		session: session,
		router:  router,
		fields:  fields,
	}
}

func (m *signupModel) Init() tea.Cmd {
	m.busy = false
	m.done = false
	m.errText = ""
	for i := range m.fields {
		m.fields[i].SetValue("")
		m.fields[i].Blur()
	}
	m.focus = fieldName
	m.fields[fieldName].Focus()
	return textinput.Blink
}

func (m *signupModel) setFocus(i int) tea.Cmd {
	m.fields[m.focus].Blur()
	m.focus = (i + fieldCount) % fieldCount
	m.fields[m.focus].Focus()
	return textinput.Blink
}

func (m *signupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m, nil

	case signupDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.errText = loginErrorText(msg.err)
			return m, nil
		}
		// Registration never signs the user in; they log in with the
		// new credentials.
		m.done = true
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down":
			return m, m.setFocus(m.focus + 1)
		case "shift+tab", "up":
			return m, m.setFocus(m.focus - 1)
		case "esc":
			m.router.Navigate(auth.RouteLogin)
			return m, nil
		case "enter":
			if m.done {
				m.router.Navigate(auth.RouteLogin)
				return m, nil
			}
			if m.focus != fieldConfirm {
				return m, m.setFocus(m.focus + 1)
			}
			return m, m.submit()
		}
	}

	var cmd tea.Cmd
	m.fields[m.focus], cmd = m.fields[m.focus].Update(msg)
	return m, cmd
}

func (m *signupModel) submit() tea.Cmd {
	details := auth.SignupDetails{
		Name:     strings.TrimSpace(m.fields[fieldName].Value()),
		Username: strings.TrimSpace(m.fields[fieldUsername].Value()),
		Email:    strings.TrimSpace(m.fields[fieldEmail].Value()),
		Password: m.fields[fieldPassword].Value(),
	}

	switch {
	case details.Name == "" || details.Username == "" || details.Email == "" || details.Password == "":
		m.errText = "all fields are required"
		return nil
	case !strings.Contains(details.Email, "@"):
		m.errText = "email address looks invalid"
		return nil
	case details.Password != m.fields[fieldConfirm].Value():
		m.errText = "passwords do not match"
		return nil
	}

	m.busy = true
	m.errText = ""
	return func() tea.Msg {
		_, err := m.session.Signup(context.Background(), details)
		return signupDoneMsg{err: err}
	}
}

func (m *signupModel) View() string {
	t := m.theme

	rows := []string{t.FormTitle.Render("Create account")}
	for i := range m.fields {
		style := t.FormLabel
		if i == m.focus {
			style = t.FormLabelFocus
		}
		rows = append(rows, style.Width(11).Render(signupLabels[i])+m.fields[i].View())
	}

	switch {
	case m.busy:
		rows = append(rows, t.ThinkingText.Render("creating account..."))
	case m.done:
		rows = append(rows, t.SuccessStyle.Render("account created - press enter to sign in"))
	case m.errText != "":
		rows = append(rows, t.ErrorStyle.Render(m.errText))
	default:
		rows = append(rows, t.FormHint.Render("esc to go back to sign in"))
	}

	box := t.FormBox.Render(strings.Join(rows, "\n"))
	return lipgloss.Place(t.Width, max(t.Height-4, lipgloss.Height(box)), lipgloss.Center, lipgloss.Center, box)
}
