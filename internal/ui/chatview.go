// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/admitcon-tui/internal/auth"
	"github.com/jeranaias/admitcon-tui/internal/chat"
	"github.com/jeranaias/admitcon-tui/internal/config"
	"github.com/jeranaias/admitcon-tui/internal/model"
	"github.com/jeranaias/admitcon-tui/internal/ui/styles"
	"github.com/jeranaias/admitcon-tui/internal/util"
)

// =============================================================================
// CHAT SCREEN
// =============================================================================

const sidebarWidth = 28

// chatEntry is one rendered message.
type chatEntry struct {
	sender  model.Sender
	content string
}

type sendDoneMsg struct {
	result *chat.SendResult
	err    error
}

type historyLoadedMsg struct {
	conversationID string
	messages       []model.Message
	err            error
}

type conversationsMsg struct {
	conversations []model.Conversation
	err           error
}

type chatModel struct {
	theme   *styles.Theme
	cfg     *config.Config
	session *auth.Manager
	chatMgr *chat.Manager
	router  *Router

	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model
	md       *glamour.TermRenderer

	entries []chatEntry
	waiting bool
	errText string

	sidebar       bool
	conversations []model.Conversation
	selected      int

	width  int
	height int
}

func newChatModel(theme *styles.Theme, cfg *config.Config, session *auth.Manager, chatMgr *chat.Manager, router *Router) *chatModel {
	input := textinput.New()
	input.Placeholder = "ask about admissions, documents, deadlines..."
	input.CharLimit = 4000
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = theme.Spinner

	m := &chatModel{
		theme:    theme,
		cfg:      cfg,
		session:  session,
		chatMgr:  chatMgr,
		router:   router,
		viewport: viewport.New(0, 0),
		input:    input,
		spin:     spin,
	}

	if cfg.UI.Markdown {
		// Renderer failure falls back to plain text.
		if r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(0)); err == nil {
			m.md = r
		}
	}
	return m
}

func (m *chatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadConversations())
}

// enter reacts to navigating to a chat path: a bound conversation loads
// its history, the new-chat screen starts empty.
func (m *chatModel) enter(path string) tea.Cmd {
	m.errText = ""

	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	switch {
	case path == auth.RouteNewChat, path == auth.RouteHome:
		m.entries = nil
		m.refreshViewport()
		return m.loadConversations()

	case strings.HasPrefix(path, auth.RouteChatPrefix):
		id := strings.TrimPrefix(path, auth.RouteChatPrefix)
		return tea.Batch(m.loadHistory(id), m.loadConversations())
	}
	return nil
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m *chatModel) loadConversations() tea.Cmd {
	return func() tea.Msg {
		convs, err := m.chatMgr.Conversations(context.Background())
		return conversationsMsg{conversations: convs, err: err}
	}
}

func (m *chatModel) loadHistory(conversationID string) tea.Cmd {
	return func() tea.Msg {
		msgs, err := m.chatMgr.History(context.Background(), conversationID)
		return historyLoadedMsg{conversationID: conversationID, messages: msgs, err: err}
	}
}

func (m *chatModel) send(text string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.chatMgr.Send(context.Background(), text)
		return sendDoneMsg{result: res, err: err}
	}
}

// =============================================================================
// UPDATE
// =============================================================================

func (m *chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case conversationsMsg:
		if msg.err == nil {
			m.conversations = msg.conversations
			if m.selected >= len(m.conversations) {
				m.selected = 0
			}
		}
		return m, nil

	case historyLoadedMsg:
		if msg.err != nil {
			m.errText = "could not load conversation: " + loginErrorText(msg.err)
			return m, nil
		}
		m.entries = m.entries[:0]
		for _, message := range msg.messages {
			m.entries = append(m.entries, chatEntry{sender: message.Sender, content: message.Content})
		}
		m.refreshViewport()
		return m, nil

	case sendDoneMsg:
		m.waiting = false
		if msg.err != nil {
			m.errText = "send failed: " + loginErrorText(msg.err)
			return m, nil
		}
		m.entries = append(m.entries, chatEntry{sender: model.SenderAssistant, content: msg.result.BotMessage})
		m.refreshViewport()
		return m, m.loadConversations()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *chatModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+n":
		m.chatMgr.StartNew()
		return m, nil

	case "ctrl+s":
		m.sidebar = !m.sidebar
		m.layout()
		return m, nil

	case "ctrl+a":
		if s := m.session.Session(); s.User != nil && s.User.Role.IsAdmin() {
			m.router.Navigate(auth.RouteAdmin)
		}
		return m, nil

	case "up", "down":
		if m.sidebar && len(m.conversations) > 0 {
			if msg.String() == "up" && m.selected > 0 {
				m.selected--
			}
			if msg.String() == "down" && m.selected < len(m.conversations)-1 {
				m.selected++
			}
			return m, nil
		}

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case "enter":
		if m.sidebar && len(m.conversations) > 0 {
			m.chatMgr.Open(m.conversations[m.selected].ID)
			m.sidebar = false
			m.layout()
			return m, nil
		}
		text := strings.TrimSpace(m.input.Value())
		if text == "" || m.waiting {
			return m, nil
		}
		m.input.SetValue("")
		m.errText = ""
		m.entries = append(m.entries, chatEntry{sender: model.SenderUser, content: text})
		m.refreshViewport()
		m.waiting = true
		return m, tea.Batch(m.send(text), m.spin.Tick)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// LAYOUT / RENDERING
// =============================================================================

func (m *chatModel) layout() {
	w := m.width
	if m.sidebar {
		w -= sidebarWidth
	}
	// Header, input row, status bar.
	h := m.height - 7
	if h < 3 {
		h = 3
	}
	if w < 20 {
		w = 20
	}
	m.viewport.Width = w - 2
	m.viewport.Height = h
	m.input.Width = w - 6
	m.refreshViewport()
}

func (m *chatModel) refreshViewport() {
	var b strings.Builder
	for i, entry := range m.entries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderEntry(entry))
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m *chatModel) renderEntry(entry chatEntry) string {
	bubbleWidth := m.viewport.Width - 8
	if bubbleWidth < 16 {
		bubbleWidth = 16
	}

	if entry.sender == model.SenderAssistant {
		content := entry.content
		if m.md != nil {
			if rendered, err := m.md.Render(content); err == nil {
				content = strings.TrimRight(rendered, "\n")
			}
		}
		return m.theme.AssistantBubble.MaxWidth(bubbleWidth).Render(content)
	}
	return lipgloss.PlaceHorizontal(m.viewport.Width, lipgloss.Right,
		m.theme.UserBubble.MaxWidth(bubbleWidth).Render(entry.content))
}

func (m *chatModel) View() string {
	t := m.theme

	main := m.viewport.View()

	inputRow := t.InputContainer.Width(m.viewport.Width + 2).Render(t.InputPrompt.Render("> ") + m.input.View())

	var footer string
	switch {
	case m.waiting:
		footer = m.spin.View() + t.ThinkingText.Render(" assistant is thinking...")
	case m.errText != "":
		footer = t.ErrorStyle.Render(m.errText)
	}

	body := lipgloss.JoinVertical(lipgloss.Left, main, inputRow, footer)
	if !m.sidebar {
		return body
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), body)
}

func (m *chatModel) renderSidebar() string {
	t := m.theme

	rows := []string{t.SidebarTitle.Render("Conversations")}
	if len(m.conversations) == 0 {
		rows = append(rows, t.ConvMeta.Render("none yet"))
	}
	for i, conv := range m.conversations {
		title := conv.Title
		if title == "" {
			title = conv.ID
		}
		title = util.TruncateWidth(title, sidebarWidth-4)
		style := t.ConvItem
		if i == m.selected {
			style = t.ConvItemSelected
		}
		rows = append(rows, style.Render(title))
	}

	height := m.viewport.Height + 2
	return t.Sidebar.Width(sidebarWidth - 2).Height(height).Render(strings.Join(rows, "\n"))
}
