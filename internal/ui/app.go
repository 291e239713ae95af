// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/admitcon-tui/internal/admin"
	"github.com/jeranaias/admitcon-tui/internal/auth"
	"github.com/jeranaias/admitcon-tui/internal/chat"
	"github.com/jeranaias/admitcon-tui/internal/config"
	"github.com/jeranaias/admitcon-tui/internal/ui/styles"
)

// =============================================================================
// APP MODEL
// =============================================================================

// screen identifies which child model is active.
type screen int

const (
	screenLogin screen = iota
	screenSignup
	screenChat
	screenAdmin
)

// errMsg carries a failed operation's error to the active screen.
type errMsg struct {
	err error
}

// App is the root Bubble Tea model. It owns the screen switch; each
// screen is its own model with the usual Init/Update/View shape.
type App struct {
	theme  *styles.Theme
	router *Router
	cfg    *config.Config

	session *auth.Manager
	chatMgr *chat.Manager
	adminSv *admin.Service

	active screen
	login  *loginModel
	signup *signupModel
	chat   *chatModel
	admin  *adminModel

	width  int
	height int
}

// NewApp wires the root model. The initial screen follows the router's
// starting path, which main sets from the resumed session state.
func NewApp(cfg *config.Config, router *Router, session *auth.Manager, chatMgr *chat.Manager, adminSv *admin.Service) *App {
	theme := styles.NewTheme()
	a := &App{
		theme:   theme,
		router:  router,
		cfg:     cfg,
		session: session,
		chatMgr: chatMgr,
		adminSv: adminSv,
		login:   newLoginModel(theme, session, router),
		signup:  newSignupModel(theme, session, router),
		chat:    newChatModel(theme, cfg, session, chatMgr, router),
		admin:   newAdminModel(theme, session, adminSv, router),
	}
	a.active = screenFor(router.CurrentPath())
	return a
}

// screenFor maps a path to the screen that renders it.
func screenFor(path string) screen {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	switch {
	case path == auth.RouteLogin:
		return screenLogin
	case path == auth.RouteSignup:
		return screenSignup
	case path == auth.RouteAdmin || strings.HasPrefix(path, auth.RouteAdmin+"/"):
		return screenAdmin
	default:
		// Home and every /chat/ path land on the chat screen.
		return screenChat
	}
}

func (a *App) Init() tea.Cmd {
	return a.activeModel().Init()
}

// activeModel returns the child model for the active screen.
func (a *App) activeModel() tea.Model {
	switch a.active {
	case screenLogin:
		return a.login
	case screenSignup:
		return a.signup
	case screenAdmin:
		return a.admin
	default:
		return a.chat
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.theme.SetSize(msg.Width, msg.Height)
		// Every screen needs the size, not just the active one, so a
		// post-navigation screen is not rendered at zero width.
		var cmds []tea.Cmd
		for _, m := range []tea.Model{a.login, a.signup, a.chat, a.admin} {
			_, cmd := m.Update(msg)
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case NavigateMsg:
		return a.navigate(msg.Path)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "ctrl+q":
			if a.session.Authenticated() {
				a.session.Logout()
				a.chatMgr.Reset()
			}
			return a, tea.Quit
		}
	}

	_, cmd := a.activeModel().Update(msg)
	return a, cmd
}

// navigate switches the active screen to match the new path and lets
// the target screen react to being entered.
func (a *App) navigate(path string) (tea.Model, tea.Cmd) {
	next := screenFor(path)
	changed := next != a.active
	a.active = next

	switch next {
	case screenLogin:
		a.login.setRedirectHint(path)
		if changed {
			return a, a.login.Init()
		}
	case screenSignup:
		if changed {
			return a, a.signup.Init()
		}
	case screenAdmin:
		if changed {
			return a, a.admin.Init()
		}
	default:
		// Entering a chat path always refreshes, the bound
		// conversation may have changed without a screen switch.
		return a, a.chat.enter(path)
	}
	return a, nil
}

func (a *App) View() string {
	header := a.theme.Header.Width(max(a.width-2, 0)).Render("admitcon " + a.theme.HeaderTitle.Render("document assistant console"))
	body := a.activeModel().View()
	status := a.statusBar()
	return lipgloss.JoinVertical(lipgloss.Left, header, body, status)
}

// statusBar renders the persistent footer: identity on the left,
// shortcuts on the right.
func (a *App) statusBar() string {
	t := a.theme

	left := t.ShortcutDesc.Render("signed out")
	if s := a.session.Session(); s.Authenticated && s.User != nil {
		left = t.RoleBadge.Render(string(s.User.Role)) + " " + t.ShortcutDesc.Render(s.User.Username)
	}

	var shortcuts []string
	switch a.active {
	case screenLogin, screenSignup:
		shortcuts = []string{"tab", "next field", "enter", "submit"}
	case screenAdmin:
		shortcuts = []string{"tab", "switch pane", "ctrl+t", "chat", "ctrl+q", "logout"}
	default:
		shortcuts = []string{"ctrl+n", "new chat", "ctrl+s", "sidebar", "ctrl+q", "logout"}
	}
	var right strings.Builder
	for i := 0; i+1 < len(shortcuts); i += 2 {
		if i > 0 {
			right.WriteString("  ")
		}
		right.WriteString(t.ShortcutKey.Render(shortcuts[i]))
		right.WriteString(" ")
		right.WriteString(t.ShortcutDesc.Render(shortcuts[i+1]))
	}

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right.String()) - 2
	if gap < 1 {
		gap = 1
	}
	return t.StatusBar.Width(max(a.width, 0)).Render(left + strings.Repeat(" ", gap) + right.String())
}

