// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/admitcon-tui/internal/admin"
	"github.com/jeranaias/admitcon-tui/internal/api"
	"github.com/jeranaias/admitcon-tui/internal/auth"
	"github.com/jeranaias/admitcon-tui/internal/model"
	"github.com/jeranaias/admitcon-tui/internal/ui/styles"
	"github.com/jeranaias/admitcon-tui/internal/util"
)

// =============================================================================
// ADMIN SCREEN
// =============================================================================

// adminPane identifies the visible admin tab.
type adminPane int

const (
	paneDashboard adminPane = iota
	paneCollections
	paneUsers
	paneCount
)

var paneTitles = [paneCount]string{"Dashboard", "Collections", "Users"}

type dashboardMsg struct {
	stats *model.DashboardStats
	err   error
}

type collectionsMsg struct {
	collections []model.Collection
	err         error
}

type usersMsg struct {
	page *api.UserPage
	err  error
}

type adminActionMsg struct {
	err error
}

type adminModel struct {
	theme   *styles.Theme
	session *auth.Manager
	service *admin.Service
	router  *Router

	pane     adminPane
	selected int
	page     int

	stats       *model.DashboardStats
	collections []model.Collection
	users       *api.UserPage

	errText string
	width   int
	height  int
}

func newAdminModel(theme *styles.Theme, session *auth.Manager, service *admin.Service, router *Router) *adminModel {
	return &adminModel{theme: theme, session: session, service: service, router: router, page: 1}
}

func (m *adminModel) Init() tea.Cmd {
	m.errText = ""
	return tea.Batch(m.loadDashboard(), m.loadCollections(), m.loadUsers())
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m *adminModel) loadDashboard() tea.Cmd {
	return func() tea.Msg {
		stats, err := m.service.Dashboard(context.Background())
		return dashboardMsg{stats: stats, err: err}
	}
}

func (m *adminModel) loadCollections() tea.Cmd {
	return func() tea.Msg {
		cols, err := m.service.Collections(context.Background())
		return collectionsMsg{collections: cols, err: err}
	}
}

func (m *adminModel) loadUsers() tea.Cmd {
	page := m.page
	return func() tea.Msg {
		users, err := m.service.Users(context.Background(), page, admin.DefaultPageSize)
		return usersMsg{page: users, err: err}
	}
}

// =============================================================================
// UPDATE
// =============================================================================

func (m *adminModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dashboardMsg:
		if msg.err != nil {
			m.errText = loginErrorText(msg.err)
			return m, nil
		}
		m.stats = msg.stats
		return m, nil

	case collectionsMsg:
		if msg.err != nil {
			m.errText = loginErrorText(msg.err)
			return m, nil
		}
		m.collections = msg.collections
		if m.selected >= len(m.collections) {
			m.selected = 0
		}
		return m, nil

	case usersMsg:
		if msg.err != nil {
			m.errText = loginErrorText(msg.err)
			return m, nil
		}
		m.users = msg.page
		return m, nil

	case adminActionMsg:
		if msg.err != nil {
			m.errText = loginErrorText(msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *adminModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab":
		m.pane = (m.pane + 1) % paneCount
		m.selected = 0
		m.errText = ""
		return m, nil

	case "ctrl+t":
		m.router.Navigate(auth.RouteNewChat)
		return m, nil

	case "r":
		return m, m.Init()

	case "up":
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case "down":
		if m.selected < m.rowCount()-1 {
			m.selected++
		}
		return m, nil

	case "left":
		if m.pane == paneUsers && m.page > 1 {
			m.page--
			return m, m.loadUsers()
		}
		return m, nil

	case "right":
		if m.pane == paneUsers && m.users != nil && m.page < m.users.TotalPages {
			m.page++
			return m, m.loadUsers()
		}
		return m, nil

	case "t":
		// Toggle the selected collection's active flag. The row flips
		// immediately; a rejected commit flips it back and reports.
		if m.pane == paneCollections && m.selected < len(m.collections) {
			col := &m.collections[m.selected]
			return m, func() tea.Msg {
				return adminActionMsg{err: m.service.ToggleCollection(context.Background(), col)}
			}
		}
		return m, nil

	case "d":
		if m.pane == paneCollections && m.selected < len(m.collections) {
			id := m.collections[m.selected].ID
			return m, tea.Sequence(
				func() tea.Msg {
					return adminActionMsg{err: m.service.DeleteCollection(context.Background(), id)}
				},
				m.loadCollections(),
			)
		}
		return m, nil
	}
	return m, nil
}

func (m *adminModel) rowCount() int {
	switch m.pane {
	case paneCollections:
		return len(m.collections)
	case paneUsers:
		if m.users == nil {
			return 0
		}
		return len(m.users.Users)
	default:
		return 0
	}
}

// =============================================================================
// VIEW
// =============================================================================

func (m *adminModel) View() string {
	t := m.theme

	var tabs []string
	for i, title := range paneTitles {
		style := t.ConvItem
		if adminPane(i) == m.pane {
			style = t.ConvItemSelected
		}
		tabs = append(tabs, style.Padding(0, 1).Render(title))
	}
	header := strings.Join(tabs, " ")

	var body string
	switch m.pane {
	case paneDashboard:
		body = m.viewDashboard()
	case paneCollections:
		body = m.viewCollections()
	case paneUsers:
		body = m.viewUsers()
	}

	footer := ""
	if m.errText != "" {
		footer = t.ErrorStyle.Render(m.errText)
	}

	return t.Container.Render(lipgloss.JoinVertical(lipgloss.Left, header, "", body, footer))
}

func (m *adminModel) viewDashboard() string {
	t := m.theme
	if m.stats == nil {
		return t.ThinkingText.Render("loading...")
	}

	rows := []string{
		t.FormLabel.Render("users          ") + t.HeaderTitle.Render(fmt.Sprintf("%d", m.stats.NumUsers)),
		t.FormLabel.Render("conversations  ") + t.HeaderTitle.Render(fmt.Sprintf("%d", m.stats.NumConversations)),
		"",
		t.SidebarTitle.Render("Recent activity"),
	}
	if len(m.stats.RecentConversations) == 0 {
		rows = append(rows, t.ConvMeta.Render("no recent conversations"))
	}
	for _, rc := range m.stats.RecentConversations {
		title := util.TruncateWidth(rc.Title, 48)
		rows = append(rows, t.TableRow.Render(title)+"  "+t.ConvMeta.Render(rc.UpdatedAt.Format("2006-01-02 15:04")))
	}
	return strings.Join(rows, "\n")
}

func (m *adminModel) viewCollections() string {
	t := m.theme
	if m.collections == nil {
		return t.ThinkingText.Render("loading...")
	}

	rows := []string{
		t.TableHeader.Render(fmt.Sprintf("%-32s %-8s %s", "NAME", "ACTIVE", "UPDATED")),
	}
	for i, col := range m.collections {
		flag := t.InactiveFlag.Render("off")
		if col.IsActive {
			flag = t.ActiveFlag.Render("on ")
		}
		line := fmt.Sprintf("%-32s %-8s %s",
			util.TruncateWidth(col.Name, 32), flag, col.UpdatedAt.Format("2006-01-02"))
		style := t.TableRow
		if i == m.selected {
			style = t.TableRowSelected
		}
		rows = append(rows, style.Render(line))
	}
	rows = append(rows, "", t.FormHint.Render("t toggle active · d delete · r refresh"))
	return strings.Join(rows, "\n")
}

func (m *adminModel) viewUsers() string {
	t := m.theme
	if m.users == nil {
		return t.ThinkingText.Render("loading...")
	}

	rows := []string{
		t.TableHeader.Render(fmt.Sprintf("%-20s %-28s %-8s", "USERNAME", "EMAIL", "ROLE")),
	}
	for i, u := range m.users.Users {
		line := fmt.Sprintf("%-20s %-28s %-8s",
			util.TruncateWidth(u.Username, 20), util.TruncateWidth(u.Email, 28), u.Role)
		style := t.TableRow
		if i == m.selected {
			style = t.TableRowSelected
		}
		rows = append(rows, style.Render(line))
	}
	rows = append(rows, "", t.ConvMeta.Render(fmt.Sprintf("page %d of %d  (←/→)", m.users.CurrentPage, max(m.users.TotalPages, 1))))
	return strings.Join(rows, "\n")
}
