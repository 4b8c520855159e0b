// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package mgmt provides the management console view: the document ingestion
// log of the retrieval index, with refresh and delete. Admin-only surface;
// the backend enforces authorization, this view only renders what it is
// allowed to fetch.
package mgmt

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/askdesk-tui/internal/api"
	"github.com/jeranaias/askdesk-tui/internal/ui/styles"
	"github.com/jeranaias/askdesk-tui/internal/util"
)

// =============================================================================
// MESSAGES
// =============================================================================

// LogsLoadedMsg carries the fetched ingestion log list.
type LogsLoadedMsg struct {
	Logs []api.IndexLog
	Err  error
}

// LogDeletedMsg reports the outcome of a log deletion.
type LogDeletedMsg struct {
	ID  string
	Err error
}

// =============================================================================
// KEY MAP
// =============================================================================

// KeyMap defines the management console bindings.
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Refresh key.Binding
	Delete  key.Binding
}

// DefaultKeyMap returns the default management console bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "previous row"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "next row"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete log"),
		),
	}
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the management console.
type Model struct {
	theme  *styles.Theme
	width  int
	height int

	client *api.Client
	logs   []api.IndexLog
	cursor int
	keyMap KeyMap

	loading bool
	lastErr string
}

// New creates the management console model.
func New(client *api.Client, theme *styles.Theme) Model {
	return Model{
		theme:  theme,
		client: client,
		keyMap: DefaultKeyMap(),
	}
}

// SetTheme swaps the theme, used for config hot-reload.
func (m *Model) SetTheme(theme *styles.Theme) {
	m.theme = theme
}

// SetSize updates the layout dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Logs exposes the loaded log list for tests.
func (m *Model) Logs() []api.IndexLog {
	return m.logs
}

// Refresh issues a log list fetch.
func (m Model) Refresh() (Model, tea.Cmd) {
	m.loading = true
	client := m.client
	return m, func() tea.Msg {
		logs, err := client.IndexLogs(context.Background())
		return LogsLoadedMsg{Logs: logs, Err: err}
	}
}

// Update handles messages for the management console.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keyMap.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keyMap.Down):
			if m.cursor < len(m.logs)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keyMap.Refresh):
			return m.Refresh()
		case key.Matches(msg, m.keyMap.Delete):
			return m.deleteSelected()
		}

	case LogsLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.lastErr = api.MessageOf(msg.Err)
			return m, nil
		}
		m.lastErr = ""
		m.logs = msg.Logs
		if m.cursor >= len(m.logs) {
			m.cursor = len(m.logs) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}

	case LogDeletedMsg:
		if msg.Err != nil {
			m.lastErr = api.MessageOf(msg.Err)
			return m, nil
		}
		// Refetch rather than patching locally; the backend may have
		// ingested new documents in the meantime.
		return m.Refresh()
	}

	return m, nil
}

func (m Model) deleteSelected() (Model, tea.Cmd) {
	if m.cursor < 0 || m.cursor >= len(m.logs) {
		return m, nil
	}
	id := m.logs[m.cursor].ID
	client := m.client
	return m, func() tea.Msg {
		err := client.DeleteIndexLog(context.Background(), id)
		return LogDeletedMsg{ID: id, Err: err}
	}
}

// =============================================================================
// VIEW
// =============================================================================

const (
	colFilename = 36
	colStatus   = 12
	colCreated  = 18
)

// View renders the ingestion log table.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.theme.HeaderTitle.Render("Document Index"))
	b.WriteString("\n\n")

	header := fmt.Sprintf("%-*s %-*s %-*s",
		colFilename, "FILE", colStatus, "STATUS", colCreated, "INGESTED")
	b.WriteString(m.theme.TableHeader.Render(header))
	b.WriteString("\n")

	switch {
	case m.loading && len(m.logs) == 0:
		b.WriteString(m.theme.SessionMeta.Render("Loading..."))
	case len(m.logs) == 0:
		b.WriteString(m.theme.SessionMeta.Render("No documents ingested yet"))
	}

	for i, l := range m.logs {
		row := fmt.Sprintf("%-*s %-*s %-*s",
			colFilename, util.TruncateWidth(l.Filename, colFilename),
			colStatus, m.renderStatus(l.Status),
			colCreated, l.CreatedAt.Format("2006-01-02 15:04"))
		if i == m.cursor {
			b.WriteString(m.theme.TableRowSelected.Render(row))
		} else {
			b.WriteString(m.theme.TableRow.Render(row))
		}
		b.WriteString("\n")
	}

	if m.lastErr != "" {
		b.WriteString("\n")
		b.WriteString(styles.RenderError(m.lastErr))
	}

	b.WriteString("\n")
	b.WriteString(m.theme.StatusBar.Width(m.width).Render(
		m.theme.ShortcutKey.Render("r") + m.theme.ShortcutDesc.Render(" refresh  ") +
			m.theme.ShortcutKey.Render("d") + m.theme.ShortcutDesc.Render(" delete  ") +
			m.theme.ShortcutKey.Render("tab") + m.theme.ShortcutDesc.Render(" back to chat")))

	return lipgloss.NewStyle().Padding(0, 1).Render(b.String())
}

func (m Model) renderStatus(status string) string {
	switch strings.ToLower(status) {
	case "done", "completed", "success":
		return m.theme.StatusDone.Render(status)
	case "failed", "error":
		return m.theme.StatusFailed.Render(status)
	default:
		return m.theme.StatusRunning.Render(status)
	}
}
