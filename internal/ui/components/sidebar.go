// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/jeranaias/askdesk-tui/internal/ui/styles"
	"github.com/jeranaias/askdesk-tui/internal/util"
)

// SidebarItem is one conversation row in the sidebar.
type SidebarItem struct {
	SessionID string
	Title     string
	UpdatedAt time.Time
}

// Sidebar is the conversation list shown on the left of the chat view.
// Navigation and deletion are driven by the parent model; the sidebar only
// tracks the cursor and renders.
type Sidebar struct {
	items  []SidebarItem
	cursor int
	width  int
	height int
}

// NewSidebar creates an empty sidebar.
func NewSidebar(width int) *Sidebar {
	return &Sidebar{width: width}
}

// SetSize updates the sidebar dimensions.
func (s *Sidebar) SetSize(width, height int) {
	s.width = width
	s.height = height
}

// SetItems replaces the conversation list, keeping the cursor in range.
func (s *Sidebar) SetItems(items []SidebarItem) {
	s.items = items
	if s.cursor >= len(items) {
		s.cursor = len(items) - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

// Items returns the current conversation list.
func (s *Sidebar) Items() []SidebarItem {
	return s.items
}

// Len returns the number of conversations.
func (s *Sidebar) Len() int {
	return len(s.items)
}

// CursorUp moves the cursor up one row.
func (s *Sidebar) CursorUp() {
	if s.cursor > 0 {
		s.cursor--
	}
}

// CursorDown moves the cursor down one row.
func (s *Sidebar) CursorDown() {
	if s.cursor < len(s.items)-1 {
		s.cursor++
	}
}

// Selected returns the conversation under the cursor, if any.
func (s *Sidebar) Selected() (SidebarItem, bool) {
	if s.cursor < 0 || s.cursor >= len(s.items) {
		return SidebarItem{}, false
	}
	return s.items[s.cursor], true
}

// SelectSession moves the cursor to the conversation with the given session
// id, if present.
func (s *Sidebar) SelectSession(sessionID string) {
	for i, item := range s.items {
		if item.SessionID == sessionID {
			s.cursor = i
			return
		}
	}
}

// View renders the sidebar.
func (s *Sidebar) View(theme *styles.Theme) string {
	var b strings.Builder
	b.WriteString(theme.SidebarTitle.Render("Conversations"))
	b.WriteString("\n\n")

	if len(s.items) == 0 {
		b.WriteString(theme.SessionMeta.Render("No conversations yet"))
	}

	// One line per row; title truncated to the inner width.
	inner := s.width - 4
	if inner < 8 {
		inner = 8
	}
	for i, item := range s.items {
		title := item.Title
		if title == "" {
			title = item.SessionID
		}
		title = util.TruncateWidth(title, inner)

		if i == s.cursor {
			b.WriteString(theme.SessionItemSelected.Render(title))
		} else {
			b.WriteString(theme.SessionItem.Render(title))
		}
		b.WriteString("\n")
	}

	content := b.String()
	if s.height > 0 {
		return theme.Sidebar.Width(s.width).Height(s.height).Render(content)
	}
	return theme.Sidebar.Width(s.width).Render(content)
}
