// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mgmt

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/askdesk-tui/internal/api"
	"github.com/jeranaias/askdesk-tui/internal/ui/styles"
)

func newTestModel() Model {
	client := api.NewClient("http://127.0.0.1:1", "admin")
	m := New(client, styles.NewTheme())
	m.SetSize(80, 24)
	return m
}

func sampleLogs() []api.IndexLog {
	return []api.IndexLog{
		{ID: "l-1", Filename: "handbook.pdf", Status: "done", CreatedAt: time.Now()},
		{ID: "l-2", Filename: "faq.md", Status: "running", CreatedAt: time.Now()},
	}
}

func TestLogsLoadedPopulatesTable(t *testing.T) {
	m := newTestModel()
	m, _ = m.Update(LogsLoadedMsg{Logs: sampleLogs()})

	if len(m.Logs()) != 2 {
		t.Fatalf("len = %d, want 2", len(m.Logs()))
	}
	out := m.View()
	if !strings.Contains(out, "handbook.pdf") || !strings.Contains(out, "faq.md") {
		t.Errorf("table missing rows:\n%s", out)
	}
}

func TestLogsLoadedErrorIsShown(t *testing.T) {
	m := newTestModel()
	m, _ = m.Update(LogsLoadedMsg{Err: errors.New("forbidden")})

	if !strings.Contains(m.View(), "forbidden") {
		t.Error("error not surfaced in view")
	}
}

func TestCursorStaysInRange(t *testing.T) {
	m := newTestModel()
	m, _ = m.Update(LogsLoadedMsg{Logs: sampleLogs()})

	down := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}
	m, _ = m.Update(down)
	m, _ = m.Update(down)
	m, _ = m.Update(down)

	// Shrinking list clamps the cursor.
	m, _ = m.Update(LogsLoadedMsg{Logs: sampleLogs()[:1]})
	m, cmd := m.deleteSelected()
	if cmd == nil {
		t.Error("expected delete command for clamped cursor")
	}
}

func TestDeleteOnEmptyListIsNoOp(t *testing.T) {
	m := newTestModel()
	m, cmd := m.deleteSelected()
	if cmd != nil {
		t.Error("delete with no rows should do nothing")
	}
}

func TestDeletedTriggersRefresh(t *testing.T) {
	m := newTestModel()
	m, _ = m.Update(LogsLoadedMsg{Logs: sampleLogs()})

	m, cmd := m.Update(LogDeletedMsg{ID: "l-1"})
	if cmd == nil {
		t.Error("successful delete should refetch the list")
	}
}
