// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Rendering for the chat view. Answers marked as markdown go through
// glamour; everything else renders as plain styled text.
package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/askdesk-tui/internal/ui/styles"
)

// View renders the chat view: transcript viewport, pending spinner, input
// line, and shortcut footer.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	sections := []string{m.viewport.View()}

	if spin := m.spinner.View(); spin != "" {
		sections = append(sections, spin)
	} else {
		sections = append(sections, "")
	}

	sections = append(sections, m.theme.InputContainer.Width(m.width-2).Render(m.input.View()))

	if m.showHelp {
		sections = append(sections, m.renderFullHelp())
	} else {
		sections = append(sections, m.renderShortHelp())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// refreshViewport re-renders the transcript into the viewport.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderTranscript())
	if atBottom {
		m.viewport.GotoBottom()
	}
}

// renderTranscript renders all entries, oldest first.
func (m *Model) renderTranscript() string {
	entries := m.transcript.Entries()
	if len(entries) == 0 {
		return m.theme.HeaderSubtitle.Render("Ask anything about your organization's documents.")
	}

	renderer := m.markdownRenderer()

	var blocks []string
	for i, e := range entries {
		var b strings.Builder

		marker := "  "
		if i == m.selected {
			marker = m.theme.ShortcutKey.Render("> ")
		}

		b.WriteString(marker)
		b.WriteString(m.theme.UserBubble.Render(e.UserInput))
		b.WriteString("\n")

		switch {
		case e.Pending:
			b.WriteString(m.theme.PendingMarker.Render("  ..."))

		case e.IsError:
			errLine := fmt.Sprintf("%s %s (HTTP %d)",
				styles.StatusIndicators.Error, e.ResponseText, e.HTTPStatus)
			b.WriteString(m.theme.ErrorBubble.Render(errLine))
			b.WriteString("\n")
			b.WriteString(m.theme.RetryHint.Render("  press C-r to retry"))

		default:
			b.WriteString(m.theme.AnswerBubble.Render(m.renderAnswer(renderer, e.ResponseText, e.OutputFormat)))
			if e.Liked != nil {
				b.WriteString("\n")
				if *e.Liked {
					b.WriteString(m.theme.LikedMarker.Render("  " + styles.StatusIndicators.Liked))
				} else {
					b.WriteString(m.theme.DislikedMarker.Render("  " + styles.StatusIndicators.Dislike))
				}
			}
			if len(e.Citations) > 0 {
				b.WriteString("\n")
				b.WriteString(m.theme.Citation.Render("  Citations: " + strings.Join(e.Citations, ", ")))
			}
			if len(e.SuggestedQuestions) > 0 {
				b.WriteString("\n")
				for j, q := range e.SuggestedQuestions {
					line := fmt.Sprintf("  %s %s",
						m.theme.SuggestionKey.Render(fmt.Sprintf("[%d]", j+1)),
						m.theme.Suggestion.Render(q))
					b.WriteString(line)
					b.WriteString("\n")
				}
			}
		}

		blocks = append(blocks, b.String())
	}

	return strings.Join(blocks, "\n\n")
}

// markdownRenderer builds a glamour renderer sized to the current viewport.
// Returns nil when glamour cannot initialize; callers fall back to plain
// text.
func (m *Model) markdownRenderer() *glamour.TermRenderer {
	wrap := m.width - 8
	if wrap < 20 {
		wrap = 20
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return nil
	}
	return renderer
}

func (m *Model) renderAnswer(renderer *glamour.TermRenderer, text, format string) string {
	if format == "markdown" && renderer != nil {
		if out, err := renderer.Render(text); err == nil {
			return strings.TrimRight(out, "\n")
		}
	}
	return text
}

// renderShortHelp renders the one-line shortcut footer.
func (m Model) renderShortHelp() string {
	var parts []string
	for _, b := range m.keyMap.ShortHelp() {
		parts = append(parts,
			m.theme.ShortcutKey.Render(b.Help().Key)+" "+
				m.theme.ShortcutDesc.Render(b.Help().Desc))
	}
	return m.theme.StatusBar.Width(m.width).Render(strings.Join(parts, "  "))
}

// renderFullHelp renders the grouped shortcut overlay.
func (m Model) renderFullHelp() string {
	var lines []string
	for _, group := range m.keyMap.FullHelp() {
		var parts []string
		for _, b := range group {
			parts = append(parts,
				m.theme.ShortcutKey.Render(b.Help().Key)+" "+
					m.theme.ShortcutDesc.Render(b.Help().Desc))
		}
		lines = append(lines, strings.Join(parts, "  "))
	}
	return m.theme.StatusBar.Width(m.width).Render(strings.Join(lines, "\n"))
}
