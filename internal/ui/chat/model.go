// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/askdesk-tui/internal/answer"
	"github.com/jeranaias/askdesk-tui/internal/api"
	"github.com/jeranaias/askdesk-tui/internal/session"
	"github.com/jeranaias/askdesk-tui/internal/transcript"
	"github.com/jeranaias/askdesk-tui/internal/ui/components"
	"github.com/jeranaias/askdesk-tui/internal/ui/styles"
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the conversation view.
type Model struct {
	theme  *styles.Theme
	width  int
	height int

	client     *api.Client
	transcript *transcript.Transcript
	tracker    *session.Tracker

	viewport viewport.Model
	input    textinput.Model
	spinner  components.Spinner
	toasts   *components.ToastManager
	keyMap   KeyMap

	// selected is the transcript index feedback and retry keys act on.
	selected int

	showHelp bool
	ready    bool
}

// New creates a chat model over the given backend client and session
// tracker. The tracker is shared with the app shell, which reads it for the
// status bar.
func New(client *api.Client, tracker *session.Tracker, theme *styles.Theme) Model {
	input := textinput.New()
	input.Placeholder = "Ask a question..."
	input.Prompt = "> "
	input.PromptStyle = theme.InputPrompt
	input.PlaceholderStyle = theme.InputPlaceholder
	input.TextStyle = theme.InputText
	input.CharLimit = 4000
	input.Focus()

	return Model{
		theme:      theme,
		client:     client,
		transcript: transcript.New(),
		tracker:    tracker,
		input:      input,
		spinner:    components.NewSpinner(),
		toasts:     components.NewToastManager(),
		keyMap:     DefaultKeyMap(),
	}
}

// Init starts the cursor blink and the toast expiry ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, components.ToastTickCmd())
}

// SetTheme swaps the theme, used for config hot-reload.
func (m *Model) SetTheme(theme *styles.Theme) {
	m.theme = theme
	m.input.PromptStyle = theme.InputPrompt
	m.input.PlaceholderStyle = theme.InputPlaceholder
	m.input.TextStyle = theme.InputText
}

// SetSize updates the layout dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	// Input line, spinner line, and footer sit below the viewport.
	viewportHeight := height - 4
	if viewportHeight < 3 {
		viewportHeight = 3
	}
	if !m.ready {
		m.viewport = viewport.New(width, viewportHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = viewportHeight
	}
	m.input.Width = width - 4
	m.refreshViewport()
}

// Transcript exposes the transcript for the app shell and tests.
func (m *Model) Transcript() *transcript.Transcript {
	return m.transcript
}

// Toasts exposes the toast manager for the app shell's overlay rendering.
func (m *Model) Toasts() *components.ToastManager {
	return m.toasts
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages for the chat view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case CompletionResultMsg:
		return m.handleCompletion(msg)

	case HistoryLoadedMsg:
		return m.handleHistory(msg)

	case LikeResultMsg:
		return m.handleLikeResult(msg)

	case components.ToastTickMsg:
		m.toasts.Tick()
		if m.toasts.HasToasts() {
			cmds = append(cmds, components.ToastTickCmd())
		}

	default:
		if cmd := m.spinner.Update(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Up),
		key.Matches(msg, m.keyMap.Down),
		key.Matches(msg, m.keyMap.PageUp),
		key.Matches(msg, m.keyMap.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case key.Matches(msg, m.keyMap.Submit):
		return m.submit(m.input.Value())

	case key.Matches(msg, m.keyMap.NewChat):
		m.NewConversation()
		return m, nil

	case key.Matches(msg, m.keyMap.SelectUp):
		if m.selected > 0 {
			m.selected--
			m.refreshViewport()
		}
		return m, nil

	case key.Matches(msg, m.keyMap.SelectDn):
		if m.selected < m.transcript.Len()-1 {
			m.selected++
			m.refreshViewport()
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Like):
		return m.like(true)

	case key.Matches(msg, m.keyMap.Dislike):
		return m.like(false)

	case key.Matches(msg, m.keyMap.Retry):
		return m.retry()

	case key.Matches(msg, m.keyMap.Help):
		m.showHelp = !m.showHelp
		return m, nil
	}

	// Digit with an empty input quick-sends the corresponding suggested
	// question of the selected answer.
	if m.input.Value() == "" && len(msg.String()) == 1 {
		if n, err := strconv.Atoi(msg.String()); err == nil && n >= 1 {
			if entry, ok := m.transcript.Entry(m.selected); ok && n <= len(entry.SuggestedQuestions) {
				return m.submit(entry.SuggestedQuestions[n-1])
			}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// SUBMIT / RESOLUTION
// =============================================================================

// submit appends a provisional entry and issues the completion call. The
// entry is visible immediately; the returned command patches it later via
// its token.
func (m Model) submit(text string) (Model, tea.Cmd) {
	text = strings.TrimSpace(text)
	if text == "" {
		return m, nil
	}
	// No operator identity means the backend would reject the call anyway;
	// skip without touching the transcript.
	if m.tracker.UserID() == "" {
		return m, nil
	}
	if m.transcript.HasPending() {
		m.toasts.AddStatus("Still waiting for the previous answer")
		return m, components.ToastTickCmd()
	}

	token := m.transcript.Append(text, m.tracker.SessionID())
	m.input.Reset()
	m.selected = m.transcript.Len() - 1
	m.refreshViewport()

	return m, tea.Batch(
		completionCmd(m.client, token, m.tracker.SessionID(), text),
		m.spinner.Start(),
	)
}

func (m Model) handleCompletion(msg CompletionResultMsg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	if msg.Err != nil {
		message := api.MessageOf(msg.Err)
		// A miss means the conversation was cleared while the call was in
		// flight; the outcome belongs to nothing and is dropped quietly.
		if m.transcript.Fail(msg.Token, api.StatusOf(msg.Err), message) {
			m.toasts.AddError(message)
			cmds = append(cmds, components.ToastTickCmd())
		}
	} else {
		norm := answer.NormalizeRaw(msg.Result.Raw)
		resolved := m.transcript.Resolve(msg.Token, transcript.Resolution{
			RequestID: msg.Result.RequestID,
			SessionID: msg.Result.SessionID,
			Answer:    norm,
		})
		if resolved && m.tracker.Bind(msg.Result.SessionID) {
			sessionID := msg.Result.SessionID
			cmds = append(cmds, func() tea.Msg {
				return SessionBoundMsg{SessionID: sessionID}
			})
		}
	}

	if !m.transcript.HasPending() {
		m.spinner.Stop()
	}
	m.refreshViewport()
	return m, tea.Batch(cmds...)
}

// =============================================================================
// FEEDBACK / RETRY
// =============================================================================

// like issues a feedback vote on the selected exchange. Entries without a
// durable request id (failed sends, answers the server never identified)
// are skipped silently; there is nothing server-side to vote on.
func (m Model) like(liked bool) (Model, tea.Cmd) {
	entry, ok := m.transcript.Entry(m.selected)
	if !ok || entry.Pending || entry.IsError || !entry.HasDurableID() {
		return m, nil
	}

	sessionID := entry.SessionID
	if sessionID == "" {
		sessionID = m.tracker.SessionID()
	}
	return m, likeCmd(m.client, sessionID, entry.RequestID, liked)
}

func (m Model) handleLikeResult(msg LikeResultMsg) (Model, tea.Cmd) {
	if msg.Err != nil {
		m.toasts.AddError("Feedback not saved: " + api.MessageOf(msg.Err))
		return m, components.ToastTickCmd()
	}
	m.transcript.SetLiked(msg.RequestID, msg.Liked)
	m.refreshViewport()
	return m, nil
}

// retry re-arms the selected failed exchange in place and resubmits the
// original question. The slot is reused; no duplicate entry appears.
func (m Model) retry() (Model, tea.Cmd) {
	entry, ok := m.transcript.Entry(m.selected)
	if !ok || !entry.IsError {
		return m, nil
	}
	token, ok := m.transcript.Retry(entry.RequestID)
	if !ok {
		return m, nil
	}
	m.refreshViewport()
	return m, tea.Batch(
		completionCmd(m.client, token, m.tracker.SessionID(), entry.UserInput),
		m.spinner.Start(),
	)
}

// =============================================================================
// HISTORY / NAVIGATION
// =============================================================================

// LoadConversation begins loading a persisted session. The epoch captured
// here invalidates any earlier load still in flight.
func (m Model) LoadConversation(sessionID string) (Model, tea.Cmd) {
	if sessionID == "" {
		return m, nil
	}
	epoch := m.transcript.BeginLoad()
	return m, loadHistoryCmd(m.client, epoch, sessionID)
}

func (m Model) handleHistory(msg HistoryLoadedMsg) (Model, tea.Cmd) {
	// Outcomes of loads the user has navigated away from are dropped,
	// errors included.
	if msg.Epoch != m.transcript.Epoch() {
		return m, nil
	}
	if msg.Err != nil {
		// The conversation disappeared server-side. Adopting its id would
		// send every later submit under a dead X-Session-Id, so drop back
		// to a fresh conversation and say so.
		if api.IsNotFound(msg.Err) {
			m.NewConversation()
			m.toasts.AddError("Conversation no longer exists")
			return m, components.ToastTickCmd()
		}
		m.toasts.AddError("Could not load conversation: " + api.MessageOf(msg.Err))
		return m, components.ToastTickCmd()
	}

	entries := make([]transcript.Entry, 0, len(msg.Messages))
	for _, hm := range msg.Messages {
		norm := answer.NormalizeRaw(hm.Response)
		entries = append(entries, transcript.Entry{
			UserInput:          hm.UserInput,
			ResponseText:       norm.AnswerText,
			SuggestedQuestions: norm.SuggestedQuestions,
			Citations:          norm.Citations,
			OutputFormat:       norm.OutputFormat,
			RequestID:          hm.RequestID,
			SessionID:          msg.SessionID,
			Liked:              hm.Liked,
		})
	}

	if m.transcript.ApplyHistory(msg.Epoch, entries) {
		m.tracker.Reset()
		m.tracker.Adopt(msg.SessionID)
		m.selected = len(entries) - 1
		if m.selected < 0 {
			m.selected = 0
		}
		m.refreshViewport()
		m.viewport.GotoBottom()
	}
	return m, nil
}

// NewConversation clears the transcript and unbinds the session. In-flight
// completions and history loads are orphaned by the epoch bump and the
// cleared slots; their results resolve into nothing.
func (m *Model) NewConversation() {
	m.transcript.Clear()
	m.tracker.Reset()
	m.selected = 0
	m.spinner.Stop()
	m.refreshViewport()
}
