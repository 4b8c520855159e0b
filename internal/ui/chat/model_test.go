// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"encoding/json"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/askdesk-tui/internal/api"
	"github.com/jeranaias/askdesk-tui/internal/session"
	"github.com/jeranaias/askdesk-tui/internal/ui/styles"
)

func testTheme() *styles.Theme {
	return styles.NewTheme()
}

func newTestModel() (Model, *session.Tracker) {
	tracker := session.NewTracker("test-user")
	client := api.NewClient("http://127.0.0.1:1", "test-user")
	m := New(client, tracker, testTheme())
	m.SetSize(80, 24)
	return m, tracker
}

func pendingToken(t *testing.T, m Model) string {
	t.Helper()
	entries := m.Transcript().Entries()
	if len(entries) == 0 {
		t.Fatal("no entries")
	}
	last := entries[len(entries)-1]
	if !last.Pending {
		t.Fatalf("last entry not pending: %+v", last)
	}
	return last.RequestID
}

func resolveMsg(token, sessionID, requestID, answerText string) CompletionResultMsg {
	raw, _ := json.Marshal(map[string]string{"answer": answerText})
	return NewCompletionResultMsg(token, &api.CompletionResult{
		Raw:       raw,
		SessionID: sessionID,
		RequestID: requestID,
	})
}

func TestSubmitAppendsPendingEntry(t *testing.T) {
	m, _ := newTestModel()

	m, cmd := m.submit("how do I reset my password")
	if cmd == nil {
		t.Fatal("submit should issue a completion command")
	}

	entries := m.Transcript().Entries()
	if len(entries) != 1 {
		t.Fatalf("len = %d, want 1", len(entries))
	}
	e := entries[0]
	if !e.Pending || e.UserInput != "how do I reset my password" {
		t.Errorf("entry = %+v", e)
	}
	if e.RequestID == "" {
		t.Error("pending entry must carry a correlation token")
	}
}

func TestSubmitBlankIsNoOp(t *testing.T) {
	m, _ := newTestModel()
	m, cmd := m.submit("   ")
	if cmd != nil || m.Transcript().Len() != 0 {
		t.Error("blank submit should change nothing")
	}
}

func TestCompletionResolvesByToken(t *testing.T) {
	m, tracker := newTestModel()
	m, _ = m.submit("question")
	token := pendingToken(t, m)

	m, _ = m.handleCompletion(resolveMsg(token, "s-1", "r-1", "here is the answer"))

	e, _ := m.Transcript().Entry(0)
	if e.Pending || e.IsError {
		t.Errorf("entry = %+v", e)
	}
	if e.ResponseText != "here is the answer" || e.RequestID != "r-1" {
		t.Errorf("entry = %+v", e)
	}
	if !tracker.Bound() || tracker.SessionID() != "s-1" {
		t.Errorf("tracker = bound:%v id:%q", tracker.Bound(), tracker.SessionID())
	}
}

func TestCompletionWithWrongTokenTouchesNothing(t *testing.T) {
	m, _ := newTestModel()
	m, _ = m.submit("question")

	m, _ = m.handleCompletion(resolveMsg("tmp-not-the-token", "s-1", "r-1", "stray"))

	e, _ := m.Transcript().Entry(0)
	if !e.Pending {
		t.Errorf("entry should still be pending: %+v", e)
	}
}

func TestCompletionFailureKeepsUserText(t *testing.T) {
	m, _ := newTestModel()
	m, _ = m.submit("question")
	token := pendingToken(t, m)

	m, _ = m.handleCompletion(NewCompletionErrorMsg(token, errors.New("connection refused")))

	e, _ := m.Transcript().Entry(0)
	if !e.IsError || e.Pending {
		t.Errorf("entry = %+v", e)
	}
	if e.UserInput != "question" {
		t.Error("user text must survive a failed send")
	}
	if e.HTTPStatus != 500 {
		t.Errorf("status = %d, want default 500", e.HTTPStatus)
	}
}

func TestSessionBindsOnce(t *testing.T) {
	m, tracker := newTestModel()
	m, _ = m.submit("first")
	m, _ = m.handleCompletion(resolveMsg(pendingToken(t, m), "s-1", "r-1", "a"))

	m, _ = m.submit("second")
	m, _ = m.handleCompletion(resolveMsg(pendingToken(t, m), "s-other", "r-2", "b"))

	if tracker.SessionID() != "s-1" {
		t.Errorf("session rebound to %q", tracker.SessionID())
	}
}

func TestStaleHistoryLoadDiscarded(t *testing.T) {
	m, tracker := newTestModel()

	m, _ = m.LoadConversation("s-a")
	epochA := m.Transcript().Epoch()
	m, _ = m.LoadConversation("s-b")
	epochB := m.Transcript().Epoch()

	// The fetch for s-a resolves late; its payload must be dropped.
	m, _ = m.handleHistory(HistoryLoadedMsg{
		Epoch:     epochA,
		SessionID: "s-a",
		Messages:  []api.HistoryMessage{{UserInput: "old", RequestID: "r-old"}},
	})
	if m.Transcript().Len() != 0 {
		t.Fatal("stale history applied")
	}
	if tracker.Bound() {
		t.Error("stale history bound the session")
	}

	m, _ = m.handleHistory(HistoryLoadedMsg{
		Epoch:     epochB,
		SessionID: "s-b",
		Messages:  []api.HistoryMessage{{UserInput: "current", RequestID: "r-1"}},
	})
	if m.Transcript().Len() != 1 {
		t.Fatal("current history not applied")
	}
	if tracker.SessionID() != "s-b" {
		t.Errorf("session = %q, want s-b", tracker.SessionID())
	}
}

func TestHistoryNormalizesResponses(t *testing.T) {
	m, _ := newTestModel()
	m, _ = m.LoadConversation("s-1")

	raw := json.RawMessage(`"{'answer': 'from history', 'citations': ['guide.pdf']}"`)
	m, _ = m.handleHistory(HistoryLoadedMsg{
		Epoch:     m.Transcript().Epoch(),
		SessionID: "s-1",
		Messages:  []api.HistoryMessage{{UserInput: "q", Response: raw, RequestID: "r-1"}},
	})

	e, _ := m.Transcript().Entry(0)
	if e.ResponseText != "from history" {
		t.Errorf("answer = %q", e.ResponseText)
	}
	if len(e.Citations) != 1 || e.Citations[0] != "guide.pdf" {
		t.Errorf("citations = %v", e.Citations)
	}
}

func TestHistoryNotFoundClearsAndNotifies(t *testing.T) {
	m, tracker := newTestModel()
	m, _ = m.submit("stale")
	m, _ = m.LoadConversation("s-gone")

	m, _ = m.handleHistory(HistoryLoadedMsg{
		Epoch:     m.Transcript().Epoch(),
		SessionID: "s-gone",
		Err:       &api.Error{Status: 404, Message: "session not found"},
	})

	if m.Transcript().Len() != 0 {
		t.Errorf("len = %d, want cleared transcript", m.Transcript().Len())
	}
	if tracker.Bound() {
		t.Errorf("tracker adopted vanished session %q", tracker.SessionID())
	}
	if !m.Toasts().HasToasts() {
		t.Error("a vanished conversation must surface a notice")
	}
}

func TestLoadConversationBlankIDIsNoOp(t *testing.T) {
	m, _ := newTestModel()
	before := m.Transcript().Epoch()

	m, cmd := m.LoadConversation("")
	if cmd != nil {
		t.Error("blank session id should not issue a fetch")
	}
	if m.Transcript().Epoch() != before {
		t.Error("blank session id should not bump the epoch")
	}
}

func TestSubmitWithoutIdentityIsNoOp(t *testing.T) {
	tracker := session.NewTracker("")
	client := api.NewClient("http://127.0.0.1:1", "")
	m := New(client, tracker, testTheme())
	m.SetSize(80, 24)

	m, cmd := m.submit("question")
	if cmd != nil || m.Transcript().Len() != 0 {
		t.Error("submit without an operator identity should change nothing")
	}
}

func TestLikeWithoutDurableIDIsSilentNoOp(t *testing.T) {
	m, _ := newTestModel()
	m, _ = m.submit("question")
	token := pendingToken(t, m)

	// Server answered without a request id; the slot keeps its temp token.
	m, _ = m.handleCompletion(resolveMsg(token, "s-1", "", "anonymous answer"))

	m, cmd := m.like(true)
	if cmd != nil {
		t.Error("like on an unidentified answer must not issue a call")
	}
	if m.Toasts().HasToasts() {
		t.Error("silent no-op must not toast")
	}
	e, _ := m.Transcript().Entry(0)
	if e.Liked != nil {
		t.Error("no vote should be recorded locally either")
	}
}

func TestLikeOnResolvedEntryIssuesCall(t *testing.T) {
	m, _ := newTestModel()
	m, _ = m.submit("question")
	m, _ = m.handleCompletion(resolveMsg(pendingToken(t, m), "s-1", "r-1", "a"))

	m, cmd := m.like(true)
	if cmd == nil {
		t.Fatal("expected a feedback command")
	}

	m, _ = m.handleLikeResult(LikeResultMsg{RequestID: "r-1", Liked: true})
	e, _ := m.Transcript().Entry(0)
	if e.Liked == nil || !*e.Liked {
		t.Errorf("liked = %v", e.Liked)
	}
}

func TestRetryReusesSlot(t *testing.T) {
	m, _ := newTestModel()
	m, _ = m.submit("question")
	failedToken := pendingToken(t, m)
	m, _ = m.handleCompletion(NewCompletionErrorMsg(failedToken, errors.New("boom")))

	m, cmd := m.retry()
	if cmd == nil {
		t.Fatal("retry should issue a completion command")
	}

	if m.Transcript().Len() != 1 {
		t.Fatalf("retry duplicated the entry: len = %d", m.Transcript().Len())
	}
	e, _ := m.Transcript().Entry(0)
	if !e.Pending || e.IsError {
		t.Errorf("entry = %+v", e)
	}
	if e.RequestID == failedToken {
		t.Error("retry must mint a fresh token")
	}
}

func TestRetryOnResolvedEntryIsNoOp(t *testing.T) {
	m, _ := newTestModel()
	m, _ = m.submit("question")
	m, _ = m.handleCompletion(resolveMsg(pendingToken(t, m), "s-1", "r-1", "fine"))

	m, cmd := m.retry()
	if cmd != nil {
		t.Error("retry must only target failed exchanges")
	}
}

func TestNewConversationOrphansInflightCompletion(t *testing.T) {
	m, tracker := newTestModel()
	m, _ = m.submit("question")
	token := pendingToken(t, m)

	m.NewConversation()
	if m.Transcript().Len() != 0 || tracker.Bound() {
		t.Fatal("clear did not reset state")
	}

	// The in-flight call resolves after the clear; nothing reappears.
	m, _ = m.handleCompletion(resolveMsg(token, "s-late", "r-late", "ghost"))
	if m.Transcript().Len() != 0 {
		t.Error("orphaned completion resurrected an entry")
	}
	if tracker.Bound() {
		t.Error("orphaned completion bound the session")
	}
}

func TestSuggestedQuestionQuickSend(t *testing.T) {
	m, _ := newTestModel()
	m, _ = m.submit("question")
	token := pendingToken(t, m)

	raw, _ := json.Marshal(map[string]any{
		"answer":              "done",
		"suggested_questions": []string{"follow up one", "follow up two"},
	})
	m, _ = m.handleCompletion(NewCompletionResultMsg(token, &api.CompletionResult{
		Raw: raw, SessionID: "s-1", RequestID: "r-1",
	}))

	m, cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}})
	if cmd == nil {
		t.Fatal("digit quick-send should submit")
	}

	entries := m.Transcript().Entries()
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
	if entries[1].UserInput != "follow up two" {
		t.Errorf("quick-sent %q", entries[1].UserInput)
	}
}

func TestSubmitBlockedWhilePending(t *testing.T) {
	m, _ := newTestModel()
	m, _ = m.submit("first")

	m, _ = m.submit("second")
	if m.Transcript().Len() != 1 {
		t.Errorf("len = %d, want 1 while pending", m.Transcript().Len())
	}
}
