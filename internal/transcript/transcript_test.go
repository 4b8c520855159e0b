// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"testing"

	"github.com/jeranaias/askdesk-tui/internal/answer"
)

func resolution(reqID, sessID, text string) Resolution {
	return Resolution{
		RequestID: reqID,
		SessionID: sessID,
		Answer: answer.Normalized{
			AnswerText:         text,
			SuggestedQuestions: []string{},
			Citations:          []string{},
			OutputFormat:       "text",
		},
	}
}

func TestAppendCreatesPendingEntry(t *testing.T) {
	tr := New()
	token := tr.Append("hello", "")

	if token == "" {
		t.Fatal("expected a temporary token")
	}
	e, _ := tr.Entry(0)
	if !e.Pending || e.IsError {
		t.Errorf("entry state = %+v, want pending", e)
	}
	if e.RequestID != token {
		t.Errorf("request id = %q, want token %q", e.RequestID, token)
	}
	if !tr.HasPending() {
		t.Error("HasPending should be true")
	}
}

func TestOutOfOrderResolutionByToken(t *testing.T) {
	tr := New()
	t1 := tr.Append("first", "")
	t2 := tr.Append("second", "")

	// Resolving T2 before T1 must update only the T2 entry.
	if !tr.Resolve(t2, resolution("req-2", "sess-1", "answer two")) {
		t.Fatal("resolve T2 failed")
	}

	first, _ := tr.Entry(0)
	second, _ := tr.Entry(1)

	if !first.Pending {
		t.Error("first entry should still be pending")
	}
	if second.Pending || second.ResponseText != "answer two" {
		t.Errorf("second entry = %+v", second)
	}
	if second.RequestID != "req-2" {
		t.Errorf("second request id = %q", second.RequestID)
	}

	if !tr.Resolve(t1, resolution("req-1", "sess-1", "answer one")) {
		t.Fatal("resolve T1 failed")
	}
	first, _ = tr.Entry(0)
	if first.Pending || first.ResponseText != "answer one" {
		t.Errorf("first entry = %+v", first)
	}
}

func TestDuplicateQuestionsResolveIndependently(t *testing.T) {
	tr := New()
	t1 := tr.Append("same question", "")
	t2 := tr.Append("same question", "")

	tr.Resolve(t1, resolution("req-1", "", "one"))
	tr.Resolve(t2, resolution("req-2", "", "two"))

	first, _ := tr.Entry(0)
	second, _ := tr.Entry(1)
	if first.ResponseText != "one" || second.ResponseText != "two" {
		t.Errorf("responses = %q / %q", first.ResponseText, second.ResponseText)
	}
}

func TestFailKeepsUserTextAndToken(t *testing.T) {
	tr := New()
	token := tr.Append("doomed question", "sess-1")

	if !tr.Fail(token, 503, "service unavailable") {
		t.Fatal("fail did not match token")
	}

	e, _ := tr.Entry(0)
	if !e.IsError || e.Pending {
		t.Errorf("entry state = %+v, want errored", e)
	}
	if e.UserInput != "doomed question" {
		t.Error("user text must survive a failed send")
	}
	if e.RequestID != token {
		t.Error("temporary token must be kept for retry")
	}
	if e.HTTPStatus != 503 || e.ResponseText != "service unavailable" {
		t.Errorf("status/message = %d/%q", e.HTTPStatus, e.ResponseText)
	}
}

func TestFailDefaultsStatus(t *testing.T) {
	tr := New()
	token := tr.Append("q", "")
	tr.Fail(token, 0, "connection refused")

	e, _ := tr.Entry(0)
	if e.HTTPStatus != 500 {
		t.Errorf("status = %d, want default 500", e.HTTPStatus)
	}
}

func TestRetryReusesSlot(t *testing.T) {
	tr := New()
	token := tr.Append("flaky question", "")
	tr.Fail(token, 500, "boom")

	retryToken, ok := tr.Retry(token)
	if !ok {
		t.Fatal("retry should be eligible for an errored entry")
	}
	if retryToken == token {
		t.Error("retry must assign a fresh token")
	}
	if tr.Len() != 1 {
		t.Fatalf("len = %d, retry must not append", tr.Len())
	}

	e, _ := tr.Entry(0)
	if !e.Pending || e.IsError || e.ResponseText != "" {
		t.Errorf("entry after retry = %+v", e)
	}

	// On subsequent success the transcript has exactly one resolved entry
	// for that user text.
	tr.Resolve(retryToken, resolution("req-9", "sess-1", "finally"))
	if tr.Len() != 1 {
		t.Fatalf("len = %d after resolve", tr.Len())
	}
	e, _ = tr.Entry(0)
	if e.ResponseText != "finally" || e.UserInput != "flaky question" {
		t.Errorf("entry = %+v", e)
	}
}

func TestRetryIneligibleEntries(t *testing.T) {
	tr := New()
	token := tr.Append("q", "")

	// Pending entries cannot be retried.
	if _, ok := tr.Retry(token); ok {
		t.Error("retry of a pending entry should be rejected")
	}

	tr.Resolve(token, resolution("req-1", "", "fine"))
	if _, ok := tr.Retry("req-1"); ok {
		t.Error("retry of a successful entry should be rejected")
	}
	if _, ok := tr.Retry(""); ok {
		t.Error("retry with empty id should be rejected")
	}
}

func TestStaleHistoryDiscarded(t *testing.T) {
	tr := New()

	epochA := tr.BeginLoad()
	epochB := tr.BeginLoad()

	entriesA := []Entry{{UserInput: "from A", RequestID: "a-1"}}
	entriesB := []Entry{{UserInput: "from B", RequestID: "b-1"}}

	// B resolves first, then the stale A resolution arrives.
	if !tr.ApplyHistory(epochB, entriesB) {
		t.Fatal("current-epoch load should apply")
	}
	if tr.ApplyHistory(epochA, entriesA) {
		t.Fatal("stale load must be discarded")
	}

	e, _ := tr.Entry(0)
	if tr.Len() != 1 || e.UserInput != "from B" {
		t.Errorf("transcript shows %+v, want B's messages", e)
	}

	// Same outcome when the stale one happens to resolve first.
	tr = New()
	epochA = tr.BeginLoad()
	epochB = tr.BeginLoad()
	if tr.ApplyHistory(epochA, entriesA) {
		t.Fatal("stale load must be discarded")
	}
	if !tr.ApplyHistory(epochB, entriesB) {
		t.Fatal("current-epoch load should apply")
	}
	e, _ = tr.Entry(0)
	if e.UserInput != "from B" {
		t.Errorf("transcript shows %+v, want B's messages", e)
	}
}

func TestClearInvalidatesInFlightWork(t *testing.T) {
	tr := New()
	token := tr.Append("q", "")
	epoch := tr.BeginLoad()

	tr.Clear()

	if tr.Len() != 0 {
		t.Fatal("clear should empty the transcript")
	}
	if tr.Resolve(token, resolution("req-1", "", "late")) {
		t.Error("resolution after clear must be dropped")
	}
	if tr.ApplyHistory(epoch, []Entry{{UserInput: "late"}}) {
		t.Error("history load after clear must be dropped")
	}
}

func TestSetLiked(t *testing.T) {
	tr := New()
	token := tr.Append("q", "sess-1")
	tr.Resolve(token, resolution("req-1", "sess-1", "a"))

	if !tr.SetLiked("req-1", true) {
		t.Fatal("like on known request id should apply")
	}
	e, _ := tr.Find("req-1")
	if e.Liked == nil || *e.Liked != true {
		t.Errorf("liked = %v", e.Liked)
	}

	if tr.SetLiked("req-404", false) {
		t.Error("like on unknown request id should report a miss")
	}
	if tr.SetLiked("", true) {
		t.Error("like with empty id should report a miss")
	}
}

func TestTokensAreUnique(t *testing.T) {
	tr := New()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token := tr.Append("q", "")
		if seen[token] {
			t.Fatalf("token %q repeated", token)
		}
		seen[token] = true
	}
}
