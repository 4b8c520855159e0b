// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

// Transcript is the ordered list of entries for the active conversation.
// Insertion order is chronological send order. Entries are never removed
// individually; only Clear and ApplyHistory replace the list wholesale.
//
// The transcript is owned by a single conversation view and mutated only
// from the UI event loop, so it carries no lock.
type Transcript struct {
	entries []Entry
	epoch   uint64
}

// New creates an empty transcript at epoch zero.
func New() *Transcript {
	return &Transcript{}
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	return len(t.entries)
}

// Entries returns a copy of the current entries for rendering.
func (t *Transcript) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Entry returns the entry at index i.
func (t *Transcript) Entry(i int) (Entry, bool) {
	if i < 0 || i >= len(t.entries) {
		return Entry{}, false
	}
	return t.entries[i], true
}

// Epoch returns the current staleness-guard epoch. Commands that will
// mutate the transcript asynchronously capture it at issue time.
func (t *Transcript) Epoch() uint64 {
	return t.epoch
}

// HasPending reports whether any entry is still awaiting resolution.
// The UI disables top-level submits while this holds.
func (t *Transcript) HasPending() bool {
	for i := range t.entries {
		if t.entries[i].Pending {
			return true
		}
	}
	return false
}

// Append adds a provisional entry for a fresh submit and returns the
// temporary correlation token assigned to it.
func (t *Transcript) Append(userInput, sessionID string) string {
	token := newToken()
	t.entries = append(t.entries, Entry{
		UserInput:          userInput,
		RequestID:          token,
		SessionID:          sessionID,
		SuggestedQuestions: []string{},
		Citations:          []string{},
		OutputFormat:       "text",
		Pending:            true,
	})
	return token
}

// Resolve patches the entry identified by token with a successful outcome.
// The entry transitions atomically from pending to resolved; no other entry
// is touched. Returns false when no pending entry carries the token, which
// happens after a Clear raced the resolution.
func (t *Transcript) Resolve(token string, r Resolution) bool {
	e := t.findPending(token)
	if e == nil {
		return false
	}

	e.Pending = false
	e.IsError = false
	e.HTTPStatus = 0
	e.ResponseText = r.Answer.AnswerText
	e.SuggestedQuestions = r.Answer.SuggestedQuestions
	e.Citations = r.Answer.Citations
	e.OutputFormat = r.Answer.OutputFormat
	if r.RequestID != "" {
		e.RequestID = r.RequestID
	}
	if r.SessionID != "" {
		e.SessionID = r.SessionID
	}
	return true
}

// Fail patches the entry identified by token with an error outcome.
// The user text stays in place and the temporary token is kept so retry can
// find the slot. Status zero defaults to 500.
func (t *Transcript) Fail(token string, status int, message string) bool {
	e := t.findPending(token)
	if e == nil {
		return false
	}

	if status == 0 {
		status = 500
	}
	e.Pending = false
	e.IsError = true
	e.HTTPStatus = status
	e.ResponseText = message
	e.SuggestedQuestions = []string{}
	e.Citations = []string{}
	return true
}

// Retry re-arms an errored entry for resubmission: the slot is reused
// rather than appending a duplicate. It clears the error state, assigns a
// fresh temporary token, and returns it. Only entries currently marked
// IsError are eligible.
func (t *Transcript) Retry(requestID string) (string, bool) {
	if requestID == "" {
		return "", false
	}
	for i := range t.entries {
		e := &t.entries[i]
		if e.RequestID != requestID || !e.IsError {
			continue
		}
		token := newToken()
		e.RequestID = token
		e.Pending = true
		e.IsError = false
		e.HTTPStatus = 0
		e.ResponseText = ""
		return token, true
	}
	return "", false
}

// SetLiked records a feedback vote on the entry with the given durable
// request id. Callers invoke this only after the feedback API accepted the
// vote; a miss (unknown id) is reported, not fabricated.
func (t *Transcript) SetLiked(requestID string, liked bool) bool {
	if requestID == "" {
		return false
	}
	for i := range t.entries {
		if t.entries[i].RequestID == requestID {
			v := liked
			t.entries[i].Liked = &v
			return true
		}
	}
	return false
}

// Find returns the entry carrying the given request id.
func (t *Transcript) Find(requestID string) (Entry, bool) {
	if requestID == "" {
		return Entry{}, false
	}
	for i := range t.entries {
		if t.entries[i].RequestID == requestID {
			return t.entries[i], true
		}
	}
	return Entry{}, false
}

// BeginLoad bumps the epoch for a history load and returns the new value.
// The caller passes the returned epoch to ApplyHistory when the fetch
// resolves; any load issued earlier is thereby invalidated.
func (t *Transcript) BeginLoad() uint64 {
	t.epoch++
	return t.epoch
}

// ApplyHistory replaces the transcript wholesale with entries loaded from a
// persisted session, in server order. The replacement is dropped when the
// captured epoch is stale, i.e. the user navigated elsewhere while the
// fetch was in flight.
func (t *Transcript) ApplyHistory(epoch uint64, entries []Entry) bool {
	if epoch != t.epoch {
		return false
	}
	t.entries = make([]Entry, len(entries))
	copy(t.entries, entries)
	return true
}

// Clear empties the transcript and bumps the epoch so in-flight loads and
// completions resolve into nothing.
func (t *Transcript) Clear() {
	t.entries = nil
	t.epoch++
}

func (t *Transcript) findPending(token string) *Entry {
	if token == "" {
		return nil
	}
	for i := range t.entries {
		if t.entries[i].RequestID == token && t.entries[i].Pending {
			return &t.entries[i]
		}
	}
	return nil
}
