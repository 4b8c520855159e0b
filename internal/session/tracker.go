// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

// Tracker owns the active conversation's server-issued session identifier.
//
// State machine: Unbound (no id) -> Bound (id fixed). The Unbound -> Bound
// transition fires exactly once, on the first successful response of a
// conversation that began Unbound. Bound -> Unbound fires only on explicit
// user action (new chat, conversation switch). A later response carrying a
// different session id must not change a bound identifier.
type Tracker struct {
	userID    string
	sessionID string
}

// NewTracker creates an Unbound tracker for the given user identity.
func NewTracker(userID string) *Tracker {
	return &Tracker{userID: userID}
}

// UserID returns the stable operator identity carried on every call.
func (t *Tracker) UserID() string {
	return t.userID
}

// SessionID returns the bound session identifier, or "" while Unbound.
func (t *Tracker) SessionID() string {
	return t.sessionID
}

// Bound reports whether a session identifier is fixed.
func (t *Tracker) Bound() bool {
	return t.sessionID != ""
}

// Bind fixes the session identifier if the tracker is still Unbound.
// It reports whether the bind took effect; a no-op bind (already Bound, or
// empty id) returns false.
func (t *Tracker) Bind(sessionID string) bool {
	if t.sessionID != "" || sessionID == "" {
		return false
	}
	t.sessionID = sessionID
	return true
}

// Adopt force-sets the identifier for a conversation loaded from history.
// Equivalent to Reset followed by Bind.
func (t *Tracker) Adopt(sessionID string) {
	t.sessionID = sessionID
}

// Reset returns the tracker to Unbound. Called on new-chat and when the
// selected conversation is switched or deleted.
func (t *Tracker) Reset() {
	t.sessionID = ""
}
