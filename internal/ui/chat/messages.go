// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Message types flowing through the chat view's update loop. All async
// outcomes arrive as one of these; handlers mutate state only on the event
// loop goroutine.
package chat

import (
	"github.com/jeranaias/askdesk-tui/internal/api"
)

// =============================================================================
// COMPLETION MESSAGES
// =============================================================================

// CompletionResultMsg carries the outcome of one completion call. Token is
// the temporary correlation token captured when the command was issued; it
// addresses exactly one transcript slot.
type CompletionResultMsg struct {
	Token  string
	Result *api.CompletionResult
	Err    error
}

// NewCompletionResultMsg creates a successful completion result message.
func NewCompletionResultMsg(token string, result *api.CompletionResult) CompletionResultMsg {
	return CompletionResultMsg{Token: token, Result: result}
}

// NewCompletionErrorMsg creates a failed completion result message.
func NewCompletionErrorMsg(token string, err error) CompletionResultMsg {
	return CompletionResultMsg{Token: token, Err: err}
}

// =============================================================================
// HISTORY MESSAGES
// =============================================================================

// HistoryLoadedMsg carries a fetched conversation history. Epoch is the
// staleness guard captured when the load was issued; a mismatch at apply
// time means the user navigated elsewhere and the payload is discarded.
type HistoryLoadedMsg struct {
	Epoch     uint64
	SessionID string
	Messages  []api.HistoryMessage
	Err       error
}

// ConversationsLoadedMsg carries the refreshed sidebar conversation list.
type ConversationsLoadedMsg struct {
	Conversations []api.ConversationInfo
	Err           error
}

// ConversationDeletedMsg reports the outcome of a history deletion.
type ConversationDeletedMsg struct {
	SessionID string
	Err       error
}

// SessionBoundMsg announces that the first completion of a fresh
// conversation bound it to a server-issued session identity. The app shell
// refreshes the sidebar on it.
type SessionBoundMsg struct {
	SessionID string
}

// =============================================================================
// FEEDBACK MESSAGES
// =============================================================================

// LikeResultMsg reports the outcome of a feedback vote.
type LikeResultMsg struct {
	RequestID string
	Liked     bool
	Err       error
}
