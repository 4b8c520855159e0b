// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Bubble Tea commands for the chat view. Each command captures everything
// it needs (client, token, epoch) at issue time so the closure stays valid
// no matter what the model does while the call is in flight.
package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/askdesk-tui/internal/api"
)

// completionCmd sends one question to the backend. The token ties the
// eventual result back to the transcript slot it was issued for.
func completionCmd(client *api.Client, token, sessionID, userInput string) tea.Cmd {
	return func() tea.Msg {
		result, err := client.Completion(context.Background(), sessionID, userInput)
		if err != nil {
			return NewCompletionErrorMsg(token, err)
		}
		return NewCompletionResultMsg(token, result)
	}
}

// loadHistoryCmd fetches the message history of a persisted session. The
// epoch captured here is checked against the transcript when the result
// arrives.
func loadHistoryCmd(client *api.Client, epoch uint64, sessionID string) tea.Cmd {
	return func() tea.Msg {
		messages, err := client.History(context.Background(), sessionID)
		return HistoryLoadedMsg{
			Epoch:     epoch,
			SessionID: sessionID,
			Messages:  messages,
			Err:       err,
		}
	}
}

// ListConversationsCmd refreshes the sidebar conversation list. Exported
// because the app shell issues it on startup and after mutations.
func ListConversationsCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		conversations, err := client.Histories(context.Background())
		return ConversationsLoadedMsg{Conversations: conversations, Err: err}
	}
}

// likeCmd records a feedback vote against a durable request id.
func likeCmd(client *api.Client, sessionID, requestID string, liked bool) tea.Cmd {
	return func() tea.Msg {
		err := client.UpdateLike(context.Background(), sessionID, requestID, liked)
		return LikeResultMsg{RequestID: requestID, Liked: liked, Err: err}
	}
}

// DeleteConversationCmd deletes a persisted session server-side.
func DeleteConversationCmd(client *api.Client, sessionID string) tea.Cmd {
	return func() tea.Msg {
		err := client.DeleteHistory(context.Background(), sessionID)
		return ConversationDeletedMsg{SessionID: sessionID, Err: err}
	}
}
