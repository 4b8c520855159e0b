// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session tracks the server-assigned conversation identity.
//
// A fresh conversation has no session identifier: the server mints one on
// the first successful completion and returns it in response metadata. From
// that point the identifier is fixed for the life of the conversation.
//
// # Key Types
//
//   - Tracker: Unbound/Bound state machine for the active session id
//
// # Usage
//
// Create a tracker for a new conversation:
//
//	tr := session.NewTracker("alice")
//
// Bind the identifier returned by the first successful response:
//
//	tr.Bind(respSessionID)
//
// Later responses cannot rebind; Bind reports whether it took effect:
//
//	if tr.Bind(otherID) {
//	    // first bind of this conversation
//	}
//
// Switching conversations resets the tracker:
//
//	tr.Reset()
package session
