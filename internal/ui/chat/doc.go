// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation view of the askdesk TUI.
//
// The view owns the optimistic transcript: a submitted question appears
// immediately as a pending entry, the backend call runs as a Bubble Tea
// command, and the resolution message patches the entry it was issued for.
// Correlation is by temporary token only; answers are never matched to
// entries by position or by user text. History loads are guarded by an
// epoch so a slow fetch for a conversation the user has already left can
// never clobber the current one.
package chat
