// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage caches the operator's conversation list locally.
//
// The sidebar needs the session list before the backend answers (and when
// it is unreachable), so the list is mirrored into a small SQLite database
// and refreshed after every mutation: new session bound, session deleted,
// list reloaded. The backend remains the source of truth; the cache is
// eventually consistent by explicit refresh.
package storage
