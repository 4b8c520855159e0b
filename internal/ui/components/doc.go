// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides reusable UI components for the askdesk TUI:
// non-blocking toast notifications, the pending-answer spinner, and the
// conversation sidebar.
package components
