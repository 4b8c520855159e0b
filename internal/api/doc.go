// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the HTTP client for the askdesk assistant backend.
//
// The client covers the chat surface (completion, history, feedback,
// deletion) and the management surface (document-index logs). Every request
// carries the operator identity in X-User-Id; completion requests add
// X-Session-Id once the conversation is bound.
//
// Error responses are reduced to a single *Error carrying the HTTP status
// and the richest human-readable message the body offered, with any
// embedded "(Request ID: ...)" suffix split off into its own field.
package api
