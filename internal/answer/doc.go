// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package answer normalizes assistant response payloads.
//
// The backend has shipped several incompatible wire shapes for the answer
// body over time: a plain string, a JSON object, and a stringified
// pseudo-JSON object serialized with single quotes. Historical transcripts
// contain all of them, so every shape must stay renderable forever.
// Normalize is a total function over those shapes: it never returns an
// error, degrading to the literal input text when nothing else works.
package answer
