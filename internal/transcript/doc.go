// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript manages the optimistic conversation transcript.
//
// Entries are appended provisionally at submit time and patched in place
// when the network call settles. Correlation is strictly by a temporary
// token minted at submit: the transcript may grow between issue and
// resolution, so positions are meaningless, and matching by user text
// breaks on duplicate questions.
//
// An epoch counter guards against stale wholesale replacements: every
// Clear and BeginLoad bumps the epoch, and a history load that resolves
// after the user navigated away is discarded instead of applied.
package transcript
