// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"strings"

	"github.com/google/uuid"

	"github.com/jeranaias/askdesk-tui/internal/answer"
)

// tokenPrefix marks temporary correlation tokens so they can never be
// mistaken for a durable server-issued request id.
const tokenPrefix = "tmp-"

// Entry is one question/answer pair in the transcript.
type Entry struct {
	// UserInput is the text the user submitted. Preserved verbatim even
	// when the call fails, so a failed send never disappears.
	UserInput string

	// ResponseText is the rendered answer body, or the extracted error
	// message when IsError is set. Empty while the call is in flight.
	ResponseText string

	// RequestID is the temporary token while in flight, replaced by the
	// durable server-issued identifier on success. A failed call keeps the
	// temporary token so retry can target the slot.
	RequestID string

	// SessionID is the conversation identity captured at send time.
	// Empty when the conversation was not yet bound.
	SessionID string

	// Liked is the tri-state feedback vote: nil means no vote yet.
	Liked *bool

	SuggestedQuestions []string
	Citations          []string
	OutputFormat       string

	// Pending is true from append until exactly one of success or failure
	// is applied.
	Pending bool

	// IsError marks a failed send. HTTPStatus carries the failure status,
	// defaulting to 500 when the transport gave none.
	IsError    bool
	HTTPStatus int
}

// HasDurableID reports whether the entry carries a server-issued request id,
// the handle feedback calls address. In-flight entries and entries the
// server never identified carry only the temporary token.
func (e *Entry) HasDurableID() bool {
	return e.RequestID != "" && !strings.HasPrefix(e.RequestID, tokenPrefix)
}

// Resolution carries the outcome of a successful completion call.
type Resolution struct {
	// RequestID is the durable server-issued identifier. May be empty for
	// legacy backends, in which case the temporary token is kept.
	RequestID string

	// SessionID is the session identity the server resolved the call under.
	SessionID string

	Answer answer.Normalized
}

// newToken mints a process-lifetime-unique correlation token for an
// in-flight entry.
func newToken() string {
	return tokenPrefix + uuid.NewString()
}
