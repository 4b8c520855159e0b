// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Error represents a rejection from the askdesk backend.
type Error struct {
	Status    int
	Code      string
	Message   string
	RequestID string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("askdesk error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("askdesk error (HTTP %d): %s", e.Status, e.Message)
}

// StatusOf extracts the HTTP status from an error. Transport failures and
// other untyped errors report 500, the default the transcript records when
// no status is available.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Status != 0 {
		return apiErr.Status
	}
	return 500
}

// MessageOf extracts the display message from an error: the extracted
// server message for an *Error, the plain error text otherwise.
func MessageOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if err == nil {
		return ""
	}
	msg, _ := stripRequestID(err.Error())
	return msg
}

// IsNotFound reports whether the error is a 404 rejection, used by the
// history loader to tolerate sessions that no longer exist.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == 404
}

// errorBody covers the error shapes the backend has produced over time:
// a validation detail field, a flat message, and a nested error object.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// requestIDSuffix matches the "(Request ID: ...)" tail some backend errors
// append to their message.
var requestIDSuffix = regexp.MustCompile(`\s*\(Request ID:\s*([^)]+)\)\s*$`)

// stripRequestID removes a trailing request-id suffix from a message,
// returning the cleaned message and the extracted identifier.
func stripRequestID(msg string) (string, string) {
	m := requestIDSuffix.FindStringSubmatch(msg)
	if m == nil {
		return msg, ""
	}
	return strings.TrimSpace(strings.TrimSuffix(msg, m[0])), strings.TrimSpace(m[1])
}

// newError builds an *Error from a non-2xx response body. The message is
// the most specific field available: detail, then message, then the nested
// error message, then the raw body text.
func newError(status int, body []byte) *Error {
	apiErr := &Error{Status: status}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		switch {
		case len(parsed.Detail) > 0:
			apiErr.Message = detailText(parsed.Detail)
		case parsed.Message != "":
			apiErr.Message = parsed.Message
		case parsed.Error.Message != "":
			apiErr.Message = parsed.Error.Message
			apiErr.Code = parsed.Error.Code
		}
	}

	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("request failed with status %d", status)
	}

	apiErr.Message, apiErr.RequestID = stripRequestID(apiErr.Message)
	return apiErr
}

// detailText renders a detail field that may be a string or a structured
// validation payload.
func detailText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
