// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package answer

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultOutputFormat is used when the payload carries no metadata.output_format.
const DefaultOutputFormat = "text"

// Normalized is the canonical in-memory shape of an assistant answer.
// All fields are always populated; slices are non-nil.
type Normalized struct {
	AnswerText         string
	SuggestedQuestions []string
	Citations          []string
	OutputFormat       string
}

// empty returns a Normalized with safe defaults and the given answer text.
func empty(text string) Normalized {
	return Normalized{
		AnswerText:         text,
		SuggestedQuestions: []string{},
		Citations:          []string{},
		OutputFormat:       DefaultOutputFormat,
	}
}

// NormalizeRaw normalizes a raw JSON value as received on the wire.
// A JSON object is normalized structurally; a JSON string goes through the
// tolerant string path; anything else (number, bool, null, or bytes that are
// not valid JSON at all) is rendered as plain text.
func NormalizeRaw(raw json.RawMessage) Normalized {
	if len(raw) == 0 {
		return empty("")
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		// Not valid JSON. Treat the bytes as display text.
		return NormalizeString(string(raw))
	}
	return Normalize(v)
}

// Normalize converts a decoded value of unknown shape into a Normalized.
// It never fails: unrecognized shapes become their plain-text rendering.
func Normalize(v any) Normalized {
	switch val := v.(type) {
	case nil:
		return empty("")
	case string:
		return NormalizeString(val)
	case map[string]any:
		return fromObject(val)
	default:
		// Numbers, bools, arrays. Render verbatim.
		return empty(stringify(val))
	}
}

// NormalizeString normalizes a string payload. Strings that look like a
// serialized object (start with "{", end with "}") are parsed: first as
// strict JSON, then through the single-quote tolerant pass. Everything else,
// including strings that fail both parses, is the answer text verbatim.
func NormalizeString(s string) Normalized {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{") || !strings.HasSuffix(trimmed, "}") {
		return empty(s)
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
		return fromObject(obj)
	}

	// Legacy single-quoted serialization. Rewrite to strict JSON and retry.
	// This is a structural rewrite, never an evaluator: content that still
	// fails to parse is opaque display text, not code.
	if rewritten, ok := rewriteQuoted(trimmed); ok {
		if err := json.Unmarshal([]byte(rewritten), &obj); err == nil {
			return fromObject(obj)
		}
	}

	return empty(s)
}

// fromObject extracts the canonical fields from an already-parsed object.
func fromObject(obj map[string]any) Normalized {
	n := empty("")

	if a, ok := obj["answer"]; ok {
		if s, ok := a.(string); ok {
			n.AnswerText = s
		} else {
			n.AnswerText = stringify(a)
		}
	} else {
		// No answer field: the object itself is the answer.
		n.AnswerText = stringify(obj)
	}

	n.SuggestedQuestions = stringSlice(obj["suggested_questions"])
	n.Citations = stringSlice(obj["citations"])

	if meta, ok := obj["metadata"].(map[string]any); ok {
		if f, ok := meta["output_format"].(string); ok && f != "" {
			n.OutputFormat = f
		}
	}

	return n
}

// stringSlice coerces a decoded JSON value into a slice of strings.
// Non-sequence values and non-string elements are dropped.
func stringSlice(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// stringify renders an arbitrary decoded value as display text.
func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		// json decodes all numbers as float64; keep integers clean.
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case bool:
		if val {
			return "true"
		}
		return "false"
	case nil:
		return ""
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}

// rewriteQuoted rewrites a single-quoted pseudo-JSON object literal into
// strict JSON. It walks the input with a string-state machine, converting
// quote delimiters and translating the legacy escape sequences:
//
//	\n -> newline, \r -> removed, \\ -> \, \' -> ', \" -> "
//
// Returns false when the input is structurally broken (unterminated string),
// in which case the caller falls back to verbatim text.
func rewriteQuoted(s string) (string, bool) {
	var out strings.Builder
	out.Grow(len(s) + 16)

	runes := []rune(s)
	inString := false
	var delim rune

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if !inString {
			if r == '\'' || r == '"' {
				inString = true
				delim = r
				out.WriteByte('"')
			} else {
				out.WriteRune(r)
			}
			continue
		}

		switch {
		case r == '\\':
			if i+1 >= len(runes) {
				return "", false
			}
			i++
			switch runes[i] {
			case 'n':
				out.WriteString(`\n`)
			case 'r':
				// stripped for rendering
			case 't':
				out.WriteString(`\t`)
			case '\\':
				out.WriteString(`\\`)
			case '\'':
				out.WriteByte('\'')
			case '"':
				out.WriteString(`\"`)
			default:
				// Unknown escape: keep the character, drop the backslash.
				writeJSONRune(&out, runes[i])
			}
		case r == delim:
			inString = false
			out.WriteByte('"')
		case r == '"':
			// Bare double quote inside a single-quoted string.
			out.WriteString(`\"`)
		default:
			writeJSONRune(&out, r)
		}
	}

	if inString {
		return "", false
	}
	return out.String(), true
}

// writeJSONRune writes a rune into a JSON string body, escaping the control
// characters JSON forbids in raw form.
func writeJSONRune(out *strings.Builder, r rune) {
	switch r {
	case '\n':
		out.WriteString(`\n`)
	case '\r':
		out.WriteString(`\r`)
	case '\t':
		out.WriteString(`\t`)
	default:
		if r < 0x20 {
			fmt.Fprintf(out, `\u%04x`, r)
			return
		}
		out.WriteRune(r)
	}
}
