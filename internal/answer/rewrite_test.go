// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package answer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// The tolerant rewrite must emit strict JSON or refuse; it never guesses.
// Each accepted case is additionally round-tripped through encoding/json to
// prove the output is genuinely parseable.
func TestRewriteQuotedEmitsStrictJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want map[string]any
	}{
		{
			"simple single quotes",
			`{'answer': 'hello'}`,
			map[string]any{"answer": "hello"},
		},
		{
			"escaped newline and carriage return",
			`{'answer': 'line1\r\nline2'}`,
			map[string]any{"answer": "line1\nline2"},
		},
		{
			"escaped single quote",
			`{'answer': 'it\'s fine'}`,
			map[string]any{"answer": "it's fine"},
		},
		{
			"escaped double quote",
			`{'answer': 'say \"hi\"'}`,
			map[string]any{"answer": `say "hi"`},
		},
		{
			"bare double quote inside single-quoted string",
			`{'answer': 'a "b" c'}`,
			map[string]any{"answer": `a "b" c`},
		},
		{
			"escaped backslash",
			`{'answer': 'C:\\temp'}`,
			map[string]any{"answer": `C:\temp`},
		},
		{
			"nested structures",
			`{'answer': 'x', 'suggested_questions': ['a', 'b'], 'citations': []}`,
			map[string]any{
				"answer":              "x",
				"suggested_questions": []any{"a", "b"},
				"citations":           []any{},
			},
		},
		{
			"numbers and booleans pass through",
			`{'count': 3, 'ok': true, 'missing': null}`,
			map[string]any{"count": 3.0, "ok": true, "missing": nil},
		},
		{
			"mixed quoting styles",
			`{"answer": 'both'}`,
			map[string]any{"answer": "both"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, ok := rewriteQuoted(tc.in)
			require.True(t, ok, "rewrite refused %q", tc.in)

			var got map[string]any
			require.NoError(t, json.Unmarshal([]byte(out), &got),
				"rewrite emitted invalid JSON: %q", out)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestRewriteQuotedRefusesBrokenInput(t *testing.T) {
	for _, in := range []string{
		`{'answer': 'unterminated}`,
		`{'answer': 'trailing backslash\`,
	} {
		_, ok := rewriteQuoted(in)
		require.False(t, ok, "rewrite accepted %q", in)
	}
}

func TestRewriteNeverEvaluates(t *testing.T) {
	// Expression-looking content stays inert text; the rewrite is purely
	// syntactic.
	out, ok := rewriteQuoted(`{'answer': '__import__(\'os\')'}`)
	require.True(t, ok)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, "__import__('os')", got["answer"])
}
