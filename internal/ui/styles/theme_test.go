// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
)

func TestNewThemePopulatesStyles(t *testing.T) {
	theme := NewTheme()
	if theme == nil {
		t.Fatal("NewTheme returned nil")
	}

	// Spot-check that initStyles ran; a zero style renders input unchanged
	// with no padding.
	out := theme.SessionItemSelected.Render("x")
	if out == "" {
		t.Error("selected session style rendered nothing")
	}
}

func TestNewThemeForMode(t *testing.T) {
	for _, mode := range []string{"dark", "light", "auto"} {
		theme := NewThemeForMode(mode)
		if theme == nil {
			t.Fatalf("mode %q returned nil theme", mode)
		}
	}
}

func TestStatusIndicatorsAreASCII(t *testing.T) {
	for name, s := range map[string]string{
		"success": StatusIndicators.Success,
		"error":   StatusIndicators.Error,
		"warning": StatusIndicators.Warning,
		"info":    StatusIndicators.Info,
		"liked":   StatusIndicators.Liked,
		"dislike": StatusIndicators.Dislike,
	} {
		for _, r := range s {
			if r > 127 {
				t.Errorf("%s indicator %q contains non-ASCII rune", name, s)
			}
		}
	}
}

func TestRenderHelpersIncludeIndicator(t *testing.T) {
	if !strings.Contains(RenderError("boom"), StatusIndicators.Error) {
		t.Error("RenderError missing shape indicator")
	}
	if !strings.Contains(RenderSuccess("done"), StatusIndicators.Success) {
		t.Error("RenderSuccess missing shape indicator")
	}
}
