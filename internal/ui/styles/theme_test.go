// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// THEME CREATION TESTS
// =============================================================================

func TestNewThemeFor(t *testing.T) {
	theme := NewThemeFor(termenv.Ascii, true)
	if theme == nil {
		t.Fatal("NewThemeFor() returned nil")
	}
	if theme.ColorProfile != termenv.Ascii {
		t.Errorf("ColorProfile = %v, want Ascii", theme.ColorProfile)
	}
	if theme.Width != 80 || theme.Height != 24 {
		t.Errorf("default size = %dx%d, want 80x24", theme.Width, theme.Height)
	}
}

func TestThemeStylesRender(t *testing.T) {
	theme := NewThemeFor(termenv.Ascii, true)

	styles := []struct {
		name  string
		style lipgloss.Style
	}{
		{"Header", theme.Header},
		{"UserText", theme.UserText},
		{"AssistantText", theme.AssistantText},
		{"Provisional", theme.Provisional},
		{"InputContainer", theme.InputContainer},
		{"StatusBar", theme.StatusBar},
		{"Notice", theme.Notice},
		{"CompletionBox", theme.CompletionBox},
	}

	for _, s := range styles {
		if !strings.Contains(s.style.Render("test"), "test") {
			t.Errorf("%s style lost its content", s.name)
		}
	}
}

func TestLayoutModes(t *testing.T) {
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
		{200, LayoutWide},
	}

	theme := NewThemeFor(termenv.Ascii, true)
	for _, tt := range tests {
		theme.SetSize(tt.width, 30)
		if got := theme.GetLayoutMode(); got != tt.want {
			t.Errorf("GetLayoutMode() at width %d = %v, want %v", tt.width, got, tt.want)
		}
	}
}

// =============================================================================
// STATUS AND SPINNER TESTS
// =============================================================================

func TestRenderStatusIndicators(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	tests := []struct {
		name   string
		render func(string) string
		prefix string
	}{
		{"error", RenderError, "[X] "},
		{"warning", RenderWarning, "[!] "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.render("done")
			if got != tt.prefix+"done" {
				t.Errorf("render = %q, want %q", got, tt.prefix+"done")
			}
		})
	}
}

func TestSpinnerConfigDuration(t *testing.T) {
	if got := LineSpinner.Duration(); got != 100*time.Millisecond {
		t.Errorf("LineSpinner.Duration() = %v, want 100ms", got)
	}
	if got := (SpinnerConfig{}).Duration(); got != time.Second {
		t.Errorf("zero FPS Duration() = %v, want 1s", got)
	}
	if len(DotsSpinner.Frames) == 0 {
		t.Error("DotsSpinner has no frames")
	}
}
