// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/talkchat/internal/ui/styles"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Header is the title bar: brand on the left, model and backend on the right.
type Header struct {
	Title     string // Main title (default: "talkchat")
	ModelName string // Label of the active model
	Backend   string // Backend base URL
	Busy      bool   // A turn is in flight
	Width     int    // Available width
	theme     *styles.Theme
}

// NewHeader creates a new Header component with default values.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title: "talkchat",
		Width: 80,
		theme: theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetModel updates the model label.
func (h *Header) SetModel(label string) {
	h.ModelName = label
}

// SetBackend updates the backend address.
func (h *Header) SetBackend(url string) {
	h.Backend = url
}

// SetBusy marks whether a turn is in flight.
func (h *Header) SetBusy(busy bool) {
	h.Busy = busy
}

// View renders the header on a single line.
func (h *Header) View() string {
	width := maxInt(h.Width, 20)

	brand := h.theme.HeaderBrand.Render(h.Title)

	var parts []string
	if h.ModelName != "" {
		parts = append(parts, h.ModelName)
	}
	// The backend is the first thing to go on narrow screens.
	if h.Backend != "" && h.theme.GetLayoutMode() != styles.LayoutNarrow {
		parts = append(parts, h.Backend)
	}
	if h.Busy {
		parts = append(parts, "[busy]")
	}
	right := strings.Join(parts, " | ")

	// Header has one cell of padding each side.
	inner := width - 2
	room := inner - lipgloss.Width(brand) - 1
	right = h.theme.HeaderSubtitle.Render(truncate(right, maxInt(room, 0)))

	gap := inner - lipgloss.Width(brand) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	line := brand + strings.Repeat(" ", gap) + right

	return h.theme.Header.Width(width).MaxWidth(width).Render(line)
}
