// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/talkchat/internal/commands"
	"github.com/jeranaias/talkchat/internal/ui/styles"
)

// =============================================================================
// COMPLETION POPUP COMPONENT
// =============================================================================

// valueWidth is the column reserved for completion values.
const valueWidth = 22

// CompletionPopup displays a popup with completion suggestions.
type CompletionPopup struct {
	completions []commands.Completion
	selected    int
	maxVisible  int
	width       int
	theme       *styles.Theme
}

// NewCompletionPopup creates a new completion popup.
func NewCompletionPopup(theme *styles.Theme) *CompletionPopup {
	return &CompletionPopup{
		maxVisible: 8,
		width:      50,
		theme:      theme,
	}
}

// SetCompletions sets the completions to display.
func (c *CompletionPopup) SetCompletions(completions []commands.Completion) {
	c.completions = completions
	c.selected = 0
}

// SetSelected sets the selected index. Out-of-range values are ignored.
func (c *CompletionPopup) SetSelected(index int) {
	if index < 0 || index >= len(c.completions) {
		return
	}
	c.selected = index
}

// Selected returns the selected index.
func (c *CompletionPopup) Selected() int {
	return c.selected
}

// SetWidth sets the popup width.
func (c *CompletionPopup) SetWidth(width int) {
	c.width = width
}

// SetMaxVisible sets the maximum number of visible completions.
func (c *CompletionPopup) SetMaxVisible(n int) {
	if n > 0 {
		c.maxVisible = n
	}
}

// visibleRange returns the scrolling window, keeping the selection centered.
func (c *CompletionPopup) visibleRange() (start, end int) {
	end = len(c.completions)
	if end <= c.maxVisible {
		return 0, end
	}
	start = c.selected - c.maxVisible/2
	if start < 0 {
		start = 0
	}
	end = start + c.maxVisible
	if end > len(c.completions) {
		end = len(c.completions)
		start = end - c.maxVisible
	}
	return start, end
}

// View renders the completion popup.
func (c *CompletionPopup) View() string {
	if len(c.completions) == 0 {
		return ""
	}

	start, end := c.visibleRange()
	items := make([]string, 0, end-start+1)
	for i := start; i < end; i++ {
		items = append(items, c.renderItem(c.completions[i], i == c.selected))
	}
	if hidden := len(c.completions) - (end - start); hidden > 0 {
		items = append(items, c.theme.Dim.Render(fmt.Sprintf("  %d/%d", c.selected+1, len(c.completions))))
	}

	return c.theme.CompletionBox.
		Width(c.width).
		MaxWidth(c.width + 2).
		Render(strings.Join(items, "\n"))
}

func (c *CompletionPopup) renderItem(comp commands.Completion, isSelected bool) string {
	value := comp.Display
	if value == "" {
		value = comp.Value
	}
	value = truncate(value, valueWidth-1)

	// Box padding plus the indicator column.
	descWidth := maxInt(c.width-valueWidth-4, 0)
	desc := truncate(comp.Description, descWidth)

	indicator := "  "
	valueStyle := c.theme.CompletionItem.Width(valueWidth)
	if isSelected {
		indicator = "> "
		valueStyle = c.theme.CompletionSelected.Width(valueWidth)
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Left,
		c.theme.Info.Render(indicator),
		valueStyle.Render(value),
		c.theme.CompletionDesc.Render(desc),
	)
}

// ViewCompact renders a one-line completion hint.
func (c *CompletionPopup) ViewCompact() string {
	switch len(c.completions) {
	case 0:
		return ""
	case 1:
		value := c.completions[0].Display
		if value == "" {
			value = c.completions[0].Value
		}
		return c.theme.Dim.Render(`Tab: complete "` + value + `"`)
	default:
		return c.theme.Dim.Render(fmt.Sprintf("Tab: %d completions", len(c.completions)))
	}
}
