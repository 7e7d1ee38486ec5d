// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// =============================================================================
// LAYOUT UTILITIES
// =============================================================================

// overlayBottom draws overlay over the last lines of base, keeping base's
// height. Lines of base to the right of each overlay line are dropped.
func overlayBottom(base, overlay string) string {
	if overlay == "" {
		return base
	}
	baseLines := strings.Split(base, "\n")
	over := strings.Split(overlay, "\n")
	if len(over) > len(baseLines) {
		over = over[len(over)-len(baseLines):]
	}
	start := len(baseLines) - len(over)
	copy(baseLines[start:], over)
	return strings.Join(baseLines, "\n")
}

// expandTabs replaces tabs with spaces up to the next multiple of four
// cells, since a tab's width in the terminal is not known to the layout.
func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	const tabWidth = 4
	var b strings.Builder
	col := 0
	for _, r := range s {
		switch r {
		case '\t':
			n := tabWidth - col%tabWidth
			b.WriteString(strings.Repeat(" ", n))
			col += n
		case '\n':
			b.WriteRune(r)
			col = 0
		default:
			b.WriteRune(r)
			col += runewidth.RuneWidth(r)
		}
	}
	return b.String()
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
