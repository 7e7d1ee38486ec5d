// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"time"

	"github.com/jeranaias/talkchat/internal/util"
)

// =============================================================================
// SHARED HELPER FUNCTIONS
// =============================================================================

// truncate shortens s to at most width terminal cells, ending in "...".
func truncate(s string, width int) string {
	return util.TruncateWidth(s, width)
}

// formatDelay renders a retry delay as seconds with one decimal, e.g. "1.5s".
func formatDelay(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
