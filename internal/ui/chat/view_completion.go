// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

// =============================================================================
// COMPLETION POPUP RENDERING
// =============================================================================

// renderCompletionPopup renders the tab completion popup above the input.
func (m Model) renderCompletionPopup() string {
	if !m.completionsVisible() {
		return ""
	}
	m.popup.SetMaxVisible(maxInt(minInt(8, m.viewport.Height-3), 1))
	m.popup.SetCompletions(m.completionState.Completions)
	m.popup.SetSelected(m.completionState.Selected)
	return m.popup.View()
}
