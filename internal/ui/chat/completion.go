// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file implements tab completion for slash commands.
package chat

import (
	"strings"
)

// =============================================================================
// TAB COMPLETION
// =============================================================================

// completionsVisible reports whether the popup is open with candidates.
func (m Model) completionsVisible() bool {
	return m.showCompletions && m.completionState.Visible && len(m.completionState.Completions) > 0
}

// cycleCompletion opens the popup on the first Tab and moves the selection
// on later ones. A single candidate is applied at once.
func (m *Model) cycleCompletion(dir int) {
	if m.completionsVisible() {
		if dir < 0 {
			m.completionState.Prev()
		} else {
			m.completionState.Next()
		}
		return
	}

	input := m.input.Value()
	completions := m.completer.Complete(input, len(input))
	if len(completions) == 0 {
		return
	}
	m.completionState.Update(input, completions)
	if len(completions) == 1 {
		m.acceptCompletion()
		return
	}
	m.showCompletions = true
}

// refreshCompletions re-filters an open popup after the input changed.
func (m *Model) refreshCompletions() {
	if !m.showCompletions {
		return
	}
	input := m.input.Value()
	completions := m.completer.Complete(input, len(input))
	if len(completions) == 0 {
		m.clearCompletions()
		return
	}
	m.completionState.Update(input, completions)
}

// acceptCompletion replaces the word being completed with the selection.
func (m *Model) acceptCompletion() {
	value := m.completionState.Accept()
	if value == "" {
		m.clearCompletions()
		return
	}

	input := m.input.Value()
	start := completionStart(input)
	newInput := input[:start] + value

	// Commands that take arguments get a space so the next Tab completes
	// the argument. Directories keep going.
	if start == 0 || strings.TrimSpace(input[:start]) == "" {
		if cmd := m.registry.Get(value); cmd != nil && len(cmd.Args) > 0 {
			newInput += " "
		}
	}

	m.input.SetValue(newInput)
	m.input.CursorEnd()
	m.clearCompletions()
}

// completionStart returns the byte offset of the word under completion.
func completionStart(input string) int {
	return strings.LastIndexAny(input, " \t") + 1
}

func (m *Model) clearCompletions() {
	m.completionState.Clear()
	m.showCompletions = false
}
