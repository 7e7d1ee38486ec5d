// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/talkchat/internal/chat"
	"github.com/jeranaias/talkchat/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// StatusBar is the one-line status under the transcript.
type StatusBar struct {
	Snapshot chat.Snapshot
	Spinner  string // Current spinner frame
	Message  string // Transient text, e.g. "Uploading report.pdf"
	Hint     string // Key hint shown while nothing else is
	Width    int
	theme    *styles.Theme
}

// NewStatusBar creates a new StatusBar component.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Width: 80,
		theme: theme,
	}
}

// SetWidth updates the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetSnapshot replaces the orchestrator state being shown.
func (s *StatusBar) SetSnapshot(snap chat.Snapshot) {
	s.Snapshot = snap
}

// SetSpinner sets the spinner frame drawn for live phases.
func (s *StatusBar) SetSpinner(frame string) {
	s.Spinner = frame
}

// SetMessage sets the transient status text. Empty clears it.
func (s *StatusBar) SetMessage(msg string) {
	s.Message = msg
}

// SetHint sets the idle key hint.
func (s *StatusBar) SetHint(hint string) {
	s.Hint = hint
}

// Text returns the unstyled status text, left and right.
func (s *StatusBar) Text() (left, right string) {
	snap := s.Snapshot
	if s.Message != "" && snap.Loading() {
		return s.Message, "Esc to cancel"
	}
	switch snap.Phase {
	case chat.PhaseConnecting:
		left = "Connecting"
		if snap.Attempt > 0 {
			left += fmt.Sprintf(" (attempt %d/%d)", snap.Attempt+1, snap.MaxAttempts)
		}
		return left, "Esc to cancel"
	case chat.PhaseStreaming:
		left = "Receiving reply"
		if snap.Attempt > 0 {
			left += fmt.Sprintf(" (attempt %d/%d)", snap.Attempt+1, snap.MaxAttempts)
		}
		return left, "Esc to cancel"
	case chat.PhaseBackoff:
		left = fmt.Sprintf("Attempt %d/%d failed", snap.Attempt+1, snap.MaxAttempts)
		if snap.Err != nil {
			left += ": " + snap.Err.Error()
		}
		left += ". Retrying in " + formatDelay(snap.Delay)
		return left, "Esc to cancel"
	}

	switch {
	case s.Message != "":
		left = s.Message
	case snap.Notice != "":
		left = snap.Notice
		if snap.Err != nil {
			left += ": " + snap.Err.Error()
		}
	default:
		left = "Ready"
	}
	return left, s.Hint
}

// View renders the status bar.
func (s *StatusBar) View() string {
	width := maxInt(s.Width, 20)
	left, right := s.Text()
	snap := s.Snapshot

	inner := width - 2
	right = truncate(right, inner/3)
	// room is what the left side may use with at least one cell of gap.
	room := maxInt(inner-lipgloss.Width(right)-1, 0)
	indicator := len(styles.StatusIndicators.Warning) + 1

	var leftView string
	if snap.Loading() && s.Spinner != "" && s.Message == "" {
		leftView = s.theme.Spinner.Render(s.Spinner) + " "
		room -= lipgloss.Width(leftView)
	}
	switch {
	case s.Message != "":
		leftView = s.theme.Info.Render(truncate(left, room))
	case snap.Phase == chat.PhaseBackoff:
		leftView += styles.RenderWarning(truncate(left, room-indicator))
	case snap.Loading():
		leftView += s.theme.StatusValue.Render(truncate(left, room))
	case snap.Notice != "":
		leftView = s.theme.Notice.Render(truncate(left, room))
	default:
		leftView = s.theme.StatusValue.Render(truncate(left, room))
	}
	rightView := s.theme.StatusKey.Render(right)

	gap := inner - lipgloss.Width(leftView) - lipgloss.Width(rightView)
	if gap < 1 {
		gap = 1
	}
	line := leftView + strings.Repeat(" ", gap) + rightView
	return s.theme.StatusBar.Width(width).MaxWidth(width).Render(line)
}
