// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file contains the input area and prompt submission.
package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	core "github.com/jeranaias/talkchat/internal/chat"
	"github.com/jeranaias/talkchat/internal/commands"
	"github.com/jeranaias/talkchat/internal/ui/styles"
)

// inputLines is the visible height of the textarea.
const inputLines = 3

// maxInputChars bounds a single prompt.
const maxInputChars = 32000

// newInput creates the prompt textarea. Enter is left to the chat view, so
// the textarea's own newline binding is disabled.
func newInput(theme *styles.Theme) textarea.Model {
	ta := textarea.New()
	ta.Placeholder = "Send a message, or /help"
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.CharLimit = maxInputChars
	ta.SetHeight(inputLines)
	ta.KeyMap.InsertNewline.SetEnabled(false)

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Prompt = theme.InputPrompt
	ta.FocusedStyle.Placeholder = theme.InputPlaceholder
	ta.BlurredStyle.Prompt = theme.Dim
	ta.BlurredStyle.Placeholder = theme.InputPlaceholder

	ta.Focus()
	return ta
}

// inputBoxHeight is the textarea plus its border.
func inputBoxHeight() int {
	return inputLines + 2
}

// resizeInput fits the textarea inside the bordered, padded input box.
func resizeInput(ta *textarea.Model, width int) {
	ta.SetWidth(maxInt(width-4, 10))
}

// =============================================================================
// SUBMISSION
// =============================================================================

// submitInput routes the input to a slash command or a new turn.
func (m Model) submitInput() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	if strings.TrimSpace(text) == "" {
		return m, nil
	}

	if commands.IsCommand(text) {
		res := m.parser.Parse(strings.TrimSpace(text))
		m.input.Reset()
		m.clearCompletions()
		return m.runCommand(res)
	}

	// The input is kept so the user can send it once the live turn ends.
	if m.submitting || m.snap.Loading() {
		m.statusBar.SetMessage("A reply is in progress. Press Esc to cancel it first.")
		return m, nil
	}

	m.input.Reset()
	m.clearCompletions()
	m.statusBar.SetMessage("")
	m.pending = text
	m.submitting = true
	m.log.Debug().Int("chars", len(text)).Msg("prompt submitted")
	return m, submitCmd(m.ctx, m.chat, text)
}

// handleSubmitDone runs when Submit returns. The snapshot describing the
// outcome has already been applied.
func (m Model) handleSubmitDone(msg SubmitDoneMsg) (tea.Model, tea.Cmd) {
	m.submitting = false
	m.pending = ""

	if msg.Err != nil {
		switch {
		case errors.Is(msg.Err, core.ErrBusy):
			m.statusBar.SetMessage("A reply is in progress. Press Esc to cancel it first.")
		case errors.Is(msg.Err, core.ErrEmptyPrompt):
		default:
			m.statusBar.SetMessage(msg.Err.Error())
		}
		m.restorePrompt(msg.Prompt)
		return m, nil
	}

	m.log.Debug().
		Str("outcome", msg.Result.Outcome.String()).
		Int("attempts", msg.Result.Attempts).
		Msg("turn finished")

	if msg.Result.Outcome != core.OutcomeCompleted {
		m.restorePrompt(msg.Prompt)
	}
	m.refreshTranscript(false)
	return m, nil
}

// restorePrompt puts an unsent prompt back into an empty input.
func (m *Model) restorePrompt(prompt string) {
	if m.input.Value() == "" && prompt != "" {
		m.input.SetValue(prompt)
		m.input.CursorEnd()
	}
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// runCommand executes a slash command off the update loop. Esc cancels it.
func (m Model) runCommand(res commands.ParseResult) (tea.Model, tea.Cmd) {
	if m.commandRunning {
		m.statusBar.SetMessage("A command is still running. Press Esc to cancel it.")
		return m, nil
	}

	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelMgr.setCancelFunc(cancel)
	m.commandRunning = true
	m.statusBar.SetMessage("Running " + res.CommandName)
	return m, commandCmd(ctx, m.registry, m.env, res)
}

func (m Model) handleCommandDone(msg CommandDoneMsg) (tea.Model, tea.Cmd) {
	m.commandRunning = false
	m.cancelMgr.clear()
	m.statusBar.SetMessage("")

	if msg.Err == nil && msg.Reply.Quit {
		return m.quit()
	}

	n := note{after: len(m.snap.History), input: msg.Input}
	switch {
	case errors.Is(msg.Err, context.Canceled):
		n.text = "Cancelled"
		n.kind = noteError
	case msg.Err != nil:
		n.text = msg.Err.Error()
		n.kind = noteError
		m.log.Debug().Err(msg.Err).Str("command", msg.Input).Msg("command failed")
	default:
		n.text = msg.Reply.Text
	}
	m.notes = append(m.notes, n)

	// /model publishes a snapshot, but a cheap read keeps the header right
	// even if that message is still queued.
	m.snap.Model = m.chat.Model()
	m.header.SetModel(m.snap.Model.Label())

	m.refreshTranscript(true)
	return m, nil
}

// quit stops any live work and exits the program.
func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.chat.Cancel()
	m.cancelMgr.clear()
	return m, tea.Quit
}
