// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	core "github.com/jeranaias/talkchat/internal/chat"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles all messages for the chat screen.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.refreshTranscript(!m.ready)
		m.ready = true
		return m, nil

	case SnapshotMsg:
		m.applySnapshot(msg.Snapshot)
		return m, nil

	case SubmitDoneMsg:
		return m.handleSubmitDone(msg)

	case CommandDoneMsg:
		return m.handleCommandDone(msg)

	case StatusMsg:
		m.statusBar.SetMessage(msg.Text)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.statusBar.SetSpinner(m.spinner.View())
		return m, cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// applySnapshot renders a newly published state. Whether the view follows
// the new content is measured before the content changes.
func (m *Model) applySnapshot(snap core.Snapshot) {
	follow := m.nearBottom()

	// A new turn replaces whatever the status line said before it.
	if snap.Loading() && !m.snap.Loading() {
		m.statusBar.SetMessage("")
	}
	if snap.Phase != m.snap.Phase {
		m.spinner.Spinner = spinnerFor(snap.Phase)
	}
	m.snap = snap
	m.header.SetModel(snap.Model.Label())
	m.header.SetBusy(snap.Loading())
	m.statusBar.SetSnapshot(snap)

	m.refreshTranscript(follow)
}

// nearBottom reports whether the transcript is close enough to the end to
// keep following it.
func (m Model) nearBottom() bool {
	return m.follower.NearBottomRows(m.viewport.TotalLineCount(), m.viewport.YOffset, m.viewport.Height)
}

// refreshTranscript re-renders the transcript, optionally scrolling to the end.
func (m *Model) refreshTranscript(gotoBottom bool) {
	m.viewport.SetContent(m.renderTranscript())
	if gotoBottom {
		m.viewport.GotoBottom()
	}
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Cancel):
		return m.handleCancel(msg)

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		m.notes = nil
		m.statusBar.SetMessage("")
		m.refreshTranscript(true)
		return m, nil

	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.LineUp(1)
		return m, nil
	case key.Matches(msg, m.keys.ScrollDown):
		m.viewport.LineDown(1)
		return m, nil
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		return m, nil

	case key.Matches(msg, m.keys.Complete):
		m.cycleCompletion(1)
		return m, nil
	case key.Matches(msg, m.keys.CompletePrev):
		m.cycleCompletion(-1)
		return m, nil

	case key.Matches(msg, m.keys.Newline):
		m.input.InsertString("\n")
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		if m.completionsVisible() {
			m.acceptCompletion()
			return m, nil
		}
		return m.submitInput()
	}

	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.refreshCompletions()
	}
	return m, cmd
}

// handleCancel stops the most specific thing in progress. Ctrl+C on an
// idle screen quits.
func (m Model) handleCancel(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case m.submitting || m.snap.Loading():
		m.log.Debug().Str("phase", m.snap.Phase.String()).Msg("turn cancelled by user")
		m.chat.Cancel()
		return m, nil
	case m.commandRunning:
		m.cancelMgr.cancel()
		return m, nil
	case m.completionsVisible():
		m.clearCompletions()
		return m, nil
	case m.showHelp:
		m.showHelp = false
		return m, nil
	case msg.String() == "ctrl+c":
		return m.quit()
	}
	return m, nil
}
