// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/talkchat/internal/display"
	"github.com/jeranaias/talkchat/internal/model"
	"github.com/jeranaias/talkchat/internal/ui/styles"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Starting talkchat..."
	}

	body := m.viewport.View()
	switch {
	case m.showHelp:
		body = overlayBottom(body, m.renderHelp())
	case m.completionsVisible():
		body = overlayBottom(body, m.renderCompletionPopup())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.header.View(),
		body,
		m.statusBar.View(),
		m.renderInput(),
	)
}

func (m Model) renderInput() string {
	return m.theme.InputContainer.
		Width(maxInt(m.width-2, 10)).
		Render(m.input.View())
}

func (m Model) renderHelp() string {
	h := m.help
	h.ShowAll = true
	return m.theme.CompletionBox.Render(h.View(m.keys))
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// transcriptEntries returns what the transcript shows: committed history,
// the prompt of the live turn, then the streaming reply.
func (m Model) transcriptEntries() []display.Entry {
	entries := display.Compose(m.snap.History, m.snap.Streaming(), m.snap.Buffer)
	if m.pending == "" || !m.snap.Loading() {
		return entries
	}

	n := len(m.snap.History)
	out := make([]display.Entry, 0, len(entries)+1)
	out = append(out, entries[:n]...)
	out = append(out, display.Entry{Role: model.RoleUser, Content: m.pending})
	return append(out, entries[n:]...)
}

// renderTranscript renders entries with command output interleaved by the
// history length at the time each note was added.
func (m Model) renderTranscript() string {
	entries := m.transcriptEntries()
	if len(entries) == 0 && len(m.notes) == 0 {
		return m.renderWelcome()
	}

	width := maxInt(m.viewport.Width-2, 10)
	history := len(m.snap.History)
	blocks := make([]string, 0, len(entries)+len(m.notes))

	ni := 0
	for i, e := range entries {
		if i < history {
			for ni < len(m.notes) && m.notes[ni].after <= i {
				blocks = append(blocks, m.renderNote(m.notes[ni], width))
				ni++
			}
		} else if i == history {
			for ; ni < len(m.notes); ni++ {
				blocks = append(blocks, m.renderNote(m.notes[ni], width))
			}
		}
		blocks = append(blocks, m.renderEntry(e, width))
	}
	for ; ni < len(m.notes); ni++ {
		blocks = append(blocks, m.renderNote(m.notes[ni], width))
	}

	return strings.Join(blocks, "\n\n")
}

func (m Model) renderEntry(e display.Entry, width int) string {
	var label, text lipgloss.Style
	switch e.Role {
	case model.RoleUser:
		label, text = m.theme.UserLabel, m.theme.UserText
	case model.RoleSystem:
		label, text = m.theme.SystemLabel, m.theme.SystemText
	default:
		label, text = m.theme.AssistantLabel, m.theme.AssistantText
	}

	content := e.Content
	if e.Provisional {
		text = m.theme.Provisional
		content += styles.TypingCursor
	}

	return label.Render(e.Role.DisplayName()) + "\n" + text.Width(width).Render(content)
}

func (m Model) renderNote(n note, width int) string {
	var b strings.Builder
	if n.input != "" {
		b.WriteString(m.theme.Dim.Render(n.input))
		b.WriteString("\n")
	}
	text := expandTabs(n.text)
	if n.kind == noteError {
		text = styles.RenderError(text)
	}
	b.WriteString(m.theme.SystemText.Width(width).Render(text))
	return b.String()
}

func (m Model) renderWelcome() string {
	lines := []string{
		m.theme.HeaderBrand.Render("talkchat"),
		"",
		m.theme.Dim.Render("Type a message and press Enter to send it."),
		m.theme.Dim.Render("/help lists commands, /upload adds a document."),
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(strings.Join(lines, "\n"))
}
