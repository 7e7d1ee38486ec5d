// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file defines the Bubble Tea message types used by the chat view.
package chat

import (
	core "github.com/jeranaias/talkchat/internal/chat"
	"github.com/jeranaias/talkchat/internal/commands"
)

// =============================================================================
// ORCHESTRATOR MESSAGES
// =============================================================================

// SnapshotMsg carries one published orchestrator snapshot.
type SnapshotMsg struct {
	Snapshot core.Snapshot
}

// SubmitDoneMsg reports that a submission returned.
type SubmitDoneMsg struct {
	Prompt string
	Result core.Result
	// Err is set when the prompt was rejected before any attempt.
	Err error
}

// =============================================================================
// COMMAND MESSAGES
// =============================================================================

// CommandDoneMsg reports the outcome of a slash command.
type CommandDoneMsg struct {
	Input string
	Reply commands.Reply
	Err   error
}

// =============================================================================
// UI STATE MESSAGES
// =============================================================================

// StatusMsg sets the transient status line text.
type StatusMsg struct {
	Text string
}
