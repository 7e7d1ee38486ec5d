// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/jeranaias/talkchat/internal/model"
)

// Phase is the orchestrator's single source of truth for what a submission
// is doing right now.
type Phase int

const (
	PhaseIdle Phase = iota
	// PhaseConnecting covers the gap between Submit and the session start.
	PhaseConnecting
	PhaseStreaming
	PhaseBackoff
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseConnecting:
		return "connecting"
	case PhaseStreaming:
		return "streaming"
	case PhaseBackoff:
		return "backoff"
	default:
		return "unknown"
	}
}

// NoticeExhausted is shown when every attempt of a turn failed.
const NoticeExhausted = "All retries failed"

// Snapshot is an immutable view of the orchestrator state.
type Snapshot struct {
	Phase Phase

	// Attempt is the zero-based attempt index of the live submission.
	Attempt     int
	MaxAttempts int

	// Delay is the pause before the next attempt while in PhaseBackoff.
	Delay time.Duration

	// Buffer is the live, uncommitted assistant text. It is empty unless
	// Phase is PhaseStreaming.
	Buffer string

	// History is the committed conversation.
	History []model.Message

	Model model.ModelInfo

	// Notice is a user-facing message about the last finished turn.
	Notice string
	// Err is the failure behind Notice, if any.
	Err error
}

// Loading is true for the whole lifetime of a submission.
func (s Snapshot) Loading() bool {
	return s.Phase != PhaseIdle
}

// Streaming is true while a session is receiving fragments.
func (s Snapshot) Streaming() bool {
	return s.Phase == PhaseStreaming
}

// Outcome is how a submission ended.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeAborted
	OutcomeExhausted
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeAborted:
		return "aborted"
	case OutcomeExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Result reports a finished submission.
type Result struct {
	Outcome  Outcome
	Reply    string
	Attempts int
	// Err wraps ErrExhausted and the last failure for OutcomeExhausted.
	Err error
}
