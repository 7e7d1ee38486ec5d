// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/jeranaias/talkchat/internal/chat"
)

// StreamPrinter renders orchestrator snapshots as an append-only
// transcript. Reply text goes to out; retry notices and failures go to
// notices so piped output stays clean.
type StreamPrinter struct {
	out     io.Writer
	notices io.Writer
	quiet   bool
	label   bool
	// silentFailure leaves exhausted turns to the caller's error report.
	silentFailure bool

	mu         sync.Mutex
	active     bool
	historyLen int
	printed    int
	started    bool
}

// NewStreamPrinter creates a printer. A nil notices writer means out.
func NewStreamPrinter(out, notices io.Writer, quiet bool) *StreamPrinter {
	if notices == nil {
		notices = out
	}
	return &StreamPrinter{out: out, notices: notices, quiet: quiet, label: !quiet}
}

// HideLabel drops the "assistant>" prefix.
func (p *StreamPrinter) HideLabel() *StreamPrinter {
	p.label = false
	return p
}

// SilenceFailure stops the printer from reporting exhausted turns.
func (p *StreamPrinter) SilenceFailure() *StreamPrinter {
	p.silentFailure = true
	return p
}

// Observe is an orchestrator subscriber.
func (p *StreamPrinter) Observe(snap chat.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.active {
		if !snap.Loading() {
			return
		}
		p.active = true
		p.historyLen = len(snap.History)
		p.printed = 0
		p.started = false
	}

	switch snap.Phase {
	case chat.PhaseStreaming:
		if !p.started && snap.Buffer != "" {
			if p.label {
				fmt.Fprint(p.out, AssistantStyle.Render("assistant> "))
			}
			p.started = true
		}
		if len(snap.Buffer) > p.printed {
			fmt.Fprint(p.out, snap.Buffer[p.printed:])
			p.printed = len(snap.Buffer)
		}

	case chat.PhaseBackoff:
		p.endLine()
		if !p.quiet {
			fmt.Fprintln(p.notices, WarningStyle.Render(fmt.Sprintf(
				"[Attempt %d/%d failed: %v. Retrying in %s]",
				snap.Attempt+1, snap.MaxAttempts, snap.Err, formatDurationShort(snap.Delay))))
		}

	case chat.PhaseIdle:
		p.endLine()
		p.active = false
		switch {
		case len(snap.History) > p.historyLen:
		case snap.Notice != "":
			if p.silentFailure {
				break
			}
			msg := snap.Notice
			if snap.Err != nil {
				msg = fmt.Sprintf("%s: %v", snap.Notice, snap.Err)
			}
			fmt.Fprintln(p.notices, ErrorStyle.Render("[Error]")+" "+msg)
		default:
			if !p.quiet {
				fmt.Fprintln(p.notices, WarningStyle.Render("[Cancelled]"))
			}
		}
	}
}

// endLine terminates a partially printed reply. The caller holds p.mu.
func (p *StreamPrinter) endLine() {
	if p.started {
		fmt.Fprintln(p.out)
	}
	p.started = false
	p.printed = 0
}
