// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file connects the orchestrator to the Bubble Tea program. Snapshots
// published while a reply streams are capped at a frame rate so long
// replies do not flood the update loop.
package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	core "github.com/jeranaias/talkchat/internal/chat"
	"github.com/jeranaias/talkchat/internal/commands"
)

// =============================================================================
// PROGRAM
// =============================================================================

// Run shows the chat screen until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	m := New(ctx, opts)
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	throttle := newSnapshotThrottle(p.Send, defaultFrameInterval)
	unsubscribe := opts.Chat.Subscribe(throttle.publish)
	defer func() {
		unsubscribe()
		throttle.stop()
		opts.Chat.Cancel()
	}()

	opts.Log.Info().Str("backend", opts.Backend).Msg("chat screen started")
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// submitCmd runs one turn off the update loop.
func submitCmd(ctx context.Context, o *core.Orchestrator, prompt string) tea.Cmd {
	return func() tea.Msg {
		res, err := o.Submit(ctx, prompt)
		return SubmitDoneMsg{Prompt: prompt, Result: res, Err: err}
	}
}

// commandCmd runs a slash command off the update loop.
func commandCmd(ctx context.Context, reg *commands.Registry, env *commands.Env, res commands.ParseResult) tea.Cmd {
	return func() tea.Msg {
		reply, err := reg.Execute(ctx, env, res)
		return CommandDoneMsg{Input: res.RawInput, Reply: reply, Err: err}
	}
}

// =============================================================================
// SNAPSHOT THROTTLE
// =============================================================================

// defaultFrameInterval caps streaming redraws at about 30 per second.
const defaultFrameInterval = 33 * time.Millisecond

// snapshotThrottle forwards snapshots to the program. Phase changes and
// every non-streaming snapshot go out at once; streaming snapshots closer
// together than interval are coalesced into the latest one.
type snapshotThrottle struct {
	mu       sync.Mutex
	send     func(tea.Msg)
	interval time.Duration
	now      func() time.Time

	lastSent  time.Time
	lastPhase core.Phase
	pending   *core.Snapshot
	timer     *time.Timer
	stopped   bool
}

func newSnapshotThrottle(send func(tea.Msg), interval time.Duration) *snapshotThrottle {
	return &snapshotThrottle{
		send:     send,
		interval: interval,
		now:      time.Now,
	}
}

// publish is the orchestrator subscriber. Sends happen under the lock so
// the program receives snapshots in publish order.
func (t *snapshotThrottle) publish(snap core.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}

	elapsed := t.now().Sub(t.lastSent)
	if snap.Phase != core.PhaseStreaming || snap.Phase != t.lastPhase || elapsed >= t.interval {
		t.flushLocked(snap)
		return
	}

	t.pending = &snap
	if t.timer == nil {
		t.timer = time.AfterFunc(t.interval-elapsed, t.fire)
	}
}

func (t *snapshotThrottle) fire() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timer = nil
	if t.stopped || t.pending == nil {
		return
	}
	t.flushLocked(*t.pending)
}

func (t *snapshotThrottle) flushLocked(snap core.Snapshot) {
	t.pending = nil
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.lastSent = t.now()
	t.lastPhase = snap.Phase
	t.send(SnapshotMsg{Snapshot: snap})
}

// stop drops pending snapshots and ignores later ones.
func (t *snapshotThrottle) stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.pending = nil
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
