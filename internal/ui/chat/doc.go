// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the full-screen chat view of talkchat.

The view never owns conversation state. It renders the snapshots an
orchestrator publishes and forwards prompts, cancels and slash commands
back to it.

# Key Components

## Model (model.go)

The Bubble Tea model: the latest snapshot, a textarea for input, a
viewport for the transcript and a spinner for live turns.

## Update Loop (update.go)

  - SnapshotMsg replaces the rendered state and re-renders the transcript
  - Enter submits a prompt or runs a slash command
  - Esc or Ctrl+C cancels the live turn; Ctrl+C on an idle screen quits
  - Tab cycles completions for commands, model ids and document paths

## View Rendering (view.go)

Header with the model and backend, the transcript, a status line
(connecting, streaming, retry countdown or the last failure) and the input.

## Streaming (streaming.go)

Run wires an orchestrator subscriber to Program.Send, so each snapshot
arrives in the update loop in publish order.

# Usage

	err := chat.Run(ctx, chat.Options{
		Chat:     orchestrator,
		Commands: registry,
		Env:      env,
		Backend:  client.BaseURL(),
	})

# Auto-follow

The transcript keeps following new text only while the viewport was within
the follow threshold of the bottom before the new content arrived. One row
counts as 16 scroll units.
*/
package chat
