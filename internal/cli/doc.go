// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI front ends of
// talkchat.
//
// # Key Types
//
//   - Command: Enumeration of the CLI commands
//   - Args: Parsed global and command-specific flags
//   - Session: Wired backend client, orchestrator and status server
//   - StreamPrinter: Renders orchestrator snapshots as a scrolling transcript
//
// # Usage
//
//	cmd, args, err := cli.Parse(os.Args[1:])
//	if err != nil {
//	    cli.HandleErrorAndExit(err, false)
//	}
//	switch cmd {
//	case cli.CmdAsk:
//	    err = cli.HandleAsk(args)
//	case cli.CmdChat:
//	    err = cli.HandleChat(args)
//	}
//
// # Commands Overview
//
//   - tui: Full-screen chat (default on a terminal)
//   - chat: Line-mode chat REPL
//   - ask: One prompt, streamed to stdout
//   - upload: Send documents to the backend
//   - config: Show and edit ~/.talkchat/config.toml
//   - doctor: Check configuration and backend reachability
package cli
