// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system shared by the
// terminal UI and the line-mode REPL.
//
// # Key Types
//
//   - Registry: Command registry with all available commands
//   - Handler: Function that executes a command against an Env
//   - ParseResult: Parsed command with name and arguments
//   - Completer: Tab completion for commands and arguments
//
// # Built-in Commands
//
//   - /help: Show available commands
//   - /model: Show or switch the active model
//   - /models: List the model catalog
//   - /upload: Send a PDF or text document to the backend
//   - /history: Show the committed conversation
//   - /quit: Leave the session
//
// # Usage
//
//	result := parser.Parse(input)
//	if result.IsCommand {
//	    reply, err := registry.Execute(ctx, env, result)
//	}
package commands
