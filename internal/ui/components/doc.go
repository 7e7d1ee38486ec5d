// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the reusable pieces of the talkchat screen.

Each component is a plain struct with setters and a View method. The chat
view owns them and feeds them from orchestrator snapshots.

# Components

Header (header.go) - Title bar with the brand, the active model and the
backend address.

StatusBar (statusbar.go) - One-line status for the live turn: connecting,
streaming, the retry countdown, or the notice left by the last turn.

CompletionPopup (completion.go) - Tab completion list for slash commands,
model ids and document paths.

# Usage

	theme := styles.NewTheme()
	header := components.NewHeader(theme)
	header.SetWidth(80)
	header.SetModel("Llama 3.1 8B")
	header.SetBackend("http://localhost:8000")
	view := header.View()
*/
package components
