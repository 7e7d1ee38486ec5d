// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the color palette and lipgloss styles of the
talkchat TUI. The line-mode front ends reuse the palette.

All colors are lipgloss AdaptiveColor values, so they follow the
terminal's light or dark background.

# Usage

	theme := styles.NewTheme()
	theme.SetSize(width, height)
	label := theme.AssistantLabel.Render("Assistant")

When colors are disabled, build the theme for termenv.Ascii:

	theme := styles.NewThemeFor(termenv.Ascii, true)

Status text always carries an ASCII indicator ([OK], [X], [!], [i]) so it
reads the same without color.
*/
package styles
