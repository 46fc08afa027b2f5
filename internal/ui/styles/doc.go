// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the parley TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection.

# Color System (colors.go)

  - Purple - Primary accent, assistant replies
  - Cyan - Brand color, user messages and prompts
  - Emerald - Premium tier
  - Amber - Free tier counter, upgrade prompt
  - Rose - Diagnostic replies

# Theme (theme.go)

Theme bundles the Lip Gloss styles the chat view uses and records the
terminal's color profile, which also picks the glamour markdown style:

	theme := styles.NewTheme()
	fmt.Println(theme.Footer.Render(label))
	style := theme.GlamourStyle("auto")
*/
package styles
