// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the chat view for the parley TUI.

The package is a thin Bubble Tea shell around session.Controller. The
controller owns the message log, the quota and the reveal; this package
owns the widgets and the layout.

# Key Components

## Model (model.go)

The Model struct holds the widgets:
  - textarea for the prompt
  - viewport for the scrollback
  - spinner shown while a chat call is in flight
  - a glamour renderer for finished assistant replies

## Update Loop (update.go)

Keys are handled first (submit, upgrade, suggestions, scrolling, quit).
Config reloads from config.Watcher are applied to the controller. Every
other message is forwarded to Controller.Update, which understands
history loads, chat replies and reveal ticks.

## View Rendering (view.go)

Layout: header (1 line) + messages (viewport) + input (3 lines) + footer
(1 line). An empty log shows the suggestions; a refused send shows the
upgrade box in place of the scrollback.

# Usage

	ctrl := session.New(opts)
	m := chat.New(chat.Options{Controller: ctrl, Theme: styles.NewTheme()})
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	ctrl.Close()
*/
package chat
