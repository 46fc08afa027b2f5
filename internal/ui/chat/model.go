// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/session"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// Suggestions are offered while the log is empty.
var Suggestions = []string{
	"How to build a SaaS?",
	"Write a Python script for automation",
}

// Layout constants. renderChat measures the real heights and falls back
// to these when the terminal is too small.
const (
	headerHeight = 1
	inputHeight  = 3
	footerHeight = 1
	minWidth     = 20
)

// Options configures a Model.
type Options struct {
	// Controller drives the session. Required.
	Controller *session.Controller

	// Watcher delivers config reloads. Nil disables live reload.
	Watcher *config.Watcher

	Theme *styles.Theme

	// GlamourStyle is "auto", "dark", "light" or "notty".
	GlamourStyle string

	ShowTimestamps bool

	Logger *zap.Logger
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model of the chat screen.
type Model struct {
	ctrl    *session.Controller
	watcher *config.Watcher
	theme   *styles.Theme
	keys    KeyMap
	log     *zap.Logger

	input    textarea.Model
	viewport viewport.Model
	spinner  spinner.Model

	renderer     *glamour.TermRenderer
	glamourStyle string
	rendered     map[string]renderCache

	width  int
	height int

	suggestion     int
	showUpgrade    bool
	showTimestamps bool
	notice         string
	quitting       bool
}

// renderCache holds the glamour output for one finished message.
type renderCache struct {
	content string
	width   int
	out     string
}

// New creates the chat model.
func New(opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	ta := textarea.New()
	ta.Placeholder = "Ask anything..."
	ta.ShowLineNumbers = false
	ta.Prompt = "> "
	ta.SetHeight(1)
	ta.CharLimit = 0
	ta.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")
	ta.Focus()

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(theme.Spinner),
	)

	return Model{
		ctrl:           opts.Controller,
		watcher:        opts.Watcher,
		theme:          theme,
		keys:           DefaultKeyMap(),
		log:            log,
		input:          ta,
		viewport:       viewport.New(0, 0),
		spinner:        sp,
		glamourStyle:   theme.GlamourStyle(opts.GlamourStyle),
		rendered:       make(map[string]renderCache),
		showTimestamps: opts.ShowTimestamps,
	}
}

// Init starts the cursor blink, the spinner, the history load and the
// config watcher.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, m.spinner.Tick, m.ctrl.Init()}
	if m.watcher != nil {
		cmds = append(cmds, m.watcher.WaitCmd())
	}
	return tea.Batch(cmds...)
}

// View renders the model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.renderChat()
}

// Controller returns the session controller.
func (m Model) Controller() *session.Controller {
	return m.ctrl
}

// Suggestion returns the currently highlighted suggestion.
func (m Model) Suggestion() string {
	return Suggestions[m.suggestion%len(Suggestions)]
}

// InputValue returns the current prompt text.
func (m Model) InputValue() string {
	return m.input.Value()
}

// UpgradePromptVisible reports whether the upgrade box is shown.
func (m Model) UpgradePromptVisible() bool {
	return m.showUpgrade
}

// GlamourStyle returns the resolved markdown style.
func (m Model) GlamourStyle() string {
	return m.glamourStyle
}

// newRenderer builds a glamour renderer for the given wrap width.
func newRenderer(style string, width int) (*glamour.TermRenderer, error) {
	return glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
}
