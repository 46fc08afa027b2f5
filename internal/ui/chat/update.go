// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/parley-tui/internal/config"
)

// Update handles a Bubble Tea message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case config.ReloadedMsg:
		return m.handleReload(msg)
	}

	// History loads, chat replies and reveal ticks.
	cmd := m.ctrl.Update(msg)
	m.updateViewport()
	return m, cmd
}

// =============================================================================
// RESIZE
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = max(msg.Width, minWidth)
	m.height = msg.Height

	m.input.SetWidth(m.width - 4)

	vpHeight := m.height - headerHeight - inputHeight - footerHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = m.width
	m.viewport.Height = vpHeight

	m.rebuildRenderer()
	m.updateViewport()
	return m, nil
}

func (m *Model) rebuildRenderer() {
	if m.width == 0 {
		return
	}
	r, err := newRenderer(m.glamourStyle, m.bubbleWidth())
	if err != nil {
		m.log.Warn("glamour renderer", zap.String("style", m.glamourStyle), zap.Error(err))
		m.renderer = nil
		return
	}
	m.renderer = r
	m.rendered = make(map[string]renderCache)
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.ctrl.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Upgrade):
		if m.ctrl.Blocked() {
			return m.upgrade()
		}

	case key.Matches(msg, m.keys.Dismiss):
		m.showUpgrade = false
		m.notice = ""
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.Suggestion):
		if len(m.ctrl.Messages()) == 0 {
			m.input.SetValue(m.Suggestion())
			m.input.CursorEnd()
			m.suggestion = (m.suggestion + 1) % len(Suggestions)
			return m, nil
		}

	case key.Matches(msg, m.keys.PageUp, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit hands the prompt to the controller. The input is only cleared
// when the controller accepts it.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	if m.ctrl.Blocked() {
		m.showUpgrade = true
		return m, nil
	}

	cmd := m.ctrl.Submit(text)
	if cmd == nil {
		return m, nil
	}
	m.input.Reset()
	m.notice = ""
	m.updateViewport()
	return m, tea.Batch(cmd, m.spinner.Tick)
}

func (m Model) upgrade() (tea.Model, tea.Cmd) {
	if err := m.ctrl.Upgrade(); err != nil {
		m.log.Warn("persist plan", zap.Error(err))
		m.notice = "Upgraded for this session only: " + err.Error()
	} else {
		m.notice = "Upgraded to Premium. Unlimited messages."
	}
	m.showUpgrade = false
	return m, nil
}

// =============================================================================
// CONFIG RELOAD
// =============================================================================

func (m Model) handleReload(msg config.ReloadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.log.Warn("config reload rejected", zap.Error(msg.Err))
		m.notice = "Config not reloaded: " + msg.Err.Error()
	} else if cfg := msg.Config; cfg != nil {
		m.ctrl.ApplyConfig(cfg.API.SystemPrompt, cfg.RequestTimeout(), cfg.RevealPacing())
		m.showTimestamps = cfg.UI.ShowTimestamps
		if style := m.theme.GlamourStyle(cfg.UI.GlamourStyle); style != m.glamourStyle {
			m.glamourStyle = style
			m.rebuildRenderer()
		}
		m.updateViewport()
		m.log.Info("config reloaded")
	}

	if m.watcher == nil {
		return m, nil
	}
	return m, m.watcher.WaitCmd()
}

// updateViewport re-renders the scrollback, staying pinned to the bottom
// when the user had not scrolled away.
func (m *Model) updateViewport() {
	if m.viewport.Height == 0 {
		return
	}
	follow := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderMessages())
	if follow {
		m.viewport.GotoBottom()
	}
}
