// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/ui/chat"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// runTUI runs the full-screen chat until the user quits.
func (a *app) runTUI(cmd *cobra.Command) error {
	ctrl, err := a.newController()
	if err != nil {
		return err
	}
	defer ctrl.Close()

	var watcher *config.Watcher
	if a.cfgPath != "" {
		watcher, err = config.NewWatcher(a.cfgPath, 0, a.log)
		if err != nil {
			a.log.Warn("config watcher disabled", zap.Error(err))
			watcher = nil
		} else {
			defer watcher.Close()
		}
	}

	m := chat.New(chat.Options{
		Controller:     ctrl,
		Watcher:        watcher,
		Theme:          styles.NewTheme(),
		GlamourStyle:   a.cfg.UI.GlamourStyle,
		ShowTimestamps: a.cfg.UI.ShowTimestamps,
		Logger:         a.log,
	})

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
