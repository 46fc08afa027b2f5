// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Pump drives c without a Bubble Tea program. It runs cmd, feeds the
// resulting message to c.Update and keeps going with whatever command
// that returns, until nothing is left or ctx is done. Batched commands
// run one after another.
//
// observe, when set, is called after each message has been applied.
func Pump(ctx context.Context, c *Controller, cmd tea.Cmd, observe func(tea.Msg)) error {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}

		msg := next()
		switch m := msg.(type) {
		case nil:
			continue
		case tea.BatchMsg:
			queue = append(queue, m...)
			continue
		}

		follow := c.Update(msg)
		if observe != nil {
			observe(msg)
		}
		queue = append(queue, follow)
	}
	return nil
}
