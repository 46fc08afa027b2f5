// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history seeds a session's message log from the remote history
// store. Failures are never fatal: the caller falls back to an empty log.
package history

import (
	"context"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/storage"
)

// DefaultTimeout bounds a single history fetch.
const DefaultTimeout = 10 * time.Second

// Fetcher retrieves stored turns for an identity.
// *api.Client satisfies it.
type Fetcher interface {
	History(ctx context.Context, userID string) ([]api.HistoryMessage, error)
}

// LoadedMsg reports the outcome of a history load.
type LoadedMsg struct {
	Messages []*model.Message
	Err      error
	// Skipped is true when no identity was set and nothing was fetched.
	Skipped bool
}

// Synchronizer loads remote history for the session controller.
type Synchronizer struct {
	fetcher Fetcher
	timeout time.Duration
	log     *zap.Logger
}

// New creates a Synchronizer. A zero timeout uses DefaultTimeout.
func New(fetcher Fetcher, timeout time.Duration, log *zap.Logger) *Synchronizer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Synchronizer{fetcher: fetcher, timeout: timeout, log: log}
}

// Load fetches history for identity and converts it to local messages in
// chronological order with fresh IDs. An empty identity skips the fetch
// and returns (nil, nil).
func (s *Synchronizer) Load(ctx context.Context, identity string) ([]*model.Message, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" || s.fetcher == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	remote, err := s.fetcher.History(ctx, identity)
	if err != nil {
		s.log.Warn("history load failed",
			zap.String("identity", identity),
			zap.Error(err))
		return nil, err
	}

	msgs := Convert(remote)
	s.log.Debug("history loaded",
		zap.String("identity", identity),
		zap.Int("remote", len(remote)),
		zap.Int("kept", len(msgs)))
	return msgs, nil
}

// LoadCmd runs Load off the update loop and delivers a LoadedMsg.
func (s *Synchronizer) LoadCmd(ctx context.Context, identity string) tea.Cmd {
	return func() tea.Msg {
		if strings.TrimSpace(identity) == "" {
			return LoadedMsg{Skipped: true}
		}
		msgs, err := s.Load(ctx, identity)
		return LoadedMsg{Messages: msgs, Err: err}
	}
}

// =============================================================================
// CONVERSION
// =============================================================================

// Convert maps remote turns to local messages, oldest first. Turns with an
// unknown role are dropped.
func Convert(remote []api.HistoryMessage) []*model.Message {
	sorted := chronological(remote)

	msgs := make([]*model.Message, 0, len(sorted))
	for _, h := range sorted {
		role, ok := model.ParseRole(h.Role)
		if !ok {
			continue
		}
		msg := model.NewMessage(role, h.Content)
		if !h.Timestamp.IsZero() {
			msg.Timestamp = h.Timestamp.Time
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

// chronological returns a copy of remote sorted oldest first, which
// reverses backends that list newest first. If any turn is undated the
// remote order is kept as is.
func chronological(remote []api.HistoryMessage) []api.HistoryMessage {
	out := make([]api.HistoryMessage, len(remote))
	copy(out, remote)
	for _, h := range out {
		if h.Timestamp.IsZero() {
			return out
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp.Time)
	})
	return out
}

// ActivityFromHistory derives recent-activity entries from the user turns
// of remote, newest first and capped at storage.MaxActivity.
func ActivityFromHistory(remote []api.HistoryMessage) []storage.Activity {
	sorted := chronological(remote)

	var list []storage.Activity
	for i := len(sorted) - 1; i >= 0 && len(list) < storage.MaxActivity; i-- {
		h := sorted[i]
		if role, _ := model.ParseRole(h.Role); role != model.RoleUser {
			continue
		}
		at := h.Timestamp.Time
		if at.IsZero() {
			at = time.Now()
		}
		list = append(list, storage.NewActivity(h.Content, at))
	}
	return list
}
