// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 200 * time.Millisecond

// ReloadedMsg delivers a re-read config, or the error that prevented it.
type ReloadedMsg struct {
	Config *Config
	Err    error
}

// =============================================================================
// FSNOTIFY WATCHER
// =============================================================================

// Watcher reloads a config file whenever it is written or replaced.
//
// The parent directory is watched rather than the file itself, so editors
// and AtomicWriteFile that replace the file by rename keep being seen.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	log      *zap.Logger

	updates chan ReloadedMsg
	done    chan struct{}
	wg      sync.WaitGroup

	mu        sync.Mutex
	timer     *time.Timer
	closeOnce sync.Once
}

// NewWatcher starts watching path. A zero debounce uses DefaultDebounce.
func NewWatcher(path string, debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = zap.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		fw.Close()
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		path:     abs,
		watcher:  fw,
		debounce: debounce,
		log:      log,
		updates:  make(chan ReloadedMsg, 1),
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.processEvents()
	return w, nil
}

// Updates delivers reloads. Only the most recent pending reload is kept.
func (w *Watcher) Updates() <-chan ReloadedMsg {
	return w.updates
}

// WaitCmd blocks until the next reload and returns it as a message.
// It returns nil once the watcher is closed.
func (w *Watcher) WaitCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-w.updates:
			return msg
		case <-w.done:
			return nil
		}
	}
}

// Close stops watching. Safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()

		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
	})
	return err
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.schedule()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("config watcher error", zap.Error(err))
		}
	}
}

// schedule (re)arms the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	select {
	case <-w.done:
		return
	default:
	}

	cfg, err := LoadFromPath(w.path)
	if err != nil {
		w.log.Warn("config reload failed", zap.String("path", w.path), zap.Error(err))
	} else {
		w.log.Info("config reloaded", zap.String("path", w.path))
	}
	msg := ReloadedMsg{Config: cfg, Err: err}

	// Replace any reload nobody has picked up yet.
	select {
	case <-w.updates:
	default:
	}
	select {
	case w.updates <- msg:
	default:
	}
}
