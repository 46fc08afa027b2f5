// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reveal discloses assistant replies one character per tick.
//
// A Scheduler owns at most one Task. Starting a new task cancels the
// previous one; ticks issued for a canceled task carry a stale generation
// and are ignored, so a superseded reply keeps the prefix it had reached.
//
// The scheduler is not safe for concurrent use. It is meant to be driven
// from a single Bubble Tea Update loop.
package reveal

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

const (
	// DefaultFastInterval is the tick period for long replies.
	DefaultFastInterval = 5 * time.Millisecond

	// DefaultSlowInterval is the tick period for everything else.
	DefaultSlowInterval = 12 * time.Millisecond

	// DefaultLongTextThreshold is the length past which a reply is long.
	DefaultLongTextThreshold = 500
)

// Config controls reveal pacing.
type Config struct {
	FastInterval      time.Duration
	SlowInterval      time.Duration
	LongTextThreshold int
}

// DefaultConfig returns the default pacing.
func DefaultConfig() Config {
	return Config{
		FastInterval:      DefaultFastInterval,
		SlowInterval:      DefaultSlowInterval,
		LongTextThreshold: DefaultLongTextThreshold,
	}
}

// normalized fills zero or negative fields with defaults.
func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.FastInterval <= 0 {
		c.FastInterval = d.FastInterval
	}
	if c.SlowInterval <= 0 {
		c.SlowInterval = d.SlowInterval
	}
	if c.LongTextThreshold <= 0 {
		c.LongTextThreshold = d.LongTextThreshold
	}
	return c
}

// IntervalFor returns the tick period for a reply of n characters.
func (c Config) IntervalFor(n int) time.Duration {
	c = c.normalized()
	if n > c.LongTextThreshold {
		return c.FastInterval
	}
	return c.SlowInterval
}

// =============================================================================
// TASK
// =============================================================================

// Task is one in-flight disclosure bound to a message.
type Task struct {
	TargetID string
	FullText []rune
	Revealed int
	Interval time.Duration
	Armed    bool

	gen uint64
}

// Content returns the disclosed prefix.
func (t *Task) Content() string {
	return string(t.FullText[:t.Revealed])
}

// Done reports whether the full text has been disclosed.
func (t *Task) Done() bool {
	return t.Revealed >= len(t.FullText)
}

// =============================================================================
// MESSAGES
// =============================================================================

// TickMsg advances the task whose generation matches Gen.
type TickMsg struct {
	Gen  uint64
	Time time.Time
}

// Step is the result of applying one tick.
type Step struct {
	TargetID string
	Content  string
	Done     bool
}

// =============================================================================
// SCHEDULER
// =============================================================================

// Scheduler drives a single Task at a time.
type Scheduler struct {
	config Config
	task   *Task
	gen    uint64
}

// New creates a scheduler with the given pacing.
func New(config Config) *Scheduler {
	return &Scheduler{config: config.normalized()}
}

// Config returns the active pacing.
func (s *Scheduler) Config() Config {
	return s.config
}

// SetConfig changes pacing. A task already running keeps its interval.
func (s *Scheduler) SetConfig(config Config) {
	s.config = config.normalized()
}

// Start cancels any active task and begins revealing text into the
// message identified by targetID. It returns the first tick, or nil when
// text is empty and there is nothing to reveal.
func (s *Scheduler) Start(targetID, text string) tea.Cmd {
	s.Cancel()

	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	s.gen++
	s.task = &Task{
		TargetID: targetID,
		FullText: runes,
		Interval: s.config.IntervalFor(len(runes)),
		Armed:    true,
		gen:      s.gen,
	}
	return s.tickCmd()
}

// Tick applies msg. ok is false when msg belongs to a canceled or
// finished task; the caller must then ignore it.
func (s *Scheduler) Tick(msg TickMsg) (step Step, cmd tea.Cmd, ok bool) {
	t := s.task
	if t == nil || !t.Armed || msg.Gen != t.gen {
		return Step{}, nil, false
	}

	t.Revealed++
	step = Step{
		TargetID: t.TargetID,
		Content:  t.Content(),
		Done:     t.Done(),
	}
	if step.Done {
		t.Armed = false
		s.task = nil
		return step, nil, true
	}
	return step, s.tickCmd(), true
}

// Cancel stops the active task without finishing it. It returns the
// canceled task, or nil when nothing was running.
func (s *Scheduler) Cancel() *Task {
	t := s.task
	if t == nil {
		return nil
	}
	t.Armed = false
	s.task = nil
	return t
}

// Active reports whether a task is running.
func (s *Scheduler) Active() bool {
	return s.task != nil && s.task.Armed
}

// ActiveID returns the target of the running task, or "".
func (s *Scheduler) ActiveID() string {
	if !s.Active() {
		return ""
	}
	return s.task.TargetID
}

// Current returns a copy of the running task.
func (s *Scheduler) Current() (Task, bool) {
	if !s.Active() {
		return Task{}, false
	}
	return *s.task, true
}

func (s *Scheduler) tickCmd() tea.Cmd {
	gen := s.task.gen
	return tea.Tick(s.task.Interval, func(t time.Time) tea.Msg {
		return TickMsg{Gen: gen, Time: t}
	})
}
