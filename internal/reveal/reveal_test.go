// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package reveal

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// currentTick builds the tick the scheduler is waiting for.
func currentTick(s *Scheduler) TickMsg {
	if s.task == nil {
		return TickMsg{}
	}
	return TickMsg{Gen: s.task.gen}
}

// =============================================================================
// PACING TESTS
// =============================================================================

func TestIntervalFor(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		n    int
		want time.Duration
	}{
		{0, 12 * time.Millisecond},
		{500, 12 * time.Millisecond},
		{501, 5 * time.Millisecond},
		{5000, 5 * time.Millisecond},
	}
	for _, tc := range tests {
		if got := cfg.IntervalFor(tc.n); got != tc.want {
			t.Errorf("IntervalFor(%d) = %v, want %v", tc.n, got, tc.want)
		}
	}
}

func TestConfig_ZeroFieldsUseDefaults(t *testing.T) {
	s := New(Config{})
	assert.Equal(t, DefaultConfig(), s.Config())

	s.SetConfig(Config{FastInterval: time.Millisecond, LongTextThreshold: 3})
	assert.Equal(t, time.Millisecond, s.Config().IntervalFor(4))
	assert.Equal(t, DefaultSlowInterval, s.Config().IntervalFor(3))
}

// =============================================================================
// PROGRESSION TESTS
// =============================================================================

func TestTick_RevealsEveryPrefix(t *testing.T) {
	s := New(DefaultConfig())
	text := "héllo"

	cmd := s.Start("m1", text)
	require.NotNil(t, cmd)
	require.True(t, s.Active())
	assert.Equal(t, "m1", s.ActiveID())

	runes := []rune(text)
	for i := 1; i <= len(runes); i++ {
		step, next, ok := s.Tick(currentTick(s))
		require.True(t, ok)
		assert.Equal(t, "m1", step.TargetID)
		assert.Equal(t, string(runes[:i]), step.Content)
		if i < len(runes) {
			assert.False(t, step.Done)
			assert.NotNil(t, next)
		} else {
			assert.True(t, step.Done)
			assert.Nil(t, next)
		}
	}

	assert.False(t, s.Active())
	assert.Equal(t, "", s.ActiveID())
}

func TestTick_LongTextUsesFastInterval(t *testing.T) {
	s := New(DefaultConfig())
	s.Start("m1", strings.Repeat("x", 501))

	task, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, DefaultFastInterval, task.Interval)
	assert.Equal(t, 0, task.Revealed)
}

func TestStart_EmptyTextCompletesImmediately(t *testing.T) {
	s := New(DefaultConfig())
	assert.Nil(t, s.Start("m1", ""))
	assert.False(t, s.Active())
}

func TestTickCmd_DeliversTick(t *testing.T) {
	s := New(Config{SlowInterval: time.Millisecond})
	cmd := s.Start("m1", "ab")

	msg, ok := cmd().(TickMsg)
	require.True(t, ok)
	step, _, applied := s.Tick(msg)
	require.True(t, applied)
	assert.Equal(t, "a", step.Content)
}

// =============================================================================
// CANCELLATION TESTS
// =============================================================================

func TestStart_SupersedesActiveTask(t *testing.T) {
	s := New(DefaultConfig())

	s.Start("first", "abcdef")
	staleTick := currentTick(s)
	_, _, ok := s.Tick(staleTick)
	require.True(t, ok)
	step, _, ok := s.Tick(currentTick(s))
	require.True(t, ok)
	assert.Equal(t, "ab", step.Content)

	s.Start("second", "xyz")
	assert.Equal(t, "second", s.ActiveID())

	// Ticks left over from the first task never touch anything again.
	_, cmd, ok := s.Tick(staleTick)
	assert.False(t, ok)
	assert.Nil(t, cmd)

	step, _, ok = s.Tick(currentTick(s))
	require.True(t, ok)
	assert.Equal(t, "second", step.TargetID)
	assert.Equal(t, "x", step.Content)
}

func TestCancel(t *testing.T) {
	s := New(DefaultConfig())
	assert.Nil(t, s.Cancel())

	s.Start("m1", "abc")
	tick := currentTick(s)
	s.Tick(tick)

	canceled := s.Cancel()
	require.NotNil(t, canceled)
	assert.Equal(t, "a", canceled.Content())
	assert.False(t, canceled.Armed)
	assert.False(t, s.Active())

	_, _, ok := s.Tick(tick)
	assert.False(t, ok)
}

func TestTick_WithoutTask(t *testing.T) {
	s := New(DefaultConfig())
	_, cmd, ok := s.Tick(TickMsg{Gen: 7})
	assert.False(t, ok)
	assert.Nil(t, cmd)
}
