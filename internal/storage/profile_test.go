// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/parley-tui/internal/model"
)

func TestProfile_PlanDefaultsToFree(t *testing.T) {
	p := NewProfile(NewMemory())

	plan, err := p.Plan()
	require.NoError(t, err)
	assert.Equal(t, model.PlanFree, plan)

	require.NoError(t, p.SetPlan(model.PlanPro))
	plan, _ = p.Plan()
	assert.Equal(t, model.PlanPro, plan)

	v, _, _ := p.Store().Get(KeyPlan)
	assert.Equal(t, "Pro", v)
}

func TestProfile_SentCount(t *testing.T) {
	tests := []struct {
		stored string
		want   int
	}{
		{"", 0},
		{"4", 4},
		{" 7 ", 7},
		{"abc", 0},
		{"-3", 0},
	}
	for _, tc := range tests {
		s := NewMemory()
		if tc.stored != "" {
			require.NoError(t, s.Set(KeySentCount, tc.stored))
		}
		n, err := NewProfile(s).SentCount()
		require.NoError(t, err)
		assert.Equal(t, tc.want, n, "stored %q", tc.stored)
	}
}

func TestTruncateTitle(t *testing.T) {
	assert.Equal(t, "short", TruncateTitle("short"))

	exact := strings.Repeat("a", TitleLimit)
	assert.Equal(t, exact, TruncateTitle(exact))

	long := strings.Repeat("b", TitleLimit+5)
	assert.Equal(t, strings.Repeat("b", TitleLimit)+"...", TruncateTitle(long))

	// "e" + combining acute composes to one character under NFC.
	decomposed := strings.Repeat("e\u0301", TitleLimit)
	assert.Equal(t, strings.Repeat("\u00e9", TitleLimit), TruncateTitle(decomposed))
}

func TestProfile_RecordActivity_CapsAndOrders(t *testing.T) {
	p := NewProfile(NewMemory())
	base := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	tick := 0
	p.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	for i := 0; i < MaxActivity+5; i++ {
		_, err := p.RecordActivity("prompt " + strconv.Itoa(i))
		require.NoError(t, err)
	}

	list, err := p.Activity()
	require.NoError(t, err)
	require.Len(t, list, MaxActivity)
	assert.Equal(t, "prompt 24", list[0].Title, "newest first")
	assert.Equal(t, "prompt 5", list[len(list)-1].Title, "oldest evicted first")
	assert.Equal(t, "3:04:30 PM", list[0].Time)

	total, err := p.TotalConversations()
	require.NoError(t, err)
	assert.Equal(t, MaxActivity, total)
}

func TestProfile_RecordActivity_ReplacesCorruptLog(t *testing.T) {
	s := NewMemoryWith(map[string]string{KeyRecentActivity: "{not json"})
	p := NewProfile(s)

	_, err := p.Activity()
	require.Error(t, err)

	entry, err := p.RecordActivity("hello")
	require.NoError(t, err)
	list, err := p.Activity()
	require.NoError(t, err)
	require.Equal(t, []Activity{entry}, list)
}

func TestProfile_SignOut(t *testing.T) {
	s := NewMemoryWith(map[string]string{
		KeyAccessToken:  "tok",
		KeyRefreshToken: "ref",
		KeyTokenType:    "bearer",
		KeyUserID:       "42",
	})
	p := NewProfile(s)

	in, err := p.SignedIn()
	require.NoError(t, err)
	require.True(t, in)

	require.NoError(t, p.SignOut())
	in, _ = p.SignedIn()
	assert.False(t, in)

	id, err := p.Identity()
	require.NoError(t, err)
	assert.Equal(t, "42", id, "identity survives sign-out")
}
