// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/model"
)

type fakeFetcher struct {
	calls    int
	identity string
	messages []api.HistoryMessage
	err      error
}

func (f *fakeFetcher) History(ctx context.Context, userID string) ([]api.HistoryMessage, error) {
	f.calls++
	f.identity = userID
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("history fetch without deadline")
	}
	return f.messages, f.err
}

func at(sec int64) api.Timestamp {
	return api.Timestamp{Time: time.Unix(sec, 0)}
}

// =============================================================================
// LOAD TESTS
// =============================================================================

func TestLoad_SeedsUserMessagesChronologically(t *testing.T) {
	f := &fakeFetcher{messages: []api.HistoryMessage{
		{Role: "user", Content: "third", Timestamp: at(300)},
		{Role: "user", Content: "second", Timestamp: at(200)},
		{Role: "user", Content: "first", Timestamp: at(100)},
	}}
	s := New(f, 0, nil)

	msgs, err := s.Load(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, 1, f.calls)
	assert.Equal(t, "42", f.identity)

	require.Len(t, msgs, 3)
	want := []string{"first", "second", "third"}
	seen := map[string]bool{}
	for i, m := range msgs {
		assert.Equal(t, model.RoleUser, m.Role)
		assert.Equal(t, want[i], m.Content)
		assert.NotEmpty(t, m.ID)
		assert.False(t, seen[m.ID], "duplicate id %s", m.ID)
		seen[m.ID] = true
	}
	assert.Equal(t, int64(100), msgs[0].Timestamp.Unix())
}

func TestLoad_NoIdentitySkipsFetch(t *testing.T) {
	f := &fakeFetcher{}
	s := New(f, 0, nil)

	msgs, err := s.Load(context.Background(), "  ")
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.Equal(t, 0, f.calls)
}

func TestLoad_FailureIsReported(t *testing.T) {
	f := &fakeFetcher{err: &api.ClientError{Type: api.ErrTypeBackend, Message: "nope", StatusCode: 500}}
	s := New(f, time.Second, nil)

	msgs, err := s.Load(context.Background(), "42")
	assert.Error(t, err)
	assert.Nil(t, msgs)
}

func TestLoadCmd(t *testing.T) {
	f := &fakeFetcher{messages: []api.HistoryMessage{{Role: "assistant", Content: "hi"}}}
	s := New(f, 0, nil)

	skipped, ok := s.LoadCmd(context.Background(), "")().(LoadedMsg)
	require.True(t, ok)
	assert.True(t, skipped.Skipped)
	assert.Equal(t, 0, f.calls)

	loaded, ok := s.LoadCmd(context.Background(), "7")().(LoadedMsg)
	require.True(t, ok)
	assert.False(t, loaded.Skipped)
	require.NoError(t, loaded.Err)
	require.Len(t, loaded.Messages, 1)
	assert.Equal(t, model.RoleAssistant, loaded.Messages[0].Role)
}

// =============================================================================
// CONVERSION TESTS
// =============================================================================

func TestConvert_DropsUnknownRoles(t *testing.T) {
	msgs := Convert([]api.HistoryMessage{
		{Role: "system", Content: "prompt"},
		{Role: "user", Content: "q"},
		{Role: "Assistant", Content: "a"},
		{Role: "tool", Content: "x"},
	})
	require.Len(t, msgs, 2)
	assert.Equal(t, "q", msgs[0].Content)
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)
}

func TestConvert_UndatedKeepsRemoteOrder(t *testing.T) {
	msgs := Convert([]api.HistoryMessage{
		{Role: "user", Content: "b", Timestamp: at(200)},
		{Role: "user", Content: "a"},
		{Role: "user", Content: "c", Timestamp: at(100)},
	})
	require.Len(t, msgs, 3)
	assert.Equal(t, "b", msgs[0].Content)
	assert.Equal(t, "a", msgs[1].Content)
	assert.Equal(t, "c", msgs[2].Content)
}

func TestActivityFromHistory(t *testing.T) {
	var remote []api.HistoryMessage
	for i := 0; i < 30; i++ {
		remote = append(remote,
			api.HistoryMessage{Role: "user", Content: "question that is definitely longer than thirty", Timestamp: at(int64(1000 + 2*i))},
			api.HistoryMessage{Role: "assistant", Content: "answer", Timestamp: at(int64(1001 + 2*i))},
		)
	}

	list := ActivityFromHistory(remote)
	require.Len(t, list, 20)
	assert.Equal(t, int64(1058000), list[0].ID)
	assert.Equal(t, "question that is definitely lo...", list[0].Title)
	for i := 1; i < len(list); i++ {
		assert.Greater(t, list[i-1].ID, list[i].ID)
	}
}
