// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/history"
	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/reveal"
	"github.com/jeranaias/parley-tui/internal/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// =============================================================================
// FAKES
// =============================================================================

type fakeAsker struct {
	mu    sync.Mutex
	reqs  []api.AskRequest
	reply string
	err   error
	// block makes Ask wait for its context to end.
	block bool
}

func (f *fakeAsker) Ask(ctx context.Context, req api.AskRequest) (*api.AskResponse, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	reply, err, block := f.reply, f.err, f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &api.ClientError{Type: api.ErrTypeTimeout, Message: "request timed out", Cause: ctx.Err()}
		}
		return nil, &api.ClientError{Type: api.ErrTypeCanceled, Message: "request canceled", Cause: ctx.Err()}
	}
	if err != nil {
		return nil, err
	}
	return &api.AskResponse{Response: reply}, nil
}

func (f *fakeAsker) requests() []api.AskRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.AskRequest(nil), f.reqs...)
}

type fakeFetcher struct {
	calls    int
	messages []api.HistoryMessage
	err      error
}

func (f *fakeFetcher) History(ctx context.Context, userID string) ([]api.HistoryMessage, error) {
	f.calls++
	return f.messages, f.err
}

var fastReveal = reveal.Config{FastInterval: time.Millisecond, SlowInterval: time.Millisecond}

func newController(t *testing.T, asker *fakeAsker, store storage.Store) *Controller {
	t.Helper()
	if store == nil {
		store = storage.NewMemory()
	}
	c := New(Options{
		Client:  asker,
		Profile: storage.NewProfile(store),
		Reveal:  fastReveal,
	})
	t.Cleanup(c.Close)
	require.Nil(t, c.Init())
	require.True(t, c.HistoryLoaded())
	return c
}

func pump(t *testing.T, c *Controller, cmd tea.Cmd) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, Pump(ctx, c, cmd, nil))
}

// =============================================================================
// SUBMIT TESTS
// =============================================================================

func TestSubmit_RevealsReply(t *testing.T) {
	asker := &fakeAsker{reply: "Hello there"}
	store := storage.NewMemory()
	c := newController(t, asker, store)

	cmd := c.Submit("hi")
	require.NotNil(t, cmd)
	assert.True(t, c.Busy())
	assert.Equal(t, StateSending, c.State())

	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, "hi", msgs[0].Content)

	pump(t, c, cmd)

	msgs = c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "Hello there", msgs[1].Content)
	assert.False(t, c.Busy())
	assert.False(t, c.Revealing())
	assert.Equal(t, StateIdle, c.State())

	reqs := asker.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "hi", reqs[0].Message)
	assert.Equal(t, DefaultSystemPrompt, reqs[0].SystemPrompt)
	assert.Nil(t, reqs[0].UserID)
}

func TestSubmit_PersistsCountAndActivity(t *testing.T) {
	store := storage.NewMemory()
	c := newController(t, &fakeAsker{reply: "ok"}, store)

	prompt := strings.Repeat("abcdefghij", 4)
	pump(t, c, c.Submit(prompt))

	assert.Equal(t, 1, c.SentCount())
	v, ok, err := store.Get(storage.KeySentCount)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", v)

	list, err := storage.NewProfile(store).Activity()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, prompt[:30]+"...", list[0].Title)
}

func TestSubmit_SendsIdentity(t *testing.T) {
	store := storage.NewMemoryWith(map[string]string{storage.KeyUserID: "42"})
	asker := &fakeAsker{reply: "ok"}
	c := New(Options{Client: asker, Profile: storage.NewProfile(store), Reveal: fastReveal, SystemPrompt: "be brief"})
	defer c.Close()
	require.Nil(t, c.Init())

	pump(t, c, c.Submit("hi"))

	reqs := asker.requests()
	require.Len(t, reqs, 1)
	require.NotNil(t, reqs[0].UserID)
	assert.Equal(t, int64(42), *reqs[0].UserID)
	assert.Equal(t, "be brief", reqs[0].SystemPrompt)
}

func TestSubmit_RejectsBlank(t *testing.T) {
	c := newController(t, &fakeAsker{reply: "ok"}, nil)

	for _, text := range []string{"", "   ", "\n\t"} {
		assert.Nil(t, c.Submit(text))
	}
	assert.Empty(t, c.Messages())
	assert.Equal(t, 0, c.SentCount())
}

func TestSubmit_RejectsWhileBusy(t *testing.T) {
	c := newController(t, &fakeAsker{reply: "ok"}, nil)

	cmd := c.Submit("one")
	require.NotNil(t, cmd)
	assert.Nil(t, c.Submit("two"))
	assert.Len(t, c.Messages(), 1)
	assert.Equal(t, 1, c.SentCount())

	pump(t, c, cmd)
	assert.NotNil(t, c.Submit("two"))
}

func TestSubmit_RejectsWhileRevealing(t *testing.T) {
	c := newController(t, &fakeAsker{reply: "a longer reply"}, nil)

	msg := c.Submit("one")()
	tick := c.Update(msg)
	require.NotNil(t, tick)
	assert.True(t, c.Revealing())
	assert.Equal(t, StateRevealing, c.State())
	assert.False(t, c.Busy())

	assert.Nil(t, c.Submit("two"))
	assert.Len(t, c.Messages(), 2)

	pump(t, c, tick)
	assert.False(t, c.Revealing())
	assert.NotNil(t, c.Submit("two"))
}

func TestSubmit_QuotaGate(t *testing.T) {
	store := storage.NewMemory()
	c := newController(t, &fakeAsker{reply: "ok"}, store)

	for i := 0; i < 5; i++ {
		cmd := c.Submit("q")
		require.NotNil(t, cmd, "submission %d", i+1)
		pump(t, c, cmd)
	}
	assert.True(t, c.Blocked())
	assert.Equal(t, "Free Tier (5/5)", c.GetStatus().QuotaLabel)

	before := len(c.Messages())
	assert.Nil(t, c.Submit("sixth"))
	assert.Len(t, c.Messages(), before)
	assert.Equal(t, 5, c.SentCount())

	require.NoError(t, c.Upgrade())
	assert.Equal(t, model.PlanPro, c.Plan())
	assert.False(t, c.Blocked())
	v, _, _ := store.Get(storage.KeyPlan)
	assert.Equal(t, "Pro", v)

	pump(t, c, c.Submit("sixth"))
	assert.Equal(t, 6, c.SentCount())
	assert.Equal(t, -1, c.GetStatus().Remaining)
}

func TestNew_ReadsPersistedCounters(t *testing.T) {
	store := storage.NewMemoryWith(map[string]string{
		storage.KeyPlan:      "Free",
		storage.KeySentCount: "5",
	})
	c := newController(t, &fakeAsker{reply: "ok"}, store)
	assert.True(t, c.Blocked())
	assert.Nil(t, c.Submit("hi"))
}

// =============================================================================
// FAILURE TESTS
// =============================================================================

func TestReply_FailureAppendsDiagnostic(t *testing.T) {
	asker := &fakeAsker{err: &api.ClientError{Type: api.ErrTypeBackend, Message: "rate limited", StatusCode: 429}}
	c := newController(t, asker, nil)

	msg := c.Submit("hi")()
	assert.Nil(t, c.Update(msg))

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "⚠️ Error: rate limited", msgs[1].Content)
	assert.False(t, c.Busy())
	assert.False(t, c.Revealing())
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, 1, c.SentCount())
}

func TestReply_TimeoutBecomesFailure(t *testing.T) {
	c := New(Options{
		Client:         &fakeAsker{block: true},
		RequestTimeout: 20 * time.Millisecond,
		Reveal:         fastReveal,
	})
	defer c.Close()
	c.Init()

	pump(t, c, c.Submit("hi"))

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].Content, "timed out")
	assert.False(t, c.Busy())
}

func TestReply_EmptyTextUsesFallback(t *testing.T) {
	c := newController(t, &fakeAsker{reply: ""}, nil)
	pump(t, c, c.Submit("hi"))

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, EmptyReplyText, msgs[1].Content)
}

func TestReply_StaleSequenceIgnored(t *testing.T) {
	c := newController(t, &fakeAsker{reply: "ok"}, nil)
	assert.Nil(t, c.Update(ReplyMsg{Seq: 99, Text: "ghost"}))
	assert.Empty(t, c.Messages())
}

// =============================================================================
// REVEAL TESTS
// =============================================================================

func TestReveal_GrowsOneCharacterPerTick(t *testing.T) {
	text := "Hi, wörld"
	c := newController(t, &fakeAsker{reply: text}, nil)

	cmd := c.Update(c.Submit("hi")())
	id := c.RevealingID()
	require.NotEmpty(t, id)

	runes := []rune(text)
	for i := 1; i <= len(runes); i++ {
		require.NotNil(t, cmd)
		cmd = c.Update(cmd())
		msgs := c.Messages()
		assert.Equal(t, id, msgs[1].ID)
		assert.Equal(t, string(runes[:i]), msgs[1].Content)
	}
	assert.Nil(t, cmd)
	assert.False(t, c.Revealing())
}

// =============================================================================
// HISTORY TESTS
// =============================================================================

func TestInit_LoadsHistoryBeforeAcceptingInput(t *testing.T) {
	fetcher := &fakeFetcher{messages: []api.HistoryMessage{
		{Role: "user", Content: "c", Timestamp: api.Timestamp{Time: time.Unix(300, 0)}},
		{Role: "user", Content: "b", Timestamp: api.Timestamp{Time: time.Unix(200, 0)}},
		{Role: "user", Content: "a", Timestamp: api.Timestamp{Time: time.Unix(100, 0)}},
	}}
	store := storage.NewMemoryWith(map[string]string{storage.KeyUserID: "42"})
	c := New(Options{
		Client:  &fakeAsker{reply: "ok"},
		History: history.New(fetcher, 0, nil),
		Profile: storage.NewProfile(store),
		Reveal:  fastReveal,
	})
	defer c.Close()

	cmd := c.Init()
	require.NotNil(t, cmd)
	assert.False(t, c.HistoryLoaded())
	assert.Equal(t, StateLoading, c.State())
	assert.Nil(t, c.Submit("too early"))

	pump(t, c, cmd)
	assert.Equal(t, 1, fetcher.calls)
	assert.True(t, c.HistoryLoaded())

	msgs := c.Messages()
	require.Len(t, msgs, 3)
	for i, want := range []string{"a", "b", "c"} {
		assert.Equal(t, model.RoleUser, msgs[i].Role)
		assert.Equal(t, want, msgs[i].Content)
	}
	assert.NotNil(t, c.Submit("now"))
}

func TestInit_NoIdentitySkipsFetch(t *testing.T) {
	fetcher := &fakeFetcher{}
	c := New(Options{
		Client:  &fakeAsker{reply: "ok"},
		History: history.New(fetcher, 0, nil),
	})
	defer c.Close()

	assert.Nil(t, c.Init())
	assert.True(t, c.HistoryLoaded())
	assert.Empty(t, c.Messages())
	assert.Equal(t, 0, fetcher.calls)
}

func TestInit_HistoryFailureIsSilent(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("boom")}
	store := storage.NewMemoryWith(map[string]string{storage.KeyUserID: "42"})
	c := New(Options{
		Client:  &fakeAsker{reply: "ok"},
		History: history.New(fetcher, 0, nil),
		Profile: storage.NewProfile(store),
	})
	defer c.Close()

	pump(t, c, c.Init())
	assert.True(t, c.HistoryLoaded())
	assert.Empty(t, c.Messages())
}

// =============================================================================
// TEARDOWN TESTS
// =============================================================================

func TestClose_StopsReveal(t *testing.T) {
	c := newController(t, &fakeAsker{reply: "abcdef"}, nil)

	tick := c.Update(c.Submit("hi")())
	tick = c.Update(tick())
	require.NotNil(t, tick)
	before := c.Messages()[1].Content
	assert.Equal(t, "a", before)

	c.Close()
	assert.Equal(t, StateClosed, c.State())
	assert.False(t, c.Revealing())

	assert.Nil(t, c.Update(tick()))
	assert.Equal(t, before, c.Messages()[1].Content)
	assert.Nil(t, c.Submit("again"))
}

func TestClose_CancelsInFlightCall(t *testing.T) {
	c := New(Options{Client: &fakeAsker{block: true}})
	c.Init()

	cmd := c.Submit("hi")
	require.NotNil(t, cmd)

	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	c.Close()
	select {
	case msg := <-done:
		reply, ok := msg.(ReplyMsg)
		require.True(t, ok)
		assert.True(t, api.IsCanceled(reply.Err))
		assert.Nil(t, c.Update(msg))
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight call was not canceled")
	}
	assert.Len(t, c.Messages(), 1)
	assert.False(t, c.Busy())
}

// =============================================================================
// PUMP TESTS
// =============================================================================

func TestPump_RunsBatches(t *testing.T) {
	c := newController(t, &fakeAsker{reply: "xy"}, nil)

	var seen []tea.Msg
	ctx := context.Background()
	err := Pump(ctx, c, tea.Batch(c.Submit("hi"), nil), func(msg tea.Msg) {
		seen = append(seen, msg)
	})
	require.NoError(t, err)
	// One reply plus one tick per character.
	assert.Len(t, seen, 3)
	assert.Equal(t, "xy", c.Messages()[1].Content)
}

func TestPump_StopsOnContext(t *testing.T) {
	c := newController(t, &fakeAsker{reply: "ok"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Pump(ctx, c, c.Submit("hi"), nil), context.Canceled)
}

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestApplyConfig(t *testing.T) {
	asker := &fakeAsker{reply: "ok"}
	c := newController(t, asker, nil)

	c.ApplyConfig("new prompt", time.Second, fastReveal)
	pump(t, c, c.Submit("hi"))
	assert.Equal(t, "new prompt", asker.requests()[0].SystemPrompt)

	c.ApplyConfig("  ", 0, reveal.Config{})
	pump(t, c, c.Submit("again"))
	assert.Equal(t, DefaultSystemPrompt, asker.requests()[1].SystemPrompt)
}
