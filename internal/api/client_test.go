// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClientWithConfig(&ClientConfig{BaseURL: srv.URL + "/"})
}

// =============================================================================
// ASK TESTS
// =============================================================================

func TestAsk_Success(t *testing.T) {
	var got AskRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/ask", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"response":"Hello!"}`))
	})

	resp, err := client.Ask(context.Background(), AskRequest{
		Message:      "hi",
		SystemPrompt: "be nice",
		UserID:       ParseUserID("42"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello!", resp.Text())
	assert.Equal(t, "hi", got.Message)
	assert.Equal(t, "be nice", got.SystemPrompt)
	require.NotNil(t, got.UserID)
	assert.Equal(t, int64(42), *got.UserID)
}

func TestAsk_AnonymousSendsNullUserID(t *testing.T) {
	var raw map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = w.Write([]byte(`{"response":"ok"}`))
	})

	_, err := client.Ask(context.Background(), AskRequest{Message: "hi"})
	require.NoError(t, err)
	v, present := raw["user_id"]
	assert.True(t, present)
	assert.Nil(t, v)
}

func TestAsk_MessageFallbackField(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"from message"}`))
	})

	resp, err := client.Ask(context.Background(), AskRequest{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "from message", resp.Text())
}

func TestAsk_BackendErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"detail string", http.StatusTooManyRequests, `{"detail":"rate limited"}`, "rate limited"},
		{"message field", http.StatusInternalServerError, `{"message":"boom"}`, "boom"},
		{"detail object", http.StatusUnprocessableEntity, `{"detail":[{"msg":"bad"}]}`, `[{"msg":"bad"}]`},
		{"empty body", http.StatusBadGateway, ``, FallbackReason},
		{"not json", http.StatusServiceUnavailable, `<html>down</html>`, FallbackReason},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			_, err := client.Ask(context.Background(), AskRequest{Message: "hi"})
			require.Error(t, err)
			assert.True(t, IsBackend(err))
			assert.True(t, errors.Is(err, ErrBackend))
			assert.Equal(t, tc.want, Reason(err))

			var ce *ClientError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tc.status, ce.StatusCode)
		})
	}
}

func TestAsk_ConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: url})
	_, err := client.Ask(context.Background(), AskRequest{Message: "hi"})
	require.Error(t, err)
	assert.True(t, IsConnection(err))
	assert.Equal(t, ConnectionFailedReason, Reason(err))
}

func TestAsk_Timeout(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Ask(ctx, AskRequest{Message: "hi"})
	require.Error(t, err)
	assert.True(t, IsTimeout(err), "got %v", err)
}

func TestAsk_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the server")
	})
	_, err := client.Ask(ctx, AskRequest{Message: "hi"})
	require.Error(t, err)
	assert.True(t, IsCanceled(err), "got %v", err)
}

func TestAsk_InvalidResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":`))
	})

	_, err := client.Ask(context.Background(), AskRequest{Message: "hi"})
	require.Error(t, err)
	assert.Equal(t, ErrTypeInvalidResponse, typeOf(err))
}

// =============================================================================
// HISTORY TESTS
// =============================================================================

func TestHistory(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/history/42", r.URL.Path)
		_, _ = w.Write([]byte(`{"messages":[
			{"role":"user","content":"a","timestamp":"2025-01-02T03:04:05Z"},
			{"role":"assistant","content":"b","timestamp":1735787046}
		]}`))
	})

	msgs, err := client.History(context.Background(), "42")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "a", msgs[0].Content)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), msgs[0].Timestamp.UTC())
	assert.Equal(t, int64(1735787046), msgs[1].Timestamp.Unix())
}

func TestHistory_EscapesIdentity(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/history/a%2Fb", r.URL.RawPath)
		_, _ = w.Write([]byte(`{"messages":[]}`))
	})

	_, err := client.History(context.Background(), "a/b")
	require.NoError(t, err)
}

// =============================================================================
// TYPE TESTS
// =============================================================================

func TestParseUserID(t *testing.T) {
	assert.Nil(t, ParseUserID(""))
	assert.Nil(t, ParseUserID("  "))
	assert.Nil(t, ParseUserID("abc"))
	require.NotNil(t, ParseUserID(" 7 "))
	assert.Equal(t, int64(7), *ParseUserID(" 7 "))
}

func TestTimestamp_Unmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{`"2025-01-02T03:04:05Z"`, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
		{`"2025-01-02 03:04:05"`, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
		{`1735787045000`, time.UnixMilli(1735787045000)},
		{`null`, time.Time{}},
		{`"garbage"`, time.Time{}},
	}

	for _, tc := range tests {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(tc.in), &ts), tc.in)
		if !ts.Equal(tc.want) {
			t.Errorf("Unmarshal(%s) = %v, want %v", tc.in, ts.Time, tc.want)
		}
	}
}

func TestClientError_Is(t *testing.T) {
	err := &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	if !errors.Is(err, ErrTimeout) {
		t.Error("timeout error should match ErrTimeout")
	}
	if errors.Is(err, ErrConnection) {
		t.Error("timeout error should not match ErrConnection")
	}
	if Reason(errors.New("plain")) != "plain" {
		t.Error("Reason should fall back to Error()")
	}
}
