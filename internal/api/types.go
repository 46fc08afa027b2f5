// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// AskRequest is the request body for POST /ask.
type AskRequest struct {
	Message      string `json:"message"`
	SystemPrompt string `json:"system_prompt"`
	UserID       *int64 `json:"user_id"` // null for anonymous sessions
}

// ParseUserID converts a stored identity to the numeric id the backend
// expects. Empty or non-numeric identities yield nil.
func ParseUserID(identity string) *int64 {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil
	}
	n, err := strconv.ParseInt(identity, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// AskResponse is the success body of POST /ask.
type AskResponse struct {
	Response string `json:"response"`
	Message  string `json:"message,omitempty"`
}

// Text returns the reply text: response, falling back to message.
func (r *AskResponse) Text() string {
	if r == nil {
		return ""
	}
	if r.Response != "" {
		return r.Response
	}
	return r.Message
}

// HistoryMessage is one turn returned by GET /history/{user_id}.
type HistoryMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp Timestamp `json:"timestamp"`
}

// HistoryResponse is the body of GET /history/{user_id}.
type HistoryResponse struct {
	Messages []HistoryMessage `json:"messages"`
}

// errorBody is the body of a non-success response.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

// reason extracts the failure reason: detail, then message.
// A structured detail (for example a validation error list) is returned as
// compact JSON.
func (b *errorBody) reason() string {
	detail := bytes.TrimSpace(b.Detail)
	if len(detail) > 0 && !bytes.Equal(detail, []byte("null")) {
		var s string
		if err := json.Unmarshal(detail, &s); err == nil {
			if s != "" {
				return s
			}
		} else {
			var buf bytes.Buffer
			if json.Compact(&buf, detail) == nil {
				return buf.String()
			}
		}
	}
	return b.Message
}

// =============================================================================
// TIMESTAMP
// =============================================================================

// Timestamp accepts RFC 3339 strings, "2006-01-02 15:04:05" strings and
// Unix seconds or milliseconds. Anything else decodes to the zero time.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				t.Time = parsed
				return nil
			}
		}
		t.Time = time.Time{}
		return nil
	}

	n, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		t.Time = time.Time{}
		return nil
	}
	// Values past 1e11 cannot be seconds before year 5000; read them as ms.
	if n > 1e11 {
		t.Time = time.UnixMilli(int64(n))
	} else {
		t.Time = time.Unix(int64(n), 0)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}
