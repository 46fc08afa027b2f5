// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/model"
)

func sampleTranscript() *Transcript {
	return FromHistory("42", []api.HistoryMessage{
		{Role: "user", Content: "How to build a SaaS?", Timestamp: api.Timestamp{Time: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}},
		{Role: "Assistant", Content: "Start small.\n\n```go\nfmt.Println(1)\n```"},
	})
}

// =============================================================================
// TRANSCRIPT TESTS
// =============================================================================

func TestFromHistory(t *testing.T) {
	tr := sampleTranscript()
	assert.Equal(t, "42", tr.UserID)
	require.Len(t, tr.Messages, 2)
	assert.Equal(t, "assistant", tr.Messages[1].Role)
	assert.True(t, tr.Messages[1].Timestamp.IsZero())
}

func TestFromMessages(t *testing.T) {
	conv := model.NewConversation()
	conv.AddUserMessage("hi")
	conv.AddAssistantText("hello")

	tr := FromMessages("", conv.Messages())
	require.Len(t, tr.Messages, 2)
	assert.Equal(t, "user", tr.Messages[0].Role)
	assert.Equal(t, "hello", tr.Messages[1].Content)
}

func TestForFormat(t *testing.T) {
	for format, ext := range map[string]string{"json": ".json", "yaml": ".yaml", "YML": ".yaml", "md": ".md", "markdown": ".md"} {
		e, err := ForFormat(format, nil)
		require.NoError(t, err, format)
		assert.Equal(t, ext, e.FileExtension(), format)
	}
	_, err := ForFormat("html", nil)
	assert.Error(t, err)
}

// =============================================================================
// EXPORTER TESTS
// =============================================================================

func TestJSONExporter(t *testing.T) {
	data, err := NewJSONExporter(nil).Export(sampleTranscript())
	require.NoError(t, err)

	var back Transcript
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "42", back.UserID)
	require.Len(t, back.Messages, 2)
	assert.Equal(t, "How to build a SaaS?", back.Messages[0].Content)

	_, err = NewJSONExporter(nil).Export(nil)
	assert.Error(t, err)
}

func TestYAMLExporter(t *testing.T) {
	data, err := NewYAMLExporter(nil).Export(sampleTranscript())
	require.NoError(t, err)
	assert.Contains(t, string(data), "user_id: \"42\"")
	assert.Contains(t, string(data), "content: |-")

	var back Transcript
	require.NoError(t, yaml.Unmarshal(data, &back))
	require.Len(t, back.Messages, 2)
	assert.Equal(t, "Start small.\n\n```go\nfmt.Println(1)\n```", back.Messages[1].Content)
}

func TestMarkdownExporter(t *testing.T) {
	data, err := NewMarkdownExporter(nil).Export(sampleTranscript())
	require.NoError(t, err)
	out := string(data)

	assert.True(t, strings.HasPrefix(out, "---\ntitle: How to build a SaaS?\n"))
	assert.Contains(t, out, "user_id: \"42\"")
	assert.Contains(t, out, "# How to build a SaaS?\n")
	assert.Contains(t, out, "### You <sub>2025-03-01 09:00:00</sub>")
	assert.Contains(t, out, "### Assistant\n\nStart small.")
	assert.Contains(t, out, "```go\nfmt.Println(1)\n```")
}

func TestMarkdownExporter_NoMetadata(t *testing.T) {
	opts := &Options{}
	data, err := NewMarkdownExporter(opts).Export(sampleTranscript())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# How to build a SaaS?"))
	assert.NotContains(t, string(data), "<sub>")
}

func TestMarkdownExporter_Empty(t *testing.T) {
	_, err := NewMarkdownExporter(nil).Export(&Transcript{})
	assert.Error(t, err)
}

// =============================================================================
// FILE TESTS
// =============================================================================

func TestExportToFile(t *testing.T) {
	dir := t.TempDir()
	path, err := ExportToFile(sampleTranscript(), NewJSONExporter(nil), &Options{OutputDir: dir})
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "parley_user_42_"))
	assert.Equal(t, ".json", filepath.Ext(path))

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleTranscript(), NewYAMLExporter(nil)))
	assert.Contains(t, buf.String(), "messages:")
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "conversation"},
		{"a/b:c", "a-b-c"},
		{"two words", "two_words"},
		{"tab\there", "tab_here"},
	}
	for _, tc := range tests {
		if got := sanitizeFilename(tc.in); got != tc.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
