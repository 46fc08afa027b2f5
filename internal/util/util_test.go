// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"testing"
)

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile_CreatesAndOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "store.json")

	if err := AtomicWriteFile(path, []byte(`{"a":"1"}`), 0600); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}
	if err := AtomicWriteFile(path, []byte(`{"a":"2"}`), 0600); err != nil {
		t.Fatalf("second AtomicWriteFile failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(got) != `{"a":"2"}` {
		t.Errorf("content = %q", got)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected no leftover temp files, found %d entries", len(entries))
	}
}

func TestAtomicWriteFileWithDir_Permissions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sub")
	path := filepath.Join(dir, "f")

	if err := AtomicWriteFileWithDir(path, []byte("x"), 0600, 0700); err != nil {
		t.Fatalf("AtomicWriteFileWithDir failed: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if !info.IsDir() {
		t.Error("parent should be a directory")
	}
}

// =============================================================================
// STRING TESTS
// =============================================================================

func TestTruncateRunes(t *testing.T) {
	testCases := []struct {
		input    string
		maxRunes int
		expected string
	}{
		{"hello world", 5, "he..."},
		{"hello", 5, "hello"},
		{"", 5, ""},
		{"hello world", 0, ""},
		{"abcd", 3, "abc"},
		{"héllo wörld", 8, "héllo..."},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			if got := TruncateRunes(tc.input, tc.maxRunes); got != tc.expected {
				t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tc.input, tc.maxRunes, got, tc.expected)
			}
		})
	}
}

func TestPrefixRunes(t *testing.T) {
	runes := []rune("日本語ok")
	testCases := []struct {
		n        int
		expected string
	}{
		{0, ""},
		{1, "日"},
		{3, "日本語"},
		{5, "日本語ok"},
		{9, "日本語ok"},
		{-1, ""},
	}
	for _, tc := range testCases {
		if got := PrefixRunes(runes, tc.n); got != tc.expected {
			t.Errorf("PrefixRunes(%d) = %q, want %q", tc.n, got, tc.expected)
		}
	}
}

func TestStringWidthAndTruncateWidth(t *testing.T) {
	if w := StringWidth("hello世界"); w != 9 {
		t.Errorf("StringWidth = %d, want 9", w)
	}
	if got := TruncateWidth("hello", 10); got != "hello" {
		t.Errorf("TruncateWidth short = %q", got)
	}
	got := TruncateWidth("hello world", 6)
	if StringWidth(got) > 6 {
		t.Errorf("TruncateWidth(%q) width %d > 6", got, StringWidth(got))
	}
	if TruncateWidth("hello", 0) != "" {
		t.Error("zero width should produce empty string")
	}
	if RuneLen("日本語") != 3 {
		t.Error("RuneLen should count characters")
	}
}
