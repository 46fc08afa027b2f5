// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import "github.com/mattn/go-runewidth"

// UNICODE: all helpers count runes or display cells, never bytes, so a
// multi-byte character is never split.

// TruncateRunes keeps at most maxRunes characters. When it cuts, the last
// three characters are replaced by "...".
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// PrefixRunes returns the first n characters of runes.
func PrefixRunes(runes []rune, n int) string {
	if n <= 0 {
		return ""
	}
	if n > len(runes) {
		n = len(runes)
	}
	return string(runes[:n])
}

// TruncateWidth truncates s to maxWidth terminal cells, ending in "…"
// when it cuts. Wide (CJK) characters count as two cells.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	return runewidth.Truncate(s, maxWidth, "…")
}

// StringWidth returns the display width of s in terminal cells.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// RuneLen returns the number of characters in s.
func RuneLen(s string) int {
	return len([]rune(s))
}
