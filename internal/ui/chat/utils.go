// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"time"

	"github.com/jeranaias/parley-tui/internal/session"
)

// =============================================================================
// FORMATTING UTILITIES
// =============================================================================

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	now := time.Now()

	// Today: just time
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}

	// This week: day and time
	if now.Sub(t) < 7*24*time.Hour {
		return t.Format("Mon 15:04")
	}

	// Older: date and time
	return t.Format("Jan 2 15:04")
}

// diagnosticPrefix is the start of every failed-call reply.
var diagnosticPrefix = strings.SplitN(session.ErrorTemplate, "%", 2)[0]

// isDiagnostic reports whether content is a failed-call reply.
func isDiagnostic(content string) bool {
	return strings.HasPrefix(content, diagnosticPrefix)
}
