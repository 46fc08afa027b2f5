// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions shared across parley packages.
//
// String Utilities:
//   - TruncateRunes, PrefixRunes: UTF-8 safe character slicing
//   - TruncateWidth, StringWidth: terminal-cell aware sizing (go-runewidth)
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync and rename
package util
