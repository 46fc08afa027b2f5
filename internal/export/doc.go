// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes conversation transcripts to files.
//
// # Key Types
//
//   - Transcript: the turns of one identity's conversation
//   - Exporter: format-specific encoder
//   - Options: export configuration options
//
// # Supported Formats
//
//   - JSON: Machine-readable
//   - YAML: Machine-readable, easier to diff by hand
//   - Markdown: Human-readable with YAML frontmatter
//
// # Usage
//
//	t := export.FromHistory("42", remote)
//	exporter, err := export.ForFormat("md", nil)
//	path, err := export.ExportToFile(t, exporter, nil)
package export
