// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the durable key/value store behind parley's
// session bookkeeping.
//
// Store is a synchronous string-keyed facade with Get, Set and Remove.
// Three backends implement it:
//
//   - Memory: process-local map, used by tests and --store=memory
//   - File: a JSON object written atomically on every change
//   - SQLite: a single kv table in a modernc.org/sqlite database
//
// Profile layers typed access on top of a Store for the fields the chat
// session mirrors: plan tier, sent counter, identity and the bounded
// recent-activity log.
package storage
