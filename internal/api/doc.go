// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the parley chat backend.
//
// Two endpoints are used:
//
//	POST /ask                {message, system_prompt, user_id} -> {response} | {message}
//	GET  /history/{user_id}  -> {messages: [{role, content, timestamp}]}
//
// Non-2xx responses carry {detail} or {message}; the text is surfaced
// verbatim through ClientError.Message. Requests are throttled with a
// token bucket (golang.org/x/time/rate) and every request honours its
// context, so callers bound them with context.WithTimeout.
package api
