// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides a development backend that speaks parley's wire
// contract. It performs no inference: replies come from a Responder, which
// by default echoes the prompt.
//
// # Endpoints
//
//   - POST /ask                - {"message","system_prompt","user_id"} -> {"response"}
//   - GET  /history/{user_id}  - {"messages":[{"role","content","timestamp"}]}
//   - GET  /health             - Health check
//   - GET  /stats              - Request counters
//
// Errors use the same shape as the real backend: {"detail": "..."}.
//
// # Middleware
//
//   - Panic recovery with stack trace logging
//   - Security headers
//   - CORS for browser clients on localhost
//   - Per-IP token-bucket rate limiting
//   - Request logging
//
// # Usage
//
//	srv := server.New(server.Config{Addr: "127.0.0.1:8000"}, log)
//	go srv.Start()
//	defer srv.Shutdown(ctx)
package server
