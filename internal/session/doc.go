// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the conversation state of one chat session.
//
// # Key Types
//
//   - Controller: accepts user input, gates it on quota and on the
//     history load, calls the backend and reveals replies
//   - ReplyMsg: Bubble Tea message carrying a chat call outcome
//   - Status: read-only snapshot for the view layer
//
// # Usage
//
// The controller is driven by a Bubble Tea Update loop:
//
//	ctrl := session.New(session.Options{Client: client, Profile: profile})
//	cmd := ctrl.Init()              // loads history
//	cmd = ctrl.Submit("hello")      // nil when the input is refused
//	cmd = ctrl.Update(msg)          // feed every message back in
//	defer ctrl.Close()
//
// Outside Bubble Tea, Pump runs the same commands synchronously.
//
// # Lifecycle
//
// A submission moves Idle -> Sending -> Revealing -> Idle. A failed call
// appends a diagnostic reply at once and returns straight to Idle.
// Nothing can be submitted until the history load has finished.
package session
