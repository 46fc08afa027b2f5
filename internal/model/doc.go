// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Conversation: the ordered message log of one chat session
//   - Message: single message with role, content and a time-ordered ID
//   - Role: message role enumeration (user, assistant)
//   - Plan: the plan tier governing the send quota (Free, Pro)
//
// # Usage
//
//	conv := model.NewConversation()
//	user := conv.AddUserMessage("Hello!")
//	reply := conv.AddAssistantMessage()
//	conv.SetContent(reply.ID, "Hi")
package model
