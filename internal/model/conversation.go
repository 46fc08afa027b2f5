// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import "time"

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is the ordered message log of one chat session.
// Order is insertion order. The only in-place mutation is content growth
// of an assistant message through SetContent.
type Conversation struct {
	CreatedAt time.Time
	UpdatedAt time.Time

	messages []*Message
	index    map[string]int
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		CreatedAt: now,
		UpdatedAt: now,
		messages:  make([]*Message, 0),
		index:     make(map[string]int),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage appends a message to the conversation.
func (c *Conversation) AddMessage(msg *Message) {
	c.index[msg.ID] = len(c.messages)
	c.messages = append(c.messages, msg)
	c.UpdatedAt = time.Now()
}

// AddUserMessage creates and adds a user message.
func (c *Conversation) AddUserMessage(content string) *Message {
	msg := NewUserMessage(content)
	c.AddMessage(msg)
	return msg
}

// AddAssistantMessage creates and adds an empty assistant message.
func (c *Conversation) AddAssistantMessage() *Message {
	msg := NewAssistantMessage()
	c.AddMessage(msg)
	return msg
}

// AddAssistantText creates and adds an assistant message with its full text.
func (c *Conversation) AddAssistantText(content string) *Message {
	msg := NewMessage(RoleAssistant, content)
	c.AddMessage(msg)
	return msg
}

// SetContent replaces the content of an assistant message in place.
// User messages are immutable; the call reports false for them and for
// unknown IDs.
func (c *Conversation) SetContent(id, content string) bool {
	msg := c.GetMessageByID(id)
	if msg == nil || msg.Role != RoleAssistant {
		return false
	}
	msg.Content = content
	c.UpdatedAt = time.Now()
	return true
}

// Replace swaps the whole log for msgs.
func (c *Conversation) Replace(msgs []*Message) {
	c.messages = make([]*Message, 0, len(msgs))
	c.index = make(map[string]int, len(msgs))
	for _, m := range msgs {
		c.AddMessage(m)
	}
}

// ClearHistory removes all messages from the conversation.
func (c *Conversation) ClearHistory() {
	c.Replace(nil)
}

// GetMessageByID returns a message by its ID.
func (c *Conversation) GetMessageByID(id string) *Message {
	i, ok := c.index[id]
	if !ok {
		return nil
	}
	return c.messages[i]
}

// GetLastMessage returns the most recent message, or nil if empty.
func (c *Conversation) GetLastMessage() *Message {
	if len(c.messages) == 0 {
		return nil
	}
	return c.messages[len(c.messages)-1]
}

// Messages returns a snapshot of the log. The returned values are copies.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	for i, m := range c.messages {
		out[i] = *m
	}
	return out
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.messages) == 0
}
