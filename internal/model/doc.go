// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Message: immutable role/content value; identity is its position
//   - Conversation: append-only history of committed turns
//   - ModelInfo: identifier and display name of a selectable model
//
// # Usage
//
//	conv := model.NewConversation()
//	err := conv.Commit(model.UserMessage("Hello"), model.AssistantMessage("Hi!"))
//	for _, msg := range conv.Messages() {
//	    fmt.Println(msg.Role.DisplayName(), msg.Content)
//	}
//
// A Conversation only grows through Commit, which appends a whole turn
// (user prompt plus assistant reply) at once; partially streamed replies
// never enter it.
package model
