// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidTurn is returned by Commit when the pair is not a user prompt
// followed by an assistant reply.
var ErrInvalidTurn = errors.New("invalid turn")

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is the ordered history of committed turns. It lives only for
// the current process. Commit is the only mutation; readers on other
// goroutines are safe.
type Conversation struct {
	ID        string
	CreatedAt time.Time

	mu        sync.RWMutex
	messages  []Message
	updatedAt time.Time
}

// NewConversation creates an empty conversation with a generated ID.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        uuid.NewString(),
		CreatedAt: now,
		updatedAt: now,
	}
}

// Commit appends one acknowledged turn: the user's prompt and the
// assistant's reply, both or neither.
func (c *Conversation) Commit(user, assistant Message) error {
	if user.Role != RoleUser {
		return fmt.Errorf("%w: first message has role %q, want %q", ErrInvalidTurn, user.Role, RoleUser)
	}
	if assistant.Role != RoleAssistant {
		return fmt.Errorf("%w: second message has role %q, want %q", ErrInvalidTurn, assistant.Role, RoleAssistant)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, user, assistant)
	c.updatedAt = time.Now()
	return nil
}

// Messages returns the committed history in order. The returned slice is
// capacity-capped, so later commits never write into it.
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := len(c.messages)
	return c.messages[:n:n]
}

// Len returns the number of committed messages.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// Turns returns the number of committed turns.
func (c *Conversation) Turns() int {
	return c.Len() / 2
}

// IsEmpty returns true if nothing has been committed yet.
func (c *Conversation) IsEmpty() bool {
	return c.Len() == 0
}

// UpdatedAt returns the time of the last commit.
func (c *Conversation) UpdatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatedAt
}
