// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestConversation_CommitAppendsTurn(t *testing.T) {
	conv := NewConversation()
	assert.True(t, conv.IsEmpty())
	assert.NotEmpty(t, conv.ID)

	require.NoError(t, conv.Commit(UserMessage("hi"), AssistantMessage("hello")))
	require.NoError(t, conv.Commit(UserMessage("again"), AssistantMessage("sure")))

	assert.Equal(t, 4, conv.Len())
	assert.Equal(t, 2, conv.Turns())
	assert.Equal(t, []Message{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleUser, Content: "again"},
		{Role: RoleAssistant, Content: "sure"},
	}, conv.Messages())
}

func TestConversation_CommitRejectsInvalidTurn(t *testing.T) {
	conv := NewConversation()

	err := conv.Commit(AssistantMessage("x"), AssistantMessage("y"))
	assert.ErrorIs(t, err, ErrInvalidTurn)

	err = conv.Commit(UserMessage("x"), SystemMessage("y"))
	assert.ErrorIs(t, err, ErrInvalidTurn)

	assert.Equal(t, 0, conv.Len())
}

func TestConversation_MessagesViewIsStable(t *testing.T) {
	conv := NewConversation()
	require.NoError(t, conv.Commit(UserMessage("a"), AssistantMessage("b")))

	view := conv.Messages()
	require.NoError(t, conv.Commit(UserMessage("c"), AssistantMessage("d")))

	assert.Len(t, view, 2)
	assert.Equal(t, 2, cap(view))

	// Appending to a view must not leak into the conversation.
	_ = append(view, UserMessage("leak"))
	assert.Equal(t, "c", conv.Messages()[2].Content)
}

func TestRole(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleSystem.Valid())
	assert.False(t, Role("tool").Valid())
	assert.Equal(t, "You", RoleUser.DisplayName())
	assert.Equal(t, "Assistant", RoleAssistant.DisplayName())
	assert.Equal(t, "tool", Role("tool").DisplayName())
}

// =============================================================================
// MODEL CATALOG TESTS
// =============================================================================

func TestLookupModel(t *testing.T) {
	m, ok := LookupModel("openai/gpt-oss-20b:free")
	assert.True(t, ok)
	assert.Equal(t, "gpt-oss-20b", m.Label())

	m, ok = LookupModel("llama 3.3 8b instruct")
	assert.True(t, ok)
	assert.Equal(t, "meta-llama/llama-3.3-8b-instruct:free", m.ID)

	m, ok = LookupModel("custom/model")
	assert.False(t, ok)
	assert.Equal(t, "custom/model", m.Label())
}
