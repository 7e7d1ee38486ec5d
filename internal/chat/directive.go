// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/talkchat/internal/backend"
	"github.com/jeranaias/talkchat/internal/model"
)

// FormattingDirective is sent as a system message with every request.
const FormattingDirective = `Format all responses using proper markdown syntax for optimal display in chat interfaces:

- Use headings (##, ###) to organize longer answers into sections.
- Use **bold** for key terms and *italics* sparingly for emphasis.
- Use bulleted or numbered lists for steps, options and enumerations.
- Put code in fenced blocks with a language tag, and inline identifiers in backticks.
- Use tables only for genuinely tabular comparisons.
- Keep paragraphs short and separate them with blank lines.
- Do not wrap the whole reply in a code block.

Remember: Use markdown to enhance readability, not complicate it. The goal is clear, well-structured responses that are easy to scan and understand.`

// buildRequest composes the outbound payload: committed history, the
// directive, the prompt and a trailing empty assistant entry. The trailing
// entry is a reserved slot for retrieved context and is always empty.
func buildRequest(history []model.Message, directive, prompt, modelID string) backend.ChatRequest {
	msgs := make([]backend.ChatMessage, 0, len(history)+3)
	for _, m := range history {
		msgs = append(msgs, backend.ChatMessage{Role: m.Role.String(), Content: m.Content})
	}
	if directive != "" {
		msgs = append(msgs, backend.ChatMessage{Role: model.RoleSystem.String(), Content: directive})
	}
	msgs = append(msgs,
		backend.ChatMessage{Role: model.RoleUser.String(), Content: prompt},
		backend.ChatMessage{Role: model.RoleAssistant.String(), Content: ""},
	)
	return backend.ChatRequest{Messages: msgs, Model: modelID}
}
