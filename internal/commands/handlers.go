// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jeranaias/talkchat/internal/model"
	"github.com/jeranaias/talkchat/internal/util"
)

// historyPreviewWidth bounds each line of /history output.
const historyPreviewWidth = 72

func (r *Registry) handleHelp(_ context.Context, _ *Env, _ []string) (Reply, error) {
	groups := r.ByCategory()
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s:\n", name)
		for _, cmd := range groups[name] {
			fmt.Fprintf(&b, "  %s %s\n", util.PadWidth(cmd.Usage, 18), cmd.Description)
		}
	}
	return Reply{Text: strings.TrimRight(b.String(), "\n")}, nil
}

func handleQuit(_ context.Context, _ *Env, _ []string) (Reply, error) {
	return Reply{Quit: true}, nil
}

func handleModel(_ context.Context, env *Env, args []string) (Reply, error) {
	current := env.Chat.Model()
	if len(args) == 0 {
		return Reply{Text: fmt.Sprintf("Current model: %s (%s)", current.Label(), current.ID)}, nil
	}

	m, known := lookupIn(env.models(), strings.Join(args, " "))
	if err := env.Chat.SetModel(m); err != nil {
		return Reply{}, err
	}
	text := fmt.Sprintf("Switched to %s", m.Label())
	if !known {
		text += " (not in catalog)"
	}
	return Reply{Text: text}, nil
}

func handleModels(_ context.Context, env *Env, _ []string) (Reply, error) {
	current := env.Chat.Model()
	var b strings.Builder
	for _, m := range env.models() {
		marker := " "
		if m.ID == current.ID {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %s  %s\n", marker, util.PadWidth(m.Label(), 24), m.ID)
	}
	return Reply{Text: strings.TrimRight(b.String(), "\n")}, nil
}

func handleUpload(ctx context.Context, env *Env, args []string) (Reply, error) {
	if env.Uploader == nil {
		return Reply{}, ErrUploadUnavailable
	}
	path := strings.Join(args, " ")
	res, err := env.Uploader.UploadDocument(ctx, path)
	if err != nil {
		return Reply{}, err
	}
	text := fmt.Sprintf("Uploaded %s (status %d)", filepath.Base(path), res.StatusCode)
	if res.Detail != "" {
		text += ": " + res.Detail
	}
	return Reply{Text: text}, nil
}

func handleHistory(_ context.Context, env *Env, _ []string) (Reply, error) {
	msgs := env.Chat.Conversation().Messages()
	if len(msgs) == 0 {
		return Reply{Text: "No messages yet."}, nil
	}
	var b strings.Builder
	for i, m := range msgs {
		line := util.TruncateWidth(util.FirstLine(m.Content), historyPreviewWidth)
		fmt.Fprintf(&b, "[%d] %s: %s\n", i+1, m.Role.DisplayName(), line)
	}
	return Reply{Text: strings.TrimRight(b.String(), "\n")}, nil
}

// lookupIn resolves an id or display name against a catalog. Unknown
// names are kept as raw ids.
func lookupIn(catalog []model.ModelInfo, nameOrID string) (model.ModelInfo, bool) {
	nameOrID = strings.TrimSpace(nameOrID)
	for _, m := range catalog {
		if m.ID == nameOrID || strings.EqualFold(m.Name, nameOrID) {
			return m, true
		}
	}
	return model.LookupModel(nameOrID)
}
