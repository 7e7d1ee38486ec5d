// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jeranaias/talkchat/internal/chat"
)

// maxStdinPrompt caps a prompt piped on stdin.
const maxStdinPrompt = 1 << 20

// HandleAsk sends one prompt and streams the reply to stdout.
//
//	talkchat ask "What is exponential backoff?"
//	git diff | talkchat ask
func HandleAsk(args Args) error {
	question := args.Query
	if question == "" && !IsTTY() {
		q, err := readPrompt(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		question = q
	}
	if question == "" {
		return ErrMissingArgument("question", `talkchat ask "your question"`)
	}

	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	if cfg.UI.NoColor {
		ForceColorsEnabled(false)
	}
	sess, err := OpenSession(cfg, SessionOptions{Verbose: args.Verbose})
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return RunAsk(ctx, sess, question, os.Stdout, os.Stderr, args)
}

// RunAsk submits question on sess. Reply text goes to out as it streams,
// unless args.JSON asks for a single JSON document at the end.
func RunAsk(ctx context.Context, sess *Session, question string, out, errOut io.Writer, args Args) error {
	if !args.JSON {
		// No label, so the reply can be piped.
		printer := NewStreamPrinter(out, errOut, args.Quiet).HideLabel().SilenceFailure()
		unsubscribe := sess.Chat.Subscribe(printer.Observe)
		defer unsubscribe()
	}

	start := time.Now()
	res, err := sess.Chat.Submit(ctx, question)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	sess.Log.Debug().
		Str("outcome", res.Outcome.String()).
		Int("attempts", res.Attempts).
		Dur("elapsed", elapsed).
		Msg("ask finished")

	switch res.Outcome {
	case chat.OutcomeExhausted:
		return res.Err
	case chat.OutcomeAborted:
		return context.Canceled
	}

	if args.JSON {
		return NewJSONResponse("ask", AskData{
			Model:      sess.Chat.Model().ID,
			Outcome:    res.Outcome.String(),
			Reply:      res.Reply,
			Attempts:   res.Attempts,
			DurationMs: elapsed.Milliseconds(),
		}).Print(out)
	}
	return nil
}

// readPrompt reads a piped prompt.
func readPrompt(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(bufio.NewReader(r), maxStdinPrompt))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
