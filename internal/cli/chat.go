// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/jeranaias/talkchat/internal/commands"
	"github.com/jeranaias/talkchat/internal/config"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// InputReader reads one line of user input.
type InputReader interface {
	ReadInput(prompt string) (string, error)
	Close()
}

// ChatCLI provides input history and line editing for the chat REPL.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with persistent input history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	c := &ChatCLI{line: line, historyFile: filepath.Join(dir, "chat_history")}
	c.LoadHistory()
	return c
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line, recording non-empty input in the history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory writes the history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0o700); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChat runs the line-mode chat REPL.
func HandleChat(args Args) error {
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

	// Ctrl+C while a reply streams aborts the reply, not the program.
	// At the prompt liner reports it as ErrPromptAborted instead.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			sess.Chat.Cancel()
		}
	}()

	in := NewChatCLI()
	defer in.Close()
	return RunREPL(context.Background(), sess, in, os.Stdout, args.Quiet)
}

// RunREPL reads prompts and slash commands from in until EOF or /quit.
func RunREPL(ctx context.Context, sess *Session, in InputReader, out io.Writer, quiet bool) error {
	printer := NewStreamPrinter(out, out, quiet)
	unsubscribe := sess.Chat.Subscribe(printer.Observe)
	defer unsubscribe()

	parser := commands.NewParser(sess.Commands)
	env := sess.Env()

	if !quiet {
		printWelcome(out, sess)
	}

	for {
		input, err := in.ReadInput(PromptStyle.Render("you> "))
		if err != nil {
			// Ctrl+C at the prompt, Ctrl+D, or a closed stdin.
			fmt.Fprintln(out)
			if !errors.Is(err, io.EOF) && !errors.Is(err, liner.ErrPromptAborted) {
				sess.Log.Debug().Err(err).Msg("input closed")
			}
			printExitSummary(out, sess, quiet)
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		res := parser.Parse(input)
		if res.IsCommand {
			reply, err := sess.Commands.Execute(ctx, env, res)
			if err != nil {
				fmt.Fprintf(out, "%s %v\n", ErrorStyle.Render("[Error]"), err)
				continue
			}
			if reply.Text != "" {
				fmt.Fprintln(out, reply.Text)
			}
			if reply.Quit {
				printExitSummary(out, sess, quiet)
				return nil
			}
			continue
		}

		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			printExitSummary(out, sess, quiet)
			return nil
		}

		if _, err := sess.Chat.Submit(ctx, input); err != nil {
			fmt.Fprintf(out, "%s %v\n", ErrorStyle.Render("[Error]"), err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func printWelcome(out io.Writer, sess *Session) {
	m := sess.Chat.Model()
	fmt.Fprintln(out, TitleStyle.Render("talkchat"))
	fmt.Fprintf(out, "%s%s\n", RenderLabel("Model:", 10), ValueStyle.Render(m.Label()))
	fmt.Fprintf(out, "%s%s\n", RenderLabel("Backend:", 10), ValueStyle.Render(sess.Client.BaseURL()))
	fmt.Fprintln(out, DimStyle.Render("/help for commands. Ctrl+C stops a reply, Ctrl+D exits."))
	fmt.Fprintln(out)
}

func printExitSummary(out io.Writer, sess *Session, quiet bool) {
	if quiet {
		return
	}
	turns := sess.Chat.Conversation().Turns()
	noun := "turns"
	if turns == 1 {
		noun = "turn"
	}
	fmt.Fprintln(out, DimStyle.Render(fmt.Sprintf("Session ended after %d %s.", turns, noun)))
}
