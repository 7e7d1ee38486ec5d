// talkchat - a terminal chat client for a streaming LLM backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/talkchat/internal/cli"
	"github.com/jeranaias/talkchat/internal/config"
	"github.com/jeranaias/talkchat/internal/ui/chat"
	"github.com/jeranaias/talkchat/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args, err := cli.Parse(os.Args[1:])
	if err != nil {
		cli.HandleErrorAndExit(err, args.JSON)
	}

	switch cmd {
	case cli.CmdDefault:
		err = runDefault(args)
	case cli.CmdTUI:
		err = runTUI(args, nil)
	case cli.CmdChat:
		err = cli.HandleChat(args)
	case cli.CmdAsk:
		err = cli.HandleAsk(args)
	case cli.CmdUpload:
		err = cli.HandleUpload(args)
	case cli.CmdConfig:
		err = cli.HandleConfig(args)
	case cli.CmdDoctor:
		err = cli.HandleDoctor(args)
	case cli.CmdVersion:
		cli.PrintVersion(os.Stdout)
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
	}

	cli.HandleErrorAndExit(err, args.JSON)
}

// runDefault starts the full-screen UI on a terminal and the line REPL
// otherwise.
func runDefault(args cli.Args) error {
	cfg, err := cli.LoadConfig(args)
	if err != nil {
		return err
	}
	if cli.PreferTUI(cfg, args) {
		return runTUI(args, cfg)
	}
	return cli.HandleChat(args)
}

// runTUI runs the full-screen chat. Logs go to the log file while the
// terminal belongs to the UI. A nil cfg is loaded from args.
func runTUI(args cli.Args, cfg *config.Config) error {
	if cfg == nil {
		var err error
		if cfg, err = cli.LoadConfig(args); err != nil {
			return err
		}
	}

	sess, err := cli.OpenSession(cfg, cli.SessionOptions{TUI: true})
	if err != nil {
		return err
	}
	defer sess.Close()

	theme := styles.NewTheme()
	if cfg.UI.NoColor || !cli.ColorsEnabled() {
		lipgloss.SetColorProfile(termenv.Ascii)
		theme = styles.NewThemeFor(termenv.Ascii, theme.IsDark)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	return chat.Run(ctx, chat.Options{
		Chat:     sess.Chat,
		Commands: sess.Commands,
		Env:      sess.Env(),
		Backend:  sess.Client.BaseURL(),
		Theme:    theme,
		Log:      sess.Log.With().Str("component", "tui").Logger(),
	})
}
