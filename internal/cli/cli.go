// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"runtime"
	"sort"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	// CmdDefault picks the TUI or the REPL from the terminal and config.
	CmdDefault Command = iota
	CmdTUI
	CmdChat
	CmdAsk
	CmdUpload
	CmdConfig
	CmdDoctor
	CmdVersion
	CmdHelp
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CmdDefault:
		return "default"
	case CmdTUI:
		return "tui"
	case CmdChat:
		return "chat"
	case CmdAsk:
		return "ask"
	case CmdUpload:
		return "upload"
	case CmdConfig:
		return "config"
	case CmdDoctor:
		return "doctor"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// commandNames maps every spelling, aliases included, to its command.
var commandNames = map[string]Command{
	"tui":     CmdTUI,
	"chat":    CmdChat,
	"repl":    CmdChat,
	"ask":     CmdAsk,
	"a":       CmdAsk,
	"upload":  CmdUpload,
	"up":      CmdUpload,
	"config":  CmdConfig,
	"doctor":  CmdDoctor,
	"diag":    CmdDoctor,
	"version": CmdVersion,
	"help":    CmdHelp,
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Model       string
	Backend     string
	Retries     int
	ConfigFile  string
	MetricsAddr string
	Plain       bool
	TUI         bool
	Quiet       bool
	Verbose     bool
	JSON        bool
	NoColor     bool

	// Command-specific
	Query      string
	Files      []string
	Subcommand string
	ConfigKey  string
	ConfigVal  string

	// Raw holds the positional arguments after the command name.
	Raw []string
}

// boolFlagNames never take a value.
var boolFlagNames = []string{
	"plain", "tui", "quiet", "q", "verbose", "v", "json", "no-color", "help", "h", "version",
}

// valueFlagNames take a value.
var valueFlagNames = []string{
	"model", "m", "backend", "b", "retries", "r", "config", "c", "metrics",
}

const usageText = `talkchat - streaming chat client for a self-hosted LLM backend

Usage:
  talkchat                       Start chatting (TUI on a terminal)
  talkchat tui                   Full-screen chat
  talkchat chat                  Line-mode chat
  talkchat ask "question"        Ask a single question
  talkchat upload FILE...        Upload PDF or text documents
  talkchat config [subcommand]   Configuration
  talkchat doctor                Check config and backend reachability
  talkchat version               Show version

Ask:
  talkchat ask "explain backoff"
  echo "summarize this" | talkchat ask
  talkchat ask --json "hello"     Print the result as JSON

Config Subcommands:
  talkchat config show           Print the effective configuration
  talkchat config get KEY        Print one value (e.g. retry.max_attempts)
  talkchat config set KEY VALUE  Change a value and save it
  talkchat config keys           List settable keys
  talkchat config path           Print the config file location
  talkchat config init           Write the defaults to the config file

Chat Commands (inside tui and chat):
  /help                          Show commands
  /model [id]                    Show or switch the model
  /models                        List models
  /upload FILE                   Upload a document
  /history                       Show the conversation
  /quit                          Exit

Global Flags:
  -m, --model ID                 Model id or display name
  -b, --backend URL              Backend host (default localhost:8000)
  -r, --retries N                Attempts per prompt (1-10)
  -c, --config FILE              Config file (default ~/.talkchat/config.toml)
      --metrics ADDR             Serve /healthz, /stats and /metrics on ADDR
      --plain                    Use line mode even on a terminal
      --tui                      Force the full-screen UI
  -q, --quiet                    Minimal output
  -v, --verbose                  Debug logging
      --json                     JSON output (ask, upload, config, doctor)
      --no-color                 Disable colors

Environment:
  TALKCHAT_BACKEND_URL, TALKCHAT_DEFAULT_MODEL, TALKCHAT_DEFAULT_MODEL_NAME,
  TALKCHAT_MAX_RETRIES, TALKCHAT_LOG_LEVEL, TALKCHAT_METRICS_ADDR,
  NO_COLOR. A .env file in the working directory is read too.

Version: %s
`

// PrintUsage writes the usage text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "talkchat version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go:         %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Parse parses command-line arguments (without the program name).
func Parse(argv []string) (Command, Args, error) {
	p := NewArgParser(argv, boolFlagNames...)
	var args Args

	if err := checkFlags(p); err != nil {
		return CmdHelp, args, err
	}

	args.Model = p.Flag("model", "m")
	args.Backend = p.Flag("backend", "b")
	args.ConfigFile = p.Flag("config", "c")
	args.MetricsAddr = p.Flag("metrics")
	args.Plain = p.BoolFlag("plain")
	args.TUI = p.BoolFlag("tui")
	args.Quiet = p.BoolFlag("quiet", "q")
	args.Verbose = p.BoolFlag("verbose", "v")
	args.JSON = p.BoolFlag("json")
	args.NoColor = p.BoolFlag("no-color")

	if n, ok, err := p.FlagInt("retries", "r"); err != nil {
		return CmdHelp, args, &ValidationError{Field: "--retries", Value: p.Flag("retries", "r"), Reason: "must be an integer", Example: "--retries 3"}
	} else if ok {
		args.Retries = n
	}

	if args.Plain && args.TUI {
		return CmdHelp, args, &ValidationError{Field: "--plain", Reason: "cannot be combined with --tui"}
	}

	if p.BoolFlag("help", "h") {
		return CmdHelp, args, nil
	}
	if p.BoolFlag("version") {
		return CmdVersion, args, nil
	}

	if p.PositionalCount() == 0 {
		return CmdDefault, args, nil
	}

	name := strings.ToLower(p.Subcommand())
	cmd, ok := commandNames[name]
	if !ok {
		return CmdHelp, args, unknownCommandError(p.Subcommand())
	}
	args.Raw = p.PositionalFrom(1)

	switch cmd {
	case CmdAsk:
		args.Query = strings.TrimSpace(strings.Join(args.Raw, " "))
	case CmdUpload:
		if len(args.Raw) == 0 {
			return cmd, args, ErrMissingArgument("file", "talkchat upload FILE...")
		}
		args.Files = args.Raw
	case CmdConfig:
		parseConfigArgs(&args)
	}
	return cmd, args, nil
}

func parseConfigArgs(args *Args) {
	args.Subcommand = "show"
	if len(args.Raw) > 0 {
		args.Subcommand = strings.ToLower(args.Raw[0])
	}
	if len(args.Raw) > 1 {
		args.ConfigKey = args.Raw[1]
	}
	if len(args.Raw) > 2 {
		args.ConfigVal = strings.Join(args.Raw[2:], " ")
	}
}

// checkFlags rejects flags that no command understands.
func checkFlags(p *ArgParser) error {
	known := make(map[string]bool, len(boolFlagNames)+len(valueFlagNames))
	for _, n := range boolFlagNames {
		known[n] = true
	}
	for _, n := range valueFlagNames {
		known[n] = true
	}

	for _, n := range valueFlagNames {
		if p.boolFlags[n] {
			return &ValidationError{Field: "--" + n, Reason: "requires a value"}
		}
	}

	var unknown []string
	for _, n := range p.FlagNames() {
		if !known[n] {
			unknown = append(unknown, "--"+n)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return &ValidationError{
		Field:   "flag",
		Value:   strings.Join(unknown, ", "),
		Reason:  "unknown flag",
		Example: "talkchat help",
	}
}

func unknownCommandError(name string) error {
	reason := "unknown command"
	example := "talkchat help"
	if s := SuggestCommand(name); s != "" {
		example = "did you mean 'talkchat " + s + "'?"
	}
	return &ValidationError{Field: "command", Value: name, Reason: reason, Example: example}
}
