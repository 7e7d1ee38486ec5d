// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/talkchat/internal/backend"
	"github.com/jeranaias/talkchat/internal/chat"
	"github.com/jeranaias/talkchat/internal/commands"
	"github.com/jeranaias/talkchat/internal/config"
	"github.com/jeranaias/talkchat/internal/logging"
	"github.com/jeranaias/talkchat/internal/metrics"
	"github.com/jeranaias/talkchat/internal/model"
	"github.com/jeranaias/talkchat/internal/server"
)

// serverShutdownTimeout bounds the status server's graceful stop.
const serverShutdownTimeout = 5 * time.Second

// =============================================================================
// CONFIGURATION
// =============================================================================

// LoadConfig loads the configuration and applies command-line overrides,
// which win over the file and the environment.
func LoadConfig(args Args) (*config.Config, error) {
	path := args.ConfigFile
	if path == "" {
		p, err := config.ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}

	cfg, err := config.LoadFrom(path, ".env")
	if err != nil {
		return nil, err
	}
	if err := applyFlagOverrides(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlagOverrides(cfg *config.Config, args Args) error {
	if args.Backend != "" {
		cfg.Backend.URL = args.Backend
	}
	if args.Model != "" {
		m, _ := model.LookupModel(args.Model)
		cfg.Model.Default = m.ID
		cfg.Model.DefaultName = m.Name
	}
	if args.Retries != 0 {
		cfg.Retry.MaxAttempts = args.Retries
	}
	if args.MetricsAddr != "" {
		cfg.Metrics.Addr = args.MetricsAddr
	}
	if args.NoColor {
		cfg.UI.NoColor = true
	}
	if args.Verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

// PreferTUI decides between the full-screen UI and line mode. Flags beat
// ui.mode; "auto" needs a terminal on both stdin and stdout.
func PreferTUI(cfg *config.Config, args Args) bool {
	switch {
	case args.TUI:
		return true
	case args.Plain:
		return false
	}
	switch strings.ToLower(cfg.UI.Mode) {
	case "tui":
		return true
	case "plain":
		return false
	}
	return IsTTY() && IsStdoutTTY()
}

// =============================================================================
// SESSION
// =============================================================================

// SessionOptions controls how OpenSession wires logging.
type SessionOptions struct {
	// TUI sends logs to the log file; the terminal belongs to the UI.
	TUI bool
	// Verbose keeps the configured level for line-mode front ends, which
	// otherwise only log warnings.
	Verbose bool
	// LogOut overrides the log destination (tests).
	LogOut io.Writer
}

// Session is a wired backend client, orchestrator and optional status
// server.
type Session struct {
	Config   *config.Config
	Log      zerolog.Logger
	Client   *backend.Client
	Chat     *chat.Orchestrator
	Metrics  *metrics.Collector
	Commands *commands.Registry

	server  *server.Server
	logFile *os.File
}

// OpenSession builds a Session from cfg.
func OpenSession(cfg *config.Config, opts SessionOptions) (*Session, error) {
	s := &Session{Config: cfg}

	log, err := s.openLogger(opts)
	if err != nil {
		return nil, err
	}
	s.Log = log

	client, err := backend.NewClient(cfg.Backend.URL)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Client = client.
		WithChatPath(cfg.Backend.ChatPath).
		WithUploadPath(cfg.Backend.UploadPath).
		WithMaxUploadSize(cfg.MaxUploadBytes()).
		WithLogger(log)

	s.Metrics = metrics.New()
	s.Chat = chat.New(s.Client, model.NewConversation(),
		chat.WithPolicy(cfg.RetryPolicy()),
		chat.WithModel(cfg.DefaultModel()),
		chat.WithLogger(log),
		chat.WithMetrics(s.Metrics),
	)
	s.Commands = commands.NewRegistry()

	if cfg.Metrics.Addr != "" {
		s.server = server.New(cfg.Metrics.Addr, s.Chat, s.Metrics, log)
		go func() {
			if err := s.server.Start(); err != nil {
				s.Log.Error().Err(err).Str("addr", cfg.Metrics.Addr).Msg("status server failed")
			}
		}()
	}

	s.Log.Debug().
		Str("backend", s.Client.ChatURL()).
		Str("model", cfg.Model.Default).
		Int("max_attempts", cfg.Retry.MaxAttempts).
		Msg("session opened")
	return s, nil
}

func (s *Session) openLogger(opts SessionOptions) (zerolog.Logger, error) {
	cfg := s.Config
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return zerolog.Logger{}, err
	}
	format, err := logging.ParseFormat(cfg.Log.Format)
	if err != nil {
		return zerolog.Logger{}, err
	}

	out := opts.LogOut
	tty := false
	switch {
	case out != nil:
	case opts.TUI:
		path, err := cfg.LogPath()
		if err != nil {
			return zerolog.Logger{}, err
		}
		f, err := logging.OpenFile(filepath.Dir(path), filepath.Base(path))
		if err != nil {
			return zerolog.Logger{}, err
		}
		s.logFile = f
		out = f
	default:
		out = os.Stderr
		tty = IsStderrTTY()
		if !opts.Verbose && level < zerolog.WarnLevel {
			level = zerolog.WarnLevel
		}
	}

	return logging.New(out, logging.Options{Level: level, Format: format, TTY: tty}), nil
}

// Env returns the slash-command environment for this session.
func (s *Session) Env() *commands.Env {
	return &commands.Env{Chat: s.Chat, Uploader: s.Client}
}

// Close stops the status server and closes the log file.
func (s *Session) Close() {
	if s.Chat != nil {
		s.Chat.Cancel()
	}
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
		if err := s.server.Shutdown(ctx); err != nil {
			s.Log.Warn().Err(err).Msg("status server shutdown failed")
		}
		cancel()
	}
	if s.logFile != nil {
		_ = s.logFile.Close()
		s.logFile = nil
	}
}
