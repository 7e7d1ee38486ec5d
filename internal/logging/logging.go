// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the zerolog loggers used across talkchat.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Format selects the log encoding.
type Format int

const (
	// FormatAuto picks console output for terminals and JSON otherwise.
	FormatAuto Format = iota
	FormatConsole
	FormatJSON
)

// ParseFormat converts a config string to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "console", "text", "pretty":
		return FormatConsole, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatAuto, fmt.Errorf("unknown log format %q", s)
}

// ParseLevel converts a config string to a zerolog level. Empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
	return lvl, nil
}

// Options configures New.
type Options struct {
	Level  zerolog.Level
	Format Format
	// TTY reports whether Out is an interactive terminal (for FormatAuto).
	TTY bool
}

// New returns a logger writing to out.
func New(out io.Writer, opts Options) zerolog.Logger {
	format := opts.Format
	if format == FormatAuto {
		if opts.TTY {
			format = FormatConsole
		} else {
			format = FormatJSON
		}
	}

	var logger zerolog.Logger
	if format == FormatConsole {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(out)
	}
	return logger.Level(opts.Level).With().Timestamp().Logger()
}

// OpenFile opens (or creates) a log file under dir for appending. The TUI
// owns the terminal, so its logs go here instead of stderr.
func OpenFile(dir, name string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// Nop returns a disabled logger.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
