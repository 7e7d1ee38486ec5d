// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	ForceColorsEnabled(false)
	os.Exit(m.Run())
}

// =============================================================================
// ARG PARSER TESTS (args.go)
// =============================================================================

func TestArgParser_BasicParsing(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		bools    []string
		wantSub  string
		validate func(*testing.T, *ArgParser)
	}{
		{
			name:    "simple subcommand",
			args:    []string{"show"},
			wantSub: "show",
		},
		{
			name:    "subcommand with flag",
			args:    []string{"show", "--lines", "50"},
			wantSub: "show",
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, "50", p.Flag("lines"))
			},
		},
		{
			name:    "flag with equals",
			args:    []string{"show", "--since=2024-01-01"},
			wantSub: "show",
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, "2024-01-01", p.Flag("since"))
			},
		},
		{
			name:    "trailing boolean flag",
			args:    []string{"show", "--json"},
			wantSub: "show",
			validate: func(t *testing.T, p *ArgParser) {
				assert.True(t, p.BoolFlag("json"))
			},
		},
		{
			name:    "declared boolean keeps next positional",
			args:    []string{"ask", "--json", "hello"},
			bools:   []string{"json"},
			wantSub: "ask",
			validate: func(t *testing.T, p *ArgParser) {
				assert.True(t, p.BoolFlag("json"))
				assert.Equal(t, []string{"hello"}, p.PositionalFrom(1))
			},
		},
		{
			name:    "boolean with explicit value",
			args:    []string{"--json=false", "ask"},
			bools:   []string{"json"},
			wantSub: "ask",
			validate: func(t *testing.T, p *ArgParser) {
				assert.False(t, p.BoolFlag("json"))
				assert.True(t, p.HasFlag("json"))
			},
		},
		{
			name:    "multiple positional args",
			args:    []string{"ask", "what", "is", "backoff"},
			wantSub: "ask",
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, 4, p.PositionalCount())
				assert.Equal(t, "what is backoff", JoinPositionalArgs(p, 1))
			},
		},
		{
			name:    "mixed flags and positional",
			args:    []string{"ask", "--model", "llama3.1:8b", "Hello", "world"},
			wantSub: "ask",
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, "llama3.1:8b", p.Flag("model"))
				assert.Equal(t, []string{"Hello", "world"}, p.PositionalFrom(1))
			},
		},
		{
			name:    "double dash ends flags",
			args:    []string{"ask", "--", "--not-a-flag"},
			wantSub: "ask",
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, "--not-a-flag", p.Positional(1))
				assert.False(t, p.HasFlag("not-a-flag"))
			},
		},
		{
			name:    "lone dash is positional",
			args:    []string{"upload", "-"},
			wantSub: "upload",
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, "-", p.Positional(1))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewArgParser(tt.args, tt.bools...)
			assert.Equal(t, tt.wantSub, p.Subcommand())
			assert.Equal(t, tt.args, p.Raw())
			if tt.validate != nil {
				tt.validate(t, p)
			}
		})
	}
}

func TestArgParser_FlagInt(t *testing.T) {
	p := NewArgParser([]string{"--retries", "4", "--bad", "x"})

	n, ok, err := p.FlagInt("retries", "r")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4, n)

	_, ok, err = p.FlagInt("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = p.FlagInt("bad")
	assert.True(t, ok)
	assert.Error(t, err)
}

func TestArgParser_ShortAndLongNames(t *testing.T) {
	p := NewArgParser([]string{"-m", "mistral:7b", "-q"}, "q")
	assert.Equal(t, "mistral:7b", p.Flag("model", "m"))
	assert.True(t, p.BoolFlag("quiet", "q"))
	assert.Equal(t, "fallback", p.FlagOrDefault("backend", "fallback"))
	assert.ElementsMatch(t, []string{"m", "q"}, p.FlagNames())
}

func TestArgParser_EmptyArgs(t *testing.T) {
	p := NewArgParser(nil)
	assert.Equal(t, "", p.Subcommand())
	assert.Equal(t, 0, p.PositionalCount())
	assert.Equal(t, "", p.Positional(0))
	assert.Empty(t, p.PositionalFrom(1))
}

func TestParseBoolString(t *testing.T) {
	tests := []struct {
		input   string
		want    bool
		wantErr bool
	}{
		{"true", true, false},
		{"YES", true, false},
		{"y", true, false},
		{"1", true, false},
		{"on", true, false},
		{"false", false, false},
		{"No", false, false},
		{"0", false, false},
		{"off", false, false},
		{" true ", true, false},
		{"maybe", false, true},
		{"", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBoolString(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// =============================================================================
// PARSE TESTS (cli.go)
// =============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		argv     []string
		wantCmd  Command
		validate func(*testing.T, Args)
	}{
		{
			name:    "no arguments",
			argv:    nil,
			wantCmd: CmdDefault,
		},
		{
			name:    "ask joins the question",
			argv:    []string{"ask", "what", "is", "go"},
			wantCmd: CmdAsk,
			validate: func(t *testing.T, a Args) {
				assert.Equal(t, "what is go", a.Query)
			},
		},
		{
			name:    "ask json flag before question",
			argv:    []string{"ask", "--json", "hello"},
			wantCmd: CmdAsk,
			validate: func(t *testing.T, a Args) {
				assert.True(t, a.JSON)
				assert.Equal(t, "hello", a.Query)
			},
		},
		{
			name:    "upload alias",
			argv:    []string{"up", "a.pdf", "b.txt"},
			wantCmd: CmdUpload,
			validate: func(t *testing.T, a Args) {
				assert.Equal(t, []string{"a.pdf", "b.txt"}, a.Files)
			},
		},
		{
			name:    "config defaults to show",
			argv:    []string{"config"},
			wantCmd: CmdConfig,
			validate: func(t *testing.T, a Args) {
				assert.Equal(t, "show", a.Subcommand)
			},
		},
		{
			name:    "config set",
			argv:    []string{"config", "SET", "backend.url", "gpu-box:8000"},
			wantCmd: CmdConfig,
			validate: func(t *testing.T, a Args) {
				assert.Equal(t, "set", a.Subcommand)
				assert.Equal(t, "backend.url", a.ConfigKey)
				assert.Equal(t, "gpu-box:8000", a.ConfigVal)
			},
		},
		{
			name:    "global flags",
			argv:    []string{"-m", "llama3.1:8b", "-r", "3", "-b", "host:9000", "--plain", "chat"},
			wantCmd: CmdChat,
			validate: func(t *testing.T, a Args) {
				assert.Equal(t, "llama3.1:8b", a.Model)
				assert.Equal(t, 3, a.Retries)
				assert.Equal(t, "host:9000", a.Backend)
				assert.True(t, a.Plain)
			},
		},
		{
			name:    "version flag",
			argv:    []string{"--version"},
			wantCmd: CmdVersion,
		},
		{
			name:    "help flag wins over command",
			argv:    []string{"ask", "-h"},
			wantCmd: CmdHelp,
		},
		{
			name:    "doctor alias",
			argv:    []string{"diag"},
			wantCmd: CmdDoctor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, err := Parse(tt.argv)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCmd, cmd)
			if tt.validate != nil {
				tt.validate(t, args)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		argv    []string
		wantMsg string
	}{
		{"unknown command suggests", []string{"chta"}, "did you mean 'talkchat chat'"},
		{"unknown flag", []string{"--bogus", "chat"}, "--bogus"},
		{"value flag without value", []string{"chat", "--model"}, "requires a value"},
		{"plain with tui", []string{"--plain", "--tui"}, "cannot be combined"},
		{"retries not a number", []string{"-r", "x", "chat"}, "must be an integer"},
		{"upload without files", []string{"upload"}, "required argument missing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse(tt.argv)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)

			var vErr *ValidationError
			assert.True(t, errors.As(err, &vErr))
			assert.Equal(t, ExitUsageError, GetExitCode(err))
		})
	}
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "ask", CmdAsk.String())
	assert.Equal(t, "doctor", CmdDoctor.String())
	assert.Equal(t, "unknown", Command(99).String())
}

func TestPrintUsageAndVersion(t *testing.T) {
	var sb strings.Builder
	PrintUsage(&sb)
	assert.Contains(t, sb.String(), "talkchat ask")
	assert.Contains(t, sb.String(), Version)

	sb.Reset()
	PrintVersion(&sb)
	assert.Contains(t, sb.String(), "talkchat version "+Version)
}

// =============================================================================
// SUGGESTIONS (suggest.go)
// =============================================================================

func TestSuggestCommand(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"chta", "chat"},
		{"uplod", "upload"},
		{"doctr", "doctor"},
		{"confg", "config"},
		{"chat", ""},
		{"x", ""},
		{"kubernetes", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, SuggestCommand(tt.input))
		})
	}
}

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, levenshteinDistance("ask", "ask"))
	assert.Equal(t, 1, levenshteinDistance("ask", "asks"))
	assert.Equal(t, 3, levenshteinDistance("", "abc"))
	assert.Equal(t, 3, levenshteinDistance("kitten", "sitting"))
}

// =============================================================================
// TERMINAL AND HELPERS
// =============================================================================

func TestWrapText(t *testing.T) {
	assert.Equal(t, "short", WrapText("short", 20))
	assert.Equal(t, "one two\nthree", WrapText("one two three", 8))
	assert.Equal(t, "a\n\nb", WrapText("a\n\nb", 10))
	// Wide runes count as two cells.
	assert.Equal(t, "日本\n語", WrapText("日本 語", 4))
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "250ms", formatDurationShort(250_000_000))
	assert.Equal(t, "1.5s", formatDurationShort(1_500_000_000))
	assert.Equal(t, "512 bytes", formatBytes(512))
	assert.Equal(t, "2.00 KB", formatBytes(2048))
	assert.Equal(t, "1.50 MB", formatBytes(1536*1024))
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/docs/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, home+"/docs/a.pdf", got)

	got, err = expandPath("/tmp/../tmp/x.txt")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.txt", got)
}
