// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// doctor.go - the "doctor" command.
//
// Command: doctor
// Short:   Check configuration and backend reachability
// Aliases: diag
//
// Health Checks Performed:
//   1. Config Valid       - Loads the config file, .env and flags
//   2. Backend Reachable  - Sends a GET to the backend host
//   3. Model Configured   - Looks the default model up in the catalog
//   4. Log Writable       - Checks the TUI log directory
//   5. Terminal           - Reports whether the TUI can start
//
// Examples:
//   talkchat doctor
//   talkchat doctor --json
//   talkchat doctor -b gpu-box:8000
//
// Exit Codes:
//   0   No check failed
//   1   One or more checks failed
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/talkchat/internal/backend"
	"github.com/jeranaias/talkchat/internal/config"
	"github.com/jeranaias/talkchat/internal/model"
)

// pingTimeout bounds the backend reachability probe.
const pingTimeout = 5 * time.Second

// =============================================================================
// HEALTH CHECK TYPES
// =============================================================================

// CheckStatus represents the status of a health check.
type CheckStatus int

const (
	// CheckPass indicates the check passed successfully.
	CheckPass CheckStatus = iota
	// CheckWarn indicates the check passed with warnings.
	CheckWarn
	// CheckFail indicates the check failed.
	CheckFail
)

// String returns the string representation of the check status.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "pass"
	case CheckWarn:
		return "warn"
	case CheckFail:
		return "fail"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name in JSON output.
func (s CheckStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *CheckStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "pass":
		*s = CheckPass
	case "warn":
		*s = CheckWarn
	case "fail":
		*s = CheckFail
	default:
		return fmt.Errorf("unknown check status %q", text)
	}
	return nil
}

// Symbol returns the bracketed marker for the check status.
func (s CheckStatus) Symbol() string {
	switch s {
	case CheckPass:
		return SuccessStyle.Render("[OK]")
	case CheckWarn:
		return WarningStyle.Render("[!!]")
	case CheckFail:
		return ErrorStyle.Render("[FAIL]")
	default:
		return "?"
	}
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	Name    string      `json:"name"`
	Status  CheckStatus `json:"status"`
	Message string      `json:"message"`
	Fix     string      `json:"fix,omitempty"` // Suggested command or instruction
}

// Render returns a formatted string representation of the health check.
func (c HealthCheck) Render() string {
	result := fmt.Sprintf("%s %s", c.Status.Symbol(), ValueStyle.Render(c.Message))
	if c.Status != CheckPass && c.Fix != "" {
		result += "\n" + DimStyle.Render("     -> "+c.Fix)
	}
	return result
}

// =============================================================================
// HANDLE DOCTOR
// =============================================================================

// HandleDoctor handles the "doctor" command.
func HandleDoctor(args Args) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*pingTimeout)
	defer cancel()
	return RunDoctor(ctx, args, os.Stdout)
}

// RunDoctor runs every check and reports to out.
func RunDoctor(ctx context.Context, args Args, out io.Writer) error {
	checks := RunChecks(ctx, args)

	data := DoctorData{Checks: checks}
	for _, check := range checks {
		switch check.Status {
		case CheckPass:
			data.Passed++
		case CheckWarn:
			data.Warned++
		case CheckFail:
			data.Failed++
		}
	}

	var failure error
	if data.Failed > 0 {
		failure = &CommandError{
			Command: "doctor",
			Action:  "check",
			Reason:  fmt.Sprintf("%d health check(s) failed", data.Failed),
		}
	}

	if args.JSON {
		resp := NewJSONResponse("doctor", data)
		if failure != nil {
			msg := failure.Error()
			resp.Success = false
			resp.Error = &msg
		}
		if err := resp.Print(out); err != nil {
			return err
		}
		return Reported(failure)
	}

	fmt.Fprintln(out, TitleStyle.Render("talkchat Doctor"))
	fmt.Fprintln(out, RenderSeparator(41))
	for _, check := range checks {
		fmt.Fprintln(out, check.Render())
	}
	fmt.Fprintln(out, RenderSeparator(41))

	summary := []string{fmt.Sprintf("%d passed", data.Passed)}
	if data.Warned > 0 {
		summary = append(summary, WarningStyle.Render(fmt.Sprintf("%d warning", data.Warned)))
	}
	if data.Failed > 0 {
		summary = append(summary, ErrorStyle.Render(fmt.Sprintf("%d failed", data.Failed)))
	}
	fmt.Fprintln(out, DimStyle.Render(strings.Join(summary, ", ")))

	return failure
}

// RunChecks runs the health checks in order. Checks after a config
// failure use the built-in defaults.
func RunChecks(ctx context.Context, args Args) []HealthCheck {
	cfg, cfgCheck := checkConfigValid(args)
	return []HealthCheck{
		cfgCheck,
		checkBackendReachable(ctx, cfg),
		checkModelConfigured(cfg),
		checkLogWritable(cfg),
		checkTerminal(cfg, args),
	}
}

// =============================================================================
// HEALTH CHECK FUNCTIONS
// =============================================================================

func checkConfigValid(args Args) (*config.Config, HealthCheck) {
	check := HealthCheck{Name: "Config Valid"}

	cfg, err := LoadConfig(args)
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Config invalid: %s", err)
		check.Fix = "Run: talkchat config show"
		return config.Default(), check
	}

	path, _ := configFilePath(args)
	check.Status = CheckPass
	if path != "" && fileExists(path) {
		check.Message = "Config valid: " + path
	} else {
		check.Message = "Config valid (using defaults)"
	}
	return cfg, check
}

func checkBackendReachable(ctx context.Context, cfg *config.Config) HealthCheck {
	check := HealthCheck{Name: "Backend Reachable"}

	client, err := backend.NewClient(cfg.Backend.URL)
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Backend URL invalid: %s", err)
		check.Fix = "Run: talkchat config set backend.url localhost:8000"
		return check
	}
	client = client.WithChatPath(cfg.Backend.ChatPath)

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	status, err := client.Ping(ctx)
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Backend not responding: %s", err)
		check.Fix = "Start the backend or run: talkchat config set backend.url HOST:PORT"
		return check
	}

	check.Status = CheckPass
	check.Message = fmt.Sprintf("Backend reachable at %s (HTTP %d), chat endpoint %s", client.BaseURL(), status, client.ChatURL())
	return check
}

func checkModelConfigured(cfg *config.Config) HealthCheck {
	check := HealthCheck{Name: "Model Configured"}

	info, ok := model.LookupModel(cfg.Model.Default)
	if !ok {
		check.Status = CheckWarn
		check.Message = fmt.Sprintf("Model %q is not in the built-in catalog", cfg.Model.Default)
		check.Fix = "The backend must know this id; list known models with /models"
		return check
	}
	check.Status = CheckPass
	check.Message = fmt.Sprintf("Default model: %s (%s)", info.Label(), info.ID)
	return check
}

func checkLogWritable(cfg *config.Config) HealthCheck {
	check := HealthCheck{Name: "Log Writable"}

	path, err := cfg.LogPath()
	if err != nil {
		check.Status = CheckWarn
		check.Message = fmt.Sprintf("Could not determine log path: %s", err)
		return check
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		check.Status = CheckWarn
		check.Message = fmt.Sprintf("Could not create log directory: %s", err)
		check.Fix = fmt.Sprintf("Create manually: mkdir -p %s", dir)
		return check
	}
	f, err := os.CreateTemp(dir, ".write_test")
	if err != nil {
		check.Status = CheckWarn
		check.Message = fmt.Sprintf("Log directory not writable: %s", err)
		check.Fix = "Run: talkchat config set log.file PATH"
		return check
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)

	check.Status = CheckPass
	check.Message = "TUI log: " + path
	return check
}

func checkTerminal(cfg *config.Config, args Args) HealthCheck {
	check := HealthCheck{Name: "Terminal"}
	if PreferTUI(cfg, args) {
		check.Status = CheckPass
		check.Message = fmt.Sprintf("Full-screen UI available (%d columns)", GetTerminalWidth())
		return check
	}
	check.Status = CheckPass
	check.Message = "Line mode (no terminal, or ui.mode is plain)"
	return check
}
