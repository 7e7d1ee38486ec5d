// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - the "config" command.
//
// Command: config [subcommand]
// Short:   View and modify configuration
//
// Subcommands:
//   show (default)      Display the effective configuration
//   get <key>           Print one value
//   set <key> <value>   Set a value in the config file
//   keys                List settable keys
//   path                Show the config file path
//   init                Write the defaults to the config file
//
// Examples:
//   talkchat config
//   talkchat config show --json
//   talkchat config get retry.max_attempts
//   talkchat config set backend.url gpu-box:8000
//   talkchat config set model.default llama3.1:70b
//
// Flags:
//   --json              Output in JSON format
//   -c, --config FILE   Operate on FILE instead of ~/.talkchat/config.toml
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeranaias/talkchat/internal/config"
)

// ConfigData is the JSON payload of "config show".
type ConfigData struct {
	Path   string         `json:"path"`
	Exists bool           `json:"exists"`
	Config *config.Config `json:"config"`
}

// ConfigValueData is the JSON payload of "config get" and "config set".
type ConfigValueData struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
	Path  string      `json:"path,omitempty"`
}

// HandleConfig handles the "config" command.
func HandleConfig(args Args) error {
	return RunConfig(args, os.Stdout)
}

// RunConfig executes a config subcommand, writing results to out.
func RunConfig(args Args, out io.Writer) error {
	path, err := configFilePath(args)
	if err != nil {
		return err
	}

	switch args.Subcommand {
	case "", "show":
		return configShow(args, path, out)
	case "get":
		return configGet(args, out)
	case "set":
		return configSet(args, path, out)
	case "keys":
		return configKeys(args, out)
	case "path":
		return configPath(args, path, out)
	case "init":
		return configInit(args, path, out)
	default:
		return &ValidationError{
			Field:   "config subcommand",
			Value:   args.Subcommand,
			Reason:  "unknown subcommand",
			Example: "talkchat config show|get|set|keys|path|init",
		}
	}
}

func configFilePath(args Args) (string, error) {
	if args.ConfigFile != "" {
		return args.ConfigFile, nil
	}
	return config.ConfigPath()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func configShow(args Args, path string, out io.Writer) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}

	if args.JSON {
		return NewJSONResponse("config show", ConfigData{
			Path:   path,
			Exists: fileExists(path),
			Config: cfg,
		}).Print(out)
	}

	fmt.Fprintln(out, TitleStyle.Render("talkchat Configuration"))
	fmt.Fprintln(out, RenderSeparator(41))

	section := ""
	for _, key := range config.Keys() {
		prefix, _, _ := strings.Cut(key, ".")
		if prefix != section {
			if section != "" {
				fmt.Fprintln(out)
			}
			fmt.Fprintln(out, TitleStyle.Render("["+prefix+"]"))
			section = prefix
		}
		value, err := cfg.Get(key)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  %s%s\n", RenderLabel(key+":", 28), ValueStyle.Render(formatConfigValue(value)))
	}

	fmt.Fprintln(out, RenderSeparator(41))
	status := ""
	if !fileExists(path) {
		status = DimStyle.Render(" (not created)")
	}
	fmt.Fprintf(out, "Config file: %s%s\n", path, status)
	return nil
}

func configGet(args Args, out io.Writer) error {
	if args.ConfigKey == "" {
		return ErrMissingArgument("key", "talkchat config get retry.max_attempts")
	}
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	value, err := cfg.Get(args.ConfigKey)
	if err != nil {
		return unknownKeyError(args.ConfigKey, err)
	}

	if args.JSON {
		return NewJSONResponse("config get", ConfigValueData{Key: args.ConfigKey, Value: value}).Print(out)
	}
	fmt.Fprintln(out, formatConfigValue(value))
	return nil
}

// configSet edits only the file layer, so environment variables and flags
// never leak into the saved file.
func configSet(args Args, path string, out io.Writer) error {
	if args.ConfigKey == "" {
		return ErrMissingArgument("key", "talkchat config set backend.url localhost:8000")
	}
	if args.ConfigVal == "" {
		return ErrMissingArgument("value", "talkchat config set "+args.ConfigKey+" VALUE")
	}

	cfg := config.Default()
	if fileExists(path) {
		if err := config.LoadTOML(cfg, path); err != nil {
			return err
		}
	}
	if err := cfg.Set(args.ConfigKey, args.ConfigVal); err != nil {
		return unknownKeyError(args.ConfigKey, err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := config.SaveTOML(cfg, path); err != nil {
		return err
	}

	value, _ := cfg.Get(args.ConfigKey)
	if args.JSON {
		return NewJSONResponse("config set", ConfigValueData{Key: args.ConfigKey, Value: value, Path: path}).Print(out)
	}
	fmt.Fprintf(out, "%s %s = %s\n", SuccessStyle.Render("[OK]"), args.ConfigKey, formatConfigValue(value))
	return nil
}

func configKeys(args Args, out io.Writer) error {
	keys := config.Keys()
	if args.JSON {
		return NewJSONResponse("config keys", keys).Print(out)
	}
	for _, k := range keys {
		fmt.Fprintln(out, k)
	}
	return nil
}

func configPath(args Args, path string, out io.Writer) error {
	if args.JSON {
		return NewJSONResponse("config path", map[string]interface{}{
			"path":   path,
			"exists": fileExists(path),
		}).Print(out)
	}
	fmt.Fprintln(out, path)
	return nil
}

func configInit(args Args, path string, out io.Writer) error {
	if fileExists(path) {
		return &ValidationError{
			Field:   "config file",
			Value:   path,
			Reason:  "already exists",
			Example: "talkchat config set KEY VALUE",
		}
	}
	if err := config.SaveTOML(config.Default(), path); err != nil {
		return err
	}
	if args.JSON {
		return NewJSONResponse("config init", map[string]interface{}{"path": path}).Print(out)
	}
	fmt.Fprintf(out, "%s Wrote %s\n", SuccessStyle.Render("[OK]"), path)
	return nil
}

func unknownKeyError(key string, err error) error {
	var cfgErr config.ValidateErrors
	if errors.As(err, &cfgErr) {
		return err
	}
	return &ValidationError{
		Field:   "key",
		Value:   key,
		Reason:  err.Error(),
		Example: "talkchat config keys",
	}
}

func formatConfigValue(v interface{}) string {
	if s, ok := v.(string); ok && s == "" {
		return `""`
	}
	return fmt.Sprint(v)
}
