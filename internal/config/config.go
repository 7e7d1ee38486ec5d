// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/talkchat/internal/backend"
	"github.com/jeranaias/talkchat/internal/display"
	"github.com/jeranaias/talkchat/internal/logging"
	"github.com/jeranaias/talkchat/internal/model"
	"github.com/jeranaias/talkchat/internal/retry"
	"github.com/jeranaias/talkchat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete talkchat configuration.
type Config struct {
	Backend BackendConfig `toml:"backend" json:"backend"`
	Model   ModelConfig   `toml:"model" json:"model"`
	Retry   RetryConfig   `toml:"retry" json:"retry"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Log     LogConfig     `toml:"log" json:"log"`
	Metrics MetricsConfig `toml:"metrics" json:"metrics"`
}

// BackendConfig locates the chat backend.
type BackendConfig struct {
	// URL is the backend host; "localhost:8000" implies http.
	URL        string `toml:"url" json:"url"`
	ChatPath   string `toml:"chat_path" json:"chat_path"`
	UploadPath string `toml:"upload_path" json:"upload_path"`
	// MaxUploadMB caps document uploads.
	MaxUploadMB int `toml:"max_upload_mb" json:"max_upload_mb"`
}

// ModelConfig selects the default model.
type ModelConfig struct {
	Default     string `toml:"default" json:"default"`
	DefaultName string `toml:"default_name" json:"default_name"`
}

// RetryConfig bounds retries of a failed turn.
type RetryConfig struct {
	MaxAttempts int `toml:"max_attempts" json:"max_attempts"`
	// BaseDelayMs is the first backoff delay; it doubles per attempt.
	BaseDelayMs int `toml:"base_delay_ms" json:"base_delay_ms"`
}

// UIConfig contains front-end settings.
type UIConfig struct {
	// Mode is "auto", "tui" or "plain".
	Mode string `toml:"mode" json:"mode"`
	// FollowThreshold is the auto-scroll distance in scroll units.
	FollowThreshold int  `toml:"follow_threshold" json:"follow_threshold"`
	NoColor         bool `toml:"no_color" json:"no_color"`
}

// LogConfig configures zerolog output.
type LogConfig struct {
	Level  string `toml:"level" json:"level"`
	Format string `toml:"format" json:"format"`
	// File receives TUI logs; empty means ~/.talkchat/talkchat.log.
	File string `toml:"file" json:"file"`
}

// MetricsConfig enables the status server.
type MetricsConfig struct {
	// Addr is the listen address; empty disables the server.
	Addr string `toml:"addr" json:"addr"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:         "localhost:8000",
			ChatPath:    backend.DefaultChatPath,
			UploadPath:  backend.DefaultUploadPath,
			MaxUploadMB: int(backend.DefaultMaxUploadSize / (1024 * 1000)),
		},
		Model: ModelConfig{
			Default:     model.DefaultModel.ID,
			DefaultName: model.DefaultModel.Name,
		},
		Retry: RetryConfig{
			MaxAttempts: retry.DefaultMaxAttempts,
			BaseDelayMs: int(retry.DefaultBaseDelay / time.Millisecond),
		},
		UI: UIConfig{
			Mode:            "auto",
			FollowThreshold: display.DefaultFollowThreshold,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	d := Default()

	if cfg.Backend.URL == "" {
		cfg.Backend.URL = d.Backend.URL
	}
	if cfg.Backend.ChatPath == "" {
		cfg.Backend.ChatPath = d.Backend.ChatPath
	}
	if cfg.Backend.UploadPath == "" {
		cfg.Backend.UploadPath = d.Backend.UploadPath
	}
	if cfg.Backend.MaxUploadMB == 0 {
		cfg.Backend.MaxUploadMB = d.Backend.MaxUploadMB
	}
	if cfg.Model.Default == "" {
		cfg.Model.Default = d.Model.Default
		if cfg.Model.DefaultName == "" {
			cfg.Model.DefaultName = d.Model.DefaultName
		}
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = d.Retry.MaxAttempts
	}
	if cfg.Retry.BaseDelayMs == 0 {
		cfg.Retry.BaseDelayMs = d.Retry.BaseDelayMs
	}
	if cfg.UI.Mode == "" {
		cfg.UI.Mode = d.UI.Mode
	}
	if cfg.UI.FollowThreshold == 0 {
		cfg.UI.FollowThreshold = d.UI.FollowThreshold
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = d.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = d.Log.Format
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the talkchat configuration directory (~/.talkchat).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".talkchat"), nil
}

// ConfigPath returns the path of the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// LogPath returns the TUI log file, honoring log.file.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "talkchat.log"), nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load builds the effective configuration: defaults, then the TOML file if
// present, then a .env file in the working directory, then TALKCHAT_*
// environment variables.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path, ".env")
}

// LoadFrom is Load with explicit file locations. Missing files are skipped.
func LoadFrom(tomlPath, envPath string) (*Config, error) {
	cfg := Default()

	if tomlPath != "" {
		if _, err := os.Stat(tomlPath); err == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				return nil, err
			}
		}
	}

	if envPath != "" {
		if err := loadDotEnv(envPath); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes path over cfg.
func LoadTOML(cfg *Config, path string) error {
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	fillDefaults(cfg)
	return nil
}

// loadDotEnv exports the variables in path without overriding ones already
// set in the environment.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Save writes cfg to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg to path with owner-only permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# talkchat configuration file\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.WriteFileAtomic(path, buf.Bytes(), 0o600, 0o700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// TOML returns the configuration encoded as TOML.
func (c *Config) TOML() (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.String(), nil
}

// =============================================================================
// ENVIRONMENT
// =============================================================================

// Environment variables read by ApplyEnvOverrides.
const (
	EnvBackendURL       = "TALKCHAT_BACKEND_URL"
	EnvDefaultModel     = "TALKCHAT_DEFAULT_MODEL"
	EnvDefaultModelName = "TALKCHAT_DEFAULT_MODEL_NAME"
	EnvMaxRetries       = "TALKCHAT_MAX_RETRIES"
	EnvLogLevel         = "TALKCHAT_LOG_LEVEL"
	EnvMetricsAddr      = "TALKCHAT_METRICS_ADDR"
)

// ApplyEnvOverrides applies TALKCHAT_* environment variables.
func (c *Config) ApplyEnvOverrides() error {
	if v := os.Getenv(EnvBackendURL); v != "" {
		c.Backend.URL = v
	}

	// A model override without a name drops the stale default name.
	if v := os.Getenv(EnvDefaultModel); v != "" {
		c.Model.Default = v
		c.Model.DefaultName = ""
		if info, ok := model.LookupModel(v); ok {
			c.Model.DefaultName = info.Name
		}
	}
	if v := os.Getenv(EnvDefaultModelName); v != "" {
		c.Model.DefaultName = v
	}

	if v := os.Getenv(EnvMaxRetries); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q", EnvMaxRetries, v)
		}
		c.Retry.MaxAttempts = n
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvMetricsAddr); v != "" {
		c.Metrics.Addr = v
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every section and returns all problems at once.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if _, err := backend.NormalizeBaseURL(c.Backend.URL); err != nil {
		errs = append(errs, ValidationError{Field: "backend.url", Message: err.Error()})
	}
	if c.Backend.MaxUploadMB < 0 {
		errs = append(errs, ValidationError{Field: "backend.max_upload_mb", Message: "must not be negative"})
	}
	if strings.TrimSpace(c.Model.Default) == "" {
		errs = append(errs, ValidationError{Field: "model.default", Message: "must not be empty"})
	}
	if c.Retry.MaxAttempts < 1 || c.Retry.MaxAttempts > 10 {
		errs = append(errs, ValidationError{
			Field:   "retry.max_attempts",
			Message: fmt.Sprintf("must be between 1 and 10, got %d", c.Retry.MaxAttempts),
		})
	}
	if c.Retry.BaseDelayMs < 0 {
		errs = append(errs, ValidationError{Field: "retry.base_delay_ms", Message: "must not be negative"})
	}

	switch strings.ToLower(c.UI.Mode) {
	case "auto", "tui", "plain":
	default:
		errs = append(errs, ValidationError{
			Field:   "ui.mode",
			Message: fmt.Sprintf("invalid mode '%s', must be one of: auto, tui, plain", c.UI.Mode),
		})
	}
	if c.UI.FollowThreshold < 0 {
		errs = append(errs, ValidationError{Field: "ui.follow_threshold", Message: "must not be negative"})
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, ValidationError{Field: "log.level", Message: err.Error()})
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		errs = append(errs, ValidationError{Field: "log.format", Message: err.Error()})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// RetryPolicy builds the retry policy for the orchestrator.
func (c *Config) RetryPolicy() retry.Policy {
	p := retry.NewPolicy(c.Retry.MaxAttempts)
	if c.Retry.BaseDelayMs > 0 {
		p.BaseDelay = time.Duration(c.Retry.BaseDelayMs) * time.Millisecond
	}
	return p
}

// DefaultModel returns the configured model with its display name.
func (c *Config) DefaultModel() model.ModelInfo {
	return model.ModelInfo{ID: c.Model.Default, Name: c.Model.DefaultName}
}

// MaxUploadBytes converts backend.max_upload_mb to bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Backend.MaxUploadMB) * 1024 * 1000
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a value using dot notation (e.g., "retry.max_attempts").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set assigns a value using dot notation. String values are converted to
// the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("%s is a section, not a value", key)
			}
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(part[:1]))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			switch strings.ToLower(strVal) {
			case "1", "true", "yes", "on":
				field.SetBool(true)
			case "0", "false", "no", "off", "":
				field.SetBool(false)
			default:
				return fmt.Errorf("invalid boolean value: %q", strVal)
			}
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && val.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// Keys returns every settable key in dot notation, in declaration order.
func Keys() []string {
	var keys []string
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		section := t.Field(i)
		prefix := section.Tag.Get("toml")
		for j := 0; j < section.Type.NumField(); j++ {
			keys = append(keys, prefix+"."+section.Type.Field(j).Tag.Get("toml"))
		}
	}
	return keys
}
