// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every TALKCHAT_* variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvBackendURL, EnvDefaultModel, EnvDefaultModelName, EnvMaxRetries, EnvLogLevel, EnvMetricsAddr} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "localhost:8000", cfg.Backend.URL)
	assert.Equal(t, "/api/v1/chat/completions", cfg.Backend.ChatPath)
	assert.Equal(t, "meta-llama/llama-3.3-8b-instruct:free", cfg.Model.Default)
	assert.Equal(t, "Llama 3.3 8B Instruct", cfg.Model.DefaultName)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 80, cfg.UI.FollowThreshold)
	assert.Equal(t, 80, cfg.Backend.MaxUploadMB)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFrom_NoFiles(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := LoadFrom(filepath.Join(dir, "missing.toml"), filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFrom_TOMLThenEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[backend]
url = "chat.internal:9000"

[retry]
max_attempts = 5
base_delay_ms = 250
`), 0o600))

	t.Setenv(EnvMaxRetries, "4")

	cfg, err := LoadFrom(path, "")
	require.NoError(t, err)
	assert.Equal(t, "chat.internal:9000", cfg.Backend.URL)
	assert.Equal(t, 4, cfg.Retry.MaxAttempts)
	assert.Equal(t, "/api/upload", cfg.Backend.UploadPath)

	policy := cfg.RetryPolicy()
	assert.Equal(t, 4, policy.Attempts())
	assert.Equal(t, 250*time.Millisecond, policy.BaseDelay)
}

func TestLoadFrom_DotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte(
		"TALKCHAT_BACKEND_URL=https://chat.example.com\nTALKCHAT_DEFAULT_MODEL=openai/gpt-oss-20b:free\n",
	), 0o600))
	t.Cleanup(func() {
		os.Unsetenv(EnvBackendURL)
		os.Unsetenv(EnvDefaultModel)
	})

	cfg, err := LoadFrom("", envPath)
	require.NoError(t, err)
	assert.Equal(t, "https://chat.example.com", cfg.Backend.URL)
	assert.Equal(t, "openai/gpt-oss-20b:free", cfg.Model.Default)
	assert.Equal(t, "gpt-oss-20b", cfg.Model.DefaultName)
}

func TestLoadFrom_EnvBeatsDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("TALKCHAT_LOG_LEVEL=debug\n"), 0o600))
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := LoadFrom("", envPath)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadFrom_UnknownTOMLKey(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[backend]\nhost = \"x\"\n"), 0o600))

	_, err := LoadFrom(path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend.host")
}

func TestApplyEnvOverrides_CustomModelName(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDefaultModel, "acme/private-model")
	t.Setenv(EnvDefaultModelName, "Acme Private")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnvOverrides())
	m := cfg.DefaultModel()
	assert.Equal(t, "acme/private-model", m.ID)
	assert.Equal(t, "Acme Private", m.Label())
}

func TestApplyEnvOverrides_InvalidRetries(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvMaxRetries, "three")
	assert.Error(t, Default().ApplyEnvOverrides())
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Backend.URL = "ftp://nope"
	cfg.Retry.MaxAttempts = 0
	cfg.UI.Mode = "gui"
	cfg.Log.Level = "chatty"

	err := cfg.Validate()
	var errs ValidateErrors
	require.True(t, errors.As(err, &errs))
	assert.Len(t, errs, 4)

	fields := make([]string, len(errs))
	for i, e := range errs {
		fields[i] = e.Field
	}
	assert.ElementsMatch(t, []string{"backend.url", "retry.max_attempts", "ui.mode", "log.level"}, fields)
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	v, err := cfg.Get("retry.max_attempts")
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	require.NoError(t, cfg.Set("retry.max_attempts", "5"))
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)

	require.NoError(t, cfg.Set("ui.no_color", "true"))
	assert.True(t, cfg.UI.NoColor)

	require.NoError(t, cfg.Set("backend.max_upload_mb", "10"))
	assert.Equal(t, int64(10*1024*1000), cfg.MaxUploadBytes())

	assert.Error(t, cfg.Set("retry.max_attempts", "many"))
	assert.Error(t, cfg.Set("ui.no_color", "maybe"))
	_, err = cfg.Get("backend")
	assert.Error(t, err)
	_, err = cfg.Get("backend.nope")
	assert.Error(t, err)
	_, err = cfg.Get("")
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	keys := Keys()
	assert.Contains(t, keys, "backend.url")
	assert.Contains(t, keys, "metrics.addr")

	cfg := Default()
	for _, k := range keys {
		_, err := cfg.Get(k)
		assert.NoError(t, err, k)
	}
}

func TestSaveTOMLRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	cfg := Default()
	cfg.Metrics.Addr = "127.0.0.1:9464"
	require.NoError(t, SaveTOML(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadFrom(path, "")
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestTOML(t *testing.T) {
	out, err := Default().TOML()
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "[backend]"))
	assert.Contains(t, out, `url = "localhost:8000"`)
}
