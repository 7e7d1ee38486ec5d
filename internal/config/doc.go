// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for talkchat.
//
// # Configuration Precedence
//
// Configuration is read once at startup from (highest first):
//   - Environment variables (TALKCHAT_*)
//   - A .env file in the working directory
//   - ~/.talkchat/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	policy := cfg.RetryPolicy()
//	m := cfg.DefaultModel()
package config
