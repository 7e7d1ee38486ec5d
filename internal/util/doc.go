// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared by the front ends.
//
//   - TruncateWidth, PadWidth, StringWidth: terminal-width aware text
//   - WriteFileAtomic: crash-safe file replacement
package util
