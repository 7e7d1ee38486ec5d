// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package retry decides whether a failed streaming attempt is retried.
//
// The policy is a pure function of the zero-based attempt index and the
// classified failure. Aborts are a user decision and are never retried;
// every other failure backs off exponentially until the attempt budget is
// spent.
//
// # Usage
//
//	p := retry.NewPolicy(3)
//	d := p.Decide(attempt, retry.Transport)
//	if d.Retry {
//	    time.Sleep(d.Delay) // 1s, 2s, 4s, ...
//	}
package retry
