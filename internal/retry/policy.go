// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package retry

import (
	"fmt"
	"math"
	"time"
)

const (
	// DefaultMaxAttempts is the attempt budget for one user submission.
	DefaultMaxAttempts = 3

	// DefaultBaseDelay is the delay after the first failed attempt.
	DefaultBaseDelay = time.Second
)

// =============================================================================
// FAILURE KINDS
// =============================================================================

// FailureKind classifies why an attempt ended without a committed turn.
type FailureKind int

const (
	// Abort is a user-initiated cancellation.
	Abort FailureKind = iota
	// Transport covers non-success statuses and connection failures.
	Transport
	// StreamContent is an in-band error marker found in the decoded text.
	StreamContent
	// EmptyResult is a stream that completed without non-whitespace content.
	EmptyResult
)

// String returns the kind name used in logs and metric labels.
func (k FailureKind) String() string {
	switch k {
	case Abort:
		return "abort"
	case Transport:
		return "transport"
	case StreamContent:
		return "stream_content"
	case EmptyResult:
		return "empty_result"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// =============================================================================
// POLICY
// =============================================================================

// Decision is the outcome of Policy.Decide.
type Decision struct {
	Retry bool
	Delay time.Duration
}

// GiveUp is the decision to stop retrying.
var GiveUp = Decision{}

// Policy bounds the retry loop of one submission.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// NewPolicy returns a policy with the default base delay.
func NewPolicy(maxAttempts int) Policy {
	return Policy{MaxAttempts: maxAttempts, BaseDelay: DefaultBaseDelay}
}

// Attempts returns the effective attempt budget (never less than one).
func (p Policy) Attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Decide reports whether attempt (zero-based) should be followed by another
// one after a failure of the given kind, and how long to wait first.
func (p Policy) Decide(attempt int, kind FailureKind) Decision {
	if kind == Abort {
		return GiveUp
	}
	if attempt < 0 || attempt >= p.Attempts()-1 {
		return GiveUp
	}
	return Decision{Retry: true, Delay: p.Backoff(attempt)}
}

// maxBackoff is where Backoff saturates instead of overflowing.
const maxBackoff = time.Duration(math.MaxInt64)

// Backoff returns 2^attempt * BaseDelay, saturating at the largest
// representable duration for very large attempt indexes.
func (p Policy) Backoff(attempt int) time.Duration {
	d := p.BaseDelay
	if d <= 0 {
		d = DefaultBaseDelay
	}
	for i := 0; i < attempt; i++ {
		if d > maxBackoff/2 {
			return maxBackoff
		}
		d *= 2
	}
	return d
}
