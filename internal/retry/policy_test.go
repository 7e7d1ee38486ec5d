// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package retry

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecide_AbortNeverRetries(t *testing.T) {
	p := NewPolicy(5)
	for attempt := 0; attempt < 5; attempt++ {
		assert.Equal(t, GiveUp, p.Decide(attempt, Abort), "attempt %d", attempt)
	}
}

func TestDecide_ExponentialSchedule(t *testing.T) {
	p := NewPolicy(5)

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}
	for attempt, delay := range want {
		for _, kind := range []FailureKind{Transport, StreamContent, EmptyResult} {
			d := p.Decide(attempt, kind)
			assert.True(t, d.Retry, "attempt %d kind %s", attempt, kind)
			assert.Equal(t, delay, d.Delay, "attempt %d kind %s", attempt, kind)
		}
	}

	// Last attempt index exhausts the budget.
	assert.Equal(t, GiveUp, p.Decide(4, Transport))
}

func TestDecide_SingleAttemptBudget(t *testing.T) {
	for _, max := range []int{-1, 0, 1} {
		p := NewPolicy(max)
		assert.Equal(t, 1, p.Attempts())
		assert.Equal(t, GiveUp, p.Decide(0, Transport))
	}
}

func TestDecide_CustomBaseDelay(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: 10 * time.Millisecond}
	assert.Equal(t, 10*time.Millisecond, p.Decide(0, Transport).Delay)
	assert.Equal(t, 20*time.Millisecond, p.Decide(1, Transport).Delay)
	assert.False(t, p.Decide(2, Transport).Retry)
}

func TestBackoff_SaturatesForLargeAttempts(t *testing.T) {
	p := NewPolicy(200)
	assert.Equal(t, 512*time.Second, p.Backoff(9))
	assert.Equal(t, time.Second, p.Backoff(-3))

	prev := time.Duration(0)
	for attempt := 0; attempt < 199; attempt++ {
		d := p.Decide(attempt, Transport)
		require.True(t, d.Retry)
		require.Positive(t, d.Delay, "attempt %d", attempt)
		require.GreaterOrEqual(t, d.Delay, prev, "attempt %d", attempt)
		prev = d.Delay
	}
	assert.Equal(t, time.Duration(math.MaxInt64), p.Backoff(100))
}

func TestFailureKindString(t *testing.T) {
	assert.Equal(t, "abort", Abort.String())
	assert.Equal(t, "transport", Transport.String())
	assert.Equal(t, "stream_content", StreamContent.String())
	assert.Equal(t, "empty_result", EmptyResult.String())
	assert.Equal(t, "kind(42)", FailureKind(42).String())
}
