// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/talkchat/internal/backend"
	"github.com/jeranaias/talkchat/internal/metrics"
	"github.com/jeranaias/talkchat/internal/model"
	"github.com/jeranaias/talkchat/internal/retry"
	"github.com/jeranaias/talkchat/internal/stream"
)

// =============================================================================
// FAKES
// =============================================================================

// chunkBody returns one chunk per Read call.
type chunkBody struct {
	chunks []string
}

func (b *chunkBody) Read(p []byte) (int, error) {
	if len(b.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, b.chunks[0])
	b.chunks = b.chunks[1:]
	return n, nil
}

func (b *chunkBody) Close() error { return nil }

type response func() (io.ReadCloser, error)

func body(chunks ...string) response {
	return func() (io.ReadCloser, error) {
		return &chunkBody{chunks: chunks}, nil
	}
}

func status(code int) response {
	return func() (io.ReadCloser, error) {
		return nil, &backend.StatusError{Status: code}
	}
}

// scriptedTransport replays responses in order and repeats the last one.
type scriptedTransport struct {
	mu        sync.Mutex
	responses []response
	requests  []backend.ChatRequest
}

func newTransport(responses ...response) *scriptedTransport {
	return &scriptedTransport{responses: responses}
}

func (t *scriptedTransport) OpenChat(ctx context.Context, req backend.ChatRequest) (io.ReadCloser, error) {
	t.mu.Lock()
	i := len(t.requests)
	t.requests = append(t.requests, req)
	if i >= len(t.responses) {
		i = len(t.responses) - 1
	}
	r := t.responses[i]
	t.mu.Unlock()
	return r()
}

func (t *scriptedTransport) calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.requests)
}

// recordingSleeper records requested delays without waiting.
type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *recordingSleeper) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

func newOrchestrator(t Transport, sleeper *recordingSleeper, opts ...Option) *Orchestrator {
	opts = append([]Option{WithSleeper(sleeper.sleep)}, opts...)
	return New(t, model.NewConversation(), opts...)
}

// =============================================================================
// RETRY SCHEDULE
// =============================================================================

func TestSubmit_RetryScheduleForPermanentFailure(t *testing.T) {
	for n := 1; n <= 5; n++ {
		t.Run(fmt.Sprintf("max_%d", n), func(t *testing.T) {
			transport := newTransport(status(http.StatusBadGateway))
			sleeper := &recordingSleeper{}
			orch := newOrchestrator(transport, sleeper, WithPolicy(retry.NewPolicy(n)))

			res, err := orch.Submit(context.Background(), "hello")
			require.NoError(t, err)

			assert.Equal(t, OutcomeExhausted, res.Outcome)
			assert.Equal(t, n, res.Attempts)
			assert.Equal(t, n, transport.calls())

			want := make([]time.Duration, 0, n)
			for i := 0; i < n-1; i++ {
				want = append(want, time.Duration(1<<i)*time.Second)
			}
			assert.Equal(t, want, append(make([]time.Duration, 0, n), sleeper.recorded()...))

			assert.True(t, errors.Is(res.Err, ErrExhausted))
			var statusErr *backend.StatusError
			assert.True(t, errors.As(res.Err, &statusErr))

			snap := orch.Snapshot()
			assert.Equal(t, PhaseIdle, snap.Phase)
			assert.Equal(t, NoticeExhausted, snap.Notice)
			assert.Equal(t, 0, orch.Conversation().Len())
		})
	}
}

func TestSubmit_BackoffSnapshotCarriesDelay(t *testing.T) {
	transport := newTransport(status(http.StatusBadGateway), body("ok"))
	orch := newOrchestrator(transport, &recordingSleeper{})

	var backoff []Snapshot
	orch.Subscribe(func(s Snapshot) {
		if s.Phase == PhaseBackoff {
			backoff = append(backoff, s)
		}
	})

	res, err := orch.Submit(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, res.Outcome)

	require.Len(t, backoff, 1)
	assert.Equal(t, time.Second, backoff[0].Delay)
	assert.Equal(t, 0, backoff[0].Attempt)
	assert.Error(t, backoff[0].Err)
	assert.Zero(t, orch.Snapshot().Delay)
}

// =============================================================================
// ABORT
// =============================================================================

func TestSubmit_AbortWhileStreamingHaltsAttempts(t *testing.T) {
	for _, abortAt := range []int{0, 1, 2} {
		t.Run(fmt.Sprintf("attempt_%d", abortAt), func(t *testing.T) {
			responses := make([]response, 0, abortAt+1)
			for i := 0; i < abortAt; i++ {
				responses = append(responses, status(http.StatusInternalServerError))
			}
			responses = append(responses, body("partial", " reply"))
			transport := newTransport(responses...)
			sleeper := &recordingSleeper{}
			orch := newOrchestrator(transport, sleeper, WithPolicy(retry.NewPolicy(5)))

			orch.Subscribe(func(s Snapshot) {
				if s.Streaming() && s.Buffer == "partial" {
					orch.Cancel()
				}
			})

			res, err := orch.Submit(context.Background(), "hello")
			require.NoError(t, err)

			assert.Equal(t, OutcomeAborted, res.Outcome)
			assert.NoError(t, res.Err)
			assert.Equal(t, abortAt+1, transport.calls())
			assert.Len(t, sleeper.recorded(), abortAt)
			assert.Equal(t, 0, orch.Conversation().Len())

			snap := orch.Snapshot()
			assert.False(t, snap.Loading())
			assert.Empty(t, snap.Buffer)
			assert.Empty(t, snap.Notice)
		})
	}
}

func TestSubmit_AbortDuringBackoff(t *testing.T) {
	transport := newTransport(status(http.StatusServiceUnavailable), body("never"))
	sleeper := &recordingSleeper{}
	orch := newOrchestrator(transport, sleeper)

	orch.Subscribe(func(s Snapshot) {
		if s.Phase == PhaseBackoff {
			orch.Cancel()
		}
	})

	res, err := orch.Submit(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAborted, res.Outcome)
	assert.Equal(t, 1, transport.calls())
	assert.Equal(t, 0, orch.Conversation().Len())
}

func TestSubmit_ParentContextCancelled(t *testing.T) {
	transport := newTransport(body("x"))
	orch := newOrchestrator(transport, &recordingSleeper{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := orch.Submit(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAborted, res.Outcome)
	assert.Equal(t, 0, transport.calls())
}

func TestCancel_IdleIsNoop(t *testing.T) {
	orch := newOrchestrator(newTransport(body("x")), &recordingSleeper{})
	assert.NotPanics(t, orch.Cancel)

	res, err := orch.Submit(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, res.Outcome)
}

// =============================================================================
// CONVERSATION GROWTH
// =============================================================================

func TestSubmit_ConversationGrowth(t *testing.T) {
	transport := newTransport(
		body("first reply"),
		status(http.StatusBadGateway),
		status(http.StatusBadGateway),
		status(http.StatusBadGateway),
		body("second reply"),
	)
	orch := newOrchestrator(transport, &recordingSleeper{})
	conv := orch.Conversation()

	res, err := orch.Submit(context.Background(), "one")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, res.Outcome)
	assert.Equal(t, "first reply", res.Reply)
	assert.Equal(t, 2, conv.Len())

	res, err = orch.Submit(context.Background(), "two")
	require.NoError(t, err)
	assert.Equal(t, OutcomeExhausted, res.Outcome)
	assert.Equal(t, 2, conv.Len())

	res, err = orch.Submit(context.Background(), "three")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, res.Outcome)
	require.Equal(t, 4, conv.Len())

	msgs := conv.Messages()
	assert.Equal(t, model.UserMessage("one"), msgs[0])
	assert.Equal(t, model.AssistantMessage("first reply"), msgs[1])
	assert.Equal(t, model.UserMessage("three"), msgs[2])
	assert.Equal(t, model.AssistantMessage("second reply"), msgs[3])
}

// =============================================================================
// ORDERING & CONTENT FAILURES
// =============================================================================

func TestSubmit_BufferPassesThroughFragmentsInOrder(t *testing.T) {
	orch := newOrchestrator(newTransport(body("He", "llo")), &recordingSleeper{})

	var buffers []string
	orch.Subscribe(func(s Snapshot) {
		if s.Streaming() {
			buffers = append(buffers, s.Buffer)
		}
	})

	res, err := orch.Submit(context.Background(), "greet me")
	require.NoError(t, err)
	assert.Equal(t, "Hello", res.Reply)
	assert.Equal(t, []string{"He", "Hello"}, buffers)
}

func TestSubmit_FailedConnectionNeverStreams(t *testing.T) {
	for _, tt := range []struct {
		name string
		resp response
	}{
		{"status", status(http.StatusServiceUnavailable)},
		{"dial", func() (io.ReadCloser, error) { return nil, errors.New("dial tcp: connection refused") }},
		{"empty body", body()},
	} {
		t.Run(tt.name, func(t *testing.T) {
			orch := newOrchestrator(newTransport(tt.resp), &recordingSleeper{}, WithPolicy(retry.NewPolicy(1)))

			var phases []Phase
			orch.Subscribe(func(s Snapshot) { phases = append(phases, s.Phase) })

			res, err := orch.Submit(context.Background(), "hello")
			require.NoError(t, err)
			assert.Equal(t, OutcomeExhausted, res.Outcome)
			assert.NotContains(t, phases, PhaseStreaming)
			assert.Equal(t, PhaseConnecting, phases[0])
			assert.Equal(t, PhaseIdle, phases[len(phases)-1])
		})
	}
}

func TestSubmit_InBandErrorIsRetried(t *testing.T) {
	transport := newTransport(body("ERROR: upstream down"), body("Recovered."))
	sleeper := &recordingSleeper{}
	orch := newOrchestrator(transport, sleeper)

	res, err := orch.Submit(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, OutcomeCompleted, res.Outcome)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, "Recovered.", res.Reply)
	assert.Equal(t, []time.Duration{time.Second}, sleeper.recorded())
	for _, m := range orch.Conversation().Messages() {
		assert.NotContains(t, m.Content, "upstream down")
	}
}

func TestSubmit_EmptyResponseIsRetried(t *testing.T) {
	transport := newTransport(body("  \n\t"), body("ok"))
	orch := newOrchestrator(transport, &recordingSleeper{})

	res, err := orch.Submit(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, res.Outcome)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, 2, orch.Conversation().Len())
}

func TestSubmit_EmptyResponseExhausts(t *testing.T) {
	orch := newOrchestrator(newTransport(body()), &recordingSleeper{})

	res, err := orch.Submit(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, OutcomeExhausted, res.Outcome)
	assert.True(t, errors.Is(res.Err, stream.ErrEmptyResponse))
	assert.Equal(t, 0, orch.Conversation().Len())
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

func TestSubmit_CommitAndTeardownPublishedTogether(t *testing.T) {
	orch := newOrchestrator(newTransport(body("Hel", "lo!")), &recordingSleeper{})

	var snaps []Snapshot
	orch.Subscribe(func(s Snapshot) { snaps = append(snaps, s) })

	_, err := orch.Submit(context.Background(), "hi")
	require.NoError(t, err)
	require.NotEmpty(t, snaps)

	for _, s := range snaps {
		committed := len(s.History) == 2
		assert.False(t, committed && s.Buffer != "", "turn visible in both buffer and history")
		assert.False(t, committed && s.Loading(), "history updated before teardown")
	}

	last := snaps[len(snaps)-1]
	assert.Equal(t, PhaseIdle, last.Phase)
	assert.Empty(t, last.Buffer)
	require.Len(t, last.History, 2)
	assert.Equal(t, "Hello!", last.History[1].Content)

	assert.True(t, snaps[0].Loading())
	assert.False(t, snaps[0].Streaming())
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	orch := newOrchestrator(newTransport(body("x")), &recordingSleeper{})

	count := 0
	unsubscribe := orch.Subscribe(func(Snapshot) { count++ })
	unsubscribe()

	_, err := orch.Submit(context.Background(), "hi")
	require.NoError(t, err)
	assert.Zero(t, count)
}

// =============================================================================
// PRECONDITIONS
// =============================================================================

func TestSubmit_RejectsEmptyPrompt(t *testing.T) {
	transport := newTransport(body("x"))
	orch := newOrchestrator(transport, &recordingSleeper{})

	_, err := orch.Submit(context.Background(), "  \n ")
	assert.ErrorIs(t, err, ErrEmptyPrompt)
	assert.Zero(t, transport.calls())
}

func TestSubmit_RejectsWhileBusy(t *testing.T) {
	orch := newOrchestrator(newTransport(body("a", "b")), &recordingSleeper{})

	var nestedErr, modelErr error
	orch.Subscribe(func(s Snapshot) {
		if s.Streaming() && s.Buffer == "a" {
			_, nestedErr = orch.Submit(context.Background(), "again")
			modelErr = orch.SetModel(model.Catalog[0])
		}
	})

	res, err := orch.Submit(context.Background(), "first")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, res.Outcome)
	assert.ErrorIs(t, nestedErr, ErrBusy)
	assert.ErrorIs(t, modelErr, ErrBusy)
	assert.Equal(t, 2, orch.Conversation().Len())
	assert.Equal(t, model.DefaultModel, orch.Model())
}

// =============================================================================
// PAYLOAD
// =============================================================================

func TestSubmit_PayloadLayout(t *testing.T) {
	transport := newTransport(body("first"), body("second"))
	orch := newOrchestrator(transport, &recordingSleeper{})
	require.NoError(t, orch.SetModel(model.Catalog[1]))

	_, err := orch.Submit(context.Background(), "q1")
	require.NoError(t, err)
	_, err = orch.Submit(context.Background(), "q2")
	require.NoError(t, err)

	require.Len(t, transport.requests, 2)
	req := transport.requests[1]
	assert.Equal(t, "openai/gpt-oss-20b:free", req.Model)
	assert.Equal(t, []backend.ChatMessage{
		{Role: "user", Content: "q1"},
		{Role: "assistant", Content: "first"},
		{Role: "system", Content: FormattingDirective},
		{Role: "user", Content: "q2"},
		{Role: "assistant", Content: ""},
	}, req.Messages)
}

func TestSubmit_RetriesReuseThePayload(t *testing.T) {
	transport := newTransport(status(http.StatusBadGateway), body("ok"))
	orch := newOrchestrator(transport, &recordingSleeper{}, WithDirective(""))

	_, err := orch.Submit(context.Background(), "hi")
	require.NoError(t, err)
	require.Len(t, transport.requests, 2)
	assert.Equal(t, transport.requests[0], transport.requests[1])
	assert.Len(t, transport.requests[0].Messages, 2)
}

func TestSetModel_RejectsEmpty(t *testing.T) {
	orch := newOrchestrator(newTransport(body("x")), &recordingSleeper{})
	assert.Error(t, orch.SetModel(model.ModelInfo{}))
}

// =============================================================================
// CLASSIFICATION & METRICS
// =============================================================================

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want retry.FailureKind
	}{
		{"aborted", fmt.Errorf("wrapped: %w", stream.ErrAborted), retry.Abort},
		{"canceled", context.Canceled, retry.Abort},
		{"content", &stream.ContentError{Marker: "error:", Fragment: "Error: x"}, retry.StreamContent},
		{"empty", stream.ErrEmptyResponse, retry.EmptyResult},
		{"status", &backend.StatusError{Status: 500}, retry.Transport},
		{"deadline", context.DeadlineExceeded, retry.Transport},
		{"other", errors.New("connection reset"), retry.Transport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestSubmit_RecordsMetrics(t *testing.T) {
	collector := metrics.New()
	transport := newTransport(status(http.StatusBadGateway), body("He", "llo"))
	orch := newOrchestrator(transport, &recordingSleeper{}, WithMetrics(collector))

	_, err := orch.Submit(context.Background(), "hi")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Attempts.WithLabelValues("transport")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Attempts.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Turns.WithLabelValues("completed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.Fragments))
}
