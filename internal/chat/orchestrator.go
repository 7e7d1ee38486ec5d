// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/talkchat/internal/backend"
	"github.com/jeranaias/talkchat/internal/metrics"
	"github.com/jeranaias/talkchat/internal/model"
	"github.com/jeranaias/talkchat/internal/retry"
	"github.com/jeranaias/talkchat/internal/stream"
)

// Transport opens one streamed completion. *backend.Client implements it.
type Transport interface {
	OpenChat(ctx context.Context, req backend.ChatRequest) (io.ReadCloser, error)
}

// Sleeper waits d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPolicy sets the retry policy.
func WithPolicy(p retry.Policy) Option {
	return func(o *Orchestrator) { o.policy = p }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(o *Orchestrator) { o.log = log.With().Str("component", "chat").Logger() }
}

// WithMetrics records attempts and turns in c.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *Orchestrator) { o.metrics = c }
}

// WithSleeper replaces the backoff wait (used by tests).
func WithSleeper(fn Sleeper) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.sleep = fn
		}
	}
}

// WithDirective replaces the formatting directive. Empty omits it.
func WithDirective(text string) Option {
	return func(o *Orchestrator) { o.directive = text }
}

// WithModel sets the initial model.
func WithModel(m model.ModelInfo) Option {
	return func(o *Orchestrator) {
		if m.ID != "" {
			o.model = m
		}
	}
}

// WithMarkers overrides the in-band error markers.
func WithMarkers(markers ...string) Option {
	return func(o *Orchestrator) { o.markers = markers }
}

type subscriber struct {
	id int
	fn func(Snapshot)
}

// Orchestrator runs one submission at a time.
type Orchestrator struct {
	transport Transport
	conv      *model.Conversation
	policy    retry.Policy
	log       zerolog.Logger
	metrics   *metrics.Collector
	sleep     Sleeper
	directive string
	markers   []string

	mu      sync.Mutex
	model   model.ModelInfo
	busy    bool
	phase   Phase
	attempt int
	delay   time.Duration
	buffer  string
	notice  string
	lastErr error
	active  *stream.Session
	cancel  context.CancelFunc

	subs   []subscriber
	nextID int
}

// New creates an orchestrator that commits turns to conv.
func New(t Transport, conv *model.Conversation, opts ...Option) *Orchestrator {
	if conv == nil {
		conv = model.NewConversation()
	}
	o := &Orchestrator{
		transport: t,
		conv:      conv,
		policy:    retry.NewPolicy(retry.DefaultMaxAttempts),
		log:       zerolog.Nop(),
		sleep:     sleepContext,
		directive: FormattingDirective,
		model:     model.DefaultModel,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Conversation returns the committed history.
func (o *Orchestrator) Conversation() *model.Conversation {
	return o.conv
}

// Model returns the model used for new submissions.
func (o *Orchestrator) Model() model.ModelInfo {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.model
}

// SetModel switches the model. It is rejected while a submission is live.
func (o *Orchestrator) SetModel(m model.ModelInfo) error {
	if strings.TrimSpace(m.ID) == "" {
		return errors.New("model id is empty")
	}
	o.mu.Lock()
	if o.busy {
		o.mu.Unlock()
		return ErrBusy
	}
	o.model = m
	snap := o.snapshotLocked()
	o.mu.Unlock()

	o.log.Info().Str("model", m.ID).Msg("model selected")
	o.publish(snap)
	return nil
}

// Busy reports whether a submission is live.
func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.busy
}

// Snapshot returns the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// Subscribe registers fn for every state change and returns a function that
// removes it. fn runs on the submitting goroutine and must not block.
func (o *Orchestrator) Subscribe(fn func(Snapshot)) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.nextID++
	id := o.nextID
	o.subs = append(o.subs, subscriber{id: id, fn: fn})
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		for i, s := range o.subs {
			if s.id == id {
				o.subs = append(o.subs[:i:i], o.subs[i+1:]...)
				return
			}
		}
	}
}

// Cancel aborts the live submission, whether it is streaming or waiting to
// retry. It is a no-op when idle.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	sess, cancel := o.active, o.cancel
	o.mu.Unlock()

	if sess != nil {
		sess.Cancel()
	}
	if cancel != nil {
		cancel()
	}
}

// Submit runs one user turn to completion, abort or exhaustion. The
// returned error is non-nil only when the prompt was rejected; every other
// outcome is reported in Result.
func (o *Orchestrator) Submit(ctx context.Context, prompt string) (Result, error) {
	if strings.TrimSpace(prompt) == "" {
		return Result{}, ErrEmptyPrompt
	}

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	o.mu.Lock()
	if o.busy {
		o.mu.Unlock()
		return Result{}, ErrBusy
	}
	o.busy = true
	o.cancel = cancel
	o.phase = PhaseConnecting
	o.attempt = 0
	o.buffer = ""
	o.notice = ""
	o.lastErr = nil
	modelInfo := o.model
	snap := o.snapshotLocked()
	o.mu.Unlock()
	o.publish(snap)

	start := time.Now()
	req := buildRequest(o.conv.Messages(), o.directive, prompt, modelInfo.ID)
	src := stream.SourceFunc(func(ctx context.Context) (io.ReadCloser, error) {
		return o.transport.OpenChat(ctx, req)
	})

	log := o.log.With().Str("model", modelInfo.ID).Logger()
	log.Debug().Int("messages", len(req.Messages)).Msg("submitting prompt")

	for attempt := 0; ; attempt++ {
		if err := subCtx.Err(); err != nil {
			return o.finishInterrupted(err, attempt, start, log), nil
		}

		sess := stream.NewSession(subCtx, src,
			stream.WithObserver(o.observe),
			stream.WithMarkers(o.markersOrDefault()...),
		)

		o.mu.Lock()
		o.active = sess
		o.attempt = attempt
		o.phase = PhaseConnecting
		o.delay = 0
		o.buffer = ""
		snap := o.snapshotLocked()
		o.mu.Unlock()
		o.publish(snap)

		err := sess.Run()
		if err == nil {
			o.metrics.ObserveAttempt("completed")
			return o.finishCompleted(prompt, sess.Buffer(), attempt+1, start, log)
		}

		kind := Classify(err)
		o.metrics.ObserveAttempt(kind.String())
		if kind == retry.Abort {
			return o.finishAborted(attempt+1, start, log), nil
		}

		decision := o.policy.Decide(attempt, kind)
		if !decision.Retry {
			return o.finishExhausted(err, attempt+1, start, log), nil
		}

		log.Warn().
			Err(err).
			Str("session", sess.ID()).
			Str("kind", kind.String()).
			Int("attempt", attempt+1).
			Dur("delay", decision.Delay).
			Msg("attempt failed, retrying")

		o.mu.Lock()
		o.active = nil
		o.phase = PhaseBackoff
		o.delay = decision.Delay
		o.buffer = ""
		o.lastErr = err
		snap = o.snapshotLocked()
		o.mu.Unlock()
		o.publish(snap)

		o.metrics.ObserveBackoff(decision.Delay)
		if serr := o.sleep(subCtx, decision.Delay); serr != nil {
			return o.finishInterrupted(serr, attempt+1, start, log), nil
		}
	}
}

// observe receives session updates on the submitting goroutine.
// The phase stays connecting until the first fragment arrives.
func (o *Orchestrator) observe(status stream.Status, buffer string) {
	if status != stream.StatusStreaming || buffer == "" {
		// Terminal states are published by Submit together with the
		// commit or teardown.
		return
	}

	o.mu.Lock()
	if o.active == nil || o.active.Status() != stream.StatusStreaming {
		o.mu.Unlock()
		return
	}
	grew := len(buffer) > len(o.buffer)
	o.phase = PhaseStreaming
	o.buffer = buffer
	snap := o.snapshotLocked()
	o.mu.Unlock()

	if grew {
		o.metrics.ObserveFragment()
	}
	o.publish(snap)
}

func (o *Orchestrator) finishCompleted(prompt, reply string, attempts int, start time.Time, log zerolog.Logger) (Result, error) {
	o.mu.Lock()
	err := o.conv.Commit(model.UserMessage(prompt), model.AssistantMessage(reply))
	o.resetLocked()
	if err != nil {
		o.notice = err.Error()
		o.lastErr = err
	}
	snap := o.snapshotLocked()
	o.mu.Unlock()
	o.publish(snap)

	if err != nil {
		return Result{}, fmt.Errorf("failed to commit turn: %w", err)
	}

	o.metrics.ObserveTurn(OutcomeCompleted.String(), time.Since(start))
	log.Info().
		Int("attempts", attempts).
		Int("chars", len(reply)).
		Dur("elapsed", time.Since(start)).
		Msg("turn completed")
	return Result{Outcome: OutcomeCompleted, Reply: reply, Attempts: attempts}, nil
}

func (o *Orchestrator) finishAborted(attempts int, start time.Time, log zerolog.Logger) Result {
	o.mu.Lock()
	o.resetLocked()
	snap := o.snapshotLocked()
	o.mu.Unlock()
	o.publish(snap)

	o.metrics.ObserveTurn(OutcomeAborted.String(), time.Since(start))
	log.Info().Int("attempts", attempts).Msg("turn aborted")
	return Result{Outcome: OutcomeAborted, Attempts: attempts}
}

func (o *Orchestrator) finishExhausted(last error, attempts int, start time.Time, log zerolog.Logger) Result {
	err := fmt.Errorf("%w: %w", ErrExhausted, last)

	o.mu.Lock()
	o.resetLocked()
	o.notice = NoticeExhausted
	o.lastErr = err
	snap := o.snapshotLocked()
	o.mu.Unlock()
	o.publish(snap)

	o.metrics.ObserveTurn(OutcomeExhausted.String(), time.Since(start))
	log.Error().Err(last).Int("attempts", attempts).Msg("all retries failed")
	return Result{Outcome: OutcomeExhausted, Attempts: attempts, Err: err}
}

// finishInterrupted ends a submission whose context ended between
// attempts. Cancellation is an abort; an expired deadline exhausts the turn.
func (o *Orchestrator) finishInterrupted(cause error, attempts int, start time.Time, log zerolog.Logger) Result {
	if errors.Is(cause, context.Canceled) {
		return o.finishAborted(attempts, start, log)
	}
	o.mu.Lock()
	last := o.lastErr
	o.mu.Unlock()
	if last == nil {
		last = cause
	}
	return o.finishExhausted(last, attempts, start, log)
}

// resetLocked tears the submission down. The caller holds o.mu.
func (o *Orchestrator) resetLocked() {
	o.busy = false
	o.phase = PhaseIdle
	o.delay = 0
	o.active = nil
	o.buffer = ""
	o.cancel = nil
	o.notice = ""
	o.lastErr = nil
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	return Snapshot{
		Phase:       o.phase,
		Attempt:     o.attempt,
		MaxAttempts: o.policy.Attempts(),
		Delay:       o.delay,
		Buffer:      o.buffer,
		History:     o.conv.Messages(),
		Model:       o.model,
		Notice:      o.notice,
		Err:         o.lastErr,
	}
}

func (o *Orchestrator) publish(snap Snapshot) {
	o.mu.Lock()
	subs := make([]subscriber, len(o.subs))
	copy(subs, o.subs)
	o.mu.Unlock()

	for _, s := range subs {
		s.fn(snap)
	}
}

func (o *Orchestrator) markersOrDefault() []string {
	if len(o.markers) == 0 {
		return stream.DefaultMarkers
	}
	return o.markers
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
