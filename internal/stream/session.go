// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// =============================================================================
// STATUS
// =============================================================================

// Status is the lifecycle state of a Session.
type Status int

const (
	StatusIdle Status = iota
	StatusStreaming
	StatusCompleted
	StatusAborted
	StatusFailed
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusStreaming:
		return "streaming"
	case StatusCompleted:
		return "completed"
	case StatusAborted:
		return "aborted"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal returns true for completed, aborted and failed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusAborted || s == StatusFailed
}

// =============================================================================
// SOURCE & OBSERVER
// =============================================================================

// Source opens the response body for one attempt.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (io.ReadCloser, error)

// Open implements Source.
func (f SourceFunc) Open(ctx context.Context) (io.ReadCloser, error) {
	return f(ctx)
}

// Observer receives the session status and the full buffer after every
// change. It runs on the goroutine that called Run, in arrival order.
type Observer func(status Status, buffer string)

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithObserver sets the buffer observer.
func WithObserver(fn Observer) SessionOption {
	return func(s *Session) { s.observe = fn }
}

// WithMarkers overrides the decoder's in-band error markers.
func WithMarkers(markers ...string) SessionOption {
	return func(s *Session) { s.markers = markers }
}

// =============================================================================
// SESSION
// =============================================================================

// Session owns one in-flight request attempt.
type Session struct {
	id      string
	ctx     context.Context
	cancel  context.CancelFunc
	source  Source
	markers []string
	observe Observer

	mu     sync.Mutex
	status Status
	buf    strings.Builder
	err    error
}

// NewSession creates an idle session. Cancelling ctx aborts the session.
func NewSession(ctx context.Context, src Source, opts ...SessionOption) *Session {
	sctx, cancel := context.WithCancel(ctx)
	s := &Session{
		id:     uuid.NewString(),
		ctx:    sctx,
		cancel: cancel,
		source: src,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string {
	return s.id
}

// Status returns the current status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Buffer returns the accumulated text.
func (s *Session) Buffer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// Err returns the terminal error, or nil while live or after completion.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Cancel aborts the session. It is a no-op once the session is terminal.
func (s *Session) Cancel() {
	s.mu.Lock()
	if s.status.IsTerminal() {
		s.mu.Unlock()
		return
	}
	s.status = StatusAborted
	s.err = &abortError{cause: context.Canceled}
	s.mu.Unlock()
	s.cancel()
}

// Run drives the session to a terminal state. It returns nil when the
// session completed, an error matching ErrAborted when it was cancelled, and
// the failure otherwise.
func (s *Session) Run() error {
	s.mu.Lock()
	if s.status != StatusIdle {
		aborted := s.status == StatusAborted
		err := s.err
		s.mu.Unlock()
		if aborted {
			return err
		}
		return ErrSessionUsed
	}
	s.status = StatusStreaming
	s.mu.Unlock()
	defer s.cancel()

	body, err := s.source.Open(s.ctx)
	if err != nil {
		return s.fail(err)
	}
	defer body.Close()

	// The response has arrived; fragments follow.
	s.notify(StatusStreaming, "")

	// Closing the body unblocks a pending Read when the context ends.
	stop := context.AfterFunc(s.ctx, func() { body.Close() })
	defer stop()

	dec := NewDecoder(body, s.markers...)
	for {
		if err := s.ctx.Err(); err != nil {
			return s.fail(err)
		}
		fragment, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return s.fail(err)
		}
		if err := s.append(fragment); err != nil {
			return err
		}
	}
	return s.complete()
}

// append adds one fragment and publishes the new buffer.
func (s *Session) append(fragment string) error {
	s.mu.Lock()
	if s.status != StatusStreaming {
		err := s.err
		s.mu.Unlock()
		s.notify(StatusAborted, "")
		return err
	}
	s.buf.WriteString(fragment)
	buffer := s.buf.String()
	s.mu.Unlock()

	s.notify(StatusStreaming, buffer)
	return nil
}

func (s *Session) complete() error {
	s.mu.Lock()
	switch {
	case s.status != StatusStreaming:
		// Cancel won the race against natural completion.
	case strings.TrimSpace(s.buf.String()) == "":
		s.status = StatusFailed
		s.err = ErrEmptyResponse
	default:
		s.status = StatusCompleted
	}
	status, buffer, err := s.status, s.buf.String(), s.err
	s.mu.Unlock()

	s.notify(status, buffer)
	return err
}

// fail moves the session to aborted when its context was cancelled and to
// failed otherwise.
func (s *Session) fail(cause error) error {
	s.mu.Lock()
	if s.status == StatusStreaming {
		if errors.Is(s.ctx.Err(), context.Canceled) {
			s.status = StatusAborted
			s.err = &abortError{cause: cause}
		} else {
			s.status = StatusFailed
			s.err = cause
		}
	}
	status, buffer, err := s.status, s.buf.String(), s.err
	s.mu.Unlock()

	s.notify(status, buffer)
	return err
}

func (s *Session) notify(status Status, buffer string) {
	if s.observe != nil {
		s.observe(status, buffer)
	}
}
