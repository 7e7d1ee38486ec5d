// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"errors"
	"fmt"
)

var (
	// ErrAborted indicates the session was cancelled by the user.
	ErrAborted = errors.New("stream aborted")

	// ErrEmptyResponse indicates the stream ended without non-whitespace content.
	ErrEmptyResponse = errors.New("empty response")

	// ErrSessionUsed indicates Run was called on a session that already left idle.
	ErrSessionUsed = errors.New("stream session already started")
)

// ContentError reports an in-band error marker found in a decoded fragment.
type ContentError struct {
	Marker   string
	Fragment string
}

// Error implements the error interface.
func (e *ContentError) Error() string {
	return fmt.Sprintf("stream error: %s", e.Fragment)
}

// abortError keeps the context error reachable through errors.Is.
type abortError struct {
	cause error
}

func (e *abortError) Error() string {
	if e.cause == nil {
		return ErrAborted.Error()
	}
	return fmt.Sprintf("%s: %v", ErrAborted, e.cause)
}

func (e *abortError) Is(target error) bool {
	return target == ErrAborted
}

func (e *abortError) Unwrap() error {
	return e.cause
}
