// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"

	"github.com/jeranaias/talkchat/internal/retry"
	"github.com/jeranaias/talkchat/internal/stream"
)

var (
	// ErrBusy is returned when a submission is already live.
	ErrBusy = errors.New("a response is already in progress")

	// ErrEmptyPrompt is returned for prompts with no visible text.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrExhausted wraps the last failure once the retry budget is spent.
	ErrExhausted = errors.New("all retries failed")
)

// Classify maps an attempt error to a retry failure kind.
func Classify(err error) retry.FailureKind {
	var contentErr *stream.ContentError
	switch {
	case errors.Is(err, stream.ErrAborted), errors.Is(err, context.Canceled):
		return retry.Abort
	case errors.As(err, &contentErr):
		return retry.StreamContent
	case errors.Is(err, stream.ErrEmptyResponse):
		return retry.EmptyResult
	default:
		return retry.Transport
	}
}
