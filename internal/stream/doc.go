// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream consumes one streamed completion response.
//
// A Decoder turns the raw chunks of a response body into UTF-8 text
// fragments, carrying partial multi-byte sequences across chunk boundaries
// and rejecting fragments that carry an in-band error marker.
//
// A Session owns one in-flight attempt: it opens the Source, feeds decoded
// fragments into its buffer and walks the state machine
//
//	idle -> streaming -> completed | aborted | failed
//
// Terminal states are final. Cancellation flows through the context the
// session was created with, or through Session.Cancel.
//
// # Usage
//
//	s := stream.NewSession(ctx, src, stream.WithObserver(func(st stream.Status, buf string) {
//	    fmt.Print("\r", buf)
//	}))
//	if err := s.Run(); err != nil {
//	    // stream.ErrAborted, stream.ErrEmptyResponse, *stream.ContentError or a transport error
//	}
//	reply := s.Buffer()
package stream
