// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat runs user turns against the backend.
//
// An Orchestrator owns the committed Conversation and at most one live
// stream.Session. Submit builds the request payload, drives the session,
// retries failures with exponential backoff and commits the turn on
// success. Everything a UI needs is published as a Snapshot:
//
//	orch := chat.New(client, model.NewConversation(),
//	    chat.WithLogger(log),
//	    chat.WithPolicy(retry.NewPolicy(3)),
//	)
//	unsubscribe := orch.Subscribe(func(s chat.Snapshot) { render(s) })
//	defer unsubscribe()
//	result, err := orch.Submit(ctx, "Explain goroutines")
//
// Cancel may be called from any goroutine; it stops the live session or the
// backoff wait and leaves the Conversation untouched.
package chat
