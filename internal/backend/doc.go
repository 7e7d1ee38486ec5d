// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend is the HTTP client for the talkchat backend.
//
// The backend exposes two independent endpoints:
//
//   - POST /api/v1/chat/completions: JSON {messages, model} in, streamed text out
//   - POST /api/upload: multipart document ingestion (PDF or plain text)
//
// OpenChat only establishes the stream and validates the status; reading
// and decoding the body belongs to the stream package.
//
// # Usage
//
//	client, err := backend.NewClient("localhost:8000")
//	body, err := client.OpenChat(ctx, backend.ChatRequest{
//	    Model:    "openai/gpt-oss-20b:free",
//	    Messages: []backend.ChatMessage{{Role: "user", Content: "Hello"}},
//	})
//	defer body.Close()
package backend
