// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server exposes a local status endpoint for a running talkchat
// session.
//
// # Endpoints
//
//   - GET /healthz - liveness plus the current chat phase
//   - GET /stats   - session details (model, attempt, history length)
//   - GET /metrics - Prometheus metrics
//
// The server is only started when metrics.addr is configured. It binds to
// the given address and never accepts chat input.
//
// # Usage
//
//	srv := server.New(addr, orch, collector, logger)
//	go srv.Start()
//	defer srv.Shutdown(ctx)
package server
