// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/jeranaias/talkchat/internal/chat"
	"github.com/jeranaias/talkchat/internal/metrics"
)

// Version is reported by /healthz.
const Version = "0.1.0"

// StatusSource provides the chat state. *chat.Orchestrator implements it.
type StatusSource interface {
	Snapshot() chat.Snapshot
}

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Phase   string `json:"phase"`
	Uptime  string `json:"uptime"`
}

// StatsResponse is the /stats body.
type StatsResponse struct {
	Model         string `json:"model"`
	ModelName     string `json:"model_name"`
	Phase         string `json:"phase"`
	Attempt       int    `json:"attempt"`
	MaxAttempts   int    `json:"max_attempts"`
	HistoryLength int    `json:"history_length"`
	BufferLength  int    `json:"buffer_length"`
	Notice        string `json:"notice,omitempty"`
}

// Server serves status and metrics.
type Server struct {
	addr    string
	source  StatusSource
	metrics *metrics.Collector
	log     zerolog.Logger
	started time.Time
	server  *http.Server
}

// New creates a server for addr. collector may be nil, which disables /metrics.
func New(addr string, source StatusSource, collector *metrics.Collector, log zerolog.Logger) *Server {
	s := &Server{
		addr:    addr,
		source:  source,
		metrics: collector,
		log:     log.With().Str("component", "server").Logger(),
		started: time.Now(),
	}
	// Built up front so a Shutdown that runs before Start still stops it.
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(chimw.Recoverer)
	r.Use(securityHeaders)

	r.Get("/healthz", s.handleHealth)
	r.Get("/stats", s.handleStats)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	return r
}

// Start listens and blocks until Shutdown. It returns nil after a clean
// shutdown, including one that happened before Start was called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.addr).Msg("status server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("status server shutting down")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.source.Snapshot()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
		Phase:   snap.Phase.String(),
		Uptime:  time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap := s.source.Snapshot()
	writeJSON(w, http.StatusOK, StatsResponse{
		Model:         snap.Model.ID,
		ModelName:     snap.Model.Label(),
		Phase:         snap.Phase.String(),
		Attempt:       snap.Attempt,
		MaxAttempts:   snap.MaxAttempts,
		HistoryLength: len(snap.History),
		BufferLength:  len(snap.Buffer),
		Notice:        snap.Notice,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
