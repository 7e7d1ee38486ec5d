// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics holds the Prometheus instruments for chat turns.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so several orchestrators (and tests)
// can coexist without duplicate registration panics.
type Collector struct {
	registry *prometheus.Registry

	Attempts  *prometheus.CounterVec
	Turns     *prometheus.CounterVec
	Fragments prometheus.Counter
	Backoff   prometheus.Histogram
	TurnTime  prometheus.Histogram
}

// New creates a Collector with Go and process collectors registered.
func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		Attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "talkchat_attempts_total",
				Help: "Stream attempts by outcome",
			},
			[]string{"outcome"},
		),
		Turns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "talkchat_turns_total",
				Help: "Submitted prompts by final result",
			},
			[]string{"result"},
		),
		Fragments: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "talkchat_stream_fragments_total",
				Help: "Decoded text fragments received",
			},
		),
		Backoff: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "talkchat_backoff_seconds",
				Help:    "Delay waited before a retry",
				Buckets: []float64{.5, 1, 2, 4, 8, 16},
			},
		),
		TurnTime: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "talkchat_turn_duration_seconds",
				Help:    "Wall time from submit to final result",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
			},
		),
	}
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveAttempt records one attempt outcome. Nil-safe.
func (c *Collector) ObserveAttempt(outcome string) {
	if c == nil {
		return
	}
	c.Attempts.WithLabelValues(outcome).Inc()
}

// ObserveTurn records a finished turn. Nil-safe.
func (c *Collector) ObserveTurn(result string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.Turns.WithLabelValues(result).Inc()
	c.TurnTime.Observe(elapsed.Seconds())
}

// ObserveFragment counts one decoded fragment. Nil-safe.
func (c *Collector) ObserveFragment() {
	if c == nil {
		return
	}
	c.Fragments.Inc()
}

// ObserveBackoff records a retry delay. Nil-safe.
func (c *Collector) ObserveBackoff(d time.Duration) {
	if c == nil {
		return
	}
	c.Backoff.Observe(d.Seconds())
}
