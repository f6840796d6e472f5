/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// API metrics
var (
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "viberide_api_request_duration_seconds",
		Help:    "HTTP request latency by method, route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "viberide_api_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "endpoint", "status"})

	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "viberide_api_active_connections",
		Help: "In-flight HTTP requests.",
	})

	APIRateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "viberide_api_rate_limited_total",
		Help: "Write requests rejected by the rate limiter.",
	}, []string{"endpoint"})

	LiveSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "viberide_live_subscribers",
		Help: "Open websocket event streams.",
	})
)

// Database metrics
var (
	DatabaseQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "viberide_database_query_duration_seconds",
		Help:    "Database operation latency by operation and table.",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"operation", "table"})

	DatabaseErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "viberide_database_errors_total",
		Help: "Database errors by operation and kind.",
	}, []string{"operation", "error_type"})

	DatabaseConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "viberide_database_connections_active",
		Help: "Open database connections.",
	})
)

// Scheduling metrics
var (
	GeneratorRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "viberide_generator_runs_total",
		Help: "Timetable generation runs by mode (preview, apply, cli) and result.",
	}, []string{"mode", "result"})

	GeneratorSessionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "viberide_generator_sessions_total",
		Help: "Sessions produced by the timetable generator.",
	})

	GeneratorIssuesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "viberide_generator_issues_total",
		Help: "Configuration warnings raised during generation.",
	})

	GeneratorDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "viberide_generator_duration_seconds",
		Help:    "Time spent generating a timetable.",
		Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5},
	})

	SlotValidationIssuesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "viberide_slot_validation_issues_total",
		Help: "Hall slot validation failures by issue type.",
	}, []string{"type"})

	EventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "viberide_events_published_total",
		Help: "Domain events published by type.",
	}, []string{"type"})

	CacheRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "viberide_cache_requests_total",
		Help: "Cache lookups by key family and result (hit, miss, error).",
	}, []string{"family", "result"})
)

// Handler exposes the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
