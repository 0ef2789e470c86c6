// Kinosync - Film Catalog Search Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinosync

// Package metrics provides Prometheus instrumentation for the replication
// pipeline. Metrics are exposed at the /metrics endpoint in Prometheus text
// format by the observability HTTP server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pass metrics

	PassesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etl_passes_total",
			Help: "Total number of replication passes",
		},
		[]string{"result"}, // "success", "error"
	)

	PassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "etl_pass_duration_seconds",
			Help:    "Duration of replication passes in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		},
	)

	PagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "etl_pages_total",
			Help: "Total number of pages processed end-to-end",
		},
	)

	// Per-record metrics

	RecordsExtracted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "etl_records_extracted_total",
			Help: "Total number of raw film rows extracted from PostgreSQL",
		},
	)

	DocumentsIndexed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "etl_documents_indexed_total",
			Help: "Total number of documents acknowledged by the movies index",
		},
	)

	DocumentFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "etl_document_failures_total",
			Help: "Total number of per-document bulk rejections",
		},
	)

	// Checkpoint metrics

	CheckpointTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "etl_checkpoint_timestamp_seconds",
			Help: "Current checkpoint as seconds since the Unix epoch",
		},
	)

	CheckpointSaves = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "etl_checkpoint_saves_total",
			Help: "Total number of checkpoint writes",
		},
	)

	// Retry and endpoint metrics

	RetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etl_retry_attempts_total",
			Help: "Total number of backoff retry attempts per operation",
		},
		[]string{"operation"}, // "postgres_fetch", "bulk_index", "elastic_connect", ...
	)

	BulkRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "etl_bulk_request_duration_seconds",
			Help:    "Duration of Elasticsearch bulk requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Circuit breaker metrics

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)
