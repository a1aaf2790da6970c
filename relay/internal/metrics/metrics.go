package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Stream ingestion metrics
	EventsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wikirelay_relay_events_published_total",
			Help: "Total number of change events published to the queue",
		},
	)

	DeserializationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wikirelay_relay_deserialization_errors_total",
			Help: "Total number of stream lines that failed to decode",
		},
		[]string{"reason"},
	)

	EventsFiltered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wikirelay_relay_events_filtered_total",
			Help: "Total number of events dropped by a filter",
		},
		[]string{"filter"},
	)

	// Reconnection metrics
	ReconnectAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wikirelay_relay_reconnects_total",
			Help: "Total number of stream reconnection attempts",
		},
	)

	// Queue publish metrics
	PublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wikirelay_relay_publish_failures_total",
			Help: "Total number of events dropped after publish retries were exhausted",
		},
	)

	PublishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wikirelay_relay_publish_duration_seconds",
			Help:    "Duration of queue publish calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Deserialization error reasons.
const (
	ReasonMalformedJSON  = "malformed_json"
	ReasonSchemaMismatch = "schema_mismatch"
	ReasonLineTooLong    = "line_too_long"
)

// Filter names.
const (
	FilterCanary = "canary"
	FilterOrigin = "origin"
)
