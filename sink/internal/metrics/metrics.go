package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wikirelay_sink_messages_total",
			Help: "Total number of queue messages handled, by outcome",
		},
		[]string{"status"},
	)

	MessagesAcked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wikirelay_sink_messages_acked_total",
			Help: "Total number of messages acknowledged after processing",
		},
	)

	Batches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wikirelay_sink_batches_total",
			Help: "Total number of message batches received",
		},
	)

	ConsumeErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wikirelay_sink_consume_errors_total",
			Help: "Total number of receive/acknowledge stream errors",
		},
	)

	IndexErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wikirelay_sink_index_errors_total",
			Help: "Total number of OpenSearch indexing failures",
		},
	)
)

// Message outcome labels.
const (
	StatusProcessed   = "processed"
	StatusDecodeError = "decode_error"
)
