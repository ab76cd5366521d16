package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BatchesScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraud_gateway_prediction",
			Name:      "batches_total",
			Help:      "Scored batches by the scorer that produced the answer",
		},
		[]string{"source"},
	)

	RecordsScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraud_gateway_prediction",
			Name:      "records_total",
			Help:      "Scored transaction records by scorer",
		},
		[]string{"source"},
	)

	FallbackFraudLabels = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraud_gateway_prediction",
			Name:      "fallback_labels_total",
			Help:      "Labels emitted by the local heuristic scorer",
		},
		[]string{"prediction"},
	)

	RemoteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraud_gateway_remote",
			Name:      "failures_total",
			Help:      "Remote scorer calls that fell back, by reason",
		},
		[]string{"reason"},
	)

	RemoteLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fraud_gateway_remote",
			Name:      "call_duration_seconds",
			Help:      "Latency of the outbound call to the remote scorer",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
	)

	BatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fraud_gateway_prediction",
			Name:      "batch_size",
			Help:      "Number of records per accepted batch",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)
)
