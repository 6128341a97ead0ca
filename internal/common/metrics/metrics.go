// Package metrics defines the Prometheus instrumentation for the broker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DispatchRequestsTotal counts inbound requests handled by the dispatcher.
	DispatchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lss",
			Subsystem: "dispatch",
			Name:      "requests_total",
			Help:      "Total inbound requests routed by the request dispatcher",
		},
		[]string{"path", "status"},
	)

	// DispatchDuration tracks handler execution duration.
	DispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lss",
			Subsystem: "dispatch",
			Name:      "duration_seconds",
			Help:      "Time to execute a request handler",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	// PublishDeliveriesTotal counts publish delivery attempts by outcome.
	PublishDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lss",
			Subsystem: "publish",
			Name:      "deliveries_total",
			Help:      "Total delivery attempts by outcome (success, retry, evicted, hook_error, error)",
		},
		[]string{"topic", "outcome"},
	)

	// PublishRetryTotal counts deliveries resubmitted after a timeout.
	PublishRetryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lss",
			Subsystem: "publish",
			Name:      "retry_total",
			Help:      "Total deliveries resubmitted after a transport timeout",
		},
		[]string{"topic"},
	)

	// SubscriberCount tracks the current subscriber count per topic.
	SubscriberCount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "lss",
			Subsystem: "publish",
			Name:      "subscribers",
			Help:      "Current number of subscribers for a topic",
		},
		[]string{"topic"},
	)

	// ExecutorQueueDepth tracks pending tasks per executor pool.
	ExecutorQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "lss",
			Subsystem: "executor",
			Name:      "queue_depth",
			Help:      "Number of tasks pending in an executor pool",
		},
		[]string{"pool"},
	)

	// ExecutorActiveWorkers tracks busy workers per executor pool.
	ExecutorActiveWorkers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "lss",
			Subsystem: "executor",
			Name:      "active_workers",
			Help:      "Number of workers currently executing a task",
		},
		[]string{"pool"},
	)

	// StorageOperationDuration tracks KV storage operation latency.
	StorageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lss",
			Subsystem: "storage",
			Name:      "operation_duration_seconds",
			Help:      "Time spent in a KV storage operation",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"table", "operation"},
	)

	// StorageOperationErrors counts failed KV storage operations.
	StorageOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lss",
			Subsystem: "storage",
			Name:      "operation_errors_total",
			Help:      "Total KV storage operation failures",
		},
		[]string{"table", "operation"},
	)
)
