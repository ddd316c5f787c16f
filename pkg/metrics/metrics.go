package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DispatchCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_dispatch_total",
			Help: "Total number of dispatch decisions",
		},
		[]string{"channel", "result"}, // result: realtime, queued, direct_success, direct_failure, rejected
	)

	QueuePublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_publish_failure_total",
			Help: "Total number of failed broker publish attempts",
		},
	)

	DeliveryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_attempt_total",
			Help: "Total number of channel send attempts by outcome",
		},
		[]string{"channel", "outcome"}, // outcome: success, permanent_failure, transient_failure
	)

	MQConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"queue"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	RealtimeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_connections",
			Help: "Number of currently connected realtime clients",
		},
	)

	DeadLetterCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dead_letter_total",
			Help: "Total number of messages routed to the dead letter queue",
		},
	)
)

func RecordMQConsumeLatency(queue string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(queue).Observe(float64(duration.Milliseconds()))
}

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
