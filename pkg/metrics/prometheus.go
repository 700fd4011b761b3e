package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	RequestsProcessed prometheus.Counter
	OrdersSubmitted   prometheus.Counter
	ProviderRetries   prometheus.Counter
	ProcessingTime    prometheus.Histogram
	ErrorsCount       *prometheus.CounterVec
}

// NewMetrics creates new prometheus metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		RequestsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_requests_total",
			Help:      "The total number of processed booking requests",
		}),
		OrdersSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_submitted_total",
			Help:      "The total number of orders accepted by the provider",
		}),
		ProviderRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_retries_total",
			Help:      "The total number of retried provider calls",
		}),
		ProcessingTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "booking_processing_time_seconds",
			Help:      "Time taken to process one booking request",
			Buckets:   prometheus.DefBuckets,
		}),
		ErrorsCount: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of errors",
		}, []string{"operation"}),
	}
}
