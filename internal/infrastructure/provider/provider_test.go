package provider

import (
	"sync"
	"time"

	"railbook-service/pkg/logger"
	"railbook-service/pkg/metrics"
)

var (
	testMetricsOnce sync.Once
	testMetricsInst *metrics.Metrics
)

// testMetrics returns one shared Metrics instance; promauto registers
// collectors globally, so creating it per test would panic.
func testMetrics() *metrics.Metrics {
	testMetricsOnce.Do(func() {
		testMetricsInst = metrics.NewMetrics("railbook_provider_test")
	})
	return testMetricsInst
}

func testLogger() logger.Logger {
	return logger.NewLogger("fatal")
}

// openLimiter admits everything instantly.
func openLimiter() *Limiter {
	return NewLimiter(1000, time.Millisecond, time.Millisecond)
}
