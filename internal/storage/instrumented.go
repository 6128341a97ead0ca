package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/aace/lssbroker/internal/common/metrics"
)

// Instrumented wraps a KV with duration/error metrics and slow-operation
// logging.
type Instrumented struct {
	inner KV
}

// NewInstrumented wraps inner with metrics instrumentation.
func NewInstrumented(inner KV) *Instrumented {
	return &Instrumented{inner: inner}
}

const slowOperationThreshold = 50 * time.Millisecond

func (s *Instrumented) Get(ctx context.Context, table, key string) (string, bool, error) {
	start := time.Now()
	value, found, err := s.inner.Get(ctx, table, key)
	s.record(table, "get", start, err)
	return value, found, err
}

func (s *Instrumented) Put(ctx context.Context, table, key, value string) error {
	start := time.Now()
	err := s.inner.Put(ctx, table, key, value)
	s.record(table, "put", start, err)
	return err
}

func (s *Instrumented) Close() error {
	return s.inner.Close()
}

func (s *Instrumented) record(table, operation string, start time.Time, err error) {
	duration := time.Since(start)
	metrics.StorageOperationDuration.WithLabelValues(table, operation).Observe(duration.Seconds())

	if err != nil {
		metrics.StorageOperationErrors.WithLabelValues(table, operation).Inc()
		slog.Error("storage operation failed", "table", table, "operation", operation, "error", err)
		return
	}

	if duration > slowOperationThreshold {
		slog.Warn("slow storage operation", "table", table, "operation", operation, "duration", duration)
	}
}
