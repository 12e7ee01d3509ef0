package api

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/voxscribe/voxscribe/cmd/server/internal/metrics"
)

// ConcurrencyLimiter caps the number of transcription pipelines running at
// the same time. Each run holds an ffmpeg process and a recognition slot on
// the backend, so unbounded parallelism would exhaust both.
type ConcurrencyLimiter struct {
	sem            *semaphore.Weighted
	inFlight       atomic.Int64
	acquireTimeout time.Duration
}

// NewConcurrencyLimiter creates a limiter allowing at most max concurrent
// pipeline runs.
func NewConcurrencyLimiter(max int64) *ConcurrencyLimiter {
	return &ConcurrencyLimiter{
		sem:            semaphore.NewWeighted(max),
		acquireTimeout: 30 * time.Second,
	}
}

// Acquire attempts to claim a pipeline slot.
// It blocks until a slot is available or the acquire timeout is reached.
func (l *ConcurrencyLimiter) Acquire(ctx context.Context) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, l.acquireTimeout)
	defer cancel()

	if err := l.sem.Acquire(timeoutCtx, 1); err != nil {
		return fmt.Errorf("failed to acquire transcription slot: %w", err)
	}

	l.inFlight.Add(1)
	metrics.InflightTranscriptions.Inc()
	return nil
}

// Release frees a pipeline slot.
// This should be called after the run completes (in a defer statement).
func (l *ConcurrencyLimiter) Release() {
	l.inFlight.Add(-1)
	metrics.InflightTranscriptions.Dec()
	l.sem.Release(1)
}

// InFlight returns the number of pipeline runs currently holding a slot.
func (l *ConcurrencyLimiter) InFlight() int64 {
	return l.inFlight.Load()
}
