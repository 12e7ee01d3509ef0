package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrencyLimiter_CapsSlots(t *testing.T) {
	limiter := NewConcurrencyLimiter(1)
	limiter.acquireTimeout = 50 * time.Millisecond

	require.NoError(t, limiter.Acquire(context.Background()))
	assert.Equal(t, int64(1), limiter.InFlight())

	err := limiter.Acquire(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to acquire transcription slot")
	assert.Equal(t, int64(1), limiter.InFlight())

	limiter.Release()
	assert.Equal(t, int64(0), limiter.InFlight())

	require.NoError(t, limiter.Acquire(context.Background()))
	limiter.Release()
}

func TestConcurrencyLimiter_RespectsCallerContext(t *testing.T) {
	limiter := NewConcurrencyLimiter(1)
	require.NoError(t, limiter.Acquire(context.Background()))
	defer limiter.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := limiter.Acquire(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
