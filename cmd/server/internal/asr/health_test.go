package asr

import (
	"context"
	"errors"
	"testing"
	"time"
)

// flakyEngine is a minimal Engine whose health can be toggled for testing.
type flakyEngine struct {
	healthy bool
	err     error
}

func (f *flakyEngine) Transcribe(ctx context.Context, samples []float32, opts Options) (*Result, error) {
	return &Result{}, nil
}

func (f *flakyEngine) HealthCheck(ctx context.Context) (bool, error) {
	return f.healthy, f.err
}

func (f *flakyEngine) Name() string {
	return "flaky-test"
}

// TestHealthChecker tests the health checking functionality.
func TestHealthChecker(t *testing.T) {
	t.Run("initial state is healthy", func(t *testing.T) {
		checker := NewHealthChecker(&flakyEngine{healthy: true}, 1*time.Second, 3)

		status := checker.GetStatus()
		if !status.IsHealthy {
			t.Error("Initial state should be healthy")
		}
		if status.ConsecutiveFails != 0 {
			t.Errorf("ConsecutiveFails = %d, want 0", status.ConsecutiveFails)
		}
	})

	t.Run("failures below threshold stay healthy", func(t *testing.T) {
		engine := &flakyEngine{healthy: false, err: errors.New("connection refused")}
		checker := NewHealthChecker(engine, 1*time.Second, 3)

		checker.performCheck(context.Background())
		checker.performCheck(context.Background())

		status := checker.GetStatus()
		if !status.IsHealthy {
			t.Error("Should stay healthy below the failure threshold")
		}
		if status.ConsecutiveFails != 2 {
			t.Errorf("ConsecutiveFails = %d, want 2", status.ConsecutiveFails)
		}
		if status.ErrorMessage == "" {
			t.Error("ErrorMessage should record the failure")
		}
	})

	t.Run("threshold reached marks unhealthy", func(t *testing.T) {
		engine := &flakyEngine{healthy: false}
		checker := NewHealthChecker(engine, 1*time.Second, 3)

		for i := 0; i < 3; i++ {
			checker.performCheck(context.Background())
		}

		status := checker.GetStatus()
		if status.IsHealthy {
			t.Error("Should be unhealthy after reaching the failure threshold")
		}
	})

	t.Run("success resets failure counter", func(t *testing.T) {
		engine := &flakyEngine{healthy: false}
		checker := NewHealthChecker(engine, 1*time.Second, 3)

		checker.performCheck(context.Background())
		engine.healthy = true
		checker.performCheck(context.Background())

		status := checker.GetStatus()
		if !status.IsHealthy {
			t.Error("Should be healthy after a successful check")
		}
		if status.ConsecutiveFails != 0 {
			t.Errorf("ConsecutiveFails = %d, want 0", status.ConsecutiveFails)
		}
		if status.ErrorMessage != "" {
			t.Errorf("ErrorMessage = %q, want empty", status.ErrorMessage)
		}
	})

	t.Run("stop can be called multiple times", func(t *testing.T) {
		checker := NewHealthChecker(&flakyEngine{healthy: true}, 1*time.Second, 3)

		checker.Stop()
		checker.Stop()
		checker.Stop()
	})
}
