package asr

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/voxscribe/voxscribe/cmd/server/internal/metrics"
)

// ServiceStatus represents the current health state of a recognition backend.
// All fields are safe for JSON serialization and can be exposed via API
// endpoints.
type ServiceStatus struct {
	// IsHealthy indicates whether the backend passed recent health checks
	IsHealthy bool `json:"is_healthy"`

	// LastCheckTime records when the most recent health check was performed
	LastCheckTime time.Time `json:"last_check_time"`

	// ConsecutiveFails counts how many health checks have failed in a row.
	// Reset to 0 when a check succeeds.
	ConsecutiveFails int `json:"consecutive_fails"`

	// ErrorMessage contains the last error message if the check failed
	ErrorMessage string `json:"error_message"`
}

// HealthChecker performs periodic health checks on an Engine. The result is
// observability only: it feeds the status endpoint and the engine health
// gauge, it never swaps or disables the engine.
//
// Thread-safety: all public methods are safe via sync.RWMutex.
type HealthChecker struct {
	engine        Engine
	status        *ServiceStatus
	mu            sync.RWMutex
	checkInterval time.Duration
	failThreshold int
	stopChan      chan struct{}
}

// NewHealthChecker creates a HealthChecker for the given engine.
//
// checkInterval is the duration between probes (e.g., 1*time.Minute);
// failThreshold is the number of consecutive failures before the engine is
// reported unhealthy (e.g., 3). The checker starts in a healthy state and
// begins probing once Start is called.
func NewHealthChecker(engine Engine, checkInterval time.Duration, failThreshold int) *HealthChecker {
	return &HealthChecker{
		engine:        engine,
		checkInterval: checkInterval,
		failThreshold: failThreshold,
		stopChan:      make(chan struct{}),
		status: &ServiceStatus{
			IsHealthy:     true, // Start optimistic
			LastCheckTime: time.Now(),
		},
	}
}

// Start begins periodic health checking. It performs an immediate check, then
// checks at regular intervals until Stop is called or ctx is cancelled.
// Run it in its own goroutine; it blocks.
func (hc *HealthChecker) Start(ctx context.Context) {
	ticker := time.NewTicker(hc.checkInterval)
	defer ticker.Stop()

	// Immediate check on startup
	hc.performCheck(ctx)

	for {
		select {
		case <-ticker.C:
			hc.performCheck(ctx)
		case <-hc.stopChan:
			log.Printf("[INFO] HealthChecker: Stopped for %s", hc.engine.Name())
			return
		case <-ctx.Done():
			log.Printf("[INFO] HealthChecker: Context cancelled for %s", hc.engine.Name())
			return
		}
	}
}

// performCheck executes a single health check and updates the status and the
// engine health gauge.
func (hc *HealthChecker) performCheck(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	isHealthy, err := hc.engine.HealthCheck(checkCtx)

	hc.mu.Lock()
	defer hc.mu.Unlock()

	hc.status.LastCheckTime = time.Now()

	if isHealthy {
		hc.status.IsHealthy = true
		hc.status.ConsecutiveFails = 0
		hc.status.ErrorMessage = ""
	} else {
		hc.status.ConsecutiveFails++
		errMsg := "unknown error"
		if err != nil {
			errMsg = err.Error()
		}
		hc.status.ErrorMessage = fmt.Sprintf("Health check failed: %s", errMsg)

		if hc.status.ConsecutiveFails >= hc.failThreshold {
			hc.status.IsHealthy = false
			log.Printf("[ERROR] HealthChecker: Health check failed %d times for %s, marking as unhealthy",
				hc.status.ConsecutiveFails, hc.engine.Name())
		} else {
			log.Printf("[WARN] HealthChecker: Health check failed (%d/%d) for %s: %s",
				hc.status.ConsecutiveFails, hc.failThreshold, hc.engine.Name(), errMsg)
		}
	}

	metrics.SetEngineHealthy(hc.status.IsHealthy)
}

// GetStatus returns a copy of the current health status.
// Thread-safe for concurrent access.
func (hc *HealthChecker) GetStatus() ServiceStatus {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return *hc.status // Return copy, not pointer
}

// Stop gracefully terminates the health checking goroutine. Safe to call
// multiple times.
func (hc *HealthChecker) Stop() {
	select {
	case <-hc.stopChan:
		// Already closed, do nothing
	default:
		close(hc.stopChan)
	}
}
