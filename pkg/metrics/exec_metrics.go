// Package metrics provides Prometheus metrics for monitoring voxscribe components.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// External command and engine call metrics
var (
	// commandExecutionTotal records the total number of external command executions.
	// Labels:
	//   - command: Command name (e.g., "ffmpeg", "ffprobe")
	//   - status: Execution status (e.g., "success", "failed", "timeout")
	commandExecutionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voxscribe_command_executions_total",
			Help: "Total number of external command executions",
		},
		[]string{"command", "status"},
	)

	// commandExecutionDuration records the duration of external command executions.
	// Labels:
	//   - command: Command name (e.g., "ffmpeg", "ffprobe")
	// Buckets: 0.1s, 0.5s, 1s, 5s, 10s, 30s, 60s, 300s (5 minutes)
	commandExecutionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voxscribe_command_duration_seconds",
			Help:    "Duration of external command executions in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"command"},
	)

	// engineRequestsTotal records the total number of speech engine requests.
	// Labels:
	//   - engine: Engine name (e.g., "sidecar", "openai", "mock")
	//   - operation: Requested operation (e.g., "transcribe", "align")
	//   - status: Request status (e.g., "success", "failed", "unavailable")
	engineRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voxscribe_engine_requests_total",
			Help: "Total number of speech engine requests",
		},
		[]string{"engine", "operation", "status"},
	)

	// engineRequestDuration records the duration of speech engine requests.
	// Labels:
	//   - engine: Engine name (e.g., "sidecar", "openai", "mock")
	//   - operation: Requested operation (e.g., "transcribe", "align")
	// Buckets: 0.1s, 0.5s, 1s, 5s, 10s, 30s, 60s, 300s (5 minutes)
	engineRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voxscribe_engine_request_duration_seconds",
			Help:    "Duration of speech engine requests in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"engine", "operation"},
	)
)

func init() {
	// Register all execution-related metrics with Prometheus
	prometheus.MustRegister(commandExecutionTotal)
	prometheus.MustRegister(commandExecutionDuration)
	prometheus.MustRegister(engineRequestsTotal)
	prometheus.MustRegister(engineRequestDuration)
}

// RecordCommandExecution records an external command execution event.
// Parameters:
//   - command: Command name (e.g., "ffmpeg", "ffprobe")
//   - status: Execution status (e.g., "success", "failed", "timeout")
func RecordCommandExecution(command, status string) {
	commandExecutionTotal.WithLabelValues(command, status).Inc()
}

// RecordCommandDuration records the duration of an external command execution.
// Parameters:
//   - command: Command name (e.g., "ffmpeg", "ffprobe")
//   - durationSeconds: Execution duration in seconds
func RecordCommandDuration(command string, durationSeconds float64) {
	commandExecutionDuration.WithLabelValues(command).Observe(durationSeconds)
}

// RecordEngineRequest records a speech engine request event.
// Parameters:
//   - engine: Engine name (e.g., "sidecar", "openai", "mock")
//   - operation: Requested operation (e.g., "transcribe", "align")
//   - status: Request status (e.g., "success", "failed", "unavailable")
func RecordEngineRequest(engine, operation, status string) {
	engineRequestsTotal.WithLabelValues(engine, operation, status).Inc()
}

// RecordEngineRequestDuration records the duration of a speech engine request.
// Parameters:
//   - engine: Engine name (e.g., "sidecar", "openai", "mock")
//   - operation: Requested operation (e.g., "transcribe", "align")
//   - durationSeconds: Request duration in seconds
func RecordEngineRequestDuration(engine, operation string, durationSeconds float64) {
	engineRequestDuration.WithLabelValues(engine, operation).Observe(durationSeconds)
}
