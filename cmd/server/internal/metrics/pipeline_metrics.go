package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TranscriptionRequestsTotal 转写请求总数计数器
	// Labels: transport (http/ws), status (success/error)
	TranscriptionRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voxscribe_transcription_requests_total",
			Help: "Total number of transcription requests by transport",
		},
		[]string{"transport", "status"},
	)

	// WindowsProcessedTotal 音频窗口处理总数计数器
	// Labels: status (success/error)
	WindowsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voxscribe_windows_processed_total",
			Help: "Total number of audio windows processed",
		},
		[]string{"status"},
	)

	// PipelineErrorsTotal 流水线错误总数计数器
	// Labels: stage (decode/asr/align/reconcile/normalize), error_code (DECODE_ERROR/MODEL_UNAVAILABLE/...)
	PipelineErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voxscribe_pipeline_errors_total",
			Help: "Total number of pipeline errors by stage and error code",
		},
		[]string{"stage", "error_code"},
	)

	// EngineHealthy 引擎健康状态量规（0=不可用，1=可用）
	EngineHealthy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "voxscribe_engine_healthy",
			Help: "Speech engine health status (0=unhealthy, 1=healthy)",
		},
	)

	// InflightTranscriptions 正在处理的转写请求数量规
	InflightTranscriptions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "voxscribe_inflight_transcriptions",
			Help: "Number of transcription requests currently being processed",
		},
	)

	// TranscriptionDuration 转写处理耗时直方图（秒）
	// Labels: transport (http/ws)
	// Buckets: 0.1s, 0.5s, 1s, 2s, 5s, 10s, 30s, 60s, 120s, 300s
	TranscriptionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voxscribe_transcription_duration_seconds",
			Help:    "Transcription request duration in seconds by transport",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"transport"},
	)

	// SegmentsEmitted 单次转写产出分段数直方图
	// Labels: transport (http/ws)
	SegmentsEmitted = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voxscribe_segments_emitted",
			Help:    "Number of segments emitted per transcription request",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"transport"},
	)
)

// RecordTranscriptionRequest 记录一次转写请求完成
func RecordTranscriptionRequest(transport string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	TranscriptionRequestsTotal.WithLabelValues(transport, status).Inc()
}

// RecordWindowProcessed 记录一个音频窗口处理完成
func RecordWindowProcessed(success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	WindowsProcessedTotal.WithLabelValues(status).Inc()
}

// RecordPipelineError 记录流水线错误
func RecordPipelineError(stage, errorCode string) {
	PipelineErrorsTotal.WithLabelValues(stage, errorCode).Inc()
}

// SetEngineHealthy 设置引擎健康状态
func SetEngineHealthy(healthy bool) {
	if healthy {
		EngineHealthy.Set(1)
	} else {
		EngineHealthy.Set(0)
	}
}

// RecordTranscriptionDuration 记录转写处理耗时（秒）
func RecordTranscriptionDuration(transport string, durationSeconds float64) {
	TranscriptionDuration.WithLabelValues(transport).Observe(durationSeconds)
}

// RecordSegmentsEmitted 记录单次转写产出的分段数
func RecordSegmentsEmitted(transport string, count int) {
	SegmentsEmitted.WithLabelValues(transport).Observe(float64(count))
}
