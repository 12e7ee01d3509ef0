package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/voxscribe/voxscribe/cmd/server/internal/asr"
	"github.com/voxscribe/voxscribe/cmd/server/internal/config"
)

// HandleHealth 健康检查
// GET /health
func HandleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
		})
	}
}

// EngineStatus 识别引擎状态
type EngineStatus struct {
	Name        string            `json:"name"`
	ModelSize   string            `json:"model_size"`
	Device      string            `json:"device"`
	ComputeType string            `json:"compute_type"`
	Health      asr.ServiceStatus `json:"health"`
}

// SystemStatus 主机资源快照
type SystemStatus struct {
	CPUPercent        float64 `json:"cpu_percent"`
	MemoryUsedPercent float64 `json:"memory_used_percent"`
	MemoryUsedMB      uint64  `json:"memory_used_mb"`
	MemoryTotalMB     uint64  `json:"memory_total_mb"`
	Goroutines        int     `json:"goroutines"`
}

// StatusResponse 服务状态响应
type StatusResponse struct {
	Status               string       `json:"status"`
	UptimeSeconds        float64      `json:"uptime_seconds"`
	Engine               EngineStatus `json:"engine"`
	ActiveTranscriptions int64        `json:"active_transcriptions"`
	ActiveStreams        int          `json:"active_streams"`
	System               SystemStatus `json:"system"`
}

// HandleStatus 返回服务运行状态
// GET /status
func HandleStatus(engine asr.Engine, checker *asr.HealthChecker, limiter *ConcurrencyLimiter, streams *StreamServer, cfg *config.Config, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := StatusResponse{
			Status:               "running",
			UptimeSeconds:        time.Since(startTime).Seconds(),
			ActiveTranscriptions: limiter.InFlight(),
			ActiveStreams:        streams.ActiveStreams(),
			Engine: EngineStatus{
				Name:        engine.Name(),
				ModelSize:   cfg.Engine.ModelSize,
				Device:      cfg.Engine.Device,
				ComputeType: cfg.Engine.ComputeType,
				Health:      checker.GetStatus(),
			},
			System: SystemStatus{
				Goroutines: runtime.NumGoroutine(),
			},
		}

		// 资源采集失败不影响状态上报，保持零值即可
		if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
			resp.System.CPUPercent = percents[0]
		}
		if vm, err := mem.VirtualMemory(); err == nil {
			resp.System.MemoryUsedPercent = vm.UsedPercent
			resp.System.MemoryUsedMB = vm.Used / 1024 / 1024
			resp.System.MemoryTotalMB = vm.Total / 1024 / 1024
		}

		c.JSON(http.StatusOK, resp)
	}
}
