package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// statusResult 是 /status 响应中 CLI 关心的字段
type statusResult struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Engine        struct {
		Name      string `json:"name"`
		ModelSize string `json:"model_size"`
		Device    string `json:"device"`
		Health    struct {
			IsHealthy    bool   `json:"is_healthy"`
			ErrorMessage string `json:"error_message,omitempty"`
		} `json:"health"`
	} `json:"engine"`
	ActiveTranscriptions int64 `json:"active_transcriptions"`
	ActiveStreams        int   `json:"active_streams"`
	System               struct {
		CPUPercent        float64 `json:"cpu_percent"`
		MemoryUsedPercent float64 `json:"memory_used_percent"`
		MemoryUsedMB      uint64  `json:"memory_used_mb"`
		MemoryTotalMB     uint64  `json:"memory_total_mb"`
		Goroutines        int     `json:"goroutines"`
	} `json:"system"`
}

// newHealthCmd 创建 health 命令
func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "检查服务端存活状态",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := LoadConfig(cmd)
			client := NewAPIClient(cfg)

			resp, err := client.Get("/health")
			if err != nil {
				return err
			}
			return printOutput(cfg.Output, resp)
		},
	}
}

// newStatusCmd 创建 status 命令
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "查看服务端运行状态（引擎、并发、资源占用）",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := LoadConfig(cmd)
			client := NewAPIClient(cfg)

			resp, err := client.Get("/status")
			if err != nil {
				return err
			}

			if cfg.Output == "json" {
				return printOutput(cfg.Output, resp)
			}

			var st statusResult
			if err := json.Unmarshal(resp, &st); err != nil {
				return printOutput(cfg.Output, resp)
			}

			engineState := "healthy"
			if !st.Engine.Health.IsHealthy {
				engineState = "unhealthy: " + st.Engine.Health.ErrorMessage
			}

			fmt.Printf("Status:  %s (up %.0fs)\n", st.Status, st.UptimeSeconds)
			fmt.Printf("Engine:  %s (model=%s device=%s) %s\n", st.Engine.Name, st.Engine.ModelSize, st.Engine.Device, engineState)
			fmt.Printf("Load:    %d transcriptions, %d streams, %d goroutines\n", st.ActiveTranscriptions, st.ActiveStreams, st.System.Goroutines)
			fmt.Printf("System:  cpu %.1f%%, mem %.1f%% (%d/%d MB)\n", st.System.CPUPercent, st.System.MemoryUsedPercent, st.System.MemoryUsedMB, st.System.MemoryTotalMB)
			return nil
		},
	}
}
