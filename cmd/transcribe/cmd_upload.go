package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// transcribeResult 是 /transcribe 响应中 CLI 关心的字段
type transcribeResult struct {
	Success      bool         `json:"success"`
	Message      string       `json:"message"`
	Segments     []cueSegment `json:"segments"`
	Language     string       `json:"language"`
	Duration     float64      `json:"duration"`
	SubtitleFile string       `json:"subtitle_file"`
	Warnings     []struct {
		Window  int    `json:"window"`
		Message string `json:"message"`
	} `json:"warnings"`
}

// newUploadCmd 创建 upload 命令
func newUploadCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "upload <media-file>",
		Short: "上传音视频文件并执行转写",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := LoadConfig(cmd)
			client := NewAPIClient(cfg)

			language, _ := cmd.Flags().GetString("language")
			task, _ := cmd.Flags().GetString("task")
			format, _ := cmd.Flags().GetString("format")
			savePath, _ := cmd.Flags().GetString("save")

			resp, err := client.UploadFile("/transcribe", args[0], map[string]string{
				"language": language,
				"task":     task,
				"format":   format,
			})
			if err != nil {
				return err
			}

			if cfg.Output == "json" {
				return printOutput(cfg.Output, resp)
			}

			var result transcribeResult
			if err := json.Unmarshal(resp, &result); err != nil {
				return printOutput(cfg.Output, resp)
			}

			fmt.Printf("Language: %s  Duration: %.1fs  Segments: %d\n", result.Language, result.Duration, len(result.Segments))
			printSegments(result.Segments)
			for _, w := range result.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w.Message)
			}

			if savePath != "" {
				if err := downloadSubtitle(client, result.SubtitleFile, savePath); err != nil {
					return err
				}
				fmt.Printf("Subtitle saved to %s\n", savePath)
			}
			return nil
		},
	}

	c.Flags().String("language", "", "语言代码 (如 zh/en，留空自动检测)")
	c.Flags().String("task", "", "任务类型: transcribe (默认)")
	c.Flags().String("format", "", "字幕格式: vtt / srt / json (默认: vtt)")
	c.Flags().String("save", "", "转写完成后将服务端字幕文件保存到该路径")
	return c
}

// downloadSubtitle 通过 /subtitles/:name 拉取服务端生成的字幕并写入本地
func downloadSubtitle(client *APIClient, subtitleFile, savePath string) error {
	name := filepath.Base(subtitleFile)
	if name == "" || name == "." {
		return fmt.Errorf("server response did not include a subtitle file")
	}

	data, err := client.Get("/subtitles/" + name)
	if err != nil {
		return fmt.Errorf("download subtitle: %w", err)
	}

	return os.WriteFile(savePath, data, 0644)
}
