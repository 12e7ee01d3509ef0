package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/voxscribe/voxscribe/cmd/server/internal/audio"
	"github.com/voxscribe/voxscribe/cmd/server/internal/config"
	"github.com/voxscribe/voxscribe/cmd/server/internal/metrics"
	"github.com/voxscribe/voxscribe/cmd/server/internal/subtitle"
	"github.com/voxscribe/voxscribe/cmd/server/internal/transcribe"
	"github.com/voxscribe/voxscribe/pkg/logger"
)

// allowedUploadExtensions 允许上传的媒体格式
// 音频直接解码，视频先经 ffmpeg 抽取音轨
var allowedUploadExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".flac": true,
	".ogg":  true,
	".webm": true,
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".mkv":  true,
}

// requestParam 依次尝试 query 与 form 参数
func requestParam(c *gin.Context, key string) string {
	if v := c.Query(key); v != "" {
		return v
	}
	return c.PostForm(key)
}

// HandleTranscribe 处理媒体文件上传并执行批量转写
// POST /transcribe
func HandleTranscribe(pipe *transcribe.Pipeline, source *audio.FFmpegSource, limiter *ConcurrencyLimiter, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		file, err := c.FormFile("file")
		if err != nil {
			badRequestResponse(c, "No file uploaded")
			return
		}

		if file.Size > cfg.MaxUploadSizeBytes() {
			errorResponse(c, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("File too large: %d bytes (max %d MB)", file.Size, cfg.Server.MaxUploadSizeMB))
			return
		}

		ext := strings.ToLower(filepath.Ext(file.Filename))
		if !allowedUploadExtensions[ext] {
			badRequestResponse(c, fmt.Sprintf("Unsupported file format: %s", ext))
			return
		}

		format, err := subtitle.ParseFormat(requestParam(c, "format"))
		if err != nil {
			badRequestResponse(c, err.Error())
			return
		}

		opts := transcribe.RunOptions{
			Language: requestParam(c, "language"),
			Task:     requestParam(c, "task"),
		}

		if err := limiter.Acquire(c.Request.Context()); err != nil {
			metrics.RecordTranscriptionRequest("http", false)
			errorResponse(c, http.StatusServiceUnavailable, "Server is busy, please try again later")
			return
		}
		defer limiter.Release()

		logger.L().Info("transcription upload accepted",
			"user", currentUser(c),
			"file", file.Filename,
			"size_bytes", file.Size,
			"format", string(format),
		)

		// filepath.Base 去除客户端可能携带的路径成分
		uploadPath := filepath.Join(cfg.Data.TempDir, uuid.New().String()+"_"+filepath.Base(file.Filename))
		if err := c.SaveUploadedFile(file, uploadPath); err != nil {
			metrics.RecordTranscriptionRequest("http", false)
			internalErrorResponse(c, fmt.Errorf("failed to save uploaded file: %w", err))
			return
		}
		defer os.Remove(uploadPath)

		ctx := c.Request.Context()

		audioPath, err := source.ExtractAudio(ctx, uploadPath)
		if err != nil {
			metrics.RecordTranscriptionRequest("http", false)
			respondTranscriptionError(c, err)
			return
		}
		if audioPath != uploadPath {
			defer os.Remove(audioPath)
		}

		samples, err := source.Load(ctx, audioPath)
		if err != nil {
			metrics.RecordTranscriptionRequest("http", false)
			respondTranscriptionError(c, err)
			return
		}

		res, err := pipe.Run(ctx, samples, opts)
		if err != nil {
			metrics.RecordTranscriptionRequest("http", false)
			respondTranscriptionError(c, err)
			return
		}

		subtitlePath, err := subtitle.WriteFile(cfg.Data.SubtitlesDir, res.Segments, format)
		if err != nil {
			metrics.RecordTranscriptionRequest("http", false)
			internalErrorResponse(c, fmt.Errorf("failed to write subtitle file: %w", err))
			return
		}

		metrics.RecordTranscriptionRequest("http", true)
		metrics.RecordTranscriptionDuration("http", time.Since(start).Seconds())
		metrics.RecordSegmentsEmitted("http", len(res.Segments))

		resp := gin.H{
			"success":       true,
			"message":       "Transcription completed successfully",
			"segments":      res.Segments,
			"language":      res.Language,
			"duration":      res.Duration,
			"subtitle_file": subtitlePath,
		}
		if len(res.Warnings) > 0 {
			resp["warnings"] = res.Warnings
		}
		successResponse(c, resp)
	}
}

// respondTranscriptionError 将流水线错误映射为 HTTP 状态码
// 客户端问题归 4xx，识别后端不可用归 503 以便重试，其余归 500
func respondTranscriptionError(c *gin.Context, err error) {
	message := "Transcription failed: " + err.Error()

	if perr, ok := transcribe.AsPipelineError(err); ok {
		switch perr.Code {
		case transcribe.INVALID_BUFFER, transcribe.UNSUPPORTED_TASK:
			badRequestResponse(c, message)
			return
		case transcribe.DECODE_FAILED:
			errorResponse(c, http.StatusUnprocessableEntity, message)
			return
		case transcribe.MODEL_UNAVAILABLE:
			errorResponse(c, http.StatusServiceUnavailable, message)
			return
		}
	}
	errorResponse(c, http.StatusInternalServerError, message)
}

// HandleSubtitleDownload 下载已生成的字幕文件
// GET /subtitles/:name
func HandleSubtitleDownload(subtitlesDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")

		// 拒绝任何带路径成分的名字，防止目录穿越
		if name == "" || name == "." || name == ".." || name != filepath.Base(name) {
			badRequestResponse(c, "Invalid subtitle file name")
			return
		}

		path := filepath.Join(subtitlesDir, name)
		if _, err := os.Stat(path); err != nil {
			notFoundResponse(c, "subtitle file")
			return
		}

		c.File(path)
	}
}
