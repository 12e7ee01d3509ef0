package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config 统一配置结构
type Config struct {
	Server   ServerConfig
	Engine   EngineConfig
	Pipeline PipelineConfig
	Data     DataConfig
	Log      LogConfig
	Security SecurityConfig
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Env  string // dev, staging, production
	Port string

	// MaxConcurrentTranscriptions 限制同时运行的转写流水线数量
	MaxConcurrentTranscriptions int

	// MaxUploadSizeMB 上传文件大小上限（MB）
	MaxUploadSizeMB int64
}

// EngineConfig 语音识别引擎配置
type EngineConfig struct {
	Name string // sidecar, openai, mock

	SidecarURL string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// ForcedAlignment 启用独立对齐步骤（仅 sidecar/mock 引擎支持）
	ForcedAlignment bool

	// 模型部署参数。模型由 sidecar 进程加载，这里仅用于状态上报
	ModelSize   string // tiny, base, small, medium, large
	Device      string // cpu, cuda, auto
	ComputeType string // float16, float32, int8
}

// PipelineConfig 转写流水线参数（秒）
type PipelineConfig struct {
	SegmentDuration    float64
	OverlapDuration    float64
	MinSegmentDuration float64
	MaxSegmentDuration float64
}

// DataConfig 数据目录与外部工具配置
type DataConfig struct {
	TempDir      string
	SubtitlesDir string

	FFmpegPath           string
	FFmpegTimeoutSeconds int
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string // debug, info, warn, error
	Format   string // console, json
	FilePath string // 为空时仅输出到标准输出
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	// JWTSecret 为空时不启用鉴权
	JWTSecret          string
	CORSAllowedOrigins []string
}

// GlobalConfig 全局配置实例
var GlobalConfig *Config

// LoadConfig 从环境变量加载配置
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Env:                         getEnv("ENV", "dev"),
			Port:                        getEnv("PORT", "8000"),
			MaxConcurrentTranscriptions: getEnvInt("MAX_CONCURRENT_TRANSCRIPTIONS", 2),
			MaxUploadSizeMB:             int64(getEnvInt("MAX_UPLOAD_SIZE_MB", 500)),
		},
		Engine: EngineConfig{
			Name:            getEnv("ENGINE", "sidecar"),
			SidecarURL:      getEnv("SIDECAR_URL", "http://localhost:9000"),
			OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
			OpenAIModel:     getEnv("OPENAI_MODEL", "whisper-1"),
			ForcedAlignment: getEnvBool("FORCED_ALIGNMENT", false),
			ModelSize:       getEnv("MODEL_SIZE", "base"),
			Device:          getEnv("DEVICE", "auto"),
			ComputeType:     getEnv("COMPUTE_TYPE", "float16"),
		},
		Pipeline: PipelineConfig{
			SegmentDuration:    getEnvFloat("SEGMENT_DURATION", 30.0),
			OverlapDuration:    getEnvFloat("OVERLAP_DURATION", 2.0),
			MinSegmentDuration: getEnvFloat("MIN_SEGMENT_DURATION", 1.0),
			MaxSegmentDuration: getEnvFloat("MAX_SEGMENT_DURATION", 5.0),
		},
		Data: DataConfig{
			TempDir:              getEnv("TEMP_DIR", "temp"),
			SubtitlesDir:         getEnv("SUBTITLES_DIR", "subtitles"),
			FFmpegPath:           getEnv("FFMPEG_PATH", "ffmpeg"),
			FFmpegTimeoutSeconds: getEnvInt("FFMPEG_TIMEOUT_SECONDS", 600),
		},
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Format:   getEnv("LOG_FORMAT", "console"),
			FilePath: getEnv("LOG_FILE", ""),
		},
		Security: SecurityConfig{
			JWTSecret:          getEnv("JWT_SECRET", ""),
			CORSAllowedOrigins: parseStringList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		},
	}

	GlobalConfig = cfg
	return cfg, nil
}

// ValidateConfig 验证配置的有效性
func ValidateConfig(cfg *Config) error {
	var errors []string

	// 1. 引擎验证
	validEngines := map[string]bool{"sidecar": true, "openai": true, "mock": true}
	if !validEngines[cfg.Engine.Name] {
		errors = append(errors, fmt.Sprintf("invalid ENGINE: %s (must be: sidecar, openai, mock)", cfg.Engine.Name))
	}
	if cfg.Engine.Name == "sidecar" && cfg.Engine.SidecarURL == "" {
		errors = append(errors, "SIDECAR_URL is required when ENGINE=sidecar")
	}
	if cfg.Engine.Name == "openai" {
		if cfg.Engine.OpenAIAPIKey == "" {
			errors = append(errors, "OPENAI_API_KEY is required when ENGINE=openai")
		}
		if cfg.Engine.ForcedAlignment {
			errors = append(errors, "FORCED_ALIGNMENT is not supported with ENGINE=openai")
		}
	}

	// 2. 流水线参数验证
	if cfg.Pipeline.SegmentDuration <= 0 {
		errors = append(errors, fmt.Sprintf("invalid SEGMENT_DURATION: %g (must be positive)", cfg.Pipeline.SegmentDuration))
	}
	if cfg.Pipeline.OverlapDuration <= 0 || cfg.Pipeline.OverlapDuration >= cfg.Pipeline.SegmentDuration {
		errors = append(errors, fmt.Sprintf("invalid OVERLAP_DURATION: %g (must be positive and below SEGMENT_DURATION)", cfg.Pipeline.OverlapDuration))
	}
	if cfg.Pipeline.MinSegmentDuration <= 0 || cfg.Pipeline.MinSegmentDuration >= cfg.Pipeline.MaxSegmentDuration {
		errors = append(errors, fmt.Sprintf("invalid MIN_SEGMENT_DURATION: %g (must be positive and below MAX_SEGMENT_DURATION)", cfg.Pipeline.MinSegmentDuration))
	}

	// 3. 并发与上传限制验证
	if cfg.Server.MaxConcurrentTranscriptions < 1 {
		errors = append(errors, fmt.Sprintf("invalid MAX_CONCURRENT_TRANSCRIPTIONS: %d (must be >= 1)", cfg.Server.MaxConcurrentTranscriptions))
	}
	if cfg.Server.MaxUploadSizeMB < 1 {
		errors = append(errors, fmt.Sprintf("invalid MAX_UPLOAD_SIZE_MB: %d (must be >= 1)", cfg.Server.MaxUploadSizeMB))
	}

	// 4. JWT Secret 验证（配置时必须足够长）
	if cfg.Security.JWTSecret != "" && len(cfg.Security.JWTSecret) < 32 {
		errors = append(errors, "JWT_SECRET must be at least 32 characters long")
	}

	// 5. 端口验证
	if port, err := strconv.Atoi(cfg.Server.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid PORT value: %s (must be 1-65535)", cfg.Server.Port))
	}

	// 6. 日志级别验证
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Log.Level] {
		errors = append(errors, fmt.Sprintf("invalid LOG_LEVEL: %s (must be: debug, info, warn, error)", cfg.Log.Level))
	}

	// 7. 日志格式验证
	validLogFormats := map[string]bool{"console": true, "json": true}
	if !validLogFormats[cfg.Log.Format] {
		errors = append(errors, fmt.Sprintf("invalid LOG_FORMAT: %s (must be: console, json)", cfg.Log.Format))
	}

	// 8. 环境验证
	validEnvs := map[string]bool{"dev": true, "development": true, "staging": true, "production": true}
	if !validEnvs[cfg.Server.Env] {
		errors = append(errors, fmt.Sprintf("invalid ENV: %s (must be: dev, development, staging, production)", cfg.Server.Env))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// IsProduction 判断是否为生产环境
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// IsDevelopment 判断是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "dev" || c.Server.Env == "development"
}

// GetServerAddr 获取服务器监听地址
func (c *Config) GetServerAddr() string {
	return ":" + c.Server.Port
}

// MaxUploadSizeBytes 上传大小上限（字节）
func (c *Config) MaxUploadSizeBytes() int64 {
	return c.Server.MaxUploadSizeMB * 1024 * 1024
}

// PrintConfig 打印配置（脱敏）
func (c *Config) PrintConfig() string {
	return fmt.Sprintf(`Configuration Loaded:
  Environment: %s
  Server Port: %s
  Max Concurrent Transcriptions: %d
  Max Upload Size: %d MB
  Engine:
    - Name: %s
    - Sidecar URL: %s
    - OpenAI API Key: %s
    - OpenAI Model: %s
    - Forced Alignment: %t
    - Model: %s (device=%s, compute=%s)
  Pipeline:
    - Segment Duration: %gs
    - Overlap Duration: %gs
    - Min Segment Duration: %gs
    - Max Segment Duration: %gs
  Data:
    - Temp Dir: %s
    - Subtitles Dir: %s
    - FFmpeg: %s (timeout %ds)
  Logging:
    - Level: %s
    - Format: %s
    - File: %s
  Security:
    - JWT Secret: %s
    - CORS Origins: %v`,
		c.Server.Env,
		c.Server.Port,
		c.Server.MaxConcurrentTranscriptions,
		c.Server.MaxUploadSizeMB,
		c.Engine.Name,
		c.Engine.SidecarURL,
		maskSecret(c.Engine.OpenAIAPIKey),
		c.Engine.OpenAIModel,
		c.Engine.ForcedAlignment,
		c.Engine.ModelSize,
		c.Engine.Device,
		c.Engine.ComputeType,
		c.Pipeline.SegmentDuration,
		c.Pipeline.OverlapDuration,
		c.Pipeline.MinSegmentDuration,
		c.Pipeline.MaxSegmentDuration,
		c.Data.TempDir,
		c.Data.SubtitlesDir,
		c.Data.FFmpegPath,
		c.Data.FFmpegTimeoutSeconds,
		c.Log.Level,
		c.Log.Format,
		c.Log.FilePath,
		maskSecret(c.Security.JWTSecret),
		c.Security.CORSAllowedOrigins,
	)
}

// 辅助函数

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt 获取整数环境变量，解析失败时返回默认值
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvFloat 获取浮点数环境变量，解析失败时返回默认值
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvBool 获取布尔环境变量，解析失败时返回默认值
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// parseStringList 解析逗号分隔的字符串列表
func parseStringList(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// maskSecret 对敏感信息进行脱敏
func maskSecret(secret string) string {
	if secret == "" {
		return "<not set>"
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "***" + secret[len(secret)-4:]
}
