package logger

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config 定义日志初始化配置
// Level 支持 debug/info/warn/error，Environment 支持 prod/dev 等
// Format 为 json/console，留空时按 Environment 选择（生产环境 JSON）
// WithSource 控制是否记录源码位置
// FilePath 非空时日志同时写入文件，由 lumberjack 负责轮转
type Config struct {
	Level       string
	Environment string
	Format      string
	WithSource  bool

	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

var (
	global *slog.Logger
	once   sync.Once
)

func levelFromString(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, errors.New("invalid log level: " + level)
	}
}

func buildWriter(cfg Config) io.Writer {
	if cfg.FilePath == "" {
		return os.Stdout
	}
	rotating := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	if rotating.MaxSize <= 0 {
		rotating.MaxSize = 100 // MB
	}
	return io.MultiWriter(os.Stdout, rotating)
}

// New 根据配置创建新的 slog.Logger，不设置全局实例
func New(cfg Config) (*slog.Logger, error) {
	lvl, err := levelFromString(cfg.Level)
	if err != nil {
		return nil, err
	}

	out := buildWriter(cfg)
	handlerOpts := &slog.HandlerOptions{Level: lvl, AddSource: cfg.WithSource}
	var handler slog.Handler
	if useJSON(cfg) {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	return slog.New(handler), nil
}

func useJSON(cfg Config) bool {
	switch strings.ToLower(cfg.Format) {
	case "json":
		return true
	case "console", "text":
		return false
	}
	env := strings.ToLower(cfg.Environment)
	return env == "prod" || env == "production"
}

// Init 初始化全局日志实例，重复调用将返回首次创建的 logger
func Init(cfg Config) (*slog.Logger, error) {
	var initErr error
	once.Do(func() {
		global, initErr = New(cfg)
	})
	return global, initErr
}

// L 返回已初始化的全局 logger，未初始化时 panic
func L() *slog.Logger {
	if global == nil {
		panic("logger.Init must be called before logger.L")
	}
	return global
}

// LogWindowProcessing 记录单个窗口处理事件的结构化日志
// stage: asr/align/reconcile/normalize
// action: start/success/error
// windowIndex: 窗口序号
// durationMs: 处理耗时（毫秒）
// errorCode: 错误代码（可选）
func LogWindowProcessing(logger *slog.Logger, stage, action string, windowIndex int, durationMs int64, errorCode string) {
	attrs := []slog.Attr{
		slog.String("stage", stage),
		slog.String("action", action),
		slog.Int("window", windowIndex),
		slog.Int64("duration_ms", durationMs),
	}

	if errorCode != "" {
		attrs = append(attrs, slog.String("error_code", errorCode))
		logger.LogAttrs(nil, slog.LevelError, "Window processing error", attrs...)
	} else {
		logger.LogAttrs(nil, slog.LevelInfo, "Window processing event", attrs...)
	}
}
