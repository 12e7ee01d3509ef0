package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voxscribe/voxscribe/cmd/server/internal/api"
	"github.com/voxscribe/voxscribe/cmd/server/internal/asr"
	"github.com/voxscribe/voxscribe/cmd/server/internal/audio"
	"github.com/voxscribe/voxscribe/cmd/server/internal/config"
	"github.com/voxscribe/voxscribe/cmd/server/internal/middleware"
	"github.com/voxscribe/voxscribe/cmd/server/internal/transcribe"
	"github.com/voxscribe/voxscribe/pkg/logger"
)

func main() {
	// Load .env file if it exists (dev convenience)
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found - using environment variables")
	}

	env := os.Getenv("ENV")
	isProd := strings.EqualFold(env, "prod") || strings.EqualFold(env, "production")
	logInstance, err := logger.Init(logger.Config{
		Level:       os.Getenv("LOG_LEVEL"),
		Environment: env,
		Format:      os.Getenv("LOG_FORMAT"),
		WithSource:  !isProd,
		FilePath:    os.Getenv("LOG_FILE"),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	appLogger := logInstance.With("component", "web-server")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		appLogger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := config.ValidateConfig(cfg); err != nil {
		appLogger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	appLogger.Info("configuration loaded", "env", cfg.Server.Env, "port", cfg.Server.Port, "engine", cfg.Engine.Name)
	if cfg.IsDevelopment() {
		fmt.Println(cfg.PrintConfig())
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Ensure data directories exist
	for _, dir := range []string{cfg.Data.TempDir, cfg.Data.SubtitlesDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			appLogger.Error("failed to create data directory", "dir", dir, "error", err)
			os.Exit(1)
		}
	}

	// Build the recognition backend
	engine, aligner, err := buildEngine(cfg)
	if err != nil {
		appLogger.Error("engine init failed", "error", err)
		os.Exit(1)
	}
	appLogger.Info("recognition engine ready", "engine", engine.Name(), "forced_alignment", aligner != nil)

	// Periodic backend health probing (observability only)
	checker := asr.NewHealthChecker(engine, time.Minute, 3)
	go checker.Start(context.Background())

	// Transcription pipeline
	pipe, err := transcribe.NewPipeline(engine, aligner, transcribe.Config{
		SegmentDuration:    cfg.Pipeline.SegmentDuration,
		OverlapDuration:    cfg.Pipeline.OverlapDuration,
		MinSegmentDuration: cfg.Pipeline.MinSegmentDuration,
		MaxSegmentDuration: cfg.Pipeline.MaxSegmentDuration,
	}, logInstance.With("component", "pipeline"))
	if err != nil {
		appLogger.Error("pipeline init failed", "error", err)
		os.Exit(1)
	}

	// Media decoding via local ffmpeg
	executorCfg := audio.ExecutorConfig{
		BinaryPaths:     map[string]string{"ffmpeg": cfg.Data.FFmpegPath},
		DefaultTimeout:  time.Duration(cfg.Data.FFmpegTimeoutSeconds) * time.Second,
		AllowedCommands: []string{"ffmpeg"},
	}
	executor := audio.NewLocalExecutor(executorCfg)
	if err := executor.HealthCheck(context.Background()); err != nil {
		appLogger.Warn("ffmpeg not available, media decoding will fail", "error", err)
	}
	source := audio.NewFFmpegSource(executor, executorCfg, cfg.Data.TempDir)

	limiter := api.NewConcurrencyLimiter(int64(cfg.Server.MaxConcurrentTranscriptions))
	streams := api.NewStreamServer(pipe, source, limiter, cfg.Data.TempDir, logInstance.With("component", "stream"))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(corsMiddleware(cfg))
	r.Use(middleware.TokenAuth(cfg.Security.JWTSecret, logInstance.With("component", "auth")))

	startTime := time.Now()
	r.GET("/health", api.HandleHealth())
	r.GET("/status", api.HandleStatus(engine, checker, limiter, streams, cfg, startTime))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/transcribe", api.HandleTranscribe(pipe, source, limiter, cfg))
	r.GET("/subtitles/:name", api.HandleSubtitleDownload(cfg.Data.SubtitlesDir))
	r.GET("/ws/transcribe/:client_id", streams.HandleStream())

	// Create HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:    cfg.GetServerAddr(),
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		appLogger.Info("server starting", "addr", srv.Addr, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-quit
	appLogger.Info("shutdown signal received, shutting down server...")

	checker.Stop()

	// Attempt graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	appLogger.Info("server shutdown complete")
}

// buildEngine constructs the recognition backend and the optional aligner
// from config. Only the sidecar and mock engines can serve forced alignment;
// the OpenAI API reports word timings inline.
func buildEngine(cfg *config.Config) (asr.Engine, asr.Aligner, error) {
	switch cfg.Engine.Name {
	case "sidecar":
		engine := asr.NewSidecarEngine(cfg.Engine.SidecarURL)
		if cfg.Engine.ForcedAlignment {
			return engine, engine, nil
		}
		return engine, nil, nil
	case "openai":
		engine := asr.NewOpenAIEngine(cfg.Engine.OpenAIAPIKey, cfg.Engine.OpenAIBaseURL, cfg.Engine.OpenAIModel)
		return engine, nil, nil
	case "mock":
		engine := asr.NewMockEngine()
		if cfg.Engine.ForcedAlignment {
			return engine, engine, nil
		}
		return engine, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown engine: %s", cfg.Engine.Name)
	}
}

// corsMiddleware 默认放行所有来源，配置了 CORS_ALLOWED_ORIGINS 时收紧
func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	origins := []string{"*"}
	if len(cfg.Security.CORSAllowedOrigins) > 0 {
		origins = cfg.Security.CORSAllowedOrigins
	}

	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"X-User",
			"X-Request-ID",
		},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
