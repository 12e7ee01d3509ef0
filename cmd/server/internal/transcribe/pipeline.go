package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/voxscribe/voxscribe/cmd/server/internal/asr"
	"github.com/voxscribe/voxscribe/cmd/server/internal/metrics"
	"github.com/voxscribe/voxscribe/pkg/logger"
)

// Config holds the pipeline tuning parameters. Zero values are replaced by
// the defaults below.
type Config struct {
	// SegmentDuration is the window length in seconds.
	SegmentDuration float64

	// OverlapDuration is the audio shared by consecutive windows in seconds.
	// Must stay below SegmentDuration.
	OverlapDuration float64

	// MinSegmentDuration and MaxSegmentDuration bound the output cue length
	// where achievable.
	MinSegmentDuration float64
	MaxSegmentDuration float64

	// SampleRate of the input buffer in Hz.
	SampleRate int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		SegmentDuration:    30.0,
		OverlapDuration:    2.0,
		MinSegmentDuration: DefaultMinSegmentDuration,
		MaxSegmentDuration: DefaultMaxSegmentDuration,
		SampleRate:         asr.SampleRate,
	}
}

// applyDefaults fills zero fields from DefaultConfig.
func (cfg Config) applyDefaults() Config {
	def := DefaultConfig()
	if cfg.SegmentDuration <= 0 {
		cfg.SegmentDuration = def.SegmentDuration
	}
	if cfg.OverlapDuration <= 0 {
		cfg.OverlapDuration = def.OverlapDuration
	}
	if cfg.MinSegmentDuration <= 0 {
		cfg.MinSegmentDuration = def.MinSegmentDuration
	}
	if cfg.MaxSegmentDuration <= 0 {
		cfg.MaxSegmentDuration = def.MaxSegmentDuration
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = def.SampleRate
	}
	return cfg
}

// validate rejects parameter combinations the algorithms are not defined for.
func (cfg Config) validate() error {
	if cfg.OverlapDuration >= cfg.SegmentDuration {
		return fmt.Errorf("overlap duration (%gs) must be shorter than segment duration (%gs)", cfg.OverlapDuration, cfg.SegmentDuration)
	}
	if cfg.MinSegmentDuration >= cfg.MaxSegmentDuration {
		return fmt.Errorf("min segment duration (%gs) must be shorter than max segment duration (%gs)", cfg.MinSegmentDuration, cfg.MaxSegmentDuration)
	}
	return nil
}

// RunOptions are the per-request knobs.
type RunOptions struct {
	// Language is an ISO 639-1 hint, or empty/"auto" for detection.
	Language string

	// Task is asr.TaskTranscribe (default) or asr.TaskTranslate.
	Task string
}

// WindowWarning reports one window whose recognition failed. The request
// still succeeds; the warning marks the coverage gap.
type WindowWarning struct {
	Window  int     `json:"window"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Message string  `json:"message"`
}

// Result is the outcome of one pipeline run.
type Result struct {
	// Segments is the final normalized cue stream.
	Segments []Segment `json:"segments"`

	// Language is the requested or first-detected language code.
	Language string `json:"language"`

	// Duration is the length of the input audio in seconds.
	Duration float64 `json:"duration"`

	// Warnings lists windows lost to recoverable recognition failures.
	Warnings []WindowWarning `json:"warnings,omitempty"`
}

// Pipeline drives the full chain: window the buffer, transcribe each window,
// reconcile the overlaps, normalize the cue lengths. Engines are injected at
// construction; the pipeline itself holds no model state and one instance
// serves concurrent requests as long as the engines allow it.
type Pipeline struct {
	transcriber *SegmentTranscriber
	cfg         Config
	logger      *slog.Logger
}

// NewPipeline builds a Pipeline around the given backends. aligner may be nil
// when the engine reports word timings itself. logger nil falls back to
// slog.Default.
func NewPipeline(engine asr.Engine, aligner asr.Aligner, cfg Config, log *slog.Logger) (*Pipeline, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine must not be nil")
	}
	cfg = cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		transcriber: NewSegmentTranscriber(engine, aligner),
		cfg:         cfg,
		logger:      log,
	}, nil
}

// Config returns the effective configuration after defaulting.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Run transcribes one sample buffer. Windows are processed sequentially and
// in order; the recognition calls saturate the accelerator on their own, so
// parallelizing windows buys nothing and would break the overlap fold.
//
// Per-window recognition failures cost only that window and surface as
// Result.Warnings. An unreachable backend, an empty buffer, or a cancelled
// context abort the whole run. There are no retries at this level.
func (p *Pipeline) Run(ctx context.Context, samples []float32, opts RunOptions) (*Result, error) {
	lang, err := asr.NormalizeLanguage(opts.Language)
	if err != nil {
		return nil, err
	}

	task := opts.Task
	if task == "" {
		task = asr.TaskTranscribe
	}
	if task != asr.TaskTranscribe && task != asr.TaskTranslate {
		return nil, NewUnsupportedTaskError(fmt.Sprintf("unknown task %q", task))
	}
	if task == asr.TaskTranslate && p.transcriber.aligner != nil {
		// Forced alignment expects source-language text; aligning translated
		// output would produce garbage timestamps.
		return nil, NewUnsupportedTaskError("task \"translate\" cannot be combined with forced alignment")
	}

	windows, err := SplitWindows(samples, p.cfg.SampleRate, p.cfg.SegmentDuration, p.cfg.OverlapDuration)
	if err != nil {
		return nil, err
	}
	total := float64(len(samples)) / float64(p.cfg.SampleRate)

	p.logger.Info("transcription started",
		"windows", len(windows),
		"audio_seconds", total,
		"task", task,
		"language", opts.Language,
	)

	pinned := lang
	var all []Segment
	var warnings []WindowWarning

	for i, w := range windows {
		// 窗口之间检查取消，窗口内部的模型调用不可抢占
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		started := time.Now()
		segs, detected, err := p.transcriber.TranscribeWindow(ctx, w, pinned, task)
		if err != nil {
			if asr.IsModelUnavailable(err) {
				metrics.RecordPipelineError("asr", string(MODEL_UNAVAILABLE))
				return nil, NewModelUnavailableError(err)
			}

			werr := NewWindowError(i, err)
			warnings = append(warnings, WindowWarning{
				Window:  i,
				Start:   w.StartOffset,
				End:     w.EndOffset,
				Message: werr.Error(),
			})
			metrics.RecordWindowProcessed(false)
			metrics.RecordPipelineError("asr", string(WINDOW_TRANSCRIPTION_FAILED))
			logger.LogWindowProcessing(p.logger, "asr", "error", i, time.Since(started).Milliseconds(), string(WINDOW_TRANSCRIPTION_FAILED))
			continue
		}

		if pinned == "" && detected != "" {
			// 首个成功窗口的检测结果固定下来，后续窗口不再重新检测
			pinned = detected
		}
		all = append(all, segs...)
		metrics.RecordWindowProcessed(true)
		logger.LogWindowProcessing(p.logger, "asr", "success", i, time.Since(started).Milliseconds(), "")
	}

	merged := ReconcileOverlaps(all)
	normalized := NormalizeSegments(merged, p.cfg.MinSegmentDuration, p.cfg.MaxSegmentDuration)

	p.logger.Info("transcription finished",
		"segments", len(normalized),
		"lost_windows", len(warnings),
		"language", pinned,
	)

	return &Result{
		Segments: normalized,
		Language: pinned,
		Duration: total,
		Warnings: warnings,
	}, nil
}
