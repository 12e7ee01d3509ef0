// Package asr provides an abstraction layer for speech recognition and
// forced alignment backends. It defines standard interfaces and data
// structures to support multiple implementations (HTTP sidecar,
// OpenAI-compatible APIs, and mock fallback).
package asr

import (
	"context"
	"errors"
)

// SampleRate is the fixed sample rate, in Hz, every engine consumes.
// All audio entering the system is resampled to mono 16 kHz first.
const SampleRate = 16000

// Task selects the recognition mode of an engine call.
const (
	// TaskTranscribe transcribes speech in its source language.
	TaskTranscribe = "transcribe"

	// TaskTranslate translates speech into English while transcribing.
	TaskTranslate = "translate"
)

// ErrModelUnavailable reports that the recognition backend cannot be reached
// or its model failed to load. Model load failures are not transient; callers
// should fail the request instead of retrying.
var ErrModelUnavailable = errors.New("speech model unavailable")

// IsModelUnavailable reports whether err is, or wraps, ErrModelUnavailable.
func IsModelUnavailable(err error) bool {
	return errors.Is(err, ErrModelUnavailable)
}

// RawWord is one aligned word as produced by an alignment backend.
// Times are in seconds relative to the start of the submitted buffer.
type RawWord struct {
	// Start is the word onset in seconds
	Start float64 `json:"start"`

	// End is the word offset in seconds
	End float64 `json:"end"`

	// Text is the recognized word, punctuation attached
	Text string `json:"word"`

	// Score is the alignment confidence in [0,1]
	Score float64 `json:"score"`
}

// RawSegment is a window-local transcription span produced by a recognition
// backend. Times are relative to the start of the submitted sample buffer,
// not to the full recording.
type RawSegment struct {
	// Start is the beginning time of this span in seconds
	Start float64 `json:"start"`

	// End is the ending time of this span in seconds
	End float64 `json:"end"`

	// Text is the transcribed text content of this span
	Text string `json:"text"`

	// Words holds word-level alignments when the backend provides them
	Words []RawWord `json:"words,omitempty"`
}

// Result represents the complete output of one recognition call.
type Result struct {
	// Language is the detected or requested language code (e.g., "en", "zh")
	Language string `json:"language"`

	// Duration is the duration of the submitted audio in seconds
	Duration float64 `json:"duration"`

	// Segments is the list of transcribed spans in ascending time order
	Segments []RawSegment `json:"segments"`
}

// Options defines optional parameters for the Transcribe operation.
// Zero values select the implementation defaults.
type Options struct {
	// Language forces recognition in a specific language (ISO 639-1 code).
	// Empty string means auto-detection; the engine reports the detected
	// code in Result.Language either way.
	Language string

	// Task is TaskTranscribe (default) or TaskTranslate.
	Task string

	// BeamSize overrides the decoder beam width. Default: 5.
	BeamSize int

	// Temperature controls sampling randomness. Default: 0 (deterministic).
	Temperature float64
}

// Engine defines the standard interface for speech recognition backends.
// All concrete implementations (SidecarEngine, OpenAIEngine, MockEngine)
// must implement this interface to be used by the transcription pipeline.
//
// Engines are shared across concurrent requests as long-lived singletons;
// Transcribe must therefore be safe for concurrent invocation or serialize
// internally.
type Engine interface {
	// Transcribe performs speech recognition on a mono float32 PCM buffer.
	//
	// Parameters:
	//   - ctx: Context for timeout control and cancellation
	//   - samples: Mono PCM samples in [-1, 1] at the engine sample rate
	//   - opts: Optional recognition parameters (language, task, beam size)
	//
	// Returns:
	//   - *Result: Recognition output with segments and detected language
	//   - error: Non-nil if recognition fails; wraps ErrModelUnavailable
	//     when the backend or its model cannot be reached at all
	//
	// Implementation notes:
	//   - Must respect context timeout and cancellation
	//   - Empty speech should return a valid Result with an empty Segments
	//     slice, not an error
	Transcribe(ctx context.Context, samples []float32, opts Options) (*Result, error)

	// HealthCheck verifies that the recognition backend is operational.
	// It should be lightweight and fast (well under 10 seconds).
	HealthCheck(ctx context.Context) (bool, error)

	// Name returns the identifier of this implementation, used for
	// logging and metrics (e.g., "sidecar", "openai", "mock").
	Name() string
}

// Aligner refines coarse recognition spans down to per-word timestamps by
// forced alignment against the original audio. Implementations must tolerate
// spans without words and must not invent timestamps outside [0, duration].
//
// A pipeline configured without an Aligner uses the word timings the Engine
// itself reports.
type Aligner interface {
	// Align returns the input spans with Words populated. language is the
	// resolved source language code; alignment models are per-language.
	Align(ctx context.Context, segments []RawSegment, samples []float32, language string) ([]RawSegment, error)
}
