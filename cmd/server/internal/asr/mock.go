package asr

import (
	"context"
	"strings"
	"sync"
)

// MockEngine implements Engine and Aligner without any recognition backend.
// It serves two purposes:
//
//   - Local development: selecting engine "mock" in the server config wires
//     the full pipeline and transport without a model, returning empty or
//     scripted results.
//   - Tests: the Script field replays canned results/errors call by call.
//
// Unlike the real engines it never touches the network and never blocks.
type MockEngine struct {
	mu       sync.Mutex
	requests []Options

	// Script holds canned transcription outcomes returned in call order.
	// When the script is exhausted (or empty) Transcribe returns an empty
	// Result with language "en".
	Script []MockCall
}

// MockCall is one scripted Transcribe outcome.
type MockCall struct {
	Result *Result
	Err    error
}

// NewMockEngine creates a MockEngine with no script.
func NewMockEngine() *MockEngine {
	return &MockEngine{}
}

// Transcribe returns the next scripted outcome, or an empty result when the
// script is exhausted. Every call's Options are recorded for assertions.
func (m *MockEngine) Transcribe(ctx context.Context, samples []float32, opts Options) (*Result, error) {
	m.mu.Lock()
	idx := len(m.requests)
	m.requests = append(m.requests, opts)
	m.mu.Unlock()

	if idx < len(m.Script) {
		call := m.Script[idx]
		if call.Err != nil {
			return nil, call.Err
		}
		return call.Result, nil
	}

	lang := opts.Language
	if lang == "" {
		lang = "en"
	}
	return &Result{
		Language: lang,
		Duration: float64(len(samples)) / float64(SampleRate),
		Segments: []RawSegment{},
	}, nil
}

// Align returns the spans unchanged, synthesizing evenly spaced word timings
// for any span that has none. The synthetic words keep downstream word-level
// invariants intact during development.
func (m *MockEngine) Align(ctx context.Context, segments []RawSegment, samples []float32, language string) ([]RawSegment, error) {
	out := make([]RawSegment, len(segments))
	copy(out, segments)
	for i := range out {
		if len(out[i].Words) > 0 {
			continue
		}
		fields := strings.Fields(out[i].Text)
		if len(fields) == 0 {
			continue
		}
		span := (out[i].End - out[i].Start) / float64(len(fields))
		words := make([]RawWord, 0, len(fields))
		for j, f := range fields {
			words = append(words, RawWord{
				Start: out[i].Start + float64(j)*span,
				End:   out[i].Start + float64(j+1)*span,
				Text:  f,
				Score: 1.0,
			})
		}
		out[i].Words = words
	}
	return out, nil
}

// CallCount returns how many Transcribe calls the engine has served.
func (m *MockEngine) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns a copy of the Options every Transcribe call received, in
// call order.
func (m *MockEngine) Requests() []Options {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Options, len(m.requests))
	copy(out, m.requests)
	return out
}

// HealthCheck always succeeds; the mock engine has no backend to lose.
func (m *MockEngine) HealthCheck(ctx context.Context) (bool, error) {
	return true, nil
}

// Name returns the identifier of this engine implementation.
func (m *MockEngine) Name() string {
	return "mock"
}
