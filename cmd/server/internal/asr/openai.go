package asr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/voxscribe/voxscribe/pkg/metrics"
)

// OpenAIEngine implements Engine against an OpenAI-compatible audio API
// (api.openai.com or any gateway speaking the same protocol). Word-level
// timestamps come from the API itself, so this engine is normally paired
// with no Aligner.
type OpenAIEngine struct {
	client *openai.Client
	model  string
}

// NewOpenAIEngine creates an OpenAIEngine. baseURL overrides the default
// endpoint when non-empty, which allows pointing at self-hosted gateways.
// model defaults to "whisper-1".
func NewOpenAIEngine(apiKey, baseURL, model string) *OpenAIEngine {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = "whisper-1"
	}
	return &OpenAIEngine{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Transcribe uploads the sample buffer as a WAV payload and requests a
// verbose JSON response with word timestamps.
func (e *OpenAIEngine) Transcribe(ctx context.Context, samples []float32, opts Options) (*Result, error) {
	start := time.Now()

	req := openai.AudioRequest{
		Model:    e.model,
		FilePath: "audio.wav",
		Reader:   bytes.NewReader(EncodeWAV(samples, SampleRate)),
		Format:   openai.AudioResponseFormatVerboseJSON,
		Language: opts.Language,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularitySegment,
			openai.TranscriptionTimestampGranularityWord,
		},
	}

	var resp openai.AudioResponse
	var err error
	if opts.Task == TaskTranslate {
		resp, err = e.client.CreateTranslation(ctx, req)
	} else {
		resp, err = e.client.CreateTranscription(ctx, req)
	}
	if err != nil {
		err = e.mapError(err)
		metrics.RecordEngineRequest(e.Name(), "transcribe", statusFromError(err))
		return nil, err
	}

	result := &Result{
		Language: resp.Language,
		Duration: resp.Duration,
		Segments: make([]RawSegment, 0, len(resp.Segments)),
	}
	for _, seg := range resp.Segments {
		result.Segments = append(result.Segments, RawSegment{
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		})
	}
	// The API reports words as one flat list without confidence; attach each
	// word to the span whose time range contains its onset, at unit score.
	for _, w := range resp.Words {
		for i := range result.Segments {
			s := &result.Segments[i]
			if w.Start >= s.Start && w.Start < s.End {
				s.Words = append(s.Words, RawWord{
					Start: w.Start,
					End:   w.End,
					Text:  w.Word,
					Score: 1.0,
				})
				break
			}
		}
	}

	metrics.RecordEngineRequest(e.Name(), "transcribe", "success")
	metrics.RecordEngineRequestDuration(e.Name(), "transcribe", time.Since(start).Seconds())
	return result, nil
}

// mapError classifies API failures. Transport errors and 5xx responses mean
// the backend is not serving at all and wrap ErrModelUnavailable.
func (e *OpenAIEngine) mapError(err error) error {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: openai request failed: %v", ErrModelUnavailable, err)
	}
	if apiErr.HTTPStatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: openai returned status %d: %s", ErrModelUnavailable, apiErr.HTTPStatusCode, apiErr.Message)
	}
	return fmt.Errorf("openai request rejected: %w", err)
}

// HealthCheck verifies API reachability by listing available models.
func (e *OpenAIEngine) HealthCheck(ctx context.Context) (bool, error) {
	if _, err := e.client.ListModels(ctx); err != nil {
		return false, fmt.Errorf("health check request failed: %w", err)
	}
	return true, nil
}

// Name returns the identifier of this engine implementation.
func (e *OpenAIEngine) Name() string {
	return "openai"
}
