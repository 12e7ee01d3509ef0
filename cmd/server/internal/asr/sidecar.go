package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/voxscribe/voxscribe/pkg/metrics"
)

// SidecarEngine implements Engine and Aligner for the faster-whisper HTTP
// sidecar. It wraps the sidecar REST API to provide recognition and forced
// alignment via multipart/form-data requests.
//
// The sidecar holds the loaded model; this client stays stateless and safe
// for concurrent use.
type SidecarEngine struct {
	baseURL    string       // Base URL of the sidecar service (e.g., "http://asr:9000")
	httpClient *http.Client // Reusable HTTP client with configured timeout
}

// NewSidecarEngine creates a SidecarEngine for the given base URL.
//
// The HTTP client is configured with a 10-minute timeout to accommodate long
// audio windows. Recognition time is roughly proportional to audio duration,
// so short timeouts would cut off legitimate requests on slow hardware.
func NewSidecarEngine(baseURL string) *SidecarEngine {
	return &SidecarEngine{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Minute,
		},
	}
}

// Transcribe sends the sample buffer to POST {baseURL}/asr and parses the
// recognition result.
//
// Connection failures and 503 responses wrap ErrModelUnavailable so callers
// can distinguish a dead backend from a bad request.
func (s *SidecarEngine) Transcribe(ctx context.Context, samples []float32, opts Options) (*Result, error) {
	start := time.Now()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("audio", "audio.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(EncodeWAV(samples, SampleRate)); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}

	task := opts.Task
	if task == "" {
		task = TaskTranscribe
	}
	if err := writer.WriteField("task", task); err != nil {
		return nil, fmt.Errorf("failed to write task field: %w", err)
	}

	if opts.Language != "" {
		if err := writer.WriteField("language", opts.Language); err != nil {
			return nil, fmt.Errorf("failed to write language field: %w", err)
		}
	}

	beamSize := opts.BeamSize
	if beamSize <= 0 {
		beamSize = 5
	}
	if err := writer.WriteField("beam_size", strconv.Itoa(beamSize)); err != nil {
		return nil, fmt.Errorf("failed to write beam_size field: %w", err)
	}

	if err := writer.WriteField("temperature", fmt.Sprintf("%.1f", opts.Temperature)); err != nil {
		return nil, fmt.Errorf("failed to write temperature field: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	result := &Result{}
	if err := s.postMultipart(ctx, "/asr", writer.FormDataContentType(), body, result); err != nil {
		metrics.RecordEngineRequest(s.Name(), "transcribe", statusFromError(err))
		return nil, err
	}

	metrics.RecordEngineRequest(s.Name(), "transcribe", "success")
	metrics.RecordEngineRequestDuration(s.Name(), "transcribe", time.Since(start).Seconds())
	return result, nil
}

// Align sends recognition spans plus the audio to POST {baseURL}/align and
// returns the spans with word-level timestamps filled in.
func (s *SidecarEngine) Align(ctx context.Context, segments []RawSegment, samples []float32, language string) ([]RawSegment, error) {
	start := time.Now()

	segJSON, err := json.Marshal(segments)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal segments: %w", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("audio", "audio.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(EncodeWAV(samples, SampleRate)); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}

	if err := writer.WriteField("segments", string(segJSON)); err != nil {
		return nil, fmt.Errorf("failed to write segments field: %w", err)
	}
	if err := writer.WriteField("language", language); err != nil {
		return nil, fmt.Errorf("failed to write language field: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	var payload struct {
		Segments []RawSegment `json:"segments"`
	}
	if err := s.postMultipart(ctx, "/align", writer.FormDataContentType(), body, &payload); err != nil {
		metrics.RecordEngineRequest(s.Name(), "align", statusFromError(err))
		return nil, err
	}

	metrics.RecordEngineRequest(s.Name(), "align", "success")
	metrics.RecordEngineRequestDuration(s.Name(), "align", time.Since(start).Seconds())
	return payload.Segments, nil
}

// postMultipart performs one POST round trip and decodes the JSON response
// into out.
func (s *SidecarEngine) postMultipart(ctx context.Context, path, contentType string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: sidecar request failed: %v", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: sidecar returned status %d: %s", ErrModelUnavailable, resp.StatusCode, string(bodyBytes))
	}
	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sidecar returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return nil
}

// HealthCheck verifies that the sidecar is operational via GET /healthz.
// Returns true if the service responds with 200 OK.
func (s *SidecarEngine) HealthCheck(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+"/healthz", nil)
	if err != nil {
		return false, fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return true, nil
	}
	return false, fmt.Errorf("health check failed: status %d", resp.StatusCode)
}

// Name returns the identifier of this engine implementation.
func (s *SidecarEngine) Name() string {
	return "sidecar"
}

// statusFromError maps a request error to a metrics status label.
func statusFromError(err error) string {
	if err == nil {
		return "success"
	}
	if IsModelUnavailable(err) {
		return "unavailable"
	}
	return "failed"
}
