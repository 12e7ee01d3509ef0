package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/voxscribe/voxscribe/cmd/server/internal/asr"
	"github.com/voxscribe/voxscribe/cmd/server/internal/transcribe"
)

// audioExtensions lists containers handed to the decoder without demuxing.
var audioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
}

// FFmpegSource loads media files through an external ffmpeg binary.
//
// Load decodes any container straight to the pipeline's sample format.
// ExtractAudio demuxes video containers to intermediate WAV files for
// callers that need audio on disk.
type FFmpegSource struct {
	executor CommandExecutor
	config   ExecutorConfig
	tempDir  string
}

// NewFFmpegSource creates an FFmpegSource running commands on the given
// executor. tempDir receives the intermediate WAV files; empty means "temp".
func NewFFmpegSource(executor CommandExecutor, config ExecutorConfig, tempDir string) *FFmpegSource {
	if tempDir == "" {
		tempDir = "temp"
	}
	return &FFmpegSource{executor: executor, config: config, tempDir: tempDir}
}

// Load decodes the media file at path into 16 kHz mono float32 samples.
//
// ffmpeg writes signed 16-bit little-endian PCM to stdout; codec failures
// return a DECODE_FAILED pipeline error carrying ffmpeg's stderr output.
func (s *FFmpegSource) Load(ctx context.Context, path string) ([]float32, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("audio file not found: %w", err)
	}

	req := CommandRequest{
		Command: "ffmpeg",
		Args: []string{
			"-nostdin",
			"-i", path,
			"-f", "s16le",
			"-acodec", "pcm_s16le",
			"-ac", "1",
			"-ar", strconv.Itoa(asr.SampleRate),
			"-",
		},
	}
	if err := ValidateCommandRequest(req, s.config); err != nil {
		return nil, fmt.Errorf("command validation failed: %w", err)
	}

	resp, err := s.executor.ExecuteCommand(ctx, req)
	if err != nil {
		return nil, transcribe.NewDecodeError(resp.Stderr, err)
	}
	if !resp.Success || resp.ExitCode != 0 {
		return nil, transcribe.NewDecodeError(resp.Stderr, nil)
	}
	if len(resp.Stdout) < 2 {
		return nil, transcribe.NewDecodeError("no audio stream decoded", nil)
	}

	return SamplesFromPCM16([]byte(resp.Stdout)), nil
}

// ExtractAudio makes sure path points at an audio container, demuxing video
// files to an intermediate 16 kHz mono WAV under the temp directory. Audio
// containers come back unchanged; the caller owns the returned file only
// when it differs from path.
func (s *FFmpegSource) ExtractAudio(ctx context.Context, path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("audio file not found: %w", err)
	}

	if audioExtensions[strings.ToLower(filepath.Ext(path))] {
		return path, nil
	}

	outPath := filepath.Join(s.tempDir, uuid.New().String()+".wav")
	req := CommandRequest{
		Command: "ffmpeg",
		Args: []string{
			"-i", path,
			"-vn",
			"-acodec", "pcm_s16le",
			"-ar", strconv.Itoa(asr.SampleRate),
			"-ac", "1",
			"-y",
			outPath,
		},
	}
	if err := ValidateCommandRequest(req, s.config); err != nil {
		return "", fmt.Errorf("command validation failed: %w", err)
	}

	resp, err := s.executor.ExecuteCommand(ctx, req)
	if err != nil {
		return "", transcribe.NewDecodeError(resp.Stderr, err)
	}
	if !resp.Success || resp.ExitCode != 0 {
		return "", transcribe.NewDecodeError(resp.Stderr, nil)
	}

	return outPath, nil
}

// SamplesFromPCM16 converts raw signed 16-bit little-endian PCM to float32
// samples in [-1, 1). A trailing odd byte is dropped.
func SamplesFromPCM16(data []byte) []float32 {
	n := len(data) / 2
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(data[2*i:]))
		samples[i] = float32(v) / 32768.0
	}
	return samples
}
