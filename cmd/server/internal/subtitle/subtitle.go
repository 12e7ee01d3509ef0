// Package subtitle serializes transcription segments into SRT, WebVTT and
// JSON subtitle documents.
package subtitle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voxscribe/voxscribe/cmd/server/internal/transcribe"
)

// Format identifies a subtitle output format.
type Format string

const (
	FormatVTT  Format = "vtt"
	FormatSRT  Format = "srt"
	FormatJSON Format = "json"
)

// ParseFormat validates a user-supplied format name. Empty input defaults
// to WebVTT.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatVTT:
		return FormatVTT, nil
	case FormatSRT:
		return FormatSRT, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported subtitle format: %s", s)
}

// Write renders segments to w in the given format.
func Write(w io.Writer, segments []transcribe.Segment, format Format) error {
	switch format {
	case FormatVTT:
		return writeVTT(w, segments)
	case FormatSRT:
		return writeSRT(w, segments)
	case FormatJSON:
		return writeJSON(w, segments)
	}
	return fmt.Errorf("unsupported subtitle format: %s", format)
}

// WriteFile renders segments to a uuid-named file under dir and returns its
// path. The extension matches the format name.
func WriteFile(dir string, segments []transcribe.Segment, format Format) (string, error) {
	if dir == "" {
		dir = "subtitles"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create subtitles directory: %w", err)
	}

	var buf bytes.Buffer
	if err := Write(&buf, segments, format); err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("%s.%s", uuid.New().String(), format))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write subtitle file: %w", err)
	}
	return path, nil
}

func writeSRT(w io.Writer, segments []transcribe.Segment) error {
	for i, s := range segments {
		_, err := fmt.Fprintf(w, "%d\n%s --> %s\n%s\n\n",
			i+1,
			formatTimestampSrt(s.Start),
			formatTimestampSrt(s.End),
			strings.TrimSpace(s.Text),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func writeVTT(w io.Writer, segments []transcribe.Segment) error {
	if _, err := fmt.Fprint(w, "WEBVTT\n\n"); err != nil {
		return err
	}
	for _, s := range segments {
		_, err := fmt.Fprintf(w, "%s --> %s\n%s\n\n",
			formatTimestamp(s.Start),
			formatTimestamp(s.End),
			strings.TrimSpace(s.Text),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, segments []transcribe.Segment) error {
	if segments == nil {
		segments = []transcribe.Segment{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(segments)
}

// formatTimestamp formats seconds as HH:MM:SS.mmm
func formatTimestamp(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	ms := d / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

// formatTimestampSrt formats seconds as HH:MM:SS,mmm (SRT uses comma)
func formatTimestampSrt(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	ms := d / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
