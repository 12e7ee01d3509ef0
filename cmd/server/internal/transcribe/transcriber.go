package transcribe

import (
	"context"
	"strings"

	"github.com/voxscribe/voxscribe/cmd/server/internal/asr"
)

// SegmentTranscriber turns one window into absolute-time segments by running
// recognition and, when configured, forced alignment. It holds no per-request
// state and is safe to reuse across windows and requests.
type SegmentTranscriber struct {
	engine  asr.Engine
	aligner asr.Aligner // nil: use the word timings the engine reports
}

// NewSegmentTranscriber creates a SegmentTranscriber over the given backends.
func NewSegmentTranscriber(engine asr.Engine, aligner asr.Aligner) *SegmentTranscriber {
	return &SegmentTranscriber{engine: engine, aligner: aligner}
}

// TranscribeWindow recognizes one window and returns its segments shifted to
// absolute time, together with the language the engine detected. language may
// be empty for auto-detection; the detected code is returned so the caller can
// pin it for later windows.
//
// Any engine or aligner failure is returned as-is; the caller decides whether
// the failure is fatal (model unavailable) or costs only this window.
func (t *SegmentTranscriber) TranscribeWindow(ctx context.Context, window Window, language, task string) ([]Segment, string, error) {
	result, err := t.engine.Transcribe(ctx, window.Samples, asr.Options{Language: language, Task: task})
	if err != nil {
		return nil, "", err
	}

	raw := result.Segments
	if t.aligner != nil {
		raw, err = t.aligner.Align(ctx, raw, window.Samples, result.Language)
		if err != nil {
			return nil, result.Language, err
		}
	}

	segs := make([]Segment, 0, len(raw))
	for _, rs := range raw {
		segs = append(segs, segmentFromRaw(rs, window.StartOffset))
	}

	// Backends emit segments in time order already; sorting here is a cheap
	// guard that keeps the downstream fold correct if one does not.
	sortSegmentsByStart(segs)
	return segs, result.Language, nil
}

// segmentFromRaw shifts a window-local span to absolute time. When word
// alignments are present the segment bounds and text are derived from them,
// which keeps the word-level invariants independent of backend quirks.
func segmentFromRaw(rs asr.RawSegment, offset float64) Segment {
	words := make([]Word, 0, len(rs.Words))
	for _, rw := range rs.Words {
		words = append(words, Word{
			Start:      rw.Start + offset,
			End:        rw.End + offset,
			Text:       strings.TrimSpace(rw.Text),
			Confidence: rw.Score,
		})
	}

	seg := Segment{
		Start: rs.Start + offset,
		End:   rs.End + offset,
		Text:  strings.TrimSpace(rs.Text),
		Words: words,
	}
	if len(words) > 0 {
		seg.Start = words[0].Start
		seg.End = words[len(words)-1].End
		seg.Text = joinWordText(words)
	}
	return seg
}
