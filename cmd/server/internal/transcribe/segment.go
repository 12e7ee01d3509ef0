// Package transcribe implements the long-form transcription pipeline: a
// sample buffer is cut into overlapping windows, each window is recognized
// and word-aligned independently, and the per-window results are reconciled
// into one ordered, normalized segment stream.
package transcribe

import (
	"sort"
	"strings"
)

// Word is a single recognized word with aligned timestamps. Times are
// absolute seconds from the start of the recording.
type Word struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Text       string  `json:"word"`
	Confidence float64 `json:"score"`
}

// Segment is one subtitle cue: a time range plus its transcribed text and
// per-word timestamps. IDs are dense and 0-based; they are positional only
// and reassigned whenever segment order changes.
//
// Invariants: Start <= End; when Words is non-empty, Start and End match the
// first and last word and Text is the space-joined word texts.
type Segment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words"`
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Window is a slice of the source audio positioned in the full recording.
// Samples alias the original buffer; windows are consumed once and not
// persisted.
type Window struct {
	StartOffset float64
	EndOffset   float64
	Samples     []float32
}

// joinWordText rebuilds segment text from its words. Word texts carry their
// own punctuation, so a plain space join reconstructs the utterance.
func joinWordText(words []Word) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		if t := strings.TrimSpace(w.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// sortSegmentsByStart orders segments by start time, keeping the incoming
// order for equal starts. Recognition output is normally sorted already;
// this keeps the downstream fold correct when a backend misbehaves.
func sortSegmentsByStart(segs []Segment) {
	sort.SliceStable(segs, func(i, j int) bool {
		return segs[i].Start < segs[j].Start
	})
}

// reindexSegments reassigns dense 0-based IDs in current order.
func reindexSegments(segs []Segment) {
	for i := range segs {
		segs[i].ID = i
	}
}
