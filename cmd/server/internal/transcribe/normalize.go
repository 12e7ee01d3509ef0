package transcribe

import "strings"

const (
	// DefaultMinSegmentDuration is the preferred minimum cue length in seconds.
	DefaultMinSegmentDuration = 1.0

	// DefaultMaxSegmentDuration is the preferred maximum cue length in seconds.
	DefaultMaxSegmentDuration = 5.0

	// shortMergeMaxGap is the largest silence, in seconds, across which a
	// too-short segment may be merged with its successor. Larger gaps are
	// real pauses and must stay visible in the output.
	shortMergeMaxGap = 0.3

	// sentenceEnders are the punctuation marks a word must contain for the
	// long-segment split to close a cue after it.
	sentenceEnders = ".!?。！？，"
)

// NormalizeSegments reshapes a reconciled stream into readable subtitle cues:
// segments shorter than minDur merge into their neighbor when the gap allows,
// segments longer than maxDur split at sentence punctuation. Ordering is
// preserved and IDs are reassigned densely.
//
// Neither pass is forced: a short segment with no close neighbor stays short,
// and a long segment without word data passes through unchanged. Running the
// function again on its own output yields an identical stream.
func NormalizeSegments(segs []Segment, minDur, maxDur float64) []Segment {
	if len(segs) == 0 {
		return []Segment{}
	}

	sorted := make([]Segment, len(segs))
	copy(sorted, segs)
	sortSegmentsByStart(sorted)

	merged := mergeShortSegments(sorted, minDur)

	out := make([]Segment, 0, len(merged))
	for _, seg := range merged {
		if seg.Duration() > maxDur {
			out = append(out, splitLongSegment(seg)...)
		} else {
			out = append(out, seg)
		}
	}

	reindexSegments(out)
	return out
}

// mergeShortSegments is the first normalization pass: a segment under minDur
// absorbs its successor while the silence between them stays under
// shortMergeMaxGap. The merged segment is re-examined, so a run of fragments
// collapses into one cue.
func mergeShortSegments(segs []Segment, minDur float64) []Segment {
	out := make([]Segment, 0, len(segs))
	current := segs[0]

	for _, next := range segs[1:] {
		if current.Duration() < minDur && next.Start-current.End < shortMergeMaxGap {
			current.End = next.End
			current.Text = joinTexts(current.Text, next.Text)
			current.Words = append(current.Words, next.Words...)
			continue
		}
		out = append(out, current)
		current = next
	}
	out = append(out, current)
	return out
}

// splitLongSegment is the second normalization pass for one segment: walk the
// words in order and close a sub-segment after every word carrying sentence
// punctuation; trailing words form the final sub-segment. Sub-segment bounds
// come from their first and last word, never from interpolation. A segment
// with no words cannot be split and is returned as-is.
func splitLongSegment(seg Segment) []Segment {
	if len(seg.Words) == 0 {
		return []Segment{seg}
	}

	var parts [][]Word
	var part []Word
	for _, w := range seg.Words {
		part = append(part, w)
		if strings.ContainsAny(w.Text, sentenceEnders) {
			parts = append(parts, part)
			part = nil
		}
	}
	if len(part) > 0 {
		parts = append(parts, part)
	}

	out := make([]Segment, 0, len(parts))
	for _, words := range parts {
		out = append(out, Segment{
			Start: words[0].Start,
			End:   words[len(words)-1].End,
			Text:  joinWordText(words),
			Words: words,
		})
	}
	return out
}

// joinTexts concatenates two cue texts with a single space, tolerating empty
// sides.
func joinTexts(a, b string) string {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}
