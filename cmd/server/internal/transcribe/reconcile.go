package transcribe

import (
	"math"
	"strings"
)

const (
	// overlapMergeRatio is the fraction of a later segment that must lie
	// inside the already-consumed region before the two are treated as the
	// same utterance split across windows. Window boundaries duplicate
	// overlap-duration seconds of speech, so a segment mostly contained in
	// that region is almost certainly a re-recognition; one merely touching
	// the boundary is a distinct utterance straddling it.
	overlapMergeRatio = 0.5

	// wordDedupeTolerance is the start-time slack, in seconds, within which
	// two same-text words from adjacent windows count as one word.
	wordDedupeTolerance = 0.1
)

// ReconcileOverlaps folds per-window segments into a single ordered stream.
// Adjacent windows re-recognize the shared overlap region, so segments from
// consecutive windows can describe the same speech; those are merged, all
// others pass through. The result satisfies the ordering invariant
// segment[i].End <= segment[i+1].Start and carries dense 0-based IDs.
//
// The input must hold all windows' segments in window order; they are sorted
// by start time on entry so an out-of-order backend cannot corrupt the fold.
func ReconcileOverlaps(segs []Segment) []Segment {
	if len(segs) == 0 {
		return []Segment{}
	}

	sorted := make([]Segment, len(segs))
	copy(sorted, segs)
	sortSegmentsByStart(sorted)

	merged := make([]Segment, 0, len(sorted))
	current := sorted[0]

	for _, next := range sorted[1:] {
		if current.End >= next.Start {
			overlap := current.End - next.Start
			nextDur := next.End - next.Start
			if overlap > overlapMergeRatio*nextDur {
				current = mergeOverlapping(current, next)
				continue
			}
		}
		merged = append(merged, current)
		current = next
	}
	merged = append(merged, current)

	reindexSegments(merged)
	return merged
}

// mergeOverlapping absorbs next into current: the end extends to cover both,
// text appends unless it is already contained (duplicate speech from the
// window overlap), and words append except those the previous window already
// produced.
func mergeOverlapping(current, next Segment) Segment {
	if next.End > current.End {
		current.End = next.End
	}

	if !strings.Contains(current.Text, next.Text) {
		if current.Text == "" {
			current.Text = next.Text
		} else {
			current.Text += " " + next.Text
		}
	}

	for _, w := range next.Words {
		if !containsWord(current.Words, w) {
			current.Words = append(current.Words, w)
		}
	}
	return current
}

// containsWord reports whether words already holds w: same text with a start
// time within wordDedupeTolerance.
func containsWord(words []Word, w Word) bool {
	for _, existing := range words {
		if existing.Text == w.Text && math.Abs(existing.Start-w.Start) < wordDedupeTolerance {
			return true
		}
	}
	return false
}
