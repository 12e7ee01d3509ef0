package transcribe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestReconcileOverlaps_MergeScenario replays the canonical two-window case:
// the second window re-recognizes speech the first already captured, and the
// later segment lies mostly inside the consumed region.
func TestReconcileOverlaps_MergeScenario(t *testing.T) {
	fromWindow1 := Segment{
		Start: 8.0, End: 9.5, Text: "hello world",
		Words: []Word{
			{Start: 8.0, End: 8.6, Text: "hello", Confidence: 0.9},
			{Start: 8.7, End: 9.5, Text: "world", Confidence: 0.9},
		},
	}
	fromWindow2 := Segment{
		Start: 8.3, End: 9.8, Text: "hello world there",
		Words: []Word{
			{Start: 8.3, End: 8.65, Text: "hello", Confidence: 0.8},
			{Start: 8.72, End: 9.4, Text: "world", Confidence: 0.8},
			{Start: 9.5, End: 9.8, Text: "there", Confidence: 0.8},
		},
	}

	out := ReconcileOverlaps([]Segment{fromWindow1, fromWindow2})

	// overlap 9.5-8.3=1.2s exceeds half of the 1.5s second segment, so both
	// describe one utterance
	require.Len(t, out, 1)
	assert.Equal(t, 0, out[0].ID)
	assert.InDelta(t, 8.0, out[0].Start, 1e-9)
	assert.InDelta(t, 9.8, out[0].End, 1e-9)

	// "world"@8.72 duplicates "world"@8.7 within the 0.1s tolerance and is
	// dropped; "hello"@8.3 is 0.3s away from "hello"@8.0 and survives
	require.Len(t, out[0].Words, 4)
	assert.Equal(t, "there", out[0].Words[3].Text)
	assert.Equal(t, "hello", out[0].Words[2].Text)
	assert.InDelta(t, 8.3, out[0].Words[2].Start, 1e-9)
}

func TestReconcileOverlaps_DuplicateTextSkipped(t *testing.T) {
	segs := []Segment{
		{Start: 0.0, End: 2.0, Text: "the quick brown fox"},
		{Start: 1.2, End: 2.2, Text: "brown fox"},
	}

	out := ReconcileOverlaps(segs)

	require.Len(t, out, 1)
	assert.Equal(t, "the quick brown fox", out[0].Text, "contained text must not be appended twice")
	assert.InDelta(t, 2.2, out[0].End, 1e-9)
}

func TestReconcileOverlaps_SmallOverlapFlushes(t *testing.T) {
	segs := []Segment{
		{Start: 0.0, End: 2.0, Text: "first utterance"},
		// 0.1s overlap against a 2.6s segment: distinct utterance straddling
		// the window boundary
		{Start: 1.9, End: 4.5, Text: "second utterance"},
	}

	out := ReconcileOverlaps(segs)

	require.Len(t, out, 2)
	assert.Equal(t, "first utterance", out[0].Text)
	assert.Equal(t, "second utterance", out[1].Text)
	assert.Equal(t, []int{0, 1}, []int{out[0].ID, out[1].ID})
}

func TestReconcileOverlaps_DisjointSegmentsPassThrough(t *testing.T) {
	segs := []Segment{
		{Start: 0.0, End: 1.5, Text: "one"},
		{Start: 2.0, End: 3.5, Text: "two"},
		{Start: 4.0, End: 5.5, Text: "three"},
	}

	out := ReconcileOverlaps(segs)

	require.Len(t, out, 3)
	for i := 0; i < len(out)-1; i++ {
		assert.LessOrEqual(t, out[i].End, out[i+1].Start, "ordering invariant violated at %d", i)
	}
	for i, seg := range out {
		assert.Equal(t, i, seg.ID)
	}
}

func TestReconcileOverlaps_UnsortedInputIsSorted(t *testing.T) {
	segs := []Segment{
		{Start: 4.0, End: 5.5, Text: "three"},
		{Start: 0.0, End: 1.5, Text: "one"},
		{Start: 2.0, End: 3.5, Text: "two"},
	}

	out := ReconcileOverlaps(segs)

	require.Len(t, out, 3)
	assert.Equal(t, "one", out[0].Text)
	assert.Equal(t, "two", out[1].Text)
	assert.Equal(t, "three", out[2].Text)
}

func TestReconcileOverlaps_ChainedMerge(t *testing.T) {
	// three windows each re-recognizing the tail of the previous one
	segs := []Segment{
		{Start: 0.0, End: 2.0, Text: "alpha"},
		{Start: 1.0, End: 2.4, Text: "beta"},  // overlap 1.0 > 0.5*1.4
		{Start: 1.8, End: 2.9, Text: "gamma"}, // overlap 0.6 > 0.5*1.1
	}

	out := ReconcileOverlaps(segs)

	require.Len(t, out, 1)
	assert.InDelta(t, 0.0, out[0].Start, 1e-9)
	assert.InDelta(t, 2.9, out[0].End, 1e-9)
	assert.Equal(t, "alpha beta gamma", out[0].Text)
}

func TestReconcileOverlaps_Empty(t *testing.T) {
	out := ReconcileOverlaps(nil)
	require.NotNil(t, out)
	assert.Empty(t, out)
}

func TestReconcileOverlaps_InputNotMutated(t *testing.T) {
	segs := []Segment{
		{Start: 3.0, End: 4.0, Text: "later"},
		{Start: 0.0, End: 1.0, Text: "earlier"},
	}

	_ = ReconcileOverlaps(segs)

	assert.Equal(t, "later", segs[0].Text, "caller's slice order must be preserved")
	assert.Equal(t, "earlier", segs[1].Text)
}
