package transcribe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRate = 16000

func secondsOfAudio(seconds float64) []float32 {
	return make([]float32, int(seconds*testRate))
}

func TestSplitWindows_EmptyBuffer(t *testing.T) {
	_, err := SplitWindows(nil, testRate, 10, 2)
	require.Error(t, err)

	pe, ok := AsPipelineError(err)
	require.True(t, ok, "expected a typed pipeline error, got %v", err)
	assert.Equal(t, INVALID_BUFFER, pe.Code)
}

func TestSplitWindows_InvalidParameters(t *testing.T) {
	samples := secondsOfAudio(5)

	_, err := SplitWindows(samples, testRate, 10, 10)
	assert.Error(t, err, "overlap equal to segment must be rejected")

	_, err = SplitWindows(samples, testRate, 10, 12)
	assert.Error(t, err, "overlap above segment must be rejected")

	_, err = SplitWindows(samples, testRate, 10, 0)
	assert.Error(t, err, "zero overlap must be rejected")

	_, err = SplitWindows(samples, 0, 10, 2)
	assert.Error(t, err, "zero sample rate must be rejected")
}

func TestSplitWindows_ShortBufferSingleWindow(t *testing.T) {
	samples := secondsOfAudio(5)

	windows, err := SplitWindows(samples, testRate, 10, 2)
	require.NoError(t, err)
	require.Len(t, windows, 1)

	assert.Equal(t, 0.0, windows[0].StartOffset)
	assert.InDelta(t, 5.0, windows[0].EndOffset, 1e-9)
	assert.Len(t, windows[0].Samples, len(samples))
}

func TestSplitWindows_ExactSegmentLength(t *testing.T) {
	samples := secondsOfAudio(10)

	windows, err := SplitWindows(samples, testRate, 10, 2)
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.InDelta(t, 10.0, windows[0].EndOffset, 1e-9)
}

func TestSplitWindows_OverlappingWindows(t *testing.T) {
	samples := secondsOfAudio(25)

	windows, err := SplitWindows(samples, testRate, 10, 2)
	require.NoError(t, err)
	require.Len(t, windows, 3)

	assert.InDelta(t, 0.0, windows[0].StartOffset, 1e-9)
	assert.InDelta(t, 10.0, windows[0].EndOffset, 1e-9)
	assert.InDelta(t, 8.0, windows[1].StartOffset, 1e-9)
	assert.InDelta(t, 18.0, windows[1].EndOffset, 1e-9)
	assert.InDelta(t, 16.0, windows[2].StartOffset, 1e-9)
	assert.InDelta(t, 25.0, windows[2].EndOffset, 1e-9)

	// window samples correspond to the declared time range
	for _, w := range windows {
		wantLen := int(w.EndOffset*testRate) - int(w.StartOffset*testRate)
		assert.Len(t, w.Samples, wantLen)
	}
}

// TestSplitWindows_Coverage checks that the emitted windows cover the whole
// buffer with no gaps for a spread of parameter combinations.
func TestSplitWindows_Coverage(t *testing.T) {
	cases := []struct {
		name       string
		total      float64
		segment    float64
		overlap    float64
	}{
		{"long audio", 125, 30, 2},
		{"tight overlap", 47, 10, 0.5},
		{"wide overlap", 61, 10, 8},
		{"barely two windows", 10.5, 10, 2},
		{"sub-second audio", 0.7, 30, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			samples := secondsOfAudio(tc.total)
			windows, err := SplitWindows(samples, testRate, tc.segment, tc.overlap)
			require.NoError(t, err)
			require.NotEmpty(t, windows)

			assert.Equal(t, 0.0, windows[0].StartOffset, "coverage must begin at zero")
			total := float64(len(samples)) / float64(testRate)
			assert.InDelta(t, total, windows[len(windows)-1].EndOffset, 1e-9, "coverage must reach the end")

			for i := 0; i < len(windows)-1; i++ {
				assert.InDelta(t, tc.overlap, windows[i].EndOffset-windows[i+1].StartOffset, 1e-9,
					"consecutive windows must overlap by exactly the configured duration")
				assert.Less(t, windows[i+1].StartOffset, windows[i].EndOffset,
					"window %d must begin before window %d ends", i+1, i)
			}
			for i, w := range windows {
				assert.Greater(t, w.EndOffset, w.StartOffset, "window %d must be non-empty", i)
			}
		})
	}
}
