package transcribe

import "fmt"

// SplitWindows cuts a mono sample buffer into fixed-length windows overlapping
// by overlapDur seconds. The final window may be shorter than segmentDur; a
// buffer no longer than segmentDur yields a single window covering it all.
//
// Pure function, no side effects. The returned windows cover the full buffer
// with no gaps; consecutive windows share exactly overlapDur seconds so that
// speech cut at a window boundary is fully recognized in at least one window.
func SplitWindows(samples []float32, sampleRate int, segmentDur, overlapDur float64) ([]Window, error) {
	if len(samples) == 0 {
		return nil, NewInvalidBufferError("empty sample buffer")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if overlapDur <= 0 || overlapDur >= segmentDur {
		return nil, fmt.Errorf("overlap duration must satisfy 0 < overlap < segment, got overlap=%g segment=%g", overlapDur, segmentDur)
	}

	total := float64(len(samples)) / float64(sampleRate)
	if total <= segmentDur {
		return []Window{{StartOffset: 0, EndOffset: total, Samples: samples}}, nil
	}

	var windows []Window
	start := 0.0
	for {
		end := start + segmentDur
		if end > total {
			end = total
		}

		lo := int(start * float64(sampleRate))
		hi := int(end * float64(sampleRate))
		if hi > len(samples) {
			hi = len(samples)
		}
		windows = append(windows, Window{StartOffset: start, EndOffset: end, Samples: samples[lo:hi]})

		if end >= total {
			break
		}
		start = end - overlapDur
	}
	return windows, nil
}
