// Package sampler selects which frames of a video to extract for
// analysis. Selection is deterministic: the same inputs always produce
// the same indices, so per-frame analysis results are reproducible.
package sampler

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is returned for malformed sampling parameters.
var ErrInvalidInput = errors.New("invalid sampling parameters")

// Window restricts sampling to a sub-interval of the track, in seconds.
// End must be greater than Start for a meaningful window; a degenerate
// window still yields at least one frame.
type Window struct {
	Start float64
	End   float64
}

// Frame is a planned extraction point: a 0-based frame index and its
// timestamp in seconds.
type Frame struct {
	Index     int
	Timestamp float64
}

// Plan computes the frame indices to extract from a video with
// totalFrames frames at frameRate fps. When window is nil the whole
// track is sampled. At most desiredCount indices are returned, evenly
// spaced; when the effective range holds fewer distinct frames than
// requested, every frame in the range is returned instead of
// duplicating. A video with zero frames yields an empty plan, not an
// error.
func Plan(totalFrames int, frameRate float64, desiredCount int, window *Window) ([]Frame, error) {
	if frameRate <= 0 {
		return nil, fmt.Errorf("%w: frame rate must be positive, got %f", ErrInvalidInput, frameRate)
	}
	if desiredCount < 1 {
		return nil, fmt.Errorf("%w: desired count must be at least 1, got %d", ErrInvalidInput, desiredCount)
	}
	if totalFrames < 0 {
		return nil, fmt.Errorf("%w: total frames must not be negative, got %d", ErrInvalidInput, totalFrames)
	}
	if totalFrames == 0 {
		return []Frame{}, nil
	}

	startFrame, endFrame := resolveRange(totalFrames, frameRate, window)
	rangeSize := endFrame - startFrame

	var indices []int
	if rangeSize <= desiredCount {
		indices = make([]int, 0, rangeSize)
		for idx := startFrame; idx < endFrame; idx++ {
			indices = append(indices, idx)
		}
	} else {
		indices = make([]int, 0, desiredCount)
		for i := 0; i < desiredCount; i++ {
			indices = append(indices, startFrame+i*rangeSize/desiredCount)
		}
	}

	frames := make([]Frame, len(indices))
	for i, idx := range indices {
		frames[i] = Frame{Index: idx, Timestamp: float64(idx) / frameRate}
	}
	return frames, nil
}

// resolveRange converts the optional time window into a half-open frame
// range [start, end). A window that collapses after clamping is widened
// to a single frame so downstream spacing never divides by zero.
func resolveRange(totalFrames int, frameRate float64, window *Window) (int, int) {
	if window == nil {
		return 0, totalFrames
	}

	start := int(math.Round(window.Start * frameRate))
	end := int(math.Round(window.End * frameRate))

	if start < 0 {
		start = 0
	}
	if start > totalFrames-1 {
		start = totalFrames - 1
	}
	if end > totalFrames {
		end = totalFrames
	}
	if end <= start {
		end = start + 1
	}
	return start, end
}
