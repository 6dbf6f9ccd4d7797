package sampler

import (
	"errors"
	"math"
	"testing"
)

func TestPlanUniformSampling(t *testing.T) {
	frames, err := Plan(300, 30, 5, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantIndices := []int{0, 60, 120, 180, 240}
	wantTimestamps := []float64{0.0, 2.0, 4.0, 6.0, 8.0}

	if len(frames) != len(wantIndices) {
		t.Fatalf("expected %d frames, got %d", len(wantIndices), len(frames))
	}
	for i, f := range frames {
		if f.Index != wantIndices[i] {
			t.Errorf("frame %d: expected index %d, got %d", i, wantIndices[i], f.Index)
		}
		if math.Abs(f.Timestamp-wantTimestamps[i]) > 1e-9 {
			t.Errorf("frame %d: expected timestamp %f, got %f", i, wantTimestamps[i], f.Timestamp)
		}
	}
}

func TestPlanCoverage(t *testing.T) {
	tests := []struct {
		name         string
		totalFrames  int
		frameRate    float64
		desiredCount int
		window       *Window
		wantCount    int
	}{
		{"more frames than requested", 1000, 25, 10, nil, 10},
		{"fewer frames than requested", 3, 30, 20, nil, 3},
		{"exactly as many frames", 5, 30, 5, nil, 5},
		{"single frame video", 1, 24, 8, nil, 1},
		{"windowed range", 300, 30, 4, &Window{Start: 2, End: 6}, 4},
		{"short window returns all", 300, 30, 20, &Window{Start: 0, End: 0.3}, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frames, err := Plan(tt.totalFrames, tt.frameRate, tt.desiredCount, tt.window)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(frames) != tt.wantCount {
				t.Fatalf("expected %d frames, got %d", tt.wantCount, len(frames))
			}
			for i := 1; i < len(frames); i++ {
				if frames[i].Index <= frames[i-1].Index {
					t.Errorf("indices not strictly increasing at %d: %d then %d",
						i, frames[i-1].Index, frames[i].Index)
				}
			}
			for _, f := range frames {
				if f.Index < 0 || f.Index >= tt.totalFrames {
					t.Errorf("index %d out of range [0, %d)", f.Index, tt.totalFrames)
				}
			}
		})
	}
}

func TestPlanDeterminism(t *testing.T) {
	first, err := Plan(977, 29.97, 7, &Window{Start: 1.5, End: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Plan(977, 29.97, 7, &Window{Start: 1.5, End: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("frame %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestPlanDegenerateWindow(t *testing.T) {
	tests := []struct {
		name   string
		window Window
	}{
		{"end equals start", Window{Start: 3, End: 3}},
		{"end before start", Window{Start: 5, End: 2}},
		{"window past end of video", Window{Start: 100, End: 200}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frames, err := Plan(300, 30, 5, &tt.window)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(frames) == 0 {
				t.Error("degenerate window should still yield at least one frame")
			}
			for _, f := range frames {
				if f.Index < 0 || f.Index >= 300 {
					t.Errorf("index %d out of range", f.Index)
				}
			}
		})
	}
}

func TestPlanZeroFrames(t *testing.T) {
	frames, err := Plan(0, 30, 5, nil)
	if err != nil {
		t.Fatalf("zero frames should not be an error, got %v", err)
	}
	if len(frames) != 0 {
		t.Errorf("expected empty plan, got %d frames", len(frames))
	}
}

func TestPlanInvalidInput(t *testing.T) {
	tests := []struct {
		name         string
		totalFrames  int
		frameRate    float64
		desiredCount int
	}{
		{"zero frame rate", 100, 0, 5},
		{"negative frame rate", 100, -30, 5},
		{"zero desired count", 100, 30, 0},
		{"negative desired count", 100, 30, -1},
		{"negative total frames", -1, 30, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Plan(tt.totalFrames, tt.frameRate, tt.desiredCount, nil)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}
