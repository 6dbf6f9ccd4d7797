package analysis

import (
	"context"
	"fmt"
	"strings"
)

// FrameDescription is one analyzed frame's contribution to a video
// summary, kept in timestamp order.
type FrameDescription struct {
	FrameNumber int     `json:"frame_number"`
	Timestamp   float64 `json:"timestamp"`
	Description string  `json:"description"`
	Model       string  `json:"model,omitempty"`
}

// Synthesizer produces a natural-language synopsis from concatenated
// frame descriptions. Implemented by the text model chain; optional.
type Synthesizer interface {
	Summarize(ctx context.Context, descriptions []string) (string, error)
}

// SummarizeFrames builds a video synopsis from successfully analyzed
// frames. With no synthesizer (or when it fails) the local rules apply:
// zero frames yield a fixed notice, one frame is quoted directly, and
// several frames become a timestamped scene list.
func SummarizeFrames(ctx context.Context, frames []FrameDescription, synth Synthesizer) string {
	if len(frames) == 0 {
		return "No frames were successfully analyzed."
	}

	descriptions := make([]string, 0, len(frames))
	for _, f := range frames {
		if f.Description != "" {
			descriptions = append(descriptions, f.Description)
		}
	}
	if len(descriptions) == 0 {
		return "Video analysis completed but no descriptions were generated."
	}

	if len(descriptions) == 1 {
		return fmt.Sprintf("This video shows: %s", descriptions[0])
	}

	if synth != nil {
		if summary, err := synth.Summarize(ctx, descriptions); err == nil && summary != "" {
			return summary
		}
	}

	parts := make([]string, 0, len(frames)+1)
	parts = append(parts, "This video contains the following scenes:")
	for _, f := range frames {
		if f.Description == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("At %.1fs: %s", f.Timestamp, f.Description))
	}
	return strings.Join(parts, " ")
}
