package analysis

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/medialens/medialens/internal/ai"
	"github.com/medialens/medialens/internal/audio"
	"github.com/medialens/medialens/internal/logging"
	"github.com/medialens/medialens/internal/media"
	"github.com/medialens/medialens/internal/sampler"
)

// VisionChain is the model fallback chain the video pipeline sends
// frames to.
type VisionChain interface {
	DescribeImage(ctx context.Context, imageData []byte, format string, prompt string) (description string, model string, err error)
}

// FrameSource extracts one frame of the video as encoded image bytes.
type FrameSource interface {
	ExtractAt(ctx context.Context, videoPath string, timestamp float64) ([]byte, error)
}

// MediaProber reports the container shape used to plan sampling.
type MediaProber interface {
	Probe(ctx context.Context, path string) (*media.Descriptor, error)
}

// AudioSource runs the audio pipeline over the same file. Optional.
type AudioSource interface {
	Analyze(ctx context.Context, path string, rng *audio.TimeRange) (*audio.Result, error)
}

// VideoOptions control one video analysis run.
type VideoOptions struct {
	DesiredFrames int
	Window        *sampler.Window
	Prompt        string
	WithAudio     bool
}

// VideoResult is the full output of a video analysis.
type VideoResult struct {
	Duration       float64            `json:"duration"`
	FrameRate      float64            `json:"frame_rate"`
	TotalFrames    int                `json:"total_frames"`
	FramesSampled  int                `json:"frames_sampled"`
	FramesAnalyzed int                `json:"frames_analyzed"`
	Frames         []FrameDescription `json:"frames"`
	Summary        string             `json:"summary"`
	Audio          *audio.Result      `json:"audio,omitempty"`
}

// VideoAnalyzer samples frames from a video, describes each through
// the vision chain and synthesizes a summary. Frame failures degrade
// the result instead of aborting it.
type VideoAnalyzer struct {
	prober MediaProber
	frames FrameSource
	vision VisionChain
	aud    AudioSource
	synth  Synthesizer
	log    zerolog.Logger
}

func NewVideoAnalyzer(prober MediaProber, frames FrameSource, vision VisionChain, aud AudioSource, synth Synthesizer) *VideoAnalyzer {
	return &VideoAnalyzer{
		prober: prober,
		frames: frames,
		vision: vision,
		aud:    aud,
		synth:  synth,
		log:    logging.WithComponent("video"),
	}
}

func (a *VideoAnalyzer) Analyze(ctx context.Context, path string, opts VideoOptions) (*VideoResult, error) {
	desc, err := a.prober.Probe(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("probe: %w", err)
	}
	if !desc.HasVideo {
		return nil, media.ErrNoVideoStream
	}

	prompt := opts.Prompt
	if prompt == "" {
		prompt = ai.DefaultFramePrompt
	}

	plan, err := sampler.Plan(desc.TotalFrames, desc.FrameRate, opts.DesiredFrames, opts.Window)
	if err != nil {
		return nil, fmt.Errorf("frame sampling: %w", err)
	}

	result := &VideoResult{
		Duration:      desc.DurationSeconds,
		FrameRate:     desc.FrameRate,
		TotalFrames:   desc.TotalFrames,
		FramesSampled: len(plan),
	}

	for _, frame := range plan {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		imageData, err := a.frames.ExtractAt(ctx, path, frame.Timestamp)
		if err != nil {
			a.log.Warn().Err(err).Int("frame", frame.Index).Msg("frame extraction failed, skipping")
			continue
		}

		description, model, err := a.vision.DescribeImage(ctx, imageData, "jpeg", prompt)
		if err != nil {
			a.log.Warn().Err(err).Int("frame", frame.Index).Msg("frame description failed, skipping")
			continue
		}

		result.Frames = append(result.Frames, FrameDescription{
			FrameNumber: frame.Index,
			Timestamp:   frame.Timestamp,
			Description: description,
			Model:       model,
		})
	}
	result.FramesAnalyzed = len(result.Frames)

	result.Summary = SummarizeFrames(ctx, result.Frames, a.synth)

	if opts.WithAudio && a.aud != nil && desc.HasAudio {
		var rng *audio.TimeRange
		if opts.Window != nil {
			rng = &audio.TimeRange{Start: opts.Window.Start, End: opts.Window.End}
		}
		audioResult, err := a.aud.Analyze(ctx, path, rng)
		if err != nil {
			a.log.Warn().Err(err).Msg("audio branch failed, returning video-only result")
		} else {
			result.Audio = audioResult
		}
	}

	a.log.Info().
		Int("frames_sampled", result.FramesSampled).
		Int("frames_analyzed", result.FramesAnalyzed).
		Float64("duration", result.Duration).
		Msg("video analysis complete")

	return result, nil
}
