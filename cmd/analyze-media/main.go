package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/medialens/medialens/internal/ai"
	"github.com/medialens/medialens/internal/analysis"
	"github.com/medialens/medialens/internal/audio"
	"github.com/medialens/medialens/internal/config"
	"github.com/medialens/medialens/internal/logging"
	"github.com/medialens/medialens/internal/media"
	"github.com/medialens/medialens/internal/sampler"
)

func main() {
	var (
		filePath  = flag.String("file", "", "Path to the media file to analyze")
		mediaType = flag.String("type", "video", "Media type: image, video or audio")
		frames    = flag.Int("frames", 5, "Number of frames to sample from a video")
		start     = flag.Float64("start", 0, "Analysis window start, seconds")
		end       = flag.Float64("end", 0, "Analysis window end, seconds (0 = end of file)")
		withAudio = flag.Bool("with-audio", false, "Also run the audio pipeline on a video")
	)
	flag.Parse()

	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "Please provide a media file with -file")
		os.Exit(1)
	}

	cfg := config.Load()
	logging.Init(cfg.LogLevel)
	log := logging.WithComponent("analyze-media")

	ctx := context.Background()

	var result any
	var err error
	switch *mediaType {
	case "image":
		result, err = analyzeImage(ctx, cfg, *filePath)
	case "audio":
		result, err = analyzeAudio(ctx, cfg, *filePath, *start, *end)
	case "video":
		result, err = analyzeVideo(ctx, cfg, *filePath, *frames, *start, *end, *withAudio)
	default:
		log.Fatal().Str("type", *mediaType).Msg("unknown media type")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("analysis failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(result)
}

func buildChain(ctx context.Context, cfg *config.Config) (*ai.Chain, error) {
	var describers []ai.Describer
	if os.Getenv("AWS_ACCESS_KEY_ID") != "" || os.Getenv("AWS_PROFILE") != "" {
		for _, modelID := range []string{cfg.NovaProModel, cfg.NovaLiteModel} {
			client, err := ai.NewBedrockClient(ctx, cfg.BedrockRegion, modelID)
			if err == nil {
				describers = append(describers, client)
			}
		}
	}
	if cfg.OpenAIAPIKey != "" {
		describers = append(describers, ai.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel))
	}
	if len(describers) == 0 {
		return nil, ai.ErrNoDescribers
	}
	return ai.NewChain(describers...), nil
}

func analyzeImage(ctx context.Context, cfg *config.Config, path string) (any, error) {
	chain, err := buildChain(ctx, cfg)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	description, model, err := chain.DescribeImage(ctx, data, "jpeg", ai.DefaultImagePrompt)
	if err != nil {
		return nil, err
	}
	return map[string]string{"description": description, "model": model}, nil
}

func analyzeAudio(ctx context.Context, cfg *config.Config, path string, start, end float64) (any, error) {
	analyzer, err := buildAudioAnalyzer(cfg)
	if err != nil {
		return nil, err
	}
	return analyzer.Analyze(ctx, path, timeRange(start, end))
}

func analyzeVideo(ctx context.Context, cfg *config.Config, path string, frames int, start, end float64, withAudio bool) (any, error) {
	chain, err := buildChain(ctx, cfg)
	if err != nil {
		return nil, err
	}
	prober, err := media.NewProber()
	if err != nil {
		return nil, err
	}
	frameExtractor, err := media.NewFrameExtractor(cfg.TempDir, cfg.FrameSize)
	if err != nil {
		return nil, err
	}

	var audioAnalyzer *audio.Analyzer
	if withAudio {
		audioAnalyzer, err = buildAudioAnalyzer(cfg)
		if err != nil {
			return nil, err
		}
	}

	analyzer := analysis.NewVideoAnalyzer(prober, frameExtractor, chain, audioAnalyzer, nil)

	var window *sampler.Window
	if start > 0 || end > 0 {
		window = &sampler.Window{Start: start, End: end}
	}
	return analyzer.Analyze(ctx, path, analysis.VideoOptions{
		DesiredFrames: frames,
		Window:        window,
		WithAudio:     withAudio,
	})
}

func buildAudioAnalyzer(cfg *config.Config) (*audio.Analyzer, error) {
	extractor, err := audio.NewExtractor(cfg.TempDir)
	if err != nil {
		return nil, err
	}
	var transcriber audio.Transcriber
	if cfg.OpenAIAPIKey != "" {
		transcriber = ai.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	}
	return audio.NewAnalyzer(extractor, transcriber), nil
}

func timeRange(start, end float64) *audio.TimeRange {
	if start == 0 && end == 0 {
		return nil
	}
	return &audio.TimeRange{Start: start, End: end}
}
