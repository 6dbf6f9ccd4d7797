package main

import (
	"context"
	"net/http"
	"os"

	"github.com/rs/zerolog"

	"github.com/medialens/medialens/internal/ai"
	"github.com/medialens/medialens/internal/analysis"
	"github.com/medialens/medialens/internal/api"
	"github.com/medialens/medialens/internal/audio"
	"github.com/medialens/medialens/internal/config"
	"github.com/medialens/medialens/internal/database"
	"github.com/medialens/medialens/internal/fetch"
	"github.com/medialens/medialens/internal/logging"
	"github.com/medialens/medialens/internal/media"
	"github.com/medialens/medialens/internal/metrics"
	"github.com/medialens/medialens/internal/storage"
)

const version = "0.3.0"

func main() {
	cfg := config.Load()
	logging.Init(cfg.LogLevel)
	log := logging.WithComponent("server")

	store, err := storage.NewTempStore(cfg.TempDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	db, err := database.NewDB(database.Config{
		Type:       cfg.DBType,
		Host:       cfg.DBHost,
		Port:       cfg.DBPort,
		User:       cfg.DBUser,
		Password:   cfg.DBPassword,
		Name:       cfg.DBName,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	var collector metrics.Collector = &metrics.NoOpCollector{}
	if cfg.MetricsEnabled {
		collector = metrics.NewPrometheusCollector()
	}

	chain, textChain := buildModelChains(cfg, log)
	chain.OnFallback(collector.ProviderFallback)
	textChain.OnFallback(collector.ProviderFallback)

	prober, err := media.NewProber()
	if err != nil {
		log.Fatal().Err(err).Msg("ffprobe is required")
	}
	frameExtractor, err := media.NewFrameExtractor(cfg.TempDir, cfg.FrameSize)
	if err != nil {
		log.Fatal().Err(err).Msg("ffmpeg is required")
	}

	var audioAnalyzer *audio.Analyzer
	audioExtractor, err := audio.NewExtractor(cfg.TempDir)
	if err != nil {
		log.Warn().Err(err).Msg("audio analysis disabled")
	} else {
		var transcriber audio.Transcriber
		if cfg.OpenAIAPIKey != "" {
			transcriber = ai.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		}
		audioAnalyzer = audio.NewAnalyzer(audioExtractor, transcriber)
	}

	var audioSource analysis.AudioSource
	if audioAnalyzer != nil {
		audioSource = audioAnalyzer
	}

	var synth analysis.Synthesizer
	if len(textChain.Models()) > 0 {
		synth = textChain
	}
	videoAnalyzer := analysis.NewVideoAnalyzer(prober, frameExtractor, chain, audioSource, synth)

	app := api.NewApp()
	app.Store = store
	app.Downloader = fetch.NewDownloader(store, cfg.MaxDownloadBytes, cfg.DownloadTimeout)
	app.Repo = database.NewAnalysisRepository(db)
	app.Vision = chain
	app.Video = videoAnalyzer
	if audioAnalyzer != nil {
		app.Audio = audioAnalyzer
	}
	if synth != nil {
		app.Text = analysis.NewTextAnalyzer(textChain)
	}
	if cfg.OpenAIAPIKey != "" {
		app.Transcriber = ai.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	}
	app.Metrics = collector
	app.MaxImageBytes = cfg.MaxImageBytes
	app.MaxVideoBytes = cfg.MaxVideoBytes
	app.MaxAudioBytes = cfg.MaxAudioBytes
	app.MaxFramesPerVideo = cfg.MaxFramesPerVideo
	app.HistoryLimit = cfg.HistoryLimit
	app.Version = version

	router := api.NewRouter(app)

	log.Info().
		Str("port", cfg.Port).
		Str("db_type", cfg.DBType).
		Strs("providers", chain.Providers()).
		Msg("server starting")

	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// buildModelChains wires the model fallback order: Nova Pro, then
// Nova Lite, then the OpenAI model. Every provider serves both vision
// and text; providers without credentials are skipped.
func buildModelChains(cfg *config.Config, log zerolog.Logger) (*ai.Chain, *ai.TextChain) {
	var describers []ai.Describer
	var textModels []ai.TextModel

	ctx := context.Background()
	if hasAWSCredentials() {
		for _, modelID := range []string{cfg.NovaProModel, cfg.NovaLiteModel} {
			client, err := ai.NewBedrockClient(ctx, cfg.BedrockRegion, modelID)
			if err != nil {
				log.Warn().Err(err).Str("model", modelID).Msg("bedrock provider unavailable")
				continue
			}
			describers = append(describers, client)
			textModels = append(textModels, client)
		}
	}
	if cfg.OpenAIAPIKey != "" {
		client := ai.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		describers = append(describers, client)
		textModels = append(textModels, client)
	}
	return ai.NewChain(describers...), ai.NewTextChain(textModels...)
}

func hasAWSCredentials() bool {
	return os.Getenv("AWS_ACCESS_KEY_ID") != "" ||
		os.Getenv("AWS_PROFILE") != "" ||
		os.Getenv("AWS_ROLE_ARN") != "" ||
		os.Getenv("AWS_WEB_IDENTITY_TOKEN_FILE") != ""
}
