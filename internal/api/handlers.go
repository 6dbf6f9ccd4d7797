package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/medialens/medialens/internal/analysis"
	"github.com/medialens/medialens/internal/audio"
	"github.com/medialens/medialens/internal/database"
	"github.com/medialens/medialens/internal/logging"
	"github.com/medialens/medialens/internal/metrics"
	"github.com/medialens/medialens/internal/models"
	"github.com/medialens/medialens/internal/storage"
)

// VisionService describes images through the model fallback chain.
type VisionService interface {
	DescribeImage(ctx context.Context, imageData []byte, format string, prompt string) (description string, model string, err error)
	Providers() []string
}

// VideoService runs the video analysis pipeline over a local file.
type VideoService interface {
	Analyze(ctx context.Context, path string, opts analysis.VideoOptions) (*analysis.VideoResult, error)
}

// AudioService runs the audio analysis pipeline over a local file.
type AudioService interface {
	Analyze(ctx context.Context, path string, rng *audio.TimeRange) (*audio.Result, error)
}

// TextService runs prompt-template text analysis through the text
// model chain.
type TextService interface {
	Analyze(ctx context.Context, text, mode string) (*analysis.TextResult, error)
}

// Transcriber converts speech audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (*audio.Transcription, error)
}

// Downloader fetches a remote URL into local scratch storage.
type Downloader interface {
	Download(ctx context.Context, rawURL string) (string, error)
}

type App struct {
	Store       storage.Store
	Downloader  Downloader
	Repo        *database.AnalysisRepository
	Vision      VisionService
	Video       VideoService
	Audio       AudioService
	Text        TextService
	Transcriber Transcriber
	Metrics     metrics.Collector

	MaxImageBytes     int64
	MaxVideoBytes     int64
	MaxAudioBytes     int64
	MaxFramesPerVideo int
	HistoryLimit      int
	Version           string

	log zerolog.Logger
}

func NewApp() *App {
	return &App{
		Metrics: &metrics.NoOpCollector{},
		log:     logging.WithComponent("api"),
	}
}

func (app *App) HealthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (app *App) StatusHandler(w http.ResponseWriter, r *http.Request) {
	var providers []string
	if app.Vision != nil {
		providers = app.Vision.Providers()
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"providers": providers,
		"capabilities": map[string]bool{
			"image":         app.Vision != nil,
			"video":         app.Video != nil,
			"audio":         app.Audio != nil,
			"text":          app.Text != nil,
			"transcription": app.Transcriber != nil,
			"url":           app.Downloader != nil,
		},
	})
}

func (app *App) InfoHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"service": "medialens",
		"version": app.Version,
		"limits": map[string]any{
			"max_image_bytes":      app.MaxImageBytes,
			"max_video_bytes":      app.MaxVideoBytes,
			"max_audio_bytes":      app.MaxAudioBytes,
			"max_frames_per_video": app.MaxFramesPerVideo,
			"max_batch_items":      analysis.MaxBatchItems,
		},
	})
}

func (app *App) ListAnalysesHandler(w http.ResponseWriter, r *http.Request) {
	if app.Repo == nil {
		respondError(w, http.StatusBadGateway, "analysis history not available")
		return
	}

	limit := app.HistoryLimit
	if limit == 0 {
		limit = 50
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n < limit {
			limit = n
		}
	}

	records, err := app.Repo.ListRecent(limit)
	if err != nil {
		app.log.Error().Err(err).Msg("failed to list analyses")
		respondError(w, http.StatusInternalServerError, "failed to list analyses")
		return
	}
	if records == nil {
		records = []models.AnalysisRecord{}
	}
	respondJSON(w, http.StatusOK, records)
}

func (app *App) GetAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	if app.Repo == nil {
		respondError(w, http.StatusBadGateway, "analysis history not available")
		return
	}

	id := chi.URLParam(r, "id")
	record, err := app.Repo.GetByID(id)
	if err != nil {
		respondForError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, record)
}

// recordAnalysis writes one history row. Failures are logged, not
// surfaced, since the analysis itself already succeeded or failed on
// its own terms.
func (app *App) recordAnalysis(mediaType, filename, source, model, status, summary string, result any, elapsed time.Duration) string {
	record := models.NewAnalysisRecord(mediaType, filename, source)
	record.Model = model
	record.Status = status
	record.Summary = summary
	record.ElapsedMs = elapsed.Milliseconds()
	if result != nil {
		if payload, err := json.Marshal(result); err == nil {
			record.Result = string(payload)
		}
	}

	if app.Repo != nil {
		if err := app.Repo.Insert(record); err != nil {
			app.log.Error().Err(err).Str("media_type", mediaType).Msg("failed to record analysis")
		}
	}
	return record.ID
}
