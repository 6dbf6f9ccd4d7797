package api

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/medialens/medialens/internal/analysis"
	"github.com/medialens/medialens/internal/models"
)

type textRequest struct {
	Text string `json:"text"`
	Mode string `json:"mode,omitempty"`
}

// AnalyzeTextHandler runs one of the text analysis modes (summary,
// sentiment, topics, insights) through the text model chain.
func (app *App) AnalyzeTextHandler(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "text is required")
		return
	}
	mode := req.Mode
	if mode == "" {
		mode = analysis.TextModeSummary
	}
	if !analysis.ValidTextMode(mode) {
		respondError(w, http.StatusBadRequest, "unknown mode, expected one of: "+strings.Join(analysis.TextModes(), ", "))
		return
	}
	if app.Text == nil {
		respondError(w, http.StatusBadGateway, "no text model configured")
		return
	}

	app.Metrics.AnalysisStarted("text")
	started := time.Now()

	result, err := app.Text.Analyze(r.Context(), req.Text, mode)
	elapsed := time.Since(started)
	if err != nil {
		app.Metrics.AnalysisFailed("text", "provider")
		respondForError(w, err)
		return
	}
	app.Metrics.AnalysisCompleted("text", result.Model, elapsed)

	resp := mediaResponse{
		MediaType: "text",
		ElapsedMs: elapsed.Milliseconds(),
		Result:    result,
	}
	resp.AnalysisID = app.recordAnalysis("text", "", "inline", result.Model, models.StatusCompleted, result.Analysis, result, elapsed)
	respondJSON(w, http.StatusOK, resp)
}

// TranscribeHandler converts uploaded speech audio to text without
// running the rest of the audio pipeline.
func (app *App) TranscribeHandler(w http.ResponseWriter, r *http.Request) {
	path, filename, ok := app.saveUpload(w, r, "audio", app.MaxAudioBytes)
	if !ok {
		return
	}
	defer app.Store.Remove(path)

	app.transcribeFile(w, r, path, filename, "upload")
}

func (app *App) TranscribeURLHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeURLRequest(w, r)
	if !ok {
		return
	}

	path, err := app.Downloader.Download(r.Context(), req.URL)
	if err != nil {
		respondForError(w, err)
		return
	}
	defer app.Store.Remove(path)

	app.transcribeFile(w, r, path, filepath.Base(req.URL), req.URL)
}

func (app *App) transcribeFile(w http.ResponseWriter, r *http.Request, path, filename, source string) {
	if app.Transcriber == nil {
		respondError(w, http.StatusBadGateway, "no transcription provider configured")
		return
	}

	app.Metrics.AnalysisStarted("transcription")
	started := time.Now()

	transcription, err := app.Transcriber.Transcribe(r.Context(), path)
	elapsed := time.Since(started)
	if err != nil {
		app.Metrics.AnalysisFailed("transcription", "provider")
		app.recordAnalysis("transcription", filename, source, "", models.StatusFailed, err.Error(), nil, elapsed)
		respondForError(w, err)
		return
	}
	app.Metrics.AnalysisCompleted("transcription", "", elapsed)

	resp := mediaResponse{
		MediaType: "transcription",
		Filename:  filename,
		ElapsedMs: elapsed.Milliseconds(),
		Result:    transcription,
	}
	resp.AnalysisID = app.recordAnalysis("transcription", filename, source, "", models.StatusCompleted, transcription.Text, transcription, elapsed)
	respondJSON(w, http.StatusOK, resp)
}
