package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/medialens/medialens/internal/ai"
	"github.com/medialens/medialens/internal/analysis"
	"github.com/medialens/medialens/internal/audio"
	"github.com/medialens/medialens/internal/models"
	"github.com/medialens/medialens/internal/sampler"
	"github.com/medialens/medialens/internal/storage"
)

type imageResult struct {
	Description string `json:"description"`
	Model       string `json:"model"`
	Filename    string `json:"filename"`
	AnalysisID  string `json:"analysis_id,omitempty"`
	ElapsedMs   int64  `json:"elapsed_ms"`
}

type mediaResponse struct {
	MediaType  string `json:"media_type"`
	Filename   string `json:"filename"`
	AnalysisID string `json:"analysis_id,omitempty"`
	ElapsedMs  int64  `json:"elapsed_ms"`
	Result     any    `json:"result"`
}

// saveUpload validates the multipart file field and moves it into the
// temp store. The caller removes the returned path when done.
func (app *App) saveUpload(w http.ResponseWriter, r *http.Request, mediaType string, maxBytes int64) (path, filename string, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1024)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, "file too large")
		return "", "", false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing file field")
		return "", "", false
	}
	defer file.Close()

	if err := validateUpload(mediaType, header.Filename, header.Size, maxBytes); err != nil {
		respondForError(w, err)
		return "", "", false
	}
	app.Metrics.UploadReceived(mediaType, header.Size)

	path, err = app.Store.Save(file, storage.FileInfo{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	})
	if err != nil {
		app.log.Error().Err(err).Msg("failed to store upload")
		respondError(w, http.StatusInternalServerError, "failed to store upload")
		return "", "", false
	}
	return path, header.Filename, true
}

type urlRequest struct {
	URL    string `json:"url"`
	Prompt string `json:"prompt,omitempty"`

	// Video options, ignored for images and audio.
	Frames    int      `json:"frames,omitempty"`
	Start     *float64 `json:"start,omitempty"`
	End       *float64 `json:"end,omitempty"`
	WithAudio bool     `json:"with_audio,omitempty"`
}

func decodeURLRequest(w http.ResponseWriter, r *http.Request) (*urlRequest, bool) {
	var req urlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return nil, false
	}
	if req.URL == "" {
		respondError(w, http.StatusBadRequest, "url is required")
		return nil, false
	}
	return &req, true
}

// windowFrom converts optional start/end form or JSON values into a
// sampling window.
func windowFrom(start, end *float64) *sampler.Window {
	if start == nil && end == nil {
		return nil
	}
	w := &sampler.Window{}
	if start != nil {
		w.Start = *start
	}
	if end != nil {
		w.End = *end
	}
	return w
}

func parseOptionalFloat(r *http.Request, key string) *float64 {
	v := r.FormValue(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

func (app *App) AnalyzeImageHandler(w http.ResponseWriter, r *http.Request) {
	path, filename, ok := app.saveUpload(w, r, "image", app.MaxImageBytes)
	if !ok {
		return
	}
	defer app.Store.Remove(path)

	app.analyzeImageFile(w, r, path, filename, "upload", r.FormValue("prompt"))
}

func (app *App) AnalyzeImageURLHandler(w http.ResponseWriter, r *http.Request) {
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

	app.analyzeImageFile(w, r, path, filepath.Base(req.URL), req.URL, req.Prompt)
}

func (app *App) analyzeImageFile(w http.ResponseWriter, r *http.Request, path, filename, source, prompt string) {
	if app.Vision == nil {
		respondError(w, http.StatusBadGateway, "no vision provider configured")
		return
	}

	app.Metrics.AnalysisStarted("image")
	started := time.Now()

	imageData, err := readFileCapped(path, app.MaxImageBytes)
	if err != nil {
		app.Metrics.AnalysisFailed("image", "read")
		respondForError(w, err)
		return
	}

	if prompt == "" {
		prompt = ai.DefaultImagePrompt
	}
	format := formatFromFilename(filename)

	description, model, err := app.Vision.DescribeImage(r.Context(), imageData, format, prompt)
	elapsed := time.Since(started)
	if err != nil {
		app.Metrics.AnalysisFailed("image", "provider")
		app.recordAnalysis("image", filename, source, "", models.StatusFailed, err.Error(), nil, elapsed)
		respondForError(w, err)
		return
	}
	app.Metrics.AnalysisCompleted("image", model, elapsed)

	result := imageResult{
		Description: description,
		Model:       model,
		Filename:    filename,
		ElapsedMs:   elapsed.Milliseconds(),
	}
	result.AnalysisID = app.recordAnalysis("image", filename, source, model, models.StatusCompleted, description, result, elapsed)
	respondJSON(w, http.StatusOK, result)
}

func (app *App) AnalyzeVideoHandler(w http.ResponseWriter, r *http.Request) {
	path, filename, ok := app.saveUpload(w, r, "video", app.MaxVideoBytes)
	if !ok {
		return
	}
	defer app.Store.Remove(path)

	opts := analysis.VideoOptions{
		DesiredFrames: app.frameCount(r.FormValue("frames")),
		Window:        windowFrom(parseOptionalFloat(r, "start"), parseOptionalFloat(r, "end")),
		Prompt:        r.FormValue("prompt"),
		WithAudio:     r.FormValue("with_audio") == "true",
	}
	app.analyzeVideoFile(w, r, path, filename, "upload", opts)
}

func (app *App) AnalyzeVideoURLHandler(w http.ResponseWriter, r *http.Request) {
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

	opts := analysis.VideoOptions{
		DesiredFrames: app.clampFrames(req.Frames),
		Window:        windowFrom(req.Start, req.End),
		Prompt:        req.Prompt,
		WithAudio:     req.WithAudio,
	}
	app.analyzeVideoFile(w, r, path, filepath.Base(req.URL), req.URL, opts)
}

// MultimodalHandler analyzes an uploaded video across both tracks:
// sampled frames through the vision chain plus the full audio
// pipeline.
func (app *App) MultimodalHandler(w http.ResponseWriter, r *http.Request) {
	path, filename, ok := app.saveUpload(w, r, "video", app.MaxVideoBytes)
	if !ok {
		return
	}
	defer app.Store.Remove(path)

	opts := analysis.VideoOptions{
		DesiredFrames: app.frameCount(r.FormValue("frames")),
		Window:        windowFrom(parseOptionalFloat(r, "start"), parseOptionalFloat(r, "end")),
		Prompt:        r.FormValue("prompt"),
		WithAudio:     true,
	}
	app.analyzeVideoFile(w, r, path, filename, "upload", opts)
}

func (app *App) analyzeVideoFile(w http.ResponseWriter, r *http.Request, path, filename, source string, opts analysis.VideoOptions) {
	if app.Video == nil {
		respondError(w, http.StatusBadGateway, "video analysis not available")
		return
	}

	mediaType := "video"
	if opts.WithAudio {
		mediaType = "multimodal"
	}
	app.Metrics.AnalysisStarted(mediaType)
	started := time.Now()

	result, err := app.Video.Analyze(r.Context(), path, opts)
	elapsed := time.Since(started)
	if err != nil {
		app.Metrics.AnalysisFailed(mediaType, "pipeline")
		app.recordAnalysis(mediaType, filename, source, "", models.StatusFailed, err.Error(), nil, elapsed)
		respondForError(w, err)
		return
	}

	model := ""
	if len(result.Frames) > 0 {
		model = result.Frames[0].Model
	}
	app.Metrics.AnalysisCompleted(mediaType, model, elapsed)

	resp := mediaResponse{
		MediaType: mediaType,
		Filename:  filename,
		ElapsedMs: elapsed.Milliseconds(),
		Result:    result,
	}
	resp.AnalysisID = app.recordAnalysis(mediaType, filename, source, model, models.StatusCompleted, result.Summary, result, elapsed)
	respondJSON(w, http.StatusOK, resp)
}

func (app *App) AnalyzeAudioHandler(w http.ResponseWriter, r *http.Request) {
	path, filename, ok := app.saveUpload(w, r, "audio", app.MaxAudioBytes)
	if !ok {
		return
	}
	defer app.Store.Remove(path)

	rng := timeRangeFrom(parseOptionalFloat(r, "start"), parseOptionalFloat(r, "end"))
	app.analyzeAudioFile(w, r, path, filename, "upload", rng)
}

func (app *App) AnalyzeAudioURLHandler(w http.ResponseWriter, r *http.Request) {
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

	app.analyzeAudioFile(w, r, path, filepath.Base(req.URL), req.URL, timeRangeFrom(req.Start, req.End))
}

func (app *App) analyzeAudioFile(w http.ResponseWriter, r *http.Request, path, filename, source string, rng *audio.TimeRange) {
	if app.Audio == nil {
		respondError(w, http.StatusBadGateway, "audio analysis not available")
		return
	}

	app.Metrics.AnalysisStarted("audio")
	started := time.Now()

	result, err := app.Audio.Analyze(r.Context(), path, rng)
	elapsed := time.Since(started)
	if err != nil {
		app.Metrics.AnalysisFailed("audio", "pipeline")
		app.recordAnalysis("audio", filename, source, "", models.StatusFailed, err.Error(), nil, elapsed)
		respondForError(w, err)
		return
	}
	app.Metrics.AnalysisCompleted("audio", "", elapsed)

	resp := mediaResponse{
		MediaType: "audio",
		Filename:  filename,
		ElapsedMs: elapsed.Milliseconds(),
		Result:    result,
	}
	resp.AnalysisID = app.recordAnalysis("audio", filename, source, "", models.StatusCompleted, result.Summary, result, elapsed)
	respondJSON(w, http.StatusOK, resp)
}

type batchItem struct {
	Type   string `json:"type"`
	URL    string `json:"url"`
	Prompt string `json:"prompt,omitempty"`
}

type batchRequest struct {
	Items []batchItem `json:"items"`
}

type batchItemResponse struct {
	Index       int    `json:"index"`
	Success     bool   `json:"success"`
	Description string `json:"description,omitempty"`
	Model       string `json:"model,omitempty"`
	Error       string `json:"error,omitempty"`
}

type batchResponse struct {
	Items     []batchItemResponse `json:"items"`
	Total     int                 `json:"total"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
	ElapsedMs int64               `json:"elapsed_ms"`
}

// BatchHandler analyzes up to the batch limit of URLs sequentially.
// One failing item never aborts the rest.
func (app *App) BatchHandler(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Items) == 0 {
		respondError(w, http.StatusBadRequest, "items is required")
		return
	}
	if err := analysis.CheckBatchSize(len(req.Items)); err != nil {
		respondForError(w, err)
		return
	}

	batch := analysis.Run(r.Context(), req.Items, app.analyzeBatchItem)
	app.Metrics.BatchProcessed(batch.Total, batch.Succeeded)

	resp := batchResponse{
		Total:     batch.Total,
		Succeeded: batch.Succeeded,
		Failed:    batch.Failed,
		ElapsedMs: batch.Elapsed.Milliseconds(),
	}
	for _, item := range batch.Items {
		ir := batchItemResponse{Index: item.Index, Success: item.Succeeded()}
		if item.Succeeded() {
			ir.Description = item.Outcome.Description
			ir.Model = item.Outcome.Model
		} else {
			ir.Error = item.Failure
		}
		resp.Items = append(resp.Items, ir)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (app *App) analyzeBatchItem(ctx context.Context, item batchItem) (analysis.Outcome, error) {
	if item.URL == "" {
		return analysis.Outcome{}, fmt.Errorf("%w: url is required", errValidation)
	}

	path, err := app.Downloader.Download(ctx, item.URL)
	if err != nil {
		return analysis.Outcome{}, err
	}
	defer app.Store.Remove(path)

	switch item.Type {
	case "image", "":
		if app.Vision == nil {
			return analysis.Outcome{}, fmt.Errorf("no vision provider configured")
		}
		imageData, err := readFileCapped(path, app.MaxImageBytes)
		if err != nil {
			return analysis.Outcome{}, err
		}
		prompt := item.Prompt
		if prompt == "" {
			prompt = ai.DefaultImagePrompt
		}
		description, model, err := app.Vision.DescribeImage(ctx, imageData, formatFromFilename(item.URL), prompt)
		if err != nil {
			return analysis.Outcome{}, err
		}
		return analysis.Outcome{Description: description, Model: model}, nil
	case "video":
		if app.Video == nil {
			return analysis.Outcome{}, fmt.Errorf("video analysis not available")
		}
		result, err := app.Video.Analyze(ctx, path, analysis.VideoOptions{
			DesiredFrames: app.MaxFramesPerVideo,
			Prompt:        item.Prompt,
		})
		if err != nil {
			return analysis.Outcome{}, err
		}
		model := ""
		if len(result.Frames) > 0 {
			model = result.Frames[0].Model
		}
		return analysis.Outcome{Description: result.Summary, Model: model}, nil
	case "audio":
		if app.Audio == nil {
			return analysis.Outcome{}, fmt.Errorf("audio analysis not available")
		}
		result, err := app.Audio.Analyze(ctx, path, nil)
		if err != nil {
			return analysis.Outcome{}, err
		}
		return analysis.Outcome{Description: result.Summary}, nil
	default:
		return analysis.Outcome{}, fmt.Errorf("%w: unknown media type %q", errValidation, item.Type)
	}
}

func (app *App) frameCount(v string) int {
	if v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return app.clampFrames(n)
		}
	}
	return app.MaxFramesPerVideo
}

func (app *App) clampFrames(n int) int {
	if n <= 0 || n > app.MaxFramesPerVideo {
		return app.MaxFramesPerVideo
	}
	return n
}

func timeRangeFrom(start, end *float64) *audio.TimeRange {
	if start == nil && end == nil {
		return nil
	}
	rng := &audio.TimeRange{}
	if start != nil {
		rng.Start = *start
	}
	if end != nil {
		rng.End = *end
	}
	return rng
}

func formatFromFilename(name string) string {
	switch filepath.Ext(name) {
	case ".png":
		return "png"
	case ".gif":
		return "gif"
	case ".webp":
		return "webp"
	default:
		return "jpeg"
	}
}

func readFileCapped(path string, maxBytes int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read media file: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: file exceeds size limit", errValidation)
	}
	return data, nil
}
