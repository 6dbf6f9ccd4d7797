package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/medialens/medialens/internal/ai"
	"github.com/medialens/medialens/internal/analysis"
	"github.com/medialens/medialens/internal/audio"
	"github.com/medialens/medialens/internal/storage"
)

type stubVision struct {
	description string
	model       string
	err         error
	lastPrompt  string
}

func (s *stubVision) DescribeImage(ctx context.Context, imageData []byte, format, prompt string) (string, string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", "", s.err
	}
	return s.description, s.model, nil
}

func (s *stubVision) Providers() []string {
	return []string{s.model}
}

type stubVideoService struct {
	result   *analysis.VideoResult
	err      error
	lastOpts analysis.VideoOptions
}

func (s *stubVideoService) Analyze(ctx context.Context, path string, opts analysis.VideoOptions) (*analysis.VideoResult, error) {
	s.lastOpts = opts
	return s.result, s.err
}

type stubAudioService struct {
	result *audio.Result
	err    error
}

func (s *stubAudioService) Analyze(ctx context.Context, path string, rng *audio.TimeRange) (*audio.Result, error) {
	return s.result, s.err
}

type stubDownloader struct {
	store storage.Store
	body  []byte
	err   error
}

func (s *stubDownloader) Download(ctx context.Context, rawURL string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.store.Save(bytes.NewReader(s.body), storage.FileInfo{Filename: filepath.Base(rawURL)})
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	store, err := storage.NewTempStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	app := NewApp()
	app.Store = store
	app.Vision = &stubVision{description: "a sunny street", model: "stub-model"}
	app.Video = &stubVideoService{result: &analysis.VideoResult{Summary: "This video shows: a street.", FramesAnalyzed: 1}}
	app.Audio = &stubAudioService{result: &audio.Result{AudioType: audio.TypeMusic, Summary: "Audio type: music"}}
	app.Downloader = &stubDownloader{store: store, body: []byte("media-bytes")}
	app.MaxImageBytes = 10 * 1024 * 1024
	app.MaxVideoBytes = 100 * 1024 * 1024
	app.MaxAudioBytes = 50 * 1024 * 1024
	app.MaxFramesPerVideo = 5
	app.Version = "test"
	return app
}

func multipartBody(t *testing.T, field, filename string, content []byte, extra map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(content)
	for k, v := range extra {
		writer.WriteField(k, v)
	}
	writer.Close()
	return &buf, writer.FormDataContentType()
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid JSON response %q: %v", rec.Body.String(), err)
	}
	return env
}

func TestHealthHandler(t *testing.T) {
	app := newTestApp(t)
	router := NewRouter(app)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Errorf("success = false: %s", rec.Body.String())
	}
}

func TestStatusHandlerListsProviders(t *testing.T) {
	app := newTestApp(t)
	router := NewRouter(app)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "stub-model") {
		t.Errorf("status response should list providers: %s", rec.Body.String())
	}
}

func TestAnalyzeImageUpload(t *testing.T) {
	app := newTestApp(t)
	router := NewRouter(app)

	body, contentType := multipartBody(t, "file", "photo.jpg", []byte("jpeg-bytes"), nil)
	req := httptest.NewRequest("POST", "/api/analyze/image", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "a sunny street") {
		t.Errorf("response missing description: %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "stub-model") {
		t.Errorf("response missing model: %s", rec.Body.String())
	}
}

func TestAnalyzeImageRejectsBadExtension(t *testing.T) {
	app := newTestApp(t)
	router := NewRouter(app)

	body, contentType := multipartBody(t, "file", "malware.exe", []byte("nope"), nil)
	req := httptest.NewRequest("POST", "/api/analyze/image", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if decodeEnvelope(t, rec).Success {
		t.Error("success should be false")
	}
}

func TestAnalyzeImageRejectsMissingFile(t *testing.T) {
	app := newTestApp(t)
	router := NewRouter(app)

	body, contentType := multipartBody(t, "wrong_field", "photo.jpg", []byte("x"), nil)
	req := httptest.NewRequest("POST", "/api/analyze/image", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAnalyzeImageProviderFailure(t *testing.T) {
	app := newTestApp(t)
	app.Vision = &stubVision{err: errors.New("all providers down")}
	router := NewRouter(app)

	body, contentType := multipartBody(t, "file", "photo.jpg", []byte("jpeg-bytes"), nil)
	req := httptest.NewRequest("POST", "/api/analyze/image", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestAnalyzeImageNoProvidersConfigured(t *testing.T) {
	app := newTestApp(t)
	app.Vision = ai.NewChain()
	router := NewRouter(app)

	body, contentType := multipartBody(t, "file", "photo.jpg", []byte("jpeg-bytes"), nil)
	req := httptest.NewRequest("POST", "/api/analyze/image", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502 for an empty model chain", rec.Code)
	}
	if decodeEnvelope(t, rec).Success {
		t.Error("success should be false")
	}
}

func TestAnalyzeImageURL(t *testing.T) {
	app := newTestApp(t)
	router := NewRouter(app)

	reqBody := `{"url": "http://example.com/pic.jpg", "prompt": "what is this"}`
	req := httptest.NewRequest("POST", "/api/analyze/image/url", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := app.Vision.(*stubVision).lastPrompt; got != "what is this" {
		t.Errorf("prompt = %q, want custom prompt forwarded", got)
	}
}

func TestAnalyzeImageURLRequiresURL(t *testing.T) {
	app := newTestApp(t)
	router := NewRouter(app)

	req := httptest.NewRequest("POST", "/api/analyze/image/url", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAnalyzeVideoForwardsOptions(t *testing.T) {
	app := newTestApp(t)
	video := app.Video.(*stubVideoService)
	router := NewRouter(app)

	body, contentType := multipartBody(t, "file", "clip.mp4", []byte("mp4-bytes"), map[string]string{
		"frames":     "3",
		"start":      "2.5",
		"end":        "7.5",
		"with_audio": "true",
	})
	req := httptest.NewRequest("POST", "/api/analyze/video", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if video.lastOpts.DesiredFrames != 3 || !video.lastOpts.WithAudio {
		t.Errorf("opts = %+v, want frames=3 with_audio=true", video.lastOpts)
	}
	if video.lastOpts.Window == nil || video.lastOpts.Window.Start != 2.5 || video.lastOpts.Window.End != 7.5 {
		t.Errorf("window = %+v, want [2.5,7.5]", video.lastOpts.Window)
	}
}

func TestAnalyzeVideoClampsFrameCount(t *testing.T) {
	app := newTestApp(t)
	video := app.Video.(*stubVideoService)
	router := NewRouter(app)

	body, contentType := multipartBody(t, "file", "clip.mp4", []byte("mp4"), map[string]string{"frames": "50"})
	req := httptest.NewRequest("POST", "/api/analyze/video", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if video.lastOpts.DesiredFrames != app.MaxFramesPerVideo {
		t.Errorf("frames = %d, want clamped to %d", video.lastOpts.DesiredFrames, app.MaxFramesPerVideo)
	}
}

func TestMultimodalForcesAudio(t *testing.T) {
	app := newTestApp(t)
	video := app.Video.(*stubVideoService)
	router := NewRouter(app)

	body, contentType := multipartBody(t, "file", "clip.mp4", []byte("mp4"), nil)
	req := httptest.NewRequest("POST", "/api/analyze/multimodal", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !video.lastOpts.WithAudio {
		t.Error("multimodal analysis should enable the audio branch")
	}
	if !strings.Contains(rec.Body.String(), "multimodal") {
		t.Errorf("media_type should be multimodal: %s", rec.Body.String())
	}
}

func TestAnalyzeAudioUpload(t *testing.T) {
	app := newTestApp(t)
	router := NewRouter(app)

	body, contentType := multipartBody(t, "file", "song.mp3", []byte("mp3-bytes"), nil)
	req := httptest.NewRequest("POST", "/api/analyze/audio", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "music") {
		t.Errorf("response missing audio result: %s", rec.Body.String())
	}
}

func TestAnalyzeAudioWithoutService(t *testing.T) {
	app := newTestApp(t)
	app.Audio = nil
	router := NewRouter(app)

	body, contentType := multipartBody(t, "file", "song.mp3", []byte("mp3-bytes"), nil)
	req := httptest.NewRequest("POST", "/api/analyze/audio", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestHistoryWithoutRepo(t *testing.T) {
	app := newTestApp(t)
	router := NewRouter(app)

	for _, target := range []string{"/api/analyses", "/api/analyses/some-id"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", target, nil))
		if rec.Code != http.StatusBadGateway {
			t.Errorf("GET %s status = %d, want 502", target, rec.Code)
		}
	}
}

func TestBatchHandler(t *testing.T) {
	app := newTestApp(t)
	router := NewRouter(app)

	reqBody := `{"items": [
		{"type": "image", "url": "http://example.com/a.jpg"},
		{"type": "image", "url": ""},
		{"type": "audio", "url": "http://example.com/c.mp3"}
	]}`
	req := httptest.NewRequest("POST", "/api/analyze/batch", strings.NewReader(reqBody))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var env struct {
		Data batchResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if env.Data.Total != 3 || env.Data.Succeeded != 2 || env.Data.Failed != 1 {
		t.Errorf("totals = %d/%d/%d, want 3/2/1", env.Data.Total, env.Data.Succeeded, env.Data.Failed)
	}
	if env.Data.Items[1].Success || env.Data.Items[1].Error == "" {
		t.Errorf("item 1 should have failed with an error: %+v", env.Data.Items[1])
	}
	if !env.Data.Items[0].Success || !env.Data.Items[2].Success {
		t.Errorf("items 0 and 2 should have succeeded: %+v", env.Data.Items)
	}
}

func TestBatchHandlerRejectsOversizedBatch(t *testing.T) {
	app := newTestApp(t)
	router := NewRouter(app)

	items := make([]string, 11)
	for i := range items {
		items[i] = fmt.Sprintf(`{"type": "image", "url": "http://example.com/%d.jpg"}`, i)
	}
	reqBody := `{"items": [` + strings.Join(items, ",") + `]}`

	req := httptest.NewRequest("POST", "/api/analyze/batch", strings.NewReader(reqBody))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestBatchHandlerRequiresItems(t *testing.T) {
	app := newTestApp(t)
	router := NewRouter(app)

	req := httptest.NewRequest("POST", "/api/analyze/batch", strings.NewReader(`{"items": []}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUploadCleanupAfterAnalysis(t *testing.T) {
	app := newTestApp(t)
	store := app.Store.(*storage.TempStore)
	router := NewRouter(app)

	body, contentType := multipartBody(t, "file", "photo.jpg", []byte("jpeg-bytes"), nil)
	req := httptest.NewRequest("POST", "/api/analyze/image", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	entries, err := os.ReadDir(store.BaseDir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("temp store should be empty after analysis, found %d files", len(entries))
	}
}
