package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/medialens/medialens/internal/analysis"
	"github.com/medialens/medialens/internal/audio"
)

type stubTextService struct {
	result   *analysis.TextResult
	err      error
	lastText string
	lastMode string
}

func (s *stubTextService) Analyze(ctx context.Context, text, mode string) (*analysis.TextResult, error) {
	s.lastText = text
	s.lastMode = mode
	return s.result, s.err
}

type stubTranscriber struct {
	result *audio.Transcription
	err    error
	calls  int
}

func (s *stubTranscriber) Transcribe(ctx context.Context, path string) (*audio.Transcription, error) {
	s.calls++
	return s.result, s.err
}

func TestAnalyzeTextHandler(t *testing.T) {
	app := newTestApp(t)
	text := &stubTextService{result: &analysis.TextResult{
		Mode:     analysis.TextModeSentiment,
		Analysis: "Positive, the author is excited.",
		Model:    "stub-model",
	}}
	app.Text = text
	router := NewRouter(app)

	reqBody := `{"text": "what a great day", "mode": "sentiment"}`
	req := httptest.NewRequest("POST", "/api/analyze/text", strings.NewReader(reqBody))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if text.lastText != "what a great day" || text.lastMode != "sentiment" {
		t.Errorf("service got (%q, %q), want request forwarded", text.lastText, text.lastMode)
	}
	if !strings.Contains(rec.Body.String(), "Positive") {
		t.Errorf("response missing analysis: %s", rec.Body.String())
	}
}

func TestAnalyzeTextDefaultsToSummary(t *testing.T) {
	app := newTestApp(t)
	text := &stubTextService{result: &analysis.TextResult{Mode: analysis.TextModeSummary, Analysis: "short"}}
	app.Text = text
	router := NewRouter(app)

	req := httptest.NewRequest("POST", "/api/analyze/text", strings.NewReader(`{"text": "long document"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if text.lastMode != analysis.TextModeSummary {
		t.Errorf("mode = %q, want summary default", text.lastMode)
	}
}

func TestAnalyzeTextRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty text", `{"text": "  "}`},
		{"unknown mode", `{"text": "hello", "mode": "haiku"}`},
		{"invalid json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			app.Text = &stubTextService{}
			router := NewRouter(app)

			req := httptest.NewRequest("POST", "/api/analyze/text", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestAnalyzeTextWithoutService(t *testing.T) {
	app := newTestApp(t)
	router := NewRouter(app)

	req := httptest.NewRequest("POST", "/api/analyze/text", strings.NewReader(`{"text": "hello"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestTranscribeUpload(t *testing.T) {
	app := newTestApp(t)
	tr := &stubTranscriber{result: &audio.Transcription{
		Text:     "hello from the recording",
		Language: "en",
		Segments: 2,
	}}
	app.Transcriber = tr
	router := NewRouter(app)

	body, contentType := multipartBody(t, "file", "speech.wav", []byte("wav-bytes"), nil)
	req := httptest.NewRequest("POST", "/api/analyze/transcribe", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if tr.calls != 1 {
		t.Errorf("transcriber called %d times, want 1", tr.calls)
	}
	if !strings.Contains(rec.Body.String(), "hello from the recording") {
		t.Errorf("response missing transcription: %s", rec.Body.String())
	}
}

func TestTranscribeWithoutProvider(t *testing.T) {
	app := newTestApp(t)
	router := NewRouter(app)

	body, contentType := multipartBody(t, "file", "speech.wav", []byte("wav-bytes"), nil)
	req := httptest.NewRequest("POST", "/api/analyze/transcribe", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestTranscribeURL(t *testing.T) {
	app := newTestApp(t)
	app.Transcriber = &stubTranscriber{result: &audio.Transcription{Text: "remote speech"}}
	router := NewRouter(app)

	reqBody := `{"url": "http://example.com/talk.mp3"}`
	req := httptest.NewRequest("POST", "/api/analyze/transcribe/url", strings.NewReader(reqBody))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "remote speech") {
		t.Errorf("response missing transcription: %s", rec.Body.String())
	}
}
