package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", app.HealthHandler)
	r.Handle("/metrics", app.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", app.StatusHandler)
		r.Get("/info", app.InfoHandler)

		r.Get("/analyses", app.ListAnalysesHandler)
		r.Get("/analyses/{id}", app.GetAnalysisHandler)

		r.Route("/analyze", func(r chi.Router) {
			r.Post("/image", app.AnalyzeImageHandler)
			r.Post("/image/url", app.AnalyzeImageURLHandler)
			r.Post("/video", app.AnalyzeVideoHandler)
			r.Post("/video/url", app.AnalyzeVideoURLHandler)
			r.Post("/audio", app.AnalyzeAudioHandler)
			r.Post("/audio/url", app.AnalyzeAudioURLHandler)
			r.Post("/transcribe", app.TranscribeHandler)
			r.Post("/transcribe/url", app.TranscribeURLHandler)
			r.Post("/text", app.AnalyzeTextHandler)
			r.Post("/multimodal", app.MultimodalHandler)
			r.Post("/batch", app.BatchHandler)
		})
	})

	return r
}
