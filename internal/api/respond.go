package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/medialens/medialens/internal/ai"
	"github.com/medialens/medialens/internal/analysis"
	"github.com/medialens/medialens/internal/audio"
	"github.com/medialens/medialens/internal/database"
	"github.com/medialens/medialens/internal/fetch"
	"github.com/medialens/medialens/internal/media"
	"github.com/medialens/medialens/internal/sampler"
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: false, Error: message})
}

// respondForError maps domain errors onto HTTP status codes. Unknown
// errors become 500s with a generic message so internals do not leak.
func respondForError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sampler.ErrInvalidInput),
		errors.Is(err, analysis.ErrBatchTooLarge),
		errors.Is(err, fetch.ErrBadURL),
		errors.Is(err, errValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, fetch.ErrTooLarge):
		respondError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, media.ErrNoVideoStream),
		errors.Is(err, audio.ErrNoAudioStream):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, fetch.ErrBadStatus),
		errors.Is(err, ai.ErrNoDescribers),
		errors.Is(err, ai.ErrNoTextModels):
		respondError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, database.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "analysis failed")
	}
}
