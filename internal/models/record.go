package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// AnalysisRecord is one row of analysis history: what was analyzed,
// which model answered, and the JSON result payload.
type AnalysisRecord struct {
	ID        string    `json:"id"`
	MediaType string    `json:"media_type"`
	Filename  string    `json:"filename"`
	Source    string    `json:"source"`
	Model     string    `json:"model"`
	Status    string    `json:"status"`
	Summary   string    `json:"summary"`
	Result    string    `json:"result,omitempty"`
	ElapsedMs int64     `json:"elapsed_ms"`
	CreatedAt time.Time `json:"created_at"`
}

func NewAnalysisRecord(mediaType, filename, source string) *AnalysisRecord {
	return &AnalysisRecord{
		ID:        uuid.New().String(),
		MediaType: mediaType,
		Filename:  filename,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
}
