package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/medialens/medialens/internal/models"
)

var ErrNotFound = errors.New("analysis not found")

type AnalysisRepository struct {
	db *DB
}

func NewAnalysisRepository(db *DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

func (r *AnalysisRepository) placeholder(n int) string {
	if r.db.dbType == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (r *AnalysisRepository) Insert(record *models.AnalysisRecord) error {
	query := fmt.Sprintf(`
		INSERT INTO analyses (id, media_type, filename, source, model, status, summary, result, elapsed_ms, created_at)
		VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s)`,
		r.placeholder(1), r.placeholder(2), r.placeholder(3), r.placeholder(4), r.placeholder(5),
		r.placeholder(6), r.placeholder(7), r.placeholder(8), r.placeholder(9), r.placeholder(10))

	_, err := r.db.conn.Exec(query,
		record.ID, record.MediaType, record.Filename, record.Source, record.Model,
		record.Status, record.Summary, record.Result, record.ElapsedMs, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}
	return nil
}

func (r *AnalysisRepository) GetByID(id string) (*models.AnalysisRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, media_type, filename, source, model, status, summary, result, elapsed_ms, created_at
		FROM analyses WHERE id = %s`, r.placeholder(1))

	var record models.AnalysisRecord
	err := r.db.conn.QueryRow(query, id).Scan(
		&record.ID, &record.MediaType, &record.Filename, &record.Source, &record.Model,
		&record.Status, &record.Summary, &record.Result, &record.ElapsedMs, &record.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return &record, nil
}

// ListRecent returns the newest analyses without their full result
// payloads.
func (r *AnalysisRepository) ListRecent(limit int) ([]models.AnalysisRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, media_type, filename, source, model, status, summary, elapsed_ms, created_at
		FROM analyses ORDER BY created_at DESC LIMIT %s`, r.placeholder(1))

	rows, err := r.db.conn.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var records []models.AnalysisRecord
	for rows.Next() {
		var record models.AnalysisRecord
		if err := rows.Scan(
			&record.ID, &record.MediaType, &record.Filename, &record.Source, &record.Model,
			&record.Status, &record.Summary, &record.ElapsedMs, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analyses: %w", err)
	}
	return records, nil
}

// Count returns the total number of stored analyses.
func (r *AnalysisRepository) Count() (int, error) {
	var n int
	if err := r.db.conn.QueryRow(`SELECT COUNT(*) FROM analyses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return n, nil
}
