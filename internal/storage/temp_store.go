package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// TempStore keeps uploaded and downloaded media under one scratch
// directory. Files are named by UUID so concurrent analyses never
// collide, and callers remove them when the analysis finishes.
type TempStore struct {
	baseDir string
}

func NewTempStore(baseDir string) (*TempStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &TempStore{baseDir: baseDir}, nil
}

func (s *TempStore) BaseDir() string {
	return s.baseDir
}

// Save streams the reader to a new file, preserving the original
// extension so downstream tools can sniff the container type.
func (s *TempStore) Save(r io.Reader, info FileInfo) (string, error) {
	ext := strings.ToLower(filepath.Ext(info.Filename))
	if ext == "" {
		ext = ".bin"
	}

	fullPath := filepath.Join(s.baseDir, uuid.New().String()+ext)
	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return fullPath, nil
}

// Remove deletes a stored file. Paths outside the store directory are
// rejected.
func (s *TempStore) Remove(path string) error {
	cleanPath := filepath.Clean(path)
	rel, err := filepath.Rel(s.baseDir, cleanPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("path %q is outside the store", path)
	}
	if err := os.Remove(cleanPath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Cleanup removes the whole scratch directory.
func (s *TempStore) Cleanup() error {
	return os.RemoveAll(s.baseDir)
}
