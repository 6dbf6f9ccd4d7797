package api

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var errValidation = errors.New("invalid request")

var allowedExtensions = map[string]map[string]bool{
	"image": {".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true},
	"video": {".mp4": true, ".avi": true, ".mov": true, ".mkv": true, ".webm": true},
	"audio": {".mp3": true, ".wav": true, ".m4a": true, ".flac": true, ".ogg": true},
}

// validateUpload checks filename extension and size against the
// per-type limits before any bytes hit the pipeline.
func validateUpload(mediaType, filename string, size, maxSize int64) error {
	ext := strings.ToLower(filepath.Ext(filename))
	allowed, ok := allowedExtensions[mediaType]
	if !ok {
		return fmt.Errorf("%w: unknown media type %q", errValidation, mediaType)
	}
	if !allowed[ext] {
		return fmt.Errorf("%w: unsupported %s extension %q", errValidation, mediaType, ext)
	}
	if size <= 0 {
		return fmt.Errorf("%w: empty file", errValidation)
	}
	if size > maxSize {
		return fmt.Errorf("%w: file size %d exceeds limit %d", errValidation, size, maxSize)
	}
	return nil
}
