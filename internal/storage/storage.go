package storage

import "io"

type FileInfo struct {
	Filename    string
	ContentType string
	Size        int64
}

// Store holds media files for the duration of an analysis. Save
// returns an absolute path the processing layers can hand to ffmpeg.
type Store interface {
	Save(r io.Reader, info FileInfo) (string, error)
	Remove(path string) error
}
