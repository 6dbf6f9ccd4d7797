package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/rs/zerolog"

	"github.com/medialens/medialens/internal/logging"
	"github.com/medialens/medialens/internal/storage"
)

var (
	ErrTooLarge  = errors.New("remote file exceeds download limit")
	ErrBadURL    = errors.New("invalid download URL")
	ErrBadStatus = errors.New("remote server returned an error status")
)

// Downloader pulls remote media into the temp store, enforcing a byte
// limit so a hostile URL cannot fill the disk.
type Downloader struct {
	store      storage.Store
	httpClient *http.Client
	maxBytes   int64
	log        zerolog.Logger
}

func NewDownloader(store storage.Store, maxBytes int64, timeout time.Duration) *Downloader {
	return &Downloader{
		store:      store,
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   maxBytes,
		log:        logging.WithComponent("fetch"),
	}
}

// Download fetches the URL into the store and returns the local path.
// The size limit is applied both to Content-Length and to the actual
// body, since servers may omit or lie about the header.
func (d *Downloader) Download(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", fmt.Errorf("%w: %q", ErrBadURL, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}
	if resp.ContentLength > d.maxBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}

	filename := path.Base(parsed.Path)
	if filename == "/" || filename == "." {
		filename = "download"
	}

	limited := &limitReader{r: resp.Body, remaining: d.maxBytes}
	localPath, err := d.store.Save(limited, storage.FileInfo{
		Filename:    filename,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	})
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("failed to store download: %w", err)
	}

	d.log.Info().Str("url", rawURL).Str("path", localPath).Msg("downloaded remote media")
	return localPath, nil
}

// limitReader errors out instead of silently truncating when the body
// runs past the limit.
type limitReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitReader) Read(p []byte) (int, error) {
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, ErrTooLarge
	}
	return n, err
}
