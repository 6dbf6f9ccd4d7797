package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medialens/medialens/internal/logging"
)

const frameJPEGQuality = "2"

// FrameExtractor pulls single frames out of a video with ffmpeg,
// letterboxed to a square of the configured size.
type FrameExtractor struct {
	ffmpegPath string
	tempDir    string
	frameSize  int
	log        zerolog.Logger
}

func NewFrameExtractor(tempDir string, frameSize int) (*FrameExtractor, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	return &FrameExtractor{
		ffmpegPath: ffmpegPath,
		tempDir:    tempDir,
		frameSize:  frameSize,
		log:        logging.WithComponent("media"),
	}, nil
}

// ExtractAt decodes the frame nearest the given timestamp and returns
// it as JPEG bytes.
func (fe *FrameExtractor) ExtractAt(ctx context.Context, videoPath string, timestamp float64) ([]byte, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return nil, fmt.Errorf("video file not accessible: %w", err)
	}

	outPath := filepath.Join(fe.tempDir, fmt.Sprintf("frame_%s.jpg", uuid.New().String()))
	defer os.Remove(outPath)

	size := fe.frameSize
	filter := fmt.Sprintf(
		"scale='min(%d,iw)':'min(%d,ih)':force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:black",
		size, size, size, size,
	)
	cmd := exec.CommandContext(ctx, fe.ffmpegPath,
		"-ss", fmt.Sprintf("%.3f", timestamp),
		"-i", videoPath,
		"-vframes", "1",
		"-vf", filter,
		"-q:v", frameJPEGQuality,
		"-f", "mjpeg",
		"-y", outPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		fe.log.Debug().Str("stderr", strings.TrimSpace(stderr.String())).Float64("timestamp", timestamp).Msg("frame extraction failed")
		return nil, fmt.Errorf("failed to extract frame at %.3fs: %w", timestamp, err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read extracted frame: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty frame extracted at %.3fs", timestamp)
	}
	return data, nil
}
