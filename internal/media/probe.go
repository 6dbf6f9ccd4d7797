package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

var ErrNoVideoStream = errors.New("no video stream in media file")

// Descriptor is the probed shape of a media file: what the sampling
// and analysis layers need to plan their work.
type Descriptor struct {
	DurationSeconds float64 `json:"duration_seconds"`
	FrameRate       float64 `json:"frame_rate"`
	TotalFrames     int     `json:"total_frames"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	Format          string  `json:"format"`
	HasVideo        bool    `json:"has_video"`
	HasAudio        bool    `json:"has_audio"`
}

type ffprobeOutput struct {
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType    string `json:"codec_type"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
		NBFrames     string `json:"nb_frames"`
		Duration     string `json:"duration"`
	} `json:"streams"`
}

// Prober reads container metadata with ffprobe.
type Prober struct {
	ffprobePath string
}

func NewProber() (*Prober, error) {
	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
	}
	return &Prober{ffprobePath: ffprobePath}, nil
}

// Probe inspects the file and fills in a Descriptor. When the
// container does not report a frame count, it is derived from
// duration and frame rate.
func (p *Prober) Probe(ctx context.Context, path string) (*Descriptor, error) {
	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "error",
		"-show_format",
		"-show_streams",
		"-of", "json",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}

	var out ffprobeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	desc := &Descriptor{Format: out.Format.FormatName}
	if d, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
		desc.DurationSeconds = d
	}

	for _, stream := range out.Streams {
		switch stream.CodecType {
		case "video":
			if desc.HasVideo {
				continue
			}
			desc.HasVideo = true
			desc.Width = stream.Width
			desc.Height = stream.Height
			desc.FrameRate = parseFrameRate(stream.RFrameRate)
			if desc.FrameRate == 0 {
				desc.FrameRate = parseFrameRate(stream.AvgFrameRate)
			}
			if n, err := strconv.Atoi(stream.NBFrames); err == nil && n > 0 {
				desc.TotalFrames = n
			}
			if desc.DurationSeconds == 0 {
				if d, err := strconv.ParseFloat(stream.Duration, 64); err == nil {
					desc.DurationSeconds = d
				}
			}
		case "audio":
			desc.HasAudio = true
		}
	}

	if desc.TotalFrames == 0 && desc.HasVideo && desc.FrameRate > 0 {
		desc.TotalFrames = int(math.Round(desc.DurationSeconds * desc.FrameRate))
	}

	return desc, nil
}

// parseFrameRate handles ffprobe's rational notation, e.g. "30000/1001".
func parseFrameRate(s string) float64 {
	if s == "" || s == "0/0" {
		return 0
	}
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
