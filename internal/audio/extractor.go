package audio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medialens/medialens/internal/logging"
)

var ErrNoAudioStream = errors.New("no decodable audio stream")

// TimeRange restricts extraction to a segment of the source, in
// seconds. End <= Start means "until end of file".
type TimeRange struct {
	Start float64
	End   float64
}

// Features bundles the classifier's feature vector with the auxiliary
// music-analysis inputs derived from the same decode.
type Features struct {
	Vector           FeatureVector
	Duration         float64
	HarmonicEnergy   float64
	PercussiveEnergy float64
	Chroma           [12]float64
	Danceability     float64
}

// Extractor decodes audio with ffmpeg and measures tempo with aubio.
// aubio is optional; without it tempo and beat count stay zero.
type Extractor struct {
	ffmpegPath string
	aubioPath  string
	tempDir    string
	log        zerolog.Logger
}

func NewExtractor(tempDir string) (*Extractor, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	e := &Extractor{
		ffmpegPath: ffmpegPath,
		tempDir:    tempDir,
		log:        logging.WithComponent("audio"),
	}
	if aubioPath, err := exec.LookPath("aubio"); err == nil {
		e.aubioPath = aubioPath
	} else {
		e.log.Warn().Msg("aubio not found, tempo and beat detection disabled")
	}
	return e, nil
}

// Extract decodes the source (or the given segment of it) to mono PCM,
// computes the spectral feature set and runs tempo detection.
func (e *Extractor) Extract(ctx context.Context, path string, rng *TimeRange) (*Features, error) {
	wavPath, err := e.decodeToWav(ctx, path, rng)
	if err != nil {
		return nil, err
	}
	defer os.Remove(wavPath)

	samples, err := e.decodePCM(ctx, wavPath)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, ErrNoAudioStream
	}
	duration := float64(len(samples)) / float64(analysisSampleRate)

	tf := computeTrackFeatures(samples)

	tempo, beats := e.measureTempo(ctx, wavPath)

	feat := &Features{
		Vector: FeatureVector{
			Tempo:                 tempo,
			BeatsDetected:         beats,
			SpectralCentroidMean:  tf.CentroidMean,
			SpectralCentroidStd:   tf.CentroidStd,
			SpectralRolloffMean:   tf.RolloffMean,
			SpectralBandwidthMean: tf.BandwidthMean,
			RMSEnergyMean:         tf.RMSMean,
			RMSEnergyStd:          tf.RMSStd,
			ZeroCrossingRateMean:  tf.ZCRMean,
			MFCCMeans:             tf.MFCCMeans,
		},
		Duration:         duration,
		HarmonicEnergy:   tf.HarmonicEnergy,
		PercussiveEnergy: tf.PercussiveEnergy,
		Chroma:           tf.Chroma,
		Danceability:     tf.Danceability,
	}

	e.log.Debug().
		Str("source", filepath.Base(path)).
		Float64("duration", duration).
		Float64("tempo", tempo).
		Msg("audio features extracted")

	return feat, nil
}

// decodeToWav renders the source to a mono 22.05kHz wav so both the
// PCM pass and aubio read the exact same segment.
func (e *Extractor) decodeToWav(ctx context.Context, path string, rng *TimeRange) (string, error) {
	wavPath := filepath.Join(e.tempDir, fmt.Sprintf("audio_%s.wav", uuid.New().String()))

	args := []string{"-v", "error", "-y"}
	if rng != nil && rng.Start > 0 {
		args = append(args, "-ss", strconv.FormatFloat(rng.Start, 'f', 3, 64))
	}
	args = append(args, "-i", path)
	if rng != nil && rng.End > rng.Start {
		args = append(args, "-t", strconv.FormatFloat(rng.End-rng.Start, 'f', 3, 64))
	}
	args = append(args,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(analysisSampleRate),
		"-acodec", "pcm_s16le",
		wavPath,
	)

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		os.Remove(wavPath)
		msg := strings.TrimSpace(stderr.String())
		if strings.Contains(msg, "does not contain any stream") ||
			strings.Contains(msg, "Output file does not contain any stream") {
			return "", ErrNoAudioStream
		}
		return "", fmt.Errorf("ffmpeg audio decode failed: %w (%s)", err, msg)
	}
	return wavPath, nil
}

// decodePCM reads the wav back as raw little-endian s16 samples scaled
// to [-1, 1].
func (e *Extractor) decodePCM(ctx context.Context, wavPath string) ([]float64, error) {
	cmd := exec.CommandContext(ctx, e.ffmpegPath,
		"-v", "error",
		"-i", wavPath,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", strconv.Itoa(analysisSampleRate),
		"pipe:1",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg pcm decode failed: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}

	raw := stdout.Bytes()
	samples := make([]float64, len(raw)/2)
	for i := range samples {
		s := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		samples[i] = float64(s) / 32768.0
	}
	return samples, nil
}

var bpmPattern = regexp.MustCompile(`([0-9]+(\.[0-9]+)?)\s*bpm`)

// measureTempo runs aubio tempo and onset over the decoded wav. The
// tempo is the median of aubio's per-window bpm estimates; the beat
// count is the number of detected onsets.
func (e *Extractor) measureTempo(ctx context.Context, wavPath string) (tempo float64, beats int) {
	if e.aubioPath == "" {
		return 0, 0
	}

	out, err := exec.CommandContext(ctx, e.aubioPath, "tempo", "-i", wavPath).Output()
	if err != nil && len(out) == 0 {
		e.log.Warn().Err(err).Msg("aubio tempo failed")
	}
	var bpms []float64
	sc := bufio.NewScanner(strings.NewReader(strings.ToLower(string(out))))
	for sc.Scan() {
		if m := bpmPattern.FindStringSubmatch(sc.Text()); len(m) >= 2 {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
				bpms = append(bpms, v)
			}
		}
	}
	if len(bpms) > 0 {
		sort.Float64s(bpms)
		tempo = bpms[len(bpms)/2]
		tempo = math.Round(tempo*100) / 100
	}

	onsetOut, _ := exec.CommandContext(ctx, e.aubioPath, "onset", "-i", wavPath).Output()
	sc = bufio.NewScanner(bytes.NewReader(onsetOut))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if _, err := strconv.ParseFloat(strings.Fields(line)[0], 64); err == nil {
			beats++
		}
	}
	return tempo, beats
}
