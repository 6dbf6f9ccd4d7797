package audio

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/medialens/medialens/internal/logging"
)

// Transcriber converts speech in an audio file to text. Implementations
// live in the ai package.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (*Transcription, error)
}

// Result is the full audio analysis: classification, feature vector,
// the conditional music and speech branches, and a text summary.
type Result struct {
	AudioType     string         `json:"audio_type"`
	Duration      float64        `json:"duration"`
	Features      FeatureVector  `json:"features"`
	Mood          Mood           `json:"mood_analysis"`
	Music         *MusicAnalysis `json:"music_analysis,omitempty"`
	Transcription *Transcription `json:"transcription,omitempty"`
	Summary       string         `json:"summary"`
}

// Analyzer runs the complete audio pipeline. The transcriber is
// optional; without it speech content is classified but not
// transcribed.
type Analyzer struct {
	extractor   *Extractor
	transcriber Transcriber
	log         zerolog.Logger
}

func NewAnalyzer(extractor *Extractor, transcriber Transcriber) *Analyzer {
	return &Analyzer{
		extractor:   extractor,
		transcriber: transcriber,
		log:         logging.WithComponent("audio"),
	}
}

// Analyze extracts features from the source, classifies the content
// and runs the music and transcription branches the classification
// calls for. A transcription failure degrades the result rather than
// failing the analysis.
func (a *Analyzer) Analyze(ctx context.Context, path string, rng *TimeRange) (*Result, error) {
	feat, err := a.extractor.Extract(ctx, path, rng)
	if err != nil {
		return nil, fmt.Errorf("feature extraction: %w", err)
	}

	audioType := ClassifyType(feat.Vector)
	mood := ClassifyMood(feat.Vector)

	res := &Result{
		AudioType: audioType,
		Duration:  feat.Duration,
		Features:  feat.Vector,
		Mood:      mood,
	}

	if audioType == TypeMusic || audioType == TypeMixed {
		music := AnalyzeMusic(feat.Vector, feat.HarmonicEnergy, feat.PercussiveEnergy, feat.Chroma, feat.Danceability)
		res.Music = &music
	}

	if a.transcriber != nil && (audioType == TypeSpeech || audioType == TypeMixed) {
		tr, err := a.transcriber.Transcribe(ctx, path)
		if err != nil {
			a.log.Warn().Err(err).Msg("transcription failed, continuing without text")
		} else {
			res.Transcription = tr
		}
	}

	res.Summary = Summarize(audioType, mood, feat.Vector, res.Music, res.Transcription)

	a.log.Info().
		Str("audio_type", audioType).
		Str("mood", mood.Mood).
		Float64("duration", feat.Duration).
		Msg("audio analysis complete")

	return res, nil
}
