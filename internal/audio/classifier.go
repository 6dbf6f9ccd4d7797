// Package audio classifies audio tracks from signal-level features:
// speech/music/mixed detection, mood estimation on valence and arousal
// axes, and music descriptors (key, danceability, instrumentalness).
// The classifier is a pure function over a FeatureVector; decoding and
// feature computation live in the extractor.
package audio

import (
	"fmt"
	"strings"
)

// Audio type labels.
const (
	TypeSpeech = "speech"
	TypeMusic  = "music"
	TypeMixed  = "mixed"
)

// FeatureVector holds the per-track feature statistics the classifier
// operates on. All values come from the extraction layer and are never
// mutated here.
type FeatureVector struct {
	Tempo                 float64   `json:"tempo"`
	BeatsDetected         int       `json:"beats_detected"`
	SpectralCentroidMean  float64   `json:"spectral_centroid_mean"`
	SpectralCentroidStd   float64   `json:"spectral_centroid_std"`
	SpectralRolloffMean   float64   `json:"spectral_rolloff_mean"`
	SpectralBandwidthMean float64   `json:"spectral_bandwidth_mean"`
	RMSEnergyMean         float64   `json:"rms_energy_mean"`
	RMSEnergyStd          float64   `json:"rms_energy_std"`
	ZeroCrossingRateMean  float64   `json:"zero_crossing_rate_mean"`
	MFCCMeans             []float64 `json:"mfcc_means"`
}

// Mood is the estimated emotional character of a track, derived from
// tempo, energy and spectral brightness.
type Mood struct {
	Mood    string  `json:"mood"`
	Valence string  `json:"valence"`
	Arousal string  `json:"arousal"`
	Tempo   float64 `json:"tempo"`
	Energy  float64 `json:"energy"`
}

// MusicAnalysis holds descriptors computed only for music or mixed
// tracks.
type MusicAnalysis struct {
	Tempo            float64 `json:"tempo"`
	EstimatedKey     string  `json:"estimated_key"`
	BeatCount        int     `json:"beat_count"`
	Instrumentalness float64 `json:"instrumentalness"`
	Danceability     float64 `json:"danceability"`
	HarmonicRatio    float64 `json:"harmonic_ratio"`
}

// Transcription is the speech-recognition output attached to a track,
// used by the summary when present.
type Transcription struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments int    `json:"segments"`
}

var pitchClassNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// ClassifyType labels a track as speech, music or mixed. Speech shows
// rapid zero-crossings with a tonally stable centroid; music shows
// smoother zero-crossing behavior with wider centroid variance. The
// thresholds are frozen empirical constants; retuning them breaks
// compatibility with recorded results.
func ClassifyType(f FeatureVector) string {
	zcr := f.ZeroCrossingRateMean
	scStd := f.SpectralCentroidStd

	switch {
	case zcr > 0.10 && scStd < 1000:
		return TypeSpeech
	case zcr < 0.08 && scStd > 1000:
		return TypeMusic
	default:
		return TypeMixed
	}
}

// ClassifyMood derives a mood label from two independent axes: valence
// (pleasantness, from brightness and energy) and arousal (energy level,
// from tempo and energy). The 3x3 composition table is fixed.
func ClassifyMood(f FeatureVector) Mood {
	energy := f.RMSEnergyMean

	var valence string
	switch {
	case f.SpectralCentroidMean > 2000 && energy > 0.10:
		valence = "positive"
	case f.SpectralCentroidMean < 1500 && energy < 0.08:
		valence = "negative"
	default:
		valence = "neutral"
	}

	var arousal string
	switch {
	case f.Tempo > 120 || energy > 0.15:
		arousal = "high"
	case f.Tempo < 90 && energy < 0.08:
		arousal = "low"
	default:
		arousal = "medium"
	}

	return Mood{
		Mood:    moodLabel(valence, arousal),
		Valence: valence,
		Arousal: arousal,
		Tempo:   f.Tempo,
		Energy:  energy,
	}
}

func moodLabel(valence, arousal string) string {
	labels := map[[2]string]string{
		{"positive", "high"}:   "Happy/Energetic",
		{"positive", "medium"}: "Content/Pleasant",
		{"positive", "low"}:    "Peaceful/Relaxed",
		{"neutral", "high"}:    "Excited/Tense",
		{"neutral", "medium"}:  "Neutral/Balanced",
		{"neutral", "low"}:     "Calm/Subdued",
		{"negative", "high"}:   "Angry/Aggressive",
		{"negative", "medium"}: "Melancholic/Somber",
		{"negative", "low"}:    "Sad/Depressing",
	}

	if label, ok := labels[[2]string{valence, arousal}]; ok {
		return label
	}
	return "Unknown"
}

// AnalyzeMusic computes music descriptors from the feature vector plus
// the harmonic/percussive energy split and the summed chroma energy per
// pitch class. The key estimate is a plain argmax over chroma with no
// major/minor disambiguation.
//
// Note the asymmetric epsilon treatment: instrumentalness guards the
// full denominator with 1e-10 while harmonicRatio uses 1e-6 against the
// harmonic energy alone. The asymmetry is intentional behavioral
// compatibility; see DESIGN.md before touching either formula.
func AnalyzeMusic(f FeatureVector, harmonicEnergy, percussiveEnergy float64, chroma [12]float64, danceability float64) MusicAnalysis {
	keyIdx := 0
	for i := 1; i < len(chroma); i++ {
		if chroma[i] > chroma[keyIdx] {
			keyIdx = i
		}
	}

	totalEnergy := harmonicEnergy + percussiveEnergy
	instrumentalness := 0.5
	if totalEnergy > 0 {
		instrumentalness = harmonicEnergy / (totalEnergy + 1e-10)
	}

	return MusicAnalysis{
		Tempo:            f.Tempo,
		EstimatedKey:     pitchClassNames[keyIdx],
		BeatCount:        f.BeatsDetected,
		Instrumentalness: instrumentalness,
		Danceability:     danceability,
		HarmonicRatio:    harmonicEnergy / (harmonicEnergy + 1e-6),
	}
}

// Summarize renders the human-readable report for a classified track.
// Pure formatting; the only logic is presence checks.
func Summarize(audioType string, mood Mood, f FeatureVector, music *MusicAnalysis, transcription *Transcription) string {
	lines := []string{
		fmt.Sprintf("Audio Type: %s", strings.ToUpper(audioType)),
		fmt.Sprintf("Mood: %s", mood.Mood),
		fmt.Sprintf("  - Valence: %s", mood.Valence),
		fmt.Sprintf("  - Energy: %s", mood.Arousal),
		fmt.Sprintf("Tempo: %.1f BPM", f.Tempo),
	}

	if music != nil {
		lines = append(lines,
			fmt.Sprintf("Key: %s", music.EstimatedKey),
			fmt.Sprintf("Danceability: %.2f", music.Danceability),
			fmt.Sprintf("Instrumentalness: %.2f", music.Instrumentalness),
		)
	}

	if transcription != nil && strings.TrimSpace(transcription.Text) != "" {
		lines = append(lines,
			fmt.Sprintf("Contains speech: %s", transcription.Language),
			fmt.Sprintf("  - Word count: %d", len(strings.Fields(transcription.Text))),
		)
	}

	return strings.Join(lines, "\n")
}
