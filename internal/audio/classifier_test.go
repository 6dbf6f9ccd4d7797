package audio

import (
	"math"
	"strings"
	"testing"
)

func TestClassifyType(t *testing.T) {
	tests := []struct {
		name  string
		zcr   float64
		scStd float64
		want  string
	}{
		{"speech", 0.15, 500, TypeSpeech},
		{"music", 0.05, 1500, TypeMusic},
		{"neither branch taken", 0.09, 500, TypeMixed},
		{"high zcr with wide centroid", 0.15, 1500, TypeMixed},
		{"low zcr with stable centroid", 0.05, 500, TypeMixed},
		{"speech boundary zcr not crossed", 0.10, 500, TypeMixed},
		{"music boundary scStd not crossed", 0.05, 1000, TypeMixed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := FeatureVector{ZeroCrossingRateMean: tt.zcr, SpectralCentroidStd: tt.scStd}
			if got := ClassifyType(f); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestClassifyMoodAxes(t *testing.T) {
	tests := []struct {
		name        string
		tempo       float64
		energy      float64
		centroid    float64
		wantValence string
		wantArousal string
		wantMood    string
	}{
		{"bright fast loud", 130, 0.2, 2500, "positive", "high", "Happy/Energetic"},
		{"bright moderate", 100, 0.12, 2500, "positive", "medium", "Content/Pleasant"},
		{"bright slow quiet intersects negative energy", 80, 0.11, 2500, "positive", "medium", "Content/Pleasant"},
		{"dark slow quiet", 80, 0.05, 1000, "negative", "low", "Sad/Depressing"},
		{"dark fast", 130, 0.05, 1000, "negative", "high", "Angry/Aggressive"},
		{"dark moderate", 100, 0.05, 1000, "negative", "medium", "Melancholic/Somber"},
		{"neutral fast", 130, 0.09, 1700, "neutral", "high", "Excited/Tense"},
		{"neutral moderate", 100, 0.09, 1700, "neutral", "medium", "Neutral/Balanced"},
		{"neutral slow quiet", 80, 0.05, 1700, "neutral", "low", "Calm/Subdued"},
		{"quiet but fast stays high arousal", 130, 0.05, 1700, "neutral", "high", "Excited/Tense"},
		{"slow but loud stays high arousal", 80, 0.2, 1700, "neutral", "high", "Excited/Tense"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := FeatureVector{
				Tempo:                tt.tempo,
				RMSEnergyMean:        tt.energy,
				SpectralCentroidMean: tt.centroid,
			}
			mood := ClassifyMood(f)
			if mood.Valence != tt.wantValence {
				t.Errorf("valence: expected %q, got %q", tt.wantValence, mood.Valence)
			}
			if mood.Arousal != tt.wantArousal {
				t.Errorf("arousal: expected %q, got %q", tt.wantArousal, mood.Arousal)
			}
			if mood.Mood != tt.wantMood {
				t.Errorf("mood: expected %q, got %q", tt.wantMood, mood.Mood)
			}
			if mood.Tempo != tt.tempo || mood.Energy != tt.energy {
				t.Errorf("mood must echo decision inputs, got tempo=%f energy=%f", mood.Tempo, mood.Energy)
			}
		})
	}
}

// Every valence/arousal pair must map to a real label; "Unknown" is a
// defensive default that should be unreachable.
func TestMoodTableExhaustive(t *testing.T) {
	for _, valence := range []string{"positive", "neutral", "negative"} {
		for _, arousal := range []string{"high", "medium", "low"} {
			if label := moodLabel(valence, arousal); label == "Unknown" {
				t.Errorf("(%s, %s) maps to Unknown", valence, arousal)
			}
		}
	}
	if moodLabel("bogus", "high") != "Unknown" {
		t.Error("unlisted pair should map to Unknown")
	}
}

func TestClassifierEndToEnd(t *testing.T) {
	f := FeatureVector{
		Tempo:                140,
		RMSEnergyMean:        0.18,
		SpectralCentroidMean: 2200,
		SpectralCentroidStd:  1200,
		ZeroCrossingRateMean: 0.05,
	}

	if got := ClassifyType(f); got != TypeMusic {
		t.Errorf("expected music, got %q", got)
	}

	mood := ClassifyMood(f)
	if mood.Valence != "positive" || mood.Arousal != "high" || mood.Mood != "Happy/Energetic" {
		t.Errorf("expected positive/high/Happy/Energetic, got %s/%s/%s",
			mood.Valence, mood.Arousal, mood.Mood)
	}
}

func TestAnalyzeMusicKeyEstimate(t *testing.T) {
	tests := []struct {
		name    string
		peak    int
		wantKey string
	}{
		{"C", 0, "C"},
		{"F sharp", 6, "F#"},
		{"B", 11, "B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var chroma [12]float64
			for i := range chroma {
				chroma[i] = 0.1
			}
			chroma[tt.peak] = 5.0

			m := AnalyzeMusic(FeatureVector{Tempo: 120, BeatsDetected: 48}, 1, 1, chroma, 0.4)
			if m.EstimatedKey != tt.wantKey {
				t.Errorf("expected key %q, got %q", tt.wantKey, m.EstimatedKey)
			}
			if m.BeatCount != 48 {
				t.Errorf("expected beat count 48, got %d", m.BeatCount)
			}
		})
	}
}

func TestAnalyzeMusicSilenceGuard(t *testing.T) {
	m := AnalyzeMusic(FeatureVector{}, 0, 0, [12]float64{}, 0)

	if m.Instrumentalness != 0.5 {
		t.Errorf("silent track instrumentalness should default to 0.5, got %f", m.Instrumentalness)
	}
	if math.IsNaN(m.Instrumentalness) || math.IsNaN(m.HarmonicRatio) {
		t.Error("silence must not produce NaN")
	}
	if m.HarmonicRatio != 0 {
		t.Errorf("zero harmonic energy should give harmonic ratio 0, got %f", m.HarmonicRatio)
	}
}

func TestAnalyzeMusicEnergyRatios(t *testing.T) {
	m := AnalyzeMusic(FeatureVector{}, 3.0, 1.0, [12]float64{}, 0.7)

	wantInstr := 3.0 / (4.0 + 1e-10)
	if math.Abs(m.Instrumentalness-wantInstr) > 1e-12 {
		t.Errorf("expected instrumentalness %v, got %v", wantInstr, m.Instrumentalness)
	}

	wantHarm := 3.0 / (3.0 + 1e-6)
	if math.Abs(m.HarmonicRatio-wantHarm) > 1e-12 {
		t.Errorf("expected harmonic ratio %v, got %v", wantHarm, m.HarmonicRatio)
	}

	if m.Danceability != 0.7 {
		t.Errorf("danceability must pass through unchanged, got %f", m.Danceability)
	}
}

func TestSummarize(t *testing.T) {
	f := FeatureVector{Tempo: 123.4}
	mood := Mood{Mood: "Happy/Energetic", Valence: "positive", Arousal: "high"}

	t.Run("speech only", func(t *testing.T) {
		got := Summarize(TypeSpeech, mood, f, nil, &Transcription{
			Text: "hello there world", Language: "en", Segments: 1,
		})

		for _, want := range []string{
			"Audio Type: SPEECH",
			"Mood: Happy/Energetic",
			"  - Valence: positive",
			"  - Energy: high",
			"Tempo: 123.4 BPM",
			"Contains speech: en",
			"  - Word count: 3",
		} {
			if !strings.Contains(got, want) {
				t.Errorf("summary missing %q:\n%s", want, got)
			}
		}
		if strings.Contains(got, "Key:") {
			t.Error("speech summary must not include music lines")
		}
	})

	t.Run("music without transcription", func(t *testing.T) {
		music := &MusicAnalysis{EstimatedKey: "D", Danceability: 0.52, Instrumentalness: 0.87}
		got := Summarize(TypeMusic, mood, f, music, nil)

		for _, want := range []string{"Key: D", "Danceability: 0.52", "Instrumentalness: 0.87"} {
			if !strings.Contains(got, want) {
				t.Errorf("summary missing %q:\n%s", want, got)
			}
		}
		if strings.Contains(got, "Contains speech") {
			t.Error("summary must not include transcription lines without text")
		}
	})

	t.Run("blank transcription ignored", func(t *testing.T) {
		got := Summarize(TypeMixed, mood, f, nil, &Transcription{Text: "   ", Language: "en"})
		if strings.Contains(got, "Contains speech") {
			t.Error("whitespace-only transcription must not add speech lines")
		}
	})
}
