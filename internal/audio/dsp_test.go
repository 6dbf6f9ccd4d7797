package audio

import (
	"math"
	"testing"
)

func sineWave(freq float64, seconds float64) []float64 {
	n := int(seconds * analysisSampleRate)
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/analysisSampleRate)
	}
	return samples
}

func TestComputeTrackFeaturesPureTone(t *testing.T) {
	const freq = 440.0
	tf := computeTrackFeatures(sineWave(freq, 2.0))

	if math.Abs(tf.CentroidMean-freq) > 50 {
		t.Errorf("centroid = %.1f, want within 50Hz of %.1f", tf.CentroidMean, freq)
	}
	if math.Abs(tf.RolloffMean-freq) > 50 {
		t.Errorf("rolloff = %.1f, want within 50Hz of %.1f", tf.RolloffMean, freq)
	}

	// A pure sine crosses zero twice per cycle.
	wantZCR := 2 * freq / analysisSampleRate
	if math.Abs(tf.ZCRMean-wantZCR) > 0.01 {
		t.Errorf("zcr = %.4f, want about %.4f", tf.ZCRMean, wantZCR)
	}

	wantRMS := 0.5 / math.Sqrt2
	if math.Abs(tf.RMSMean-wantRMS) > 0.05 {
		t.Errorf("rms = %.4f, want about %.4f", tf.RMSMean, wantRMS)
	}

	// 440Hz is A; pitch class index 9 with C at 0.
	best := 0
	for i, v := range tf.Chroma {
		if v > tf.Chroma[best] {
			best = i
		}
	}
	if best != 9 {
		t.Errorf("chroma argmax = %d, want 9 (A)", best)
	}

	// A sustained tone is smooth across time, so its energy lands on
	// the harmonic side of the split.
	if tf.HarmonicEnergy <= tf.PercussiveEnergy {
		t.Errorf("harmonic energy %.2f not above percussive %.2f for sustained tone",
			tf.HarmonicEnergy, tf.PercussiveEnergy)
	}

	if len(tf.MFCCMeans) != numMFCC {
		t.Fatalf("mfcc means length = %d, want %d", len(tf.MFCCMeans), numMFCC)
	}
}

func TestComputeTrackFeaturesSilence(t *testing.T) {
	tf := computeTrackFeatures(make([]float64, analysisSampleRate))

	if tf.CentroidMean != 0 || tf.RMSMean != 0 || tf.ZCRMean != 0 {
		t.Errorf("silence produced nonzero features: centroid=%.3f rms=%.3f zcr=%.3f",
			tf.CentroidMean, tf.RMSMean, tf.ZCRMean)
	}
	if tf.HarmonicEnergy != 0 || tf.PercussiveEnergy != 0 {
		t.Errorf("silence produced nonzero energies: h=%.3f p=%.3f",
			tf.HarmonicEnergy, tf.PercussiveEnergy)
	}
	for i, v := range tf.Chroma {
		if v != 0 {
			t.Errorf("chroma[%d] = %.3f for silence, want 0", i, v)
		}
	}
}

func TestComputeTrackFeaturesEmpty(t *testing.T) {
	tf := computeTrackFeatures(nil)
	if len(tf.MFCCMeans) != numMFCC {
		t.Fatalf("mfcc means length = %d, want %d", len(tf.MFCCMeans), numMFCC)
	}
	if tf.CentroidMean != 0 {
		t.Errorf("centroid = %.3f for empty input, want 0", tf.CentroidMean)
	}
}

func TestSpectralStatsSingleBin(t *testing.T) {
	frame := make([]float64, 1025)
	frame[100] = 1.0
	binHz := float64(analysisSampleRate) / float64(fftSize)

	centroid, rolloff, bandwidth := spectralStats(frame, binHz)
	want := 100 * binHz
	if centroid != want {
		t.Errorf("centroid = %.2f, want %.2f", centroid, want)
	}
	if rolloff != want {
		t.Errorf("rolloff = %.2f, want %.2f", rolloff, want)
	}
	if bandwidth != 0 {
		t.Errorf("bandwidth = %.2f for single bin, want 0", bandwidth)
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		vals []float64
		want float64
	}{
		{nil, 0},
		{[]float64{3}, 3},
		{[]float64{3, 1, 2}, 2},
		{[]float64{4, 1, 3, 2}, 2.5},
	}
	for _, tt := range tests {
		if got := median(tt.vals); got != tt.want {
			t.Errorf("median(%v) = %v, want %v", tt.vals, got, tt.want)
		}
	}
}
