package audio

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	analysisSampleRate = 22050
	fftSize            = 2048
	hopSize            = 512
	numMFCC            = 13
	numMelFilters      = 26
	rolloffPercent     = 0.85
	// Median filter span for the harmonic/percussive split.
	hpssKernel = 17
)

// trackFeatures is everything the DSP pass computes from decoded PCM:
// the classifier's feature statistics plus the auxiliary music inputs
// (chroma, harmonic/percussive energies, beat-strength mean).
type trackFeatures struct {
	CentroidMean     float64
	CentroidStd      float64
	RolloffMean      float64
	BandwidthMean    float64
	RMSMean          float64
	RMSStd           float64
	ZCRMean          float64
	MFCCMeans        []float64
	Chroma           [12]float64
	HarmonicEnergy   float64
	PercussiveEnergy float64
	Danceability     float64
}

// computeTrackFeatures runs a single STFT over the samples and derives
// all spectral statistics from it. Sample rate is assumed to be
// analysisSampleRate; the decoder resamples to guarantee that.
func computeTrackFeatures(samples []float64) trackFeatures {
	var tf trackFeatures
	if len(samples) == 0 {
		tf.MFCCMeans = make([]float64, numMFCC)
		return tf
	}

	mags := stft(samples, fftSize, hopSize)
	if len(mags) == 0 {
		tf.MFCCMeans = make([]float64, numMFCC)
		return tf
	}

	binHz := float64(analysisSampleRate) / float64(fftSize)

	centroids := make([]float64, len(mags))
	rolloffs := make([]float64, len(mags))
	bandwidths := make([]float64, len(mags))
	for t, frame := range mags {
		centroids[t], rolloffs[t], bandwidths[t] = spectralStats(frame, binHz)
	}

	tf.CentroidMean, tf.CentroidStd = meanStd(centroids)
	tf.RolloffMean, _ = meanStd(rolloffs)
	tf.BandwidthMean, _ = meanStd(bandwidths)

	rms, zcr := frameEnergies(samples, fftSize, hopSize)
	tf.RMSMean, tf.RMSStd = meanStd(rms)
	tf.ZCRMean, _ = meanStd(zcr)

	tf.MFCCMeans = mfccMeans(mags, binHz)
	tf.Chroma = chromaEnergy(mags, binHz)
	tf.HarmonicEnergy, tf.PercussiveEnergy = hpssEnergies(mags)
	tf.Danceability = onsetStrengthMean(mags)

	return tf
}

// stft returns the magnitude spectrogram, one Hann-windowed frame per
// hop, each holding fftSize/2+1 bins.
func stft(samples []float64, size, hop int) [][]float64 {
	if len(samples) < size {
		padded := make([]float64, size)
		copy(padded, samples)
		samples = padded
	}

	fft := fourier.NewFFT(size)
	window := hannWindow(size)

	numFrames := 1 + (len(samples)-size)/hop
	mags := make([][]float64, 0, numFrames)

	buf := make([]float64, size)
	for start := 0; start+size <= len(samples); start += hop {
		for i := 0; i < size; i++ {
			buf[i] = samples[start+i] * window[i]
		}
		coeffs := fft.Coefficients(nil, buf)
		frame := make([]float64, len(coeffs))
		for i, c := range coeffs {
			frame[i] = cmplxAbs(c)
		}
		mags = append(mags, frame)
	}
	return mags
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

func hannWindow(size int) []float64 {
	w := make([]float64, size)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(size-1))
	}
	return w
}

// spectralStats computes centroid, rolloff and bandwidth for one
// magnitude frame.
func spectralStats(frame []float64, binHz float64) (centroid, rolloff, bandwidth float64) {
	var total, weighted float64
	for k, m := range frame {
		total += m
		weighted += m * float64(k) * binHz
	}
	if total == 0 {
		return 0, 0, 0
	}
	centroid = weighted / total

	target := rolloffPercent * total
	var cum float64
	for k, m := range frame {
		cum += m
		if cum >= target {
			rolloff = float64(k) * binHz
			break
		}
	}

	var spread float64
	for k, m := range frame {
		d := float64(k)*binHz - centroid
		spread += m * d * d
	}
	bandwidth = math.Sqrt(spread / total)
	return centroid, rolloff, bandwidth
}

// frameEnergies computes per-frame RMS energy and zero-crossing rate
// directly from the time-domain signal.
func frameEnergies(samples []float64, size, hop int) (rms, zcr []float64) {
	for start := 0; start+size <= len(samples) || start == 0; start += hop {
		end := start + size
		if end > len(samples) {
			end = len(samples)
		}
		frame := samples[start:end]
		if len(frame) == 0 {
			break
		}

		var sumSq float64
		crossings := 0
		for i, s := range frame {
			sumSq += s * s
			if i > 0 && (frame[i-1] >= 0) != (s >= 0) {
				crossings++
			}
		}
		rms = append(rms, math.Sqrt(sumSq/float64(len(frame))))
		zcr = append(zcr, float64(crossings)/float64(len(frame)))

		if end == len(samples) {
			break
		}
	}
	return rms, zcr
}

// chromaEnergy folds spectral energy onto the 12 pitch classes, C
// first. Bins below the musical range are skipped.
func chromaEnergy(mags [][]float64, binHz float64) [12]float64 {
	var chroma [12]float64
	for _, frame := range mags {
		for k, m := range frame {
			freq := float64(k) * binHz
			if freq < 27.5 { // below A0
				continue
			}
			midi := 69 + 12*math.Log2(freq/440.0)
			pc := int(math.Round(midi)) % 12
			if pc < 0 {
				pc += 12
			}
			chroma[pc] += m * m
		}
	}
	return chroma
}

// hpssEnergies splits spectrogram energy into harmonic and percussive
// parts with median-filter masking: harmonic content is smooth across
// time, percussive content is smooth across frequency.
func hpssEnergies(mags [][]float64) (harmonic, percussive float64) {
	numFrames := len(mags)
	if numFrames == 0 {
		return 0, 0
	}
	numBins := len(mags[0])
	half := hpssKernel / 2

	timeMedian := func(t, k int) float64 {
		vals := make([]float64, 0, hpssKernel)
		for dt := -half; dt <= half; dt++ {
			if t+dt >= 0 && t+dt < numFrames {
				vals = append(vals, mags[t+dt][k])
			}
		}
		return median(vals)
	}
	freqMedian := func(t, k int) float64 {
		vals := make([]float64, 0, hpssKernel)
		for dk := -half; dk <= half; dk++ {
			if k+dk >= 0 && k+dk < numBins {
				vals = append(vals, mags[t][k+dk])
			}
		}
		return median(vals)
	}

	for t := 0; t < numFrames; t++ {
		for k := 0; k < numBins; k++ {
			energy := mags[t][k] * mags[t][k]
			if energy == 0 {
				continue
			}
			if timeMedian(t, k) >= freqMedian(t, k) {
				harmonic += energy
			} else {
				percussive += energy
			}
		}
	}
	return harmonic, percussive
}

// onsetStrengthMean is the mean positive spectral flux across frames, a
// beat-strength proxy reported as danceability. Unbounded by design.
func onsetStrengthMean(mags [][]float64) float64 {
	if len(mags) < 2 {
		return 0
	}
	var total float64
	for t := 1; t < len(mags); t++ {
		var flux float64
		for k := range mags[t] {
			if d := mags[t][k] - mags[t-1][k]; d > 0 {
				flux += d
			}
		}
		total += flux / float64(len(mags[t]))
	}
	return total / float64(len(mags)-1)
}

// mfccMeans computes per-coefficient means of 13 MFCCs over a 26-band
// mel filterbank.
func mfccMeans(mags [][]float64, binHz float64) []float64 {
	numBins := len(mags[0])
	filters := melFilterbank(numBins, binHz)

	sums := make([]float64, numMFCC)
	logMel := make([]float64, numMelFilters)
	for _, frame := range mags {
		for f, filter := range filters {
			var e float64
			for k, w := range filter {
				e += w * frame[k] * frame[k]
			}
			logMel[f] = math.Log(e + 1e-10)
		}
		for c := 0; c < numMFCC; c++ {
			var acc float64
			for f := 0; f < numMelFilters; f++ {
				acc += logMel[f] * math.Cos(math.Pi*float64(c)*(float64(f)+0.5)/float64(numMelFilters))
			}
			sums[c] += acc
		}
	}

	means := make([]float64, numMFCC)
	for c := range means {
		means[c] = sums[c] / float64(len(mags))
	}
	return means
}

// melFilterbank builds triangular filters spaced evenly on the mel
// scale up to Nyquist.
func melFilterbank(numBins int, binHz float64) [][]float64 {
	hzToMel := func(hz float64) float64 { return 2595 * math.Log10(1+hz/700) }
	melToHz := func(mel float64) float64 { return 700 * (math.Pow(10, mel/2595) - 1) }

	nyquist := float64(numBins-1) * binHz
	maxMel := hzToMel(nyquist)

	points := make([]float64, numMelFilters+2)
	for i := range points {
		points[i] = melToHz(maxMel * float64(i) / float64(numMelFilters+1))
	}

	filters := make([][]float64, numMelFilters)
	for f := 0; f < numMelFilters; f++ {
		filter := make([]float64, numBins)
		lo, mid, hi := points[f], points[f+1], points[f+2]
		for k := 0; k < numBins; k++ {
			freq := float64(k) * binHz
			switch {
			case freq > lo && freq <= mid:
				filter[k] = (freq - lo) / (mid - lo)
			case freq > mid && freq < hi:
				filter[k] = (hi - freq) / (hi - mid)
			}
		}
		filters[f] = filter
	}
	return filters
}

func meanStd(vals []float64) (mean, std float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))

	var variance float64
	for _, v := range vals {
		d := v - mean
		variance += d * d
	}
	return mean, math.Sqrt(variance / float64(len(vals)))
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
