package features

import (
	"math"

	"github.com/flowalyzer/pronunciation/internal/dspcore"
)

var analysisWindow = dspcore.HannWindow(WindowSamples)

// stftMagnitudes computes the per-frame linear magnitude spectrum
// (FFTSize/2+1 bins) for a Hann-windowed, zero-padded analysis frame at
// each hop position.
func stftMagnitudes(pcm []float32, frames int) ([][]float64, error) {
	plan, err := dspcore.GetRealFFTPlan(FFTSize)
	if err != nil {
		return nil, err
	}

	bins := FFTSize/2 + 1
	mag := make([][]float64, frames)
	frameBuf := make([]float64, FFTSize)
	spec := make([]complex128, bins)

	for t := 0; t < frames; t++ {
		start := t * HopSamples
		for i := 0; i < WindowSamples; i++ {
			frameBuf[i] = float64(pcm[start+i]) * analysisWindow[i]
		}
		for i := WindowSamples; i < FFTSize; i++ {
			frameBuf[i] = 0
		}
		if err := plan.Forward(spec, frameBuf); err != nil {
			return nil, err
		}
		row := make([]float64, bins)
		for k := 0; k < bins; k++ {
			row[k] = cmplxAbs(spec[k])
		}
		mag[t] = row
	}
	return mag, nil
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

// melSpectrogram projects each frame's linear magnitude spectrum through
// an 80-band triangular mel filterbank over [0, 8000] Hz and takes the
// log.
func melSpectrogram(mag [][]float64) [][]float64 {
	bank := melFilterBank(NumMels, FFTSize, SampleRate, MelLowHz, MelHighHz)
	out := make([][]float64, len(mag))
	for t, row := range mag {
		mel := make([]float64, NumMels)
		for m := 0; m < NumMels; m++ {
			var sum float64
			for k, w := range bank[m] {
				sum += w * row[k]
			}
			if sum < 1e-10 {
				sum = 1e-10
			}
			mel[m] = math.Log(sum)
		}
		out[t] = mel
	}
	return out
}

// melFilterBank builds numMels triangular filters spaced evenly on the
// mel scale between lowHz and highHz, matching the Kaldi-style
// convention used in the retrieved fbank reference code.
func melFilterBank(numMels, fftSize, sampleRate int, lowHz, highHz float64) [][]float64 {
	bins := fftSize/2 + 1
	lowMel := hzToMel(lowHz)
	highMel := hzToMel(highHz)

	points := make([]float64, numMels+2)
	for i := range points {
		points[i] = lowMel + (highMel-lowMel)*float64(i)/float64(numMels+1)
	}
	binFreqs := make([]int, numMels+2)
	for i, m := range points {
		hz := melToHz(m)
		binFreqs[i] = int(math.Floor((float64(fftSize)+1)*hz/float64(sampleRate) + 0.5))
	}

	bank := make([][]float64, numMels)
	for m := 0; m < numMels; m++ {
		row := make([]float64, bins)
		left, center, right := binFreqs[m], binFreqs[m+1], binFreqs[m+2]
		for k := left; k < center && k < bins; k++ {
			if center != left && k >= 0 {
				row[k] = float64(k-left) / float64(center-left)
			}
		}
		for k := center; k < right && k < bins; k++ {
			if right != center && k >= 0 {
				row[k] = float64(right-k) / float64(right-center)
			}
		}
		bank[m] = row
	}
	return bank
}

func hzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

func melToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// spectralFlux is the sum of positive magnitude-spectrum differences
// versus the prior frame; the first frame is defined as zero.
func spectralFlux(mag [][]float64) []float64 {
	out := make([]float64, len(mag))
	for t := 1; t < len(mag); t++ {
		var sum float64
		for k := range mag[t] {
			d := mag[t][k] - mag[t-1][k]
			if d > 0 {
				sum += d
			}
		}
		out[t] = sum
	}
	return out
}

// frameEnergy is the mean of squared time-domain samples within each
// analysis window.
func frameEnergy(pcm []float32, frames int) []float64 {
	out := make([]float64, frames)
	for t := 0; t < frames; t++ {
		start := t * HopSamples
		var sum float64
		for i := 0; i < WindowSamples; i++ {
			v := float64(pcm[start+i])
			sum += v * v
		}
		out[t] = sum / float64(WindowSamples)
	}
	return out
}
