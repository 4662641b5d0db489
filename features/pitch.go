package features

import (
	"math"

	"github.com/flowalyzer/pronunciation/internal/dspcore"
)

const (
	minF0Hz        = 80.0
	maxF0Hz        = 800.0
	yinThreshold   = 0.10
	silenceFloorDB = -50.0
	smoothingTaps  = 5
)

// pitchContour runs a pYIN-style monophonic F0 estimator at the same hop
// as the spectral features, converts voiced frames to a semitone offset
// from the clip's median voiced F0, fills unvoiced gaps by last-
// observation-carried-forward, and smooths with a 5-tap moving average
// (spec.md §4.1).
func pitchContour(pcm []float32, frames int) ([]float64, []bool) {
	f0 := make([]float64, frames)
	voiced := make([]bool, frames)

	minLag := int(SampleRate / maxF0Hz)
	maxLag := int(SampleRate / minF0Hz)
	if maxLag >= WindowSamples {
		maxLag = WindowSamples - 1
	}
	if minLag < 1 {
		minLag = 1
	}

	nfft := dspcore.NextPow2(2 * WindowSamples)
	plan, err := dspcore.GetRealFFTPlan(nfft)

	silenceFloor := math.Pow(10.0, silenceFloorDB/20.0)

	frameBuf := make([]float64, nfft)
	spec := make([]complex128, nfft/2+1)
	power := make([]complex128, nfft/2+1)
	corr := make([]float64, nfft)

	for t := 0; t < frames; t++ {
		start := t * HopSamples
		for i := 0; i < WindowSamples; i++ {
			frameBuf[i] = float64(pcm[start+i])
		}
		for i := WindowSamples; i < nfft; i++ {
			frameBuf[i] = 0
		}

		var r0 float64
		for _, v := range frameBuf[:WindowSamples] {
			r0 += v * v
		}
		r0 /= float64(WindowSamples)
		if err != nil || r0 < silenceFloor {
			continue
		}

		if e := plan.Forward(spec, frameBuf); e != nil {
			continue
		}
		for k := range spec {
			power[k] = spec[k] * complexConj(spec[k])
		}
		if e := plan.Inverse(corr, power); e != nil {
			continue
		}

		tau, ok := bestLagByCMNDF(corr, minLag, maxLag)
		if !ok {
			continue
		}
		freq := float64(SampleRate) / float64(tau)
		f0[t] = freq
		voiced[t] = true
	}

	medianF0 := medianVoiced(f0, voiced)

	contour := make([]float64, frames)
	for t := range contour {
		if voiced[t] && medianF0 > 0 {
			contour[t] = 12.0 * math.Log2(f0[t]/medianF0)
		}
	}

	filled := locf(contour, voiced)
	return movingAverage(filled, smoothingTaps), voiced
}

func complexConj(c complex128) complex128 {
	return complex(real(c), -imag(c))
}

// bestLagByCMNDF applies YIN's cumulative mean normalized difference
// function to the autocorrelation r and returns the first lag within
// [minLag, maxLag] whose CMNDF dips below yinThreshold, or the global
// minimum if none does and it is still a plausible local minimum.
func bestLagByCMNDF(r []float64, minLag, maxLag int) (int, bool) {
	if maxLag >= len(r) {
		maxLag = len(r) - 1
	}
	if maxLag <= minLag {
		return 0, false
	}

	d := make([]float64, maxLag+1)
	for tau := 1; tau <= maxLag; tau++ {
		d[tau] = 2.0 * (r[0] - r[tau])
		if d[tau] < 0 {
			d[tau] = 0
		}
	}

	cmndf := make([]float64, maxLag+1)
	cmndf[0] = 1
	var running float64
	for tau := 1; tau <= maxLag; tau++ {
		running += d[tau]
		if running <= 0 {
			cmndf[tau] = 1
			continue
		}
		cmndf[tau] = d[tau] * float64(tau) / running
	}

	for tau := minLag; tau < maxLag; tau++ {
		if cmndf[tau] < yinThreshold && cmndf[tau] <= cmndf[tau-1] && cmndf[tau] <= cmndf[tau+1] {
			return tau, true
		}
	}

	bestTau := minLag
	best := math.Inf(1)
	for tau := minLag; tau <= maxLag; tau++ {
		if cmndf[tau] < best {
			best = cmndf[tau]
			bestTau = tau
		}
	}
	if best < 0.5 {
		return bestTau, true
	}
	return 0, false
}

func medianVoiced(f0 []float64, voiced []bool) float64 {
	var vals []float64
	for i, v := range voiced {
		if v {
			vals = append(vals, f0[i])
		}
	}
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return 0.5 * (sorted[n/2-1] + sorted[n/2])
}

// locf fills unvoiced gaps by carrying the last voiced value forward;
// leading gaps are filled by the first voiced value found.
func locf(contour []float64, voiced []bool) []float64 {
	out := append([]float64(nil), contour...)
	last := 0.0
	haveLast := false
	for i := range out {
		if voiced[i] {
			last = out[i]
			haveLast = true
			continue
		}
		if haveLast {
			out[i] = last
		}
	}
	if !haveLast {
		return out
	}
	// Back-fill any leading gap with the first voiced value.
	var first float64
	for i, v := range voiced {
		if v {
			first = contour[i]
			break
		}
	}
	for i := range out {
		if voiced[i] {
			break
		}
		out[i] = first
	}
	return out
}

func movingAverage(x []float64, taps int) []float64 {
	n := len(x)
	out := make([]float64, n)
	half := taps / 2
	for i := 0; i < n; i++ {
		lo := i - half
		hi := i + half
		if lo < 0 {
			lo = 0
		}
		if hi > n-1 {
			hi = n - 1
		}
		var sum float64
		for j := lo; j <= hi; j++ {
			sum += x[j]
		}
		out[i] = dspcore.FlushDenormals(sum / float64(hi-lo+1))
	}
	return out
}
