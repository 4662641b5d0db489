package features

import (
	"gonum.org/v1/gonum/dsp/fourier"
)

// mfccFromMel applies a DCT-II to each frame's NumMels log-mel band and
// keeps the first NumMFCC coefficients.
func mfccFromMel(mel [][]float64) ([][]float64, error) {
	dct := fourier.NewQuarterWaveFFT(NumMels)
	out := make([][]float64, len(mel))
	coeffs := make([]float64, NumMels)
	for t, row := range mel {
		dct.CosTransform(coeffs, row)
		mfcc := make([]float64, NumMFCC)
		copy(mfcc, coeffs[:NumMFCC])
		out[t] = mfcc
	}
	return out, nil
}

// derivative computes a centered finite difference over +/-2 frames for
// each column of a Frames x K matrix, with one-sided differences at the
// first and last frame and a centered +/-1 difference at the second and
// second-to-last frame (spec.md §4.1).
func derivative(x [][]float64) [][]float64 {
	n := len(x)
	out := make([][]float64, n)
	if n == 0 {
		return out
	}
	k := len(x[0])
	for t := 0; t < n; t++ {
		row := make([]float64, k)
		switch {
		case t >= 2 && t <= n-3:
			for c := 0; c < k; c++ {
				row[c] = (x[t+1][c] - x[t-1][c] + 2*(x[t+2][c]-x[t-2][c])) / 10.0
			}
		case t == 0:
			if n > 1 {
				for c := 0; c < k; c++ {
					row[c] = x[t+1][c] - x[t][c]
				}
			}
		case t == n-1:
			if n > 1 {
				for c := 0; c < k; c++ {
					row[c] = x[t][c] - x[t-1][c]
				}
			}
		default:
			lo, hi := t-1, t+1
			if lo < 0 {
				lo = 0
			}
			if hi > n-1 {
				hi = n - 1
			}
			for c := 0; c < k; c++ {
				row[c] = (x[hi][c] - x[lo][c]) / float64(hi-lo)
			}
		}
		out[t] = row
	}
	return out
}
