package features

import (
	"gonum.org/v1/gonum/stat"

	"github.com/flowalyzer/pronunciation/internal/dspcore"
)

// normalizeStream1D subtracts the mean and divides by the standard
// deviation in place, clipping to +/-NormClip (spec.md §3). The
// pitch_contour stream is exempt (already semitone-relative) and is
// never passed through this function.
func normalizeStream1D(x []float64) {
	if len(x) == 0 {
		return
	}
	// Population (divide-by-n), not sample (divide-by-n-1): spec.md
	// requires the normalized stream's own stdev to land at 1, and
	// Bessel's correction would leave it short by sqrt((n-1)/n).
	mean, std := stat.PopMeanStdDev(x, nil)
	if std < 1e-12 {
		std = 1e-12
	}
	for i := range x {
		v := (x[i] - mean) / std
		x[i] = dspcore.FlushDenormals(clamp(v, -NormClip, NormClip))
	}
}

// normalizeStream2D applies normalizeStream1D independently to each
// column of a Frames x K matrix.
func normalizeStream2D(x [][]float64) {
	if len(x) == 0 {
		return
	}
	k := len(x[0])
	col := make([]float64, len(x))
	for c := 0; c < k; c++ {
		for t := range x {
			col[t] = x[t][c]
		}
		normalizeStream1D(col)
		for t := range x {
			x[t][c] = col[t]
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
