// Package align implements the streaming DTW aligner: consuming the
// reference FeatureBundle and a growing learner FeatureBundle prefix,
// producing an AlignmentReport of ordered segments with timing,
// spectral, articulation, and contour diagnostics (spec.md §4.2).
package align

import "fmt"

// Weights are the numeric weights for the DTW cost function (spec.md
// §3's AlignmentWeights entity). All fields must be >= 0 and their sum
// must be > 0.
type Weights struct {
	MFCC       float64 `json:"mfcc"`
	Delta      float64 `json:"delta"`
	DeltaDelta float64 `json:"delta_delta"`
	Mel        float64 `json:"mel"`
	Energy     float64 `json:"energy"`
	Flux       float64 `json:"flux"`
	Pitch      float64 `json:"pitch"`
}

// Validate checks the AlignmentWeights invariants.
func (w Weights) Validate() error {
	fields := map[string]float64{
		"mfcc": w.MFCC, "delta": w.Delta, "delta_delta": w.DeltaDelta,
		"mel": w.Mel, "energy": w.Energy, "flux": w.Flux, "pitch": w.Pitch,
	}
	var sum float64
	for name, v := range fields {
		if v < 0 {
			return fmt.Errorf("align: weight %q must be >= 0, got %v", name, v)
		}
		sum += v
	}
	if sum <= 0 {
		return fmt.Errorf("align: at least one weight must be > 0")
	}
	return nil
}

// typicalCostScale derives the confidence-normalization constant from
// the weights: a typical per-dimension absolute difference for the
// normalized (zero-mean, unit-variance, +/-8-clipped) streams is taken
// as 2.0 (about two standard deviations of motion), and for the
// semitone pitch contour as 6.0 (the same perfect-fifth tolerance used
// by AlignedSegment.ContourSimilarity).
func (w Weights) typicalCostScale() float64 {
	const (
		typicalNormalized = 2.0
		typicalPitch      = 6.0
	)
	return w.MFCC*typicalNormalized +
		w.Delta*typicalNormalized +
		w.DeltaDelta*typicalNormalized +
		w.Mel*typicalNormalized +
		w.Energy*typicalNormalized +
		w.Flux*typicalNormalized +
		w.Pitch*typicalPitch
}
