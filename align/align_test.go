package align

import (
	"math"
	"testing"

	"github.com/flowalyzer/pronunciation/features"
)

func defaultWeights() Weights {
	return Weights{MFCC: 1.0, Delta: 0.5, DeltaDelta: 0.25, Mel: 0.5, Energy: 0.5, Flux: 0.5, Pitch: 1.0}
}

func sineTone(freq, seconds float64) []float32 {
	n := int(features.SampleRate * seconds)
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(0.4 * math.Sin(2*math.Pi*freq*float64(i)/float64(features.SampleRate)))
	}
	return out
}

func TestAlignIdentityHasHighConfidence(t *testing.T) {
	pcm := sineTone(440, 0.8)
	ref, err := features.Extract(pcm, features.SampleRate)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	learner, err := features.Extract(pcm, features.SampleRate)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	report, err := Align(ref, learner, defaultWeights())
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	if report.Confidence < 0.95 {
		t.Fatalf("identity alignment confidence = %v, want >= 0.95", report.Confidence)
	}
	if math.Abs(report.GlobalTimeOffsetMs) > features.HopMs {
		t.Fatalf("identity alignment global offset = %v ms, want ~0", report.GlobalTimeOffsetMs)
	}
}

func TestAlignDetectsTimeShift(t *testing.T) {
	pcm := sineTone(440, 1.0)
	ref, err := features.Extract(pcm, features.SampleRate)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	shiftSamples := int(0.2 * features.SampleRate) // 200ms
	shifted := make([]float32, shiftSamples+len(pcm))
	copy(shifted[shiftSamples:], pcm)
	learner, err := features.Extract(shifted, features.SampleRate)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	report, err := Align(ref, learner, defaultWeights())
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	if report.GlobalTimeOffsetMs < 150 || report.GlobalTimeOffsetMs > 250 {
		t.Fatalf("global time offset = %v ms, want in [150,250]", report.GlobalTimeOffsetMs)
	}
}

func TestAlignWarpingPathMonotonic(t *testing.T) {
	ref, err := features.Extract(sineTone(330, 0.6), features.SampleRate)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	learner, err := features.Extract(sineTone(330, 0.5), features.SampleRate)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	R, L := ref.Frames, learner.Frames
	cost := make([][]float64, R)
	for i := range cost {
		cost[i] = make([]float64, L)
		for j := range cost[i] {
			cost[i][j] = frameCost(ref, learner, defaultWeights(), i, j)
		}
	}
	D := make([][]float64, R)
	back := make([][]moveKind, R)
	for i := range D {
		D[i] = make([]float64, L)
		back[i] = make([]moveKind, L)
	}
	D[0][0] = cost[0][0]
	for i := 1; i < R; i++ {
		D[i][0] = D[i-1][0] + cost[i][0]
		back[i][0] = moveStayReference
	}
	for j := 1; j < L; j++ {
		D[0][j] = D[0][j-1] + cost[0][j]
		back[0][j] = moveStayLearner
	}
	for i := 1; i < R; i++ {
		for j := 1; j < L; j++ {
			diag := D[i-1][j-1] + diagonalCostMultiplier*cost[i][j]
			stayRef := D[i-1][j] + cost[i][j]
			stayLearner := D[i][j-1] + cost[i][j]
			best, kind := diag, moveDiagonal
			if stayRef < best {
				best, kind = stayRef, moveStayReference
			}
			if stayLearner < best {
				best, kind = stayLearner, moveStayLearner
			}
			D[i][j] = best
			back[i][j] = kind
		}
	}
	path := backtrack(back, R, L)

	for k := 1; k < len(path); k++ {
		di := path[k].i - path[k-1].i
		dj := path[k].j - path[k-1].j
		if di < 0 || dj < 0 {
			t.Fatalf("warping path not monotonic at step %d: (%d,%d) -> (%d,%d)", k, path[k-1].i, path[k-1].j, path[k].i, path[k].j)
		}
		if di == 0 && dj == 0 {
			t.Fatalf("warping path has a stationary step at %d", k)
		}
	}
	if path[0] != (pathPoint{0, 0}) {
		t.Fatalf("warping path does not start at (0,0): %v", path[0])
	}
	last := path[len(path)-1]
	if last.i != R-1 || last.j != L-1 {
		t.Fatalf("warping path does not end at (%d,%d): got (%d,%d)", R-1, L-1, last.i, last.j)
	}
}

func TestAlignEmptyBundleFails(t *testing.T) {
	ref, err := features.Extract(sineTone(200, 0.3), features.SampleRate)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if _, err := Align(ref, &features.FeatureBundle{}, defaultWeights()); err == nil {
		t.Fatal("expected error for empty learner bundle")
	}
	if _, err := Align(&features.FeatureBundle{}, ref, defaultWeights()); err == nil {
		t.Fatal("expected error for empty reference bundle")
	}
}
