package align

import (
	"math"

	"github.com/flowalyzer/pronunciation/features"
	"github.com/flowalyzer/pronunciation/internal/perr"
)

// Diagonal DTW moves are scored at 2x the orthogonal cost, fixing
// spec.md's Open Question in favor of the standard tie-break that
// favors non-degenerate alignments.
const (
	diagonalCostMultiplier  = 2.0
	orthogonalCostMultiplier = 1.0

	// VisualizationGridPoints is the shared resampling length for
	// Report.ReferenceContour / LearnerContour.
	VisualizationGridPoints = 512
)

type moveKind uint8

const (
	moveNone moveKind = iota
	moveDiagonal
	moveStayReference // (i-1, j)
	moveStayLearner   // (i, j-1)
)

// Align runs the monotonic DTW recurrence over the full reference and
// learner feature bundles and returns the resulting report (spec.md
// §4.2). The streaming contract only requires that re-running Align
// against a longer learner prefix reproduce the same result a full
// recomputation would — this implementation always recomputes in full.
func Align(reference, learner *features.FeatureBundle, weights Weights) (*Report, error) {
	if reference == nil || reference.Frames == 0 {
		return nil, perr.New(perr.AlignmentFailed, "align: reference feature bundle is empty")
	}
	if learner == nil || learner.Frames == 0 {
		return nil, perr.New(perr.AlignmentFailed, "align: learner feature bundle is empty")
	}
	if err := reference.Validate(); err != nil {
		return nil, perr.Wrap(perr.AlignmentFailed, err)
	}
	if err := learner.Validate(); err != nil {
		return nil, perr.Wrap(perr.AlignmentFailed, err)
	}

	R, L := reference.Frames, learner.Frames
	cost := make([][]float64, R)
	for i := range cost {
		cost[i] = make([]float64, L)
	}
	for i := 0; i < R; i++ {
		for j := 0; j < L; j++ {
			cost[i][j] = frameCost(reference, learner, weights, i, j)
		}
	}

	D := make([][]float64, R)
	back := make([][]moveKind, R)
	for i := range D {
		D[i] = make([]float64, L)
		back[i] = make([]moveKind, L)
	}

	D[0][0] = cost[0][0]
	back[0][0] = moveNone
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
			stayRef := D[i-1][j] + orthogonalCostMultiplier*cost[i][j]
			stayLearner := D[i][j-1] + orthogonalCostMultiplier*cost[i][j]

			best := diag
			kind := moveDiagonal
			if stayRef < best {
				best = stayRef
				kind = moveStayReference
			}
			if stayLearner < best {
				best = stayLearner
				kind = moveStayLearner
			}
			D[i][j] = best
			back[i][j] = kind
		}
	}

	path := backtrack(back, R, L)
	refToLearner := buildRefToLearner(path, R)

	report := &Report{
		TotalDuration:     float64(R) * features.HopMs / 1000.0,
		ReferencePathCost: D[R-1][L-1],
		LearnerPathCost:   D[R-1][L-1], // symmetric cost metric by construction
	}

	segments := buildSegments(reference, learner, path, refToLearner)
	report.Segments = segments

	var offsetSum float64
	for _, s := range segments {
		offsetSum += s.TimingDeltaMs
	}
	if len(segments) > 0 {
		report.GlobalTimeOffsetMs = offsetSum / float64(len(segments))
	}

	costScale := weights.typicalCostScale()
	if costScale <= 0 {
		costScale = 1
	}
	if len(path) > 0 {
		report.Confidence = clamp(1.0-report.ReferencePathCost/(float64(len(path))*costScale), 0, 1)
	}

	report.ReferenceContour = resampleContour(reference.PitchContour, VisualizationGridPoints)
	report.LearnerContour = resampleContour(learner.PitchContour, VisualizationGridPoints)

	var energyDiffSum float64
	for _, p := range path {
		energyDiffSum += math.Abs(reference.Energy[p.i] - learner.Energy[p.j])
	}
	if len(path) > 0 {
		report.EnergySimilarity = 1.0 / (1.0 + energyDiffSum/float64(len(path)))
	}

	report.ReferenceFluxVariance = populationVariance(reference.Flux)

	return report, nil
}

// populationVariance is the divide-by-n variance of x, floored to avoid
// a zero denominator downstream (e.g. a silent or perfectly flat
// reference clip).
func populationVariance(x []float64) float64 {
	if len(x) == 0 {
		return 1e-6
	}
	var sum float64
	for _, v := range x {
		sum += v
	}
	mean := sum / float64(len(x))
	var sq float64
	for _, v := range x {
		d := v - mean
		sq += d * d
	}
	variance := sq / float64(len(x))
	if variance < 1e-6 {
		variance = 1e-6
	}
	return variance
}

func frameCost(ref, learner *features.FeatureBundle, w Weights, i, j int) float64 {
	var d float64
	d += w.MFCC * l1(ref.MFCC[i], learner.MFCC[j]) / float64(features.NumMFCC)
	d += w.Delta * l1(ref.Delta[i], learner.Delta[j]) / float64(features.NumMFCC)
	d += w.DeltaDelta * l1(ref.DeltaDelta[i], learner.DeltaDelta[j]) / float64(features.NumMFCC)
	d += w.Mel * l1(ref.Mel[i], learner.Mel[j]) / float64(features.NumMels)
	d += w.Energy * math.Abs(ref.Energy[i]-learner.Energy[j])
	d += w.Flux * math.Abs(ref.Flux[i]-learner.Flux[j])
	if ref.Voiced[i] && learner.Voiced[j] {
		d += w.Pitch * math.Abs(ref.PitchContour[i]-learner.PitchContour[j])
	}
	return d
}

func l1(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum
}

type pathPoint struct{ i, j int }

func backtrack(back [][]moveKind, R, L int) []pathPoint {
	path := make([]pathPoint, 0, R+L)
	i, j := R-1, L-1
	for {
		path = append(path, pathPoint{i, j})
		if i == 0 && j == 0 {
			break
		}
		switch back[i][j] {
		case moveDiagonal:
			i--
			j--
		case moveStayReference:
			i--
		case moveStayLearner:
			j--
		default:
			if i > 0 {
				i--
			} else if j > 0 {
				j--
			} else {
				return reversePath(path)
			}
		}
	}
	return reversePath(path)
}

func reversePath(path []pathPoint) []pathPoint {
	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}
	return path
}

// buildRefToLearner maps each reference frame index to the first
// learner frame index the warping path reaches it at.
func buildRefToLearner(path []pathPoint, R int) []int {
	m := make([]int, R)
	for i := range m {
		m[i] = -1
	}
	for _, p := range path {
		if m[p.i] == -1 {
			m[p.i] = p.j
		}
	}
	last := 0
	for i := 0; i < R; i++ {
		if m[i] == -1 {
			m[i] = last
		} else {
			last = m[i]
		}
	}
	return m
}

func resampleContour(x []float64, outLen int) []float64 {
	return linearResample(x, outLen)
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
