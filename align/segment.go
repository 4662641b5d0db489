package align

import (
	"fmt"
	"math"

	"github.com/flowalyzer/pronunciation/features"
	"github.com/flowalyzer/pronunciation/internal/dspcore"
)

// minSegmentFrames is the floor on segment length; the segment length
// otherwise scales with the reference length as len(ref)/8 (spec.md's
// Open Question on segmentation granularity). A reference shorter than
// the floor forms a single segment, and the final segment holds
// whatever frames remain and may be shorter.
const minSegmentFrames = 12

// buildSegments partitions the reference timeline into fixed-size
// windows and derives each AlignedSegment's timing and similarity
// metrics from the portion of the warping path covering that window.
func buildSegments(reference, learner *features.FeatureBundle, path []pathPoint, refToLearner []int) []AlignedSegment {
	R := reference.Frames
	segSize := R / 8
	if segSize < minSegmentFrames {
		segSize = minSegmentFrames
	}
	if segSize > R {
		segSize = R
	}

	// pathByRef[i] holds every learner index visited while the warping
	// path was sitting at reference frame i.
	pathByRef := make([][]int, R)
	for _, p := range path {
		pathByRef[p.i] = append(pathByRef[p.i], p.j)
	}

	var segments []AlignedSegment
	for start := 0; start < R; start += segSize {
		end := start + segSize
		if end > R {
			end = R
		}
		segments = append(segments, buildOneSegment(reference, learner, pathByRef, refToLearner, start, end, len(segments)))
	}
	return segments
}

func buildOneSegment(reference, learner *features.FeatureBundle, pathByRef [][]int, refToLearner []int, start, end, index int) AlignedSegment {
	refStartMs := float64(start) * features.HopMs
	refEndMs := float64(end) * features.HopMs

	learnerStart := refToLearner[start]
	learnerEnd := refToLearner[end-1]
	if learnerEnd < learnerStart {
		learnerEnd = learnerStart
	}
	learnerStartMs := float64(learnerStart) * features.HopMs
	learnerEndMs := float64(learnerEnd+1) * features.HopMs

	var mfccSum, fluxDiffSum, fluxDiffSqSum, contourDiffSum float64
	var pairs, voicedPairs int
	var fluxDiffs []float64
	for i := start; i < end; i++ {
		for _, j := range pathByRef[i] {
			mfccSum += l1(reference.MFCC[i], learner.MFCC[j]) / float64(features.NumMFCC)
			fd := reference.Flux[i] - learner.Flux[j]
			fluxDiffSum += fd
			fluxDiffs = append(fluxDiffs, fd)
			if reference.Voiced[i] && learner.Voiced[j] {
				contourDiffSum += math.Abs(reference.PitchContour[i] - learner.PitchContour[j])
				voicedPairs++
			}
			pairs++
		}
	}

	var meanMFCC, articulationVariance, meanContourDiff float64
	if pairs > 0 {
		meanMFCC = mfccSum / float64(pairs)
		meanFlux := fluxDiffSum / float64(pairs)
		for _, fd := range fluxDiffs {
			d := fd - meanFlux
			fluxDiffSqSum += d * d
		}
		articulationVariance = fluxDiffSqSum / float64(pairs)
	}
	// meanContourDiff divides by voicedPairs, not pairs: the numerator
	// only accumulates over voiced pairs, so an unconditional pairs
	// divisor would dilute it with zero contributions from unvoiced
	// pairs and inflate ContourSimilarity.
	if voicedPairs > 0 {
		meanContourDiff = contourDiffSum / float64(voicedPairs)
	}

	refMidFrame := (start + end - 1) / 2
	learnerMidFrame := (learnerStart + learnerEnd) / 2
	timingDeltaMs := float64(learnerMidFrame-refMidFrame) * features.HopMs

	return AlignedSegment{
		Label:                fmt.Sprintf("#%d", index+1),
		ReferenceStartMs:     refStartMs,
		ReferenceEndMs:       refEndMs,
		LearnerStartMs:       learnerStartMs,
		LearnerEndMs:         learnerEndMs,
		TimingDeltaMs:        timingDeltaMs,
		Similarity:           1.0 / (1.0 + meanMFCC),
		ArticulationVariance: articulationVariance,
		ContourSimilarity:    1.0 - clamp(meanContourDiff/6.0, 0, 1),
	}
}

// linearResample resamples x to exactly outLen points by linear
// interpolation over its index domain (spec.md names linear
// interpolation explicitly for contour visualization resampling).
func linearResample(x []float64, outLen int) []float64 {
	return dspcore.LinearResample(x, outLen)
}
