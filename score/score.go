// Package score reduces an align.Report to the learner-facing
// PronunciationScores: overall, timing, articulation, and intonation
// measures in [0,1] plus a per-segment color band.
package score

import (
	"fmt"
	"math"

	"github.com/flowalyzer/pronunciation/align"
)

// Band is the traffic-light classification for a single segment metric.
type Band string

const (
	Green Band = "green"
	Amber Band = "amber"
	Red   Band = "red"
)

func bandOf(v float64) Band {
	switch {
	case v >= 0.8:
		return Green
	case v >= 0.5:
		return Amber
	default:
		return Red
	}
}

// SegmentBands holds the three banded judgments for one AlignedSegment.
type SegmentBands struct {
	Timing       Band `json:"timing"`
	Articulation Band `json:"articulation"`
	Intonation   Band `json:"intonation"`
}

// PronunciationScores is the learner-facing reduction of one Report
// (spec.md §4.3).
type PronunciationScores struct {
	Overall      float64        `json:"overall"`
	Timing       float64        `json:"timing"`
	Articulation float64        `json:"articulation"`
	Intonation   float64        `json:"intonation"`
	PerSegment   []SegmentBands `json:"per_segment"`
}

// Score computes PronunciationScores from an alignment report. An
// empty report (no segments) yields an error: there is nothing to
// score.
func Score(report *align.Report) (PronunciationScores, error) {
	if report == nil || len(report.Segments) == 0 {
		return PronunciationScores{}, fmt.Errorf("score: report has no segments")
	}

	overall := weightedSimilarity(report.Segments)
	overall -= 0.2 * math.Min(1, math.Abs(report.GlobalTimeOffsetMs)/500.0)
	overall = clamp(overall, 0, 1)

	timing := 1 - clamp(meanAbsTimingDelta(report.Segments)/300.0, 0, 1)

	refFluxVariance := report.ReferenceFluxVariance
	if refFluxVariance < 1e-6 {
		refFluxVariance = 1e-6
	}
	articulation := 1 - clamp(meanArticulationVariance(report.Segments)/refFluxVariance, 0, 1)

	intonation := meanContourSimilarity(report.Segments)
	intonation += 0.1 * report.EnergySimilarity
	intonation = clamp(intonation, 0, 1)

	perSegment := make([]SegmentBands, len(report.Segments))
	for i, seg := range report.Segments {
		segTiming := 1 - clamp(math.Abs(seg.TimingDeltaMs)/300.0, 0, 1)
		segArticulation := 1 - clamp(seg.ArticulationVariance/refFluxVariance, 0, 1)
		perSegment[i] = SegmentBands{
			Timing:       bandOf(segTiming),
			Articulation: bandOf(segArticulation),
			Intonation:   bandOf(seg.ContourSimilarity),
		}
	}

	return PronunciationScores{
		Overall:      overall,
		Timing:       timing,
		Articulation: articulation,
		Intonation:   intonation,
		PerSegment:   perSegment,
	}, nil
}

func weightedSimilarity(segments []align.AlignedSegment) float64 {
	var weightedSum, totalDuration float64
	for _, s := range segments {
		d := s.ReferenceEndMs - s.ReferenceStartMs
		if d < 0 {
			d = 0
		}
		weightedSum += s.Similarity * d
		totalDuration += d
	}
	if totalDuration <= 0 {
		return meanOf(segments, func(s align.AlignedSegment) float64 { return s.Similarity })
	}
	return weightedSum / totalDuration
}

func meanAbsTimingDelta(segments []align.AlignedSegment) float64 {
	return meanOf(segments, func(s align.AlignedSegment) float64 { return math.Abs(s.TimingDeltaMs) })
}

func meanArticulationVariance(segments []align.AlignedSegment) float64 {
	return meanOf(segments, func(s align.AlignedSegment) float64 { return s.ArticulationVariance })
}

func meanContourSimilarity(segments []align.AlignedSegment) float64 {
	return meanOf(segments, func(s align.AlignedSegment) float64 { return s.ContourSimilarity })
}

func meanOf(segments []align.AlignedSegment, f func(align.AlignedSegment) float64) float64 {
	if len(segments) == 0 {
		return 0
	}
	var sum float64
	for _, s := range segments {
		sum += f(s)
	}
	return sum / float64(len(segments))
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
