package score

import (
	"math"
	"testing"

	"github.com/flowalyzer/pronunciation/align"
)

func sampleReport() *align.Report {
	return &align.Report{
		TotalDuration:      1.0,
		ReferencePathCost:  4.0,
		LearnerPathCost:    4.0,
		GlobalTimeOffsetMs: 10,
		Confidence:            0.92,
		EnergySimilarity:      0.8,
		ReferenceFluxVariance: 0.04,
		Segments: []align.AlignedSegment{
			{
				Label: "#1", ReferenceStartMs: 0, ReferenceEndMs: 200,
				LearnerStartMs: 0, LearnerEndMs: 210, TimingDeltaMs: 10,
				Similarity: 0.9, ArticulationVariance: 0.02, ContourSimilarity: 0.95,
			},
			{
				Label: "#2", ReferenceStartMs: 200, ReferenceEndMs: 400,
				LearnerStartMs: 210, LearnerEndMs: 420, TimingDeltaMs: 12,
				Similarity: 0.85, ArticulationVariance: 0.05, ContourSimilarity: 0.88,
			},
		},
	}
}

func TestScoreBoundsAndFinite(t *testing.T) {
	s, err := Score(sampleReport())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	for name, v := range map[string]float64{
		"overall": s.Overall, "timing": s.Timing,
		"articulation": s.Articulation, "intonation": s.Intonation,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("%s is not finite: %v", name, v)
		}
		if v < 0 || v > 1 {
			t.Fatalf("%s = %v, want in [0,1]", name, v)
		}
	}
	if len(s.PerSegment) != 2 {
		t.Fatalf("PerSegment len = %d, want 2", len(s.PerSegment))
	}
}

func TestScoreEmptyReportFails(t *testing.T) {
	if _, err := Score(&align.Report{}); err == nil {
		t.Fatal("expected error for report with no segments")
	}
}

func TestBandThresholds(t *testing.T) {
	cases := []struct {
		v    float64
		want Band
	}{
		{0.95, Green}, {0.8, Green}, {0.79, Amber}, {0.5, Amber}, {0.49, Red}, {0.0, Red},
	}
	for _, c := range cases {
		if got := bandOf(c.v); got != c.want {
			t.Errorf("bandOf(%v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestScoreGoodAlignmentScoresHigh(t *testing.T) {
	report := sampleReport()
	report.GlobalTimeOffsetMs = 2
	for i := range report.Segments {
		report.Segments[i].TimingDeltaMs = 2
		report.Segments[i].Similarity = 0.97
		report.Segments[i].ArticulationVariance = 0.001
		report.Segments[i].ContourSimilarity = 0.98
	}
	s, err := Score(report)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if s.Overall < 0.9 {
		t.Fatalf("overall = %v, want >= 0.9 for near-identity alignment", s.Overall)
	}
	if s.Articulation < 0.9 {
		t.Fatalf("articulation = %v, want >= 0.9 for near-identity alignment", s.Articulation)
	}
	for _, b := range s.PerSegment {
		if b.Timing != Green || b.Intonation != Green || b.Articulation != Green {
			t.Fatalf("expected Green bands for near-identity segment, got %+v", b)
		}
	}
}
