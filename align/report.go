package align

// AlignedSegment is one labeled stretch of the warping path (spec.md
// §3).
type AlignedSegment struct {
	Label                string  `json:"label"`
	ReferenceStartMs     float64 `json:"reference_start_ms"`
	ReferenceEndMs       float64 `json:"reference_end_ms"`
	LearnerStartMs       float64 `json:"learner_start_ms"`
	LearnerEndMs         float64 `json:"learner_end_ms"`
	TimingDeltaMs        float64 `json:"timing_delta_ms"`
	Similarity           float64 `json:"similarity"`
	ArticulationVariance float64 `json:"articulation_variance"`
	ContourSimilarity    float64 `json:"contour_similarity"`
}

// Report is the immutable result of one alignment tick (spec.md §3).
type Report struct {
	Segments           []AlignedSegment `json:"segments"`
	TotalDuration      float64          `json:"total_duration"`
	ReferencePathCost  float64          `json:"reference_path_cost"`
	LearnerPathCost    float64          `json:"learner_path_cost"`
	GlobalTimeOffsetMs float64          `json:"global_time_offset_ms"`
	Confidence         float64          `json:"confidence"`
	ReferenceContour   []float64        `json:"reference_contour"`
	LearnerContour     []float64        `json:"learner_contour"`

	// EnergySimilarity is 1/(1+mean|e_ref-e_learner|) over the warping
	// path, carried so the scorer's intonation blend (spec.md §4.3) does
	// not need to re-derive it from raw feature bundles.
	EnergySimilarity float64 `json:"energy_similarity"`

	// ReferenceFluxVariance is sigma_ref_flux^2, the population variance
	// of the reference clip's own spectral-flux stream. It is fixed per
	// reference clip and independent of the learner, giving the scorer's
	// articulation band a stable normalizing scale (spec.md §4.3).
	ReferenceFluxVariance float64 `json:"reference_flux_variance"`
}
