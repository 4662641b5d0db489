// Package features implements the Feature Extractor: converting a PCM
// buffer into a FeatureBundle of mel spectrogram, spectral flux, frame
// energy, MFCC+Δ+ΔΔ, and a smoothed semitone pitch contour (spec.md
// §4.1).
package features

import (
	"fmt"
	"math"

	"github.com/flowalyzer/pronunciation/internal/perr"
)

const (
	SampleRate    = 16000
	WindowMs      = 25
	HopMs         = 10
	WindowSamples = SampleRate * WindowMs / 1000 // 400
	HopSamples    = SampleRate * HopMs / 1000    // 160
	FFTSize       = 512                          // next pow2 >= 400
	NumMels       = 80
	NumMFCC       = 13
	MelLowHz      = 0.0
	MelHighHz     = 8000.0
	NormClip      = 8.0
)

// FeatureBundle is the immutable per-clip (or per learner-tick) feature
// tensor set. Every slice has exactly Frames entries (Mel/MFCC/Delta/
// DeltaDelta are Frames x their column count).
type FeatureBundle struct {
	Frames        int
	Mel           [][]float64 // Frames x NumMels, normalized
	Flux          []float64   // Frames, normalized
	Energy        []float64   // Frames, normalized
	MFCC          [][]float64 // Frames x NumMFCC, normalized
	Delta         [][]float64 // Frames x NumMFCC, normalized
	DeltaDelta    [][]float64 // Frames x NumMFCC, normalized
	PitchContour  []float64   // Frames, semitone offset from clip median voiced F0
	Voiced        []bool      // Frames
	FrameHopMs    float64
	FrameWindowMs float64
}

// Extract runs the full feature pipeline over pcm, which must be mono
// samples at SampleRate Hz.
func Extract(pcm []float32, sampleRate int) (*FeatureBundle, error) {
	if sampleRate != SampleRate {
		return nil, perr.New(perr.FeatureExtractionFailed, "features: sample rate %d, want %d", sampleRate, SampleRate)
	}
	if len(pcm) == 0 {
		return nil, perr.New(perr.FeatureExtractionFailed, "features: empty pcm buffer")
	}
	for _, s := range pcm {
		if math.IsNaN(float64(s)) || math.IsInf(float64(s), 0) {
			return nil, perr.New(perr.FeatureExtractionFailed, "features: pcm contains non-finite samples")
		}
	}
	if len(pcm) < WindowSamples {
		return nil, perr.New(perr.FeatureExtractionFailed, "features: pcm shorter than one analysis frame (%d < %d)", len(pcm), WindowSamples)
	}

	frames := 1 + (len(pcm)-WindowSamples)/HopSamples

	mag, err := stftMagnitudes(pcm, frames)
	if err != nil {
		return nil, perr.Wrap(perr.FeatureExtractionFailed, err)
	}

	mel := melSpectrogram(mag)
	flux := spectralFlux(mag)
	energy := frameEnergy(pcm, frames)
	mfcc, err := mfccFromMel(mel)
	if err != nil {
		return nil, perr.Wrap(perr.FeatureExtractionFailed, err)
	}
	delta := derivative(mfcc)
	deltaDelta := derivative(delta)
	contour, voiced := pitchContour(pcm, frames)

	normalizeStream2D(mel)
	normalizeStream1D(flux)
	normalizeStream1D(energy)
	normalizeStream2D(mfcc)
	normalizeStream2D(delta)
	normalizeStream2D(deltaDelta)

	return &FeatureBundle{
		Frames:        frames,
		Mel:           mel,
		Flux:          flux,
		Energy:        energy,
		MFCC:          mfcc,
		Delta:         delta,
		DeltaDelta:    deltaDelta,
		PitchContour:  contour,
		Voiced:        voiced,
		FrameHopMs:    HopMs,
		FrameWindowMs: WindowMs,
	}, nil
}

// Validate checks the FeatureBundle's internal shape invariants
// (spec.md §3): every tensor must have exactly Frames rows/entries.
func (b *FeatureBundle) Validate() error {
	if b == nil || b.Frames == 0 {
		return fmt.Errorf("features: empty bundle")
	}
	checks := []struct {
		name string
		n    int
	}{
		{"Mel", len(b.Mel)},
		{"Flux", len(b.Flux)},
		{"Energy", len(b.Energy)},
		{"MFCC", len(b.MFCC)},
		{"Delta", len(b.Delta)},
		{"DeltaDelta", len(b.DeltaDelta)},
		{"PitchContour", len(b.PitchContour)},
		{"Voiced", len(b.Voiced)},
	}
	for _, c := range checks {
		if c.n != b.Frames {
			return fmt.Errorf("features: %s has %d frames, want %d", c.name, c.n, b.Frames)
		}
	}
	return nil
}
