// Package config loads the session's tunable configuration: the
// DTW alignment weights file (spec.md §3's AlignmentWeights entity).
package config

import (
	"encoding/json"
	"os"

	"github.com/flowalyzer/pronunciation/align"
	"github.com/flowalyzer/pronunciation/internal/perr"
)

// DefaultWeights are the built-in alignment weights used when --weights
// is not given.
func DefaultWeights() align.Weights {
	return align.Weights{
		MFCC:       1.0,
		Delta:      0.5,
		DeltaDelta: 0.25,
		Mel:        0.5,
		Energy:     0.5,
		Flux:       0.5,
		Pitch:      1.0,
	}
}

// rawWeights mirrors align.Weights with pointer fields so json.Unmarshal
// leaves an absent key as nil instead of silently inheriting a default
// (spec.md §6: "All keys required").
type rawWeights struct {
	MFCC       *float64 `json:"mfcc"`
	Delta      *float64 `json:"delta"`
	DeltaDelta *float64 `json:"delta_delta"`
	Mel        *float64 `json:"mel"`
	Energy     *float64 `json:"energy"`
	Flux       *float64 `json:"flux"`
	Pitch      *float64 `json:"pitch"`
}

// LoadWeights reads an alignment weights JSON file and validates it.
// A missing, malformed, incomplete, or all-zero weights file is
// reported as perr.ConfigInvalid.
func LoadWeights(path string) (align.Weights, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return align.Weights{}, perr.Wrap(perr.ConfigInvalid, err)
	}

	var raw rawWeights
	if err := json.Unmarshal(b, &raw); err != nil {
		return align.Weights{}, perr.Wrap(perr.ConfigInvalid, err)
	}

	missing := map[string]*float64{
		"mfcc": raw.MFCC, "delta": raw.Delta, "delta_delta": raw.DeltaDelta,
		"mel": raw.Mel, "energy": raw.Energy, "flux": raw.Flux, "pitch": raw.Pitch,
	}
	for key, v := range missing {
		if v == nil {
			return align.Weights{}, perr.New(perr.ConfigInvalid, "config: weights file missing required key "+key)
		}
	}

	w := align.Weights{
		MFCC:       *raw.MFCC,
		Delta:      *raw.Delta,
		DeltaDelta: *raw.DeltaDelta,
		Mel:        *raw.Mel,
		Energy:     *raw.Energy,
		Flux:       *raw.Flux,
		Pitch:      *raw.Pitch,
	}
	if err := w.Validate(); err != nil {
		return align.Weights{}, perr.Wrap(perr.ConfigInvalid, err)
	}
	return w, nil
}
