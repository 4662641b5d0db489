// Package reference implements the Reference Loader: decoding a
// reference WAV clip into a normalized mono 16 kHz RecordedClip.
package reference

import (
	"fmt"
	"math"
	"time"

	"github.com/flowalyzer/pronunciation/internal/audioio"
	"github.com/flowalyzer/pronunciation/internal/dspcore"
	"github.com/flowalyzer/pronunciation/internal/perr"
)

// TargetSampleRate is the fixed sample rate every RecordedClip is
// normalized to (spec.md §3).
const TargetSampleRate = 16000

// RecordedClip is an immutable, shared mono 16 kHz PCM buffer.
type RecordedClip struct {
	Samples    []float32 // read-only once constructed
	SampleRate int
	Channels   int
	CapturedAt time.Time
}

// Duration returns the clip length in seconds.
func (c *RecordedClip) Duration() float64 {
	if c == nil || c.SampleRate == 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate)
}

// Load decodes a reference WAV file, downmixes to mono, and resamples to
// TargetSampleRate via linear interpolation (spec.md §6).
func Load(path string) (*RecordedClip, error) {
	samples, sourceRate, err := audioio.ReadWAVMono(path)
	if err != nil {
		return nil, perr.Wrap(perr.ReferenceUnavailable, err)
	}
	if len(samples) == 0 {
		return nil, perr.New(perr.ReferenceUnavailable, "reference clip %q is empty", path)
	}
	for _, s := range samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, perr.New(perr.ReferenceUnavailable, "reference clip %q contains non-finite samples", path)
		}
	}

	f32 := make([]float32, len(samples))
	for i, s := range samples {
		f32[i] = float32(s)
	}

	if sourceRate != TargetSampleRate {
		f32 = dspcore.LinearResampleRate(f32, sourceRate, TargetSampleRate)
	}

	return &RecordedClip{
		Samples:    f32,
		SampleRate: TargetSampleRate,
		Channels:   1,
		CapturedAt: time.Now(),
	}, nil
}

// NewFromSamples wraps already-mono, already-16kHz float32 samples
// (used by tests to build a clip without a WAV file).
func NewFromSamples(samples []float32, capturedAt time.Time) (*RecordedClip, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("reference: empty sample buffer")
	}
	return &RecordedClip{
		Samples:    samples,
		SampleRate: TargetSampleRate,
		Channels:   1,
		CapturedAt: capturedAt,
	}, nil
}
