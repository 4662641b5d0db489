package capture

import (
	"sync"
	"time"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"

	"github.com/flowalyzer/pronunciation/internal/dspcore"
)

// FrameProvider supplies native-rate, possibly multi-channel
// interleaved PCM from the audio host callback (the host binding
// itself is an external collaborator, out of scope here). It returns
// ok=false once the stream has no more data ready without blocking.
type FrameProvider func() (samples []float32, ok bool, err error)

// Device adapts a FrameProvider into a capture Source: it downmixes
// and resamples to the requested target rate internally, buffering
// through a ring buffer and handing out chunks of
// defaultChunkDurationMs each.
type Device struct {
	provider     FrameProvider
	nativeRate   int
	nativeChans  int
	targetRate   int
	targetChans  int
	chunkSamples int

	mu       sync.Mutex
	buf      *dspcore.RingBuffer
	resample *dspresample.Resampler
	stopped  bool
}

// NewDevice builds a Device reading from provider, which yields PCM at
// nativeRate Hz with nativeChans interleaved channels.
func NewDevice(provider FrameProvider, nativeRate, nativeChans int) *Device {
	return &Device{
		provider:    provider,
		nativeRate:  nativeRate,
		nativeChans: nativeChans,
	}
}

func (d *Device) Start(targetSampleRate, channels int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.targetRate = targetSampleRate
	d.targetChans = channels
	d.chunkSamples = targetSampleRate * defaultChunkDurationMs / 1000
	d.stopped = false
	// Five seconds of target-rate headroom: generous enough that a
	// slow runtime tick never forces Write to drop live audio.
	d.buf = dspcore.NewRingBuffer(targetSampleRate * 5)

	if d.nativeRate != targetSampleRate {
		r, err := dspresample.NewForRates(
			float64(d.nativeRate),
			float64(targetSampleRate),
			dspresample.WithQuality(dspresample.QualityBest),
		)
		if err != nil {
			return newTerminalError("capture: building resampler: %v", err)
		}
		d.resample = r
	} else {
		d.resample = nil
	}
	return nil
}

// Feed is called by the host callback (or, in tests, directly) with
// one block of native-rate interleaved PCM.
func (d *Device) Feed(native []float32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped || d.buf == nil {
		return nil
	}

	mono := downmix(native, d.nativeChans)
	if d.resample != nil {
		f64 := make([]float64, len(mono))
		for i, v := range mono {
			f64[i] = float64(v)
		}
		resampled := d.resample.Process(f64)
		mono = make([]float32, len(resampled))
		for i, v := range resampled {
			mono[i] = float32(v)
		}
	}
	d.buf.Write(mono)
	return nil
}

func (d *Device) Poll() ([]Chunk, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.buf == nil {
		return nil, nil
	}

	var out []Chunk
	now := time.Now()
	for d.buf.Len() >= d.chunkSamples {
		drained := d.buf.Drain()
		chunk := append([]float32(nil), drained[:d.chunkSamples]...)
		if len(drained) > d.chunkSamples {
			d.buf.Write(drained[d.chunkSamples:])
		}
		out = append(out, Chunk{Samples: chunk, CapturedAt: now})
	}
	return out, nil
}

func (d *Device) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	return nil
}

func downmix(interleaved []float32, channels int) []float32 {
	if channels <= 1 {
		return append([]float32(nil), interleaved...)
	}
	frames := len(interleaved) / channels
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += interleaved[i*channels+c]
		}
		out[i] = sum / float32(channels)
	}
	return out
}
