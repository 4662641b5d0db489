// Package capture implements the abstract Capture Source contract
// (spec.md §4.5): a producer of fixed-size 16 kHz mono PCM chunks,
// polled non-blockingly by the session runtime.
package capture

import (
	"time"

	"github.com/flowalyzer/pronunciation/internal/perr"
)

// Chunk is one batch of captured PCM plus the wall-clock time it was
// captured at.
type Chunk struct {
	Samples    []float32
	CapturedAt time.Time
}

// Source is the polymorphic capture contract implemented by
// LiveMicrophone-backed sources and by Mock.
type Source interface {
	// Start begins producing chunks resampled/downmixed to
	// targetSampleRate/channels if the device native format differs.
	Start(targetSampleRate, channels int) error
	// Poll is non-blocking: it returns whatever chunks have accumulated
	// since the last call, or an empty slice, or a terminal error.
	Poll() ([]Chunk, error)
	// Stop halts production; subsequent Poll calls return no chunks.
	Stop() error
}

// defaultChunkDurationMs is the midpoint of the spec's 100-200ms
// capture latency window, used when a concrete source doesn't resolve
// a narrower duration from its device buffer size.
const defaultChunkDurationMs = 150

func newTerminalError(format string, args ...any) error {
	return perr.New(perr.CaptureTerminal, format, args...)
}

func newTransientError(format string, args ...any) error {
	return perr.New(perr.CaptureTransient, format, args...)
}
