package capture

import (
	"sync"
	"time"
)

// ScriptedChunk is one entry in a Mock's delivery schedule: samples
// become available to Poll once At has elapsed since Start.
type ScriptedChunk struct {
	Samples []float32
	At      time.Duration
}

// Mock is the deterministic capture source used by tests (spec.md
// §4.5): it replays a fixed schedule of chunks against a caller-fed
// clock rather than a real audio device.
type Mock struct {
	mu       sync.Mutex
	script   []ScriptedChunk
	started  bool
	stopped  bool
	elapsed  time.Duration
	consumed int
	failNext error
	terminal bool
}

// NewMock builds a Mock that will deliver script entries as Advance
// moves its internal clock past each entry's At offset.
func NewMock(script []ScriptedChunk) *Mock {
	return &Mock{script: script}
}

func (m *Mock) Start(targetSampleRate, channels int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = true
	m.stopped = false
	m.elapsed = 0
	m.consumed = 0
	return nil
}

// Advance moves the mock's internal clock forward by d, making any
// scripted chunks whose offset has now elapsed available to Poll.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.elapsed += d
}

// FailNextPoll causes the next Poll call to return err instead of
// chunks. If terminal is true the mock also stops producing further
// chunks, mirroring a CaptureTerminal device failure.
func (m *Mock) FailNextPoll(err error, terminal bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
	m.terminal = terminal
}

func (m *Mock) Poll() ([]Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		if m.terminal {
			m.stopped = true
		}
		return nil, err
	}
	if m.stopped || !m.started {
		return nil, nil
	}

	var out []Chunk
	now := time.Now()
	for m.consumed < len(m.script) && m.script[m.consumed].At <= m.elapsed {
		sc := m.script[m.consumed]
		out = append(out, Chunk{Samples: sc.Samples, CapturedAt: now})
		m.consumed++
	}
	return out, nil
}

func (m *Mock) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	return nil
}

// Exhausted reports whether every scripted chunk has been delivered.
func (m *Mock) Exhausted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.consumed >= len(m.script)
}
