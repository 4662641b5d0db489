// Package playback implements the abstract Reference Player contract
// (spec.md §4.5): starting and stopping playback of the reference
// clip synchronized with capture start. Playback position is not
// required to be sample-synchronized with alignment.
package playback

import "github.com/flowalyzer/pronunciation/reference"

// Player is the polymorphic playback contract implemented by the live
// device player and by Mock.
type Player interface {
	Play(clip *reference.RecordedClip) error
	Stop() error
	IsPlaying() bool
}

// Mock is the deterministic playback sink used by tests and by
// headless sessions: it records calls without touching any device.
type Mock struct {
	playing   bool
	lastClip  *reference.RecordedClip
	playCount int
	stopCount int
}

// NewMock returns a Mock ready for use.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Play(clip *reference.RecordedClip) error {
	m.playing = true
	m.lastClip = clip
	m.playCount++
	return nil
}

func (m *Mock) Stop() error {
	m.playing = false
	m.stopCount++
	return nil
}

func (m *Mock) IsPlaying() bool { return m.playing }

// LastClip returns the clip passed to the most recent Play call, or
// nil if Play was never called.
func (m *Mock) LastClip() *reference.RecordedClip { return m.lastClip }

// PlayCount reports how many times Play has been called.
func (m *Mock) PlayCount() int { return m.playCount }

// StopCount reports how many times Stop has been called.
func (m *Mock) StopCount() int { return m.stopCount }
