package playback

import (
	"testing"

	"github.com/flowalyzer/pronunciation/reference"
)

func TestMockPlayStopLifecycle(t *testing.T) {
	m := NewMock()
	clip := &reference.RecordedClip{SampleRate: reference.TargetSampleRate, Channels: 1}

	if m.IsPlaying() {
		t.Fatal("expected not playing before Play")
	}
	if err := m.Play(clip); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if !m.IsPlaying() {
		t.Fatal("expected playing after Play")
	}
	if m.LastClip() != clip {
		t.Fatal("LastClip did not return the played clip")
	}
	if err := m.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if m.IsPlaying() {
		t.Fatal("expected not playing after Stop")
	}
	if m.PlayCount() != 1 || m.StopCount() != 1 {
		t.Fatalf("PlayCount=%d StopCount=%d, want 1,1", m.PlayCount(), m.StopCount())
	}
}
