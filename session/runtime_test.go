package session

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/flowalyzer/pronunciation/align"
	"github.com/flowalyzer/pronunciation/capture"
	"github.com/flowalyzer/pronunciation/features"
	"github.com/flowalyzer/pronunciation/playback"
	"github.com/flowalyzer/pronunciation/reference"
)

func sineTone(freq, seconds float64) []float32 {
	n := int(features.SampleRate * seconds)
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(0.4 * math.Sin(2*math.Pi*freq*float64(i)/float64(features.SampleRate)))
	}
	return out
}

func testWeights() align.Weights {
	return align.Weights{MFCC: 1.0, Delta: 0.5, DeltaDelta: 0.25, Mel: 0.5, Energy: 0.5, Flux: 0.5, Pitch: 1.0}
}

func newTestRuntime(t *testing.T, script []capture.ScriptedChunk) (*Runtime, *capture.Mock, *playback.Mock) {
	t.Helper()
	pcm := sineTone(440, 1.0)
	refFeatures, err := features.Extract(pcm, features.SampleRate)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	clip, err := reference.NewFromSamples(toF32(pcm), time.Now())
	if err != nil {
		t.Fatalf("NewFromSamples: %v", err)
	}
	mockSource := capture.NewMock(script)
	mockPlayer := playback.NewMock()
	rt := New(clip, refFeatures, testWeights(), mockSource, mockPlayer,
		WithTickInterval(5*time.Millisecond))
	return rt, mockSource, mockPlayer
}

func toF32(x []float32) []float32 { return x }

func identityScript(chunkSamples int, count int) []capture.ScriptedChunk {
	pcm := sineTone(440, 2.0)
	script := make([]capture.ScriptedChunk, 0, count)
	for i := 0; i < count; i++ {
		lo := i * chunkSamples
		hi := lo + chunkSamples
		if hi > len(pcm) {
			break
		}
		script = append(script, capture.ScriptedChunk{
			Samples: pcm[lo:hi],
			At:      time.Duration(i*100) * time.Millisecond,
		})
	}
	return script
}

func TestSessionLifecycleProducesMonotonicSnapshots(t *testing.T) {
	chunkSamples := features.SampleRate / 10 // 100ms chunks
	script := identityScript(chunkSamples, 12)
	rt, mockSource, _ := newTestRuntime(t, script)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rt.Run(ctx)
		close(done)
	}()

	if err := rt.SendCommand(Start); err != nil {
		t.Fatalf("SendCommand(Start): %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	var lastSeq uint64
	snapshots := 0
	for time.Now().Before(deadline) && snapshots < 5 {
		mockSource.Advance(20 * time.Millisecond)
		time.Sleep(5 * time.Millisecond)
		snap := rt.Latest()
		if snap == nil {
			continue
		}
		if snap.Sequence <= lastSeq && snapshots > 0 {
			t.Fatalf("snapshot sequence not strictly increasing: %d -> %d", lastSeq, snap.Sequence)
		}
		if snap.Sequence > lastSeq {
			lastSeq = snap.Sequence
			snapshots++
		}
	}
	if snapshots < 5 {
		t.Fatalf("expected at least 5 distinct snapshots, got %d", snapshots)
	}

	if err := rt.SendCommand(Stop); err != nil {
		t.Fatalf("SendCommand(Stop): %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	stoppedAt := rt.Latest().Sequence

	time.Sleep(500 * time.Millisecond)
	if rt.Latest().Sequence != stoppedAt {
		t.Fatalf("expected no new snapshots after Stop, seq moved %d -> %d", stoppedAt, rt.Latest().Sequence)
	}

	if err := rt.SendCommand(Shutdown); err != nil {
		t.Fatalf("SendCommand(Shutdown): %v", err)
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runtime did not terminate after Shutdown")
	}
	if rt.State() != Terminated {
		t.Fatalf("state = %v, want Terminated", rt.State())
	}
	cancel()
}

func TestSessionShutdownQuiescence(t *testing.T) {
	chunkSamples := features.SampleRate / 10
	script := identityScript(chunkSamples, 20)
	rt, mockSource, _ := newTestRuntime(t, script)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		rt.Run(ctx)
		close(done)
	}()

	_ = rt.SendCommand(Start)
	for i := 0; i < 5; i++ {
		mockSource.Advance(20 * time.Millisecond)
		time.Sleep(10 * time.Millisecond)
	}
	_ = rt.SendCommand(Shutdown)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runtime did not terminate after Shutdown")
	}

	seqAtShutdown := rt.Latest().Sequence
	time.Sleep(500 * time.Millisecond)
	if rt.Latest().Sequence != seqAtShutdown {
		t.Fatalf("snapshot sequence advanced after Shutdown: %d -> %d", seqAtShutdown, rt.Latest().Sequence)
	}
}

func TestSessionLatencyOverrunAnnotatesSnapshotButDeliversIt(t *testing.T) {
	chunkSamples := features.SampleRate / 10
	script := identityScript(chunkSamples, 6)
	rt, mockSource, _ := newTestRuntime(t, script)
	rt.latencyBudgetMs = -1 // force every tick to read as an overrun

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rt.Run(ctx)

	_ = rt.SendCommand(Start)
	mockSource.Advance(100 * time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	snap := rt.Latest()
	if snap == nil {
		t.Fatal("expected a snapshot after one tick")
	}
	if !strings.Contains(snap.Error, "latency budget exceeded") {
		t.Fatalf("snapshot error = %q, want it to mention latency budget exceeded", snap.Error)
	}
}
