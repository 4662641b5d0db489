// Package session implements the Session Runtime (spec.md §4.4): the
// orchestrator owning the reference features and learner accumulator,
// driving the capture source and reference player, running the
// alignment/scoring tick loop, and publishing snapshots to the UI
// through a single-writer atomic slot.
package session

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/flowalyzer/pronunciation/align"
	"github.com/flowalyzer/pronunciation/capture"
	"github.com/flowalyzer/pronunciation/features"
	"github.com/flowalyzer/pronunciation/internal/perr"
	"github.com/flowalyzer/pronunciation/internal/telemetry"
	"github.com/flowalyzer/pronunciation/playback"
	"github.com/flowalyzer/pronunciation/reference"
	"github.com/flowalyzer/pronunciation/score"
)

const (
	defaultTickInterval  = 50 * time.Millisecond
	defaultLatencyBudget = 200.0 // ms, spec.md §4.4 step 8
	commandQueueDepth    = 8
)

// Option configures a Runtime at construction. Tests use these to
// shrink the tick cadence and latency budget to something a unit test
// can exercise in milliseconds.
type Option func(*Runtime)

// WithTickInterval overrides the default ~50ms tick cadence.
func WithTickInterval(d time.Duration) Option {
	return func(r *Runtime) { r.tickInterval = d }
}

// WithLatencyBudgetMs overrides the default 200ms latency budget.
func WithLatencyBudgetMs(ms float64) Option {
	return func(r *Runtime) { r.latencyBudgetMs = ms }
}

// Runtime is the session orchestrator. All of its mutable state except
// the published snapshot slot and the observable state flag is owned
// exclusively by the goroutine running Run.
type Runtime struct {
	refClip     *reference.RecordedClip
	refFeatures *features.FeatureBundle
	weights     align.Weights
	source      capture.Source
	player      playback.Player

	tickInterval    time.Duration
	latencyBudgetMs float64

	commands chan Command
	state    atomic.Int32
	snapshot atomic.Value // *Snapshot

	seq                uint64
	learnerPCM         []float32
	lastExtractedCount int
}

// New builds a Runtime ready to run. refFeatures must already be built
// from refClip (the Feature Extractor is a separate component; the
// runtime only shares, never recomputes, the reference bundle).
func New(refClip *reference.RecordedClip, refFeatures *features.FeatureBundle, weights align.Weights, source capture.Source, player playback.Player, opts ...Option) *Runtime {
	r := &Runtime{
		refClip:         refClip,
		refFeatures:     refFeatures,
		weights:         weights,
		source:          source,
		player:          player,
		tickInterval:    defaultTickInterval,
		latencyBudgetMs: defaultLatencyBudget,
		commands:        make(chan Command, commandQueueDepth),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.state.Store(int32(Idle))
	return r
}

// State reports the runtime's current lifecycle state. Safe to call
// from any goroutine.
func (r *Runtime) State() State {
	return State(r.state.Load())
}

// Latest returns the most recently published snapshot, or nil before
// the first tick. Safe to call from any goroutine.
func (r *Runtime) Latest() *Snapshot {
	v := r.snapshot.Load()
	if v == nil {
		return nil
	}
	return v.(*Snapshot)
}

// SendCommand enqueues a control command for the runtime to apply at
// the next tick boundary. It never blocks; a full queue drops the
// command and returns an error (the UI is expected to retry on the
// next user action rather than pile up stale commands).
func (r *Runtime) SendCommand(cmd Command) error {
	select {
	case r.commands <- cmd:
		return nil
	default:
		return fmt.Errorf("session: command queue full, dropped %s", cmd)
	}
}

// Run drives the tick loop until a Shutdown command is processed or
// ctx is canceled, whichever comes first. It blocks the calling
// goroutine; callers typically run it in its own goroutine.
func (r *Runtime) Run(ctx context.Context) {
	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.shutdown()
			return
		case cmd := <-r.commands:
			if r.handleCommand(cmd) {
				return
			}
			continue
		case <-ticker.C:
		}
		if r.State() == Recording {
			r.tick()
		}
	}
}

func (r *Runtime) handleCommand(cmd Command) (terminated bool) {
	switch cmd {
	case Start:
		if r.State() == Idle {
			r.learnerPCM = r.learnerPCM[:0]
			r.lastExtractedCount = 0
			if err := r.source.Start(features.SampleRate, 1); err != nil {
				telemetry.Errorf("session: capture start failed: %v", err)
				return false
			}
			if err := r.player.Play(r.refClip); err != nil {
				telemetry.Errorf("session: reference playback failed: %v", err)
			}
			r.state.Store(int32(Recording))
		}
	case Stop:
		if r.State() == Recording {
			_ = r.source.Stop()
			_ = r.player.Stop()
			r.state.Store(int32(Idle))
		}
	case ReplayReference:
		if r.State() == Recording {
			_ = r.player.Stop()
			if err := r.player.Play(r.refClip); err != nil {
				telemetry.Errorf("session: replay reference failed: %v", err)
			}
		}
	case Shutdown:
		_ = r.source.Stop()
		_ = r.player.Stop()
		r.state.Store(int32(Terminated))
		return true
	}
	return false
}

func (r *Runtime) shutdown() {
	_ = r.source.Stop()
	_ = r.player.Stop()
	r.state.Store(int32(Terminated))
}

// tick runs one iteration of the per-tick loop (spec.md §4.4): drain
// capture, accumulate, extract on new-hop boundaries, align, score,
// publish.
func (r *Runtime) tick() {
	start := time.Now()
	var tickErr string

	chunks, err := r.source.Poll()
	if err != nil {
		tickErr = err.Error()
		if perr.KindOf(err) == perr.CaptureTerminal {
			_ = r.player.Stop()
			r.state.Store(int32(Idle))
		}
	}
	for _, c := range chunks {
		r.learnerPCM = append(r.learnerPCM, c.Samples...)
	}

	prev := r.Latest()
	report, scores := carriedForward(prev)

	newSamples := len(r.learnerPCM) - r.lastExtractedCount
	if newSamples >= features.HopSamples && len(r.learnerPCM) >= features.WindowSamples {
		r.lastExtractedCount = len(r.learnerPCM)
		if learnerFeatures, ferr := features.Extract(r.learnerPCM, features.SampleRate); ferr != nil {
			if tickErr == "" {
				tickErr = ferr.Error()
			}
		} else if rep, aerr := align.Align(r.refFeatures, learnerFeatures, r.weights); aerr != nil {
			if tickErr == "" {
				tickErr = aerr.Error()
			}
		} else {
			report = rep
			if sc, serr := score.Score(rep); serr == nil {
				scores = &sc
			}
		}
	}

	latencyMs := float64(time.Since(start)) / float64(time.Millisecond)
	if latencyMs > r.latencyBudgetMs {
		telemetry.Warnf("session: tick latency %.1fms exceeds budget %.1fms", latencyMs, r.latencyBudgetMs)
		if tickErr == "" {
			tickErr = fmt.Sprintf("latency budget exceeded: %.0fms", latencyMs)
		}
	}

	r.seq++
	r.snapshot.Store(&Snapshot{
		Sequence:   r.seq,
		CapturedAt: time.Now(),
		Report:     report,
		Scores:     scores,
		LatencyMs:  latencyMs,
		Error:      tickErr,
	})
}

func carriedForward(prev *Snapshot) (*align.Report, *score.PronunciationScores) {
	if prev == nil {
		return nil, nil
	}
	return prev.Report, prev.Scores
}
