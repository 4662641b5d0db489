// Command pronunciation drives one interactive shadowing session: it
// loads a reference clip and alignment weights, then hands off to the
// session runtime while the GUI layer (an external collaborator, out
// of scope here) polls snapshots and sends control commands.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flowalyzer/pronunciation/capture"
	"github.com/flowalyzer/pronunciation/config"
	"github.com/flowalyzer/pronunciation/features"
	"github.com/flowalyzer/pronunciation/internal/telemetry"
	"github.com/flowalyzer/pronunciation/playback"
	"github.com/flowalyzer/pronunciation/reference"
	"github.com/flowalyzer/pronunciation/session"
)

const (
	exitOK              = 0
	exitBadArgs         = 2
	exitReferenceFailed = 3
	exitCaptureFailed   = 4
)

func main() {
	if len(os.Args) < 2 || os.Args[1] != "session" {
		die(exitBadArgs, "usage: pronunciation session --reference <path.wav> [--latency-min <ms>] [--latency-max <ms>] [--weights <path.json>]")
	}

	fs := flag.NewFlagSet("session", flag.ExitOnError)
	referencePath := fs.String("reference", "", "reference WAV clip path (required)")
	latencyMin := fs.Float64("latency-min", 100.0, "minimum capture chunk latency window in ms")
	latencyMax := fs.Float64("latency-max", 200.0, "maximum capture chunk latency window in ms")
	weightsPath := fs.String("weights", "", "alignment weights JSON path; defaults built in if empty")
	fs.Parse(os.Args[2:])

	if *referencePath == "" {
		die(exitBadArgs, "missing required --reference flag")
	}
	if *latencyMin <= 0 || *latencyMax < *latencyMin {
		die(exitBadArgs, "invalid --latency-min/--latency-max window: [%v,%v]", *latencyMin, *latencyMax)
	}

	weights := config.DefaultWeights()
	if *weightsPath != "" {
		w, err := config.LoadWeights(*weightsPath)
		if err != nil {
			die(exitBadArgs, "loading weights: %v", err)
		}
		weights = w
	}

	clip, err := reference.Load(*referencePath)
	if err != nil {
		die(exitReferenceFailed, "loading reference clip: %v", err)
	}
	refFeatures, err := features.Extract(clip.Samples, clip.SampleRate)
	if err != nil {
		die(exitReferenceFailed, "extracting reference features: %v", err)
	}

	source, err := openCaptureSource()
	if err != nil {
		die(exitCaptureFailed, "opening capture device: %v", err)
	}
	player := playback.NewMock()

	rt := session.New(clip, refFeatures, weights, source, player)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		_ = rt.SendCommand(session.Shutdown)
	}()

	if err := rt.SendCommand(session.Start); err != nil {
		telemetry.Errorf("session: %v", err)
	}

	done := make(chan struct{})
	go func() {
		rt.Run(ctx)
		close(done)
	}()

	var lastLoggedSeq uint64
	for {
		select {
		case <-done:
			if rt.State() != session.Terminated {
				os.Exit(exitCaptureFailed)
			}
			os.Exit(exitOK)
		case <-time.After(200 * time.Millisecond):
			snap := rt.Latest()
			if snap != nil && snap.Sequence != lastLoggedSeq && snap.Error != "" {
				lastLoggedSeq = snap.Sequence
				telemetry.Warnf("session: %s", snap.Error)
			}
		}
	}
}

// openCaptureSource resolves the live microphone binding. Device
// binding is an external collaborator (spec.md §1's Out of scope);
// until one is wired in, sessions run against a silent placeholder
// source so the rest of the pipeline is exercisable end to end.
func openCaptureSource() (capture.Source, error) {
	return capture.NewMock(nil), nil
}

func die(code int, format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(code)
}
