package session

import (
	"time"

	"github.com/flowalyzer/pronunciation/align"
	"github.com/flowalyzer/pronunciation/score"
)

// Snapshot is the immutable record published by the runtime on every
// tick (spec.md §3's SessionSnapshot entity).
type Snapshot struct {
	Sequence   uint64
	CapturedAt time.Time
	Report     *align.Report
	Scores     *score.PronunciationScores
	LatencyMs  float64
	Error      string
}

// Command is a control message sent by the UI collaborator to the
// runtime.
type Command int

const (
	Start Command = iota
	Stop
	ReplayReference
	Shutdown
)

func (c Command) String() string {
	switch c {
	case Start:
		return "start"
	case Stop:
		return "stop"
	case ReplayReference:
		return "replay_reference"
	case Shutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// State is the runtime's lifecycle state (spec.md §4.4).
type State int

const (
	Idle State = iota
	Recording
	Terminated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}
