package scheduler

import (
	"github.com/five82/cadence/internal/config"
	"github.com/five82/cadence/internal/frame"
)

// State is the transport state of the scheduler.
type State int

const (
	// Stopped means nothing is requested or delivered.
	Stopped State = iota
	// PlayingForward delivers frames in ascending time.
	PlayingForward
	// PlayingBackward delivers frames in descending time.
	PlayingBackward
	// Seeking is the transient state while a seek is applied.
	Seeking
	// Paused holds the current frame until the next play.
	Paused
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case PlayingForward:
		return "playing-forward"
	case PlayingBackward:
		return "playing-backward"
	case Seeking:
		return "seeking"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// Playing reports whether frames are being requested and delivered.
func (s State) Playing() bool {
	return s == PlayingForward || s == PlayingBackward
}

// Direction returns the playback direction of a playing state, Stopped otherwise.
func (s State) Direction() frame.Direction {
	switch s {
	case PlayingForward:
		return frame.Forward
	case PlayingBackward:
		return frame.Backward
	default:
		return frame.Stopped
	}
}

func playingState(dir frame.Direction) State {
	if dir == frame.Backward {
		return PlayingBackward
	}
	return PlayingForward
}

// SeekPolicy selects the state a seek lands in.
type SeekPolicy int

const (
	// SeekPause lands in Paused at the target frame.
	SeekPause SeekPolicy = iota
	// SeekResume continues playing from the target frame if playback was
	// active when the seek arrived. Otherwise it behaves like SeekPause.
	SeekResume
)

// String returns a string representation of the policy.
func (p SeekPolicy) String() string {
	if p == SeekResume {
		return "resume"
	}
	return "pause"
}

// Sink consumes delivered frames. Both methods are called only from the
// scheduler goroutine.
type Sink interface {
	// Deliver receives a successful result and takes ownership of its payload.
	// It is called exactly once per delivered position, in sequence order.
	Deliver(res frame.Result)
	// NotifyFailure reports a failed frame that did not stop playback.
	NotifyFailure(t int, reason error)
}

// Status is a point-in-time view of the scheduler, safe to read from any goroutine.
type Status struct {
	State               State
	Direction           frame.Direction
	CurrentTime         int
	Epoch               uint64
	Bounds              config.Bounds
	LoopMode            config.LoopMode
	Workers             int
	Lookahead           int
	DesiredFPS          float64
	ActualFPS           float64
	InFlight            int
	Buffered            int
	Submitted           uint64
	Delivered           uint64
	Failed              uint64
	Discarded           uint64
	ConsecutiveFailures int
	Err                 error // Set when the failure threshold stopped playback
}
