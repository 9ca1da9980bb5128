// Package reporter provides playback reporting interfaces and implementations.
package reporter

import "time"

// PlaybackInfo describes a session before the first frame is requested.
type PlaybackInfo struct {
	Workers    int
	Lookahead  int
	DesiredFPS float64
	First      int
	Last       int
	LoopMode   string
	Direction  string
}

// StateChange is emitted on every scheduler state transition.
type StateChange struct {
	From      string
	To        string
	Direction string
	Time      int
	Epoch     uint64
}

// ProgressSnapshot contains playback progress after a delivery.
type ProgressSnapshot struct {
	Time       int
	First      int
	Last       int
	Direction  string
	Delivered  uint64
	DesiredFPS float64
	ActualFPS  float64
	InFlight   int
	Buffered   int
}

// Percent returns the position of Time within the range, 0-100.
func (p ProgressSnapshot) Percent() float64 {
	if p.Last <= p.First {
		return 100
	}
	pct := float64(p.Time-p.First) / float64(p.Last-p.First) * 100
	return min(max(pct, 0), 100)
}

// FrameFailure describes a failed frame that did not stop playback.
type FrameFailure struct {
	Time        int
	Reason      string
	Consecutive int
}

// PlaybackSummary contains the results of a finished pass or session.
type PlaybackSummary struct {
	Delivered uint64
	Failed    uint64
	LastTime  int
	Elapsed   time.Duration
	ActualFPS float64
}

// ReporterError contains error information.
type ReporterError struct {
	Title      string
	Message    string
	Context    string
	Suggestion string
}
