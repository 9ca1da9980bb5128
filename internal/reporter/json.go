package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// JSONReporter outputs NDJSON events, one object per line.
type JSONReporter struct {
	writer             io.Writer
	mu                 sync.Mutex
	lastProgressBucket int
	lastProgressTime   time.Time
}

// NewJSONReporter creates a new JSON reporter that writes to stdout.
func NewJSONReporter() *JSONReporter {
	return NewJSONReporterWithWriter(os.Stdout)
}

// NewJSONReporterWithWriter creates a JSON reporter with a custom writer.
func NewJSONReporterWithWriter(w io.Writer) *JSONReporter {
	return &JSONReporter{
		writer:             w,
		lastProgressBucket: -1,
	}
}

func (r *JSONReporter) timestamp() int64 {
	return time.Now().Unix()
}

func (r *JSONReporter) write(v interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintln(r.writer, string(data))
}

func (r *JSONReporter) PlaybackStarted(info PlaybackInfo) {
	r.mu.Lock()
	r.lastProgressBucket = -1
	r.lastProgressTime = time.Time{}
	r.mu.Unlock()

	r.write(map[string]interface{}{
		"type":        "playback_started",
		"workers":     info.Workers,
		"lookahead":   info.Lookahead,
		"desired_fps": info.DesiredFPS,
		"first_frame": info.First,
		"last_frame":  info.Last,
		"loop_mode":   info.LoopMode,
		"direction":   info.Direction,
		"timestamp":   r.timestamp(),
	})
}

func (r *JSONReporter) StateChanged(change StateChange) {
	r.write(map[string]interface{}{
		"type":      "state_changed",
		"from":      change.From,
		"to":        change.To,
		"direction": change.Direction,
		"frame":     change.Time,
		"epoch":     change.Epoch,
		"timestamp": r.timestamp(),
	})
}

// PlaybackProgress emits at most one event per percent of the range, plus one
// every few seconds and one at either bound.
func (r *JSONReporter) PlaybackProgress(progress ProgressSnapshot) {
	const minInterval = 5 * time.Second

	bucket := int(progress.Percent())
	now := time.Now()
	atBound := progress.Time == progress.First || progress.Time == progress.Last

	r.mu.Lock()
	intervalElapsed := r.lastProgressTime.IsZero() || now.Sub(r.lastProgressTime) >= minInterval
	if bucket == r.lastProgressBucket && !intervalElapsed && !atBound {
		r.mu.Unlock()
		return
	}
	r.lastProgressBucket = bucket
	r.lastProgressTime = now
	r.mu.Unlock()

	r.write(map[string]interface{}{
		"type":        "playback_progress",
		"frame":       progress.Time,
		"first_frame": progress.First,
		"last_frame":  progress.Last,
		"direction":   progress.Direction,
		"percent":     progress.Percent(),
		"delivered":   progress.Delivered,
		"desired_fps": progress.DesiredFPS,
		"actual_fps":  progress.ActualFPS,
		"in_flight":   progress.InFlight,
		"buffered":    progress.Buffered,
		"timestamp":   r.timestamp(),
	})
}

func (r *JSONReporter) FrameFailed(failure FrameFailure) {
	r.write(map[string]interface{}{
		"type":        "frame_failed",
		"frame":       failure.Time,
		"reason":      failure.Reason,
		"consecutive": failure.Consecutive,
		"timestamp":   r.timestamp(),
	})
}

func (r *JSONReporter) Warning(message string) {
	r.write(map[string]interface{}{
		"type":      "warning",
		"message":   message,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) Error(err ReporterError) {
	r.write(map[string]interface{}{
		"type":       "error",
		"title":      err.Title,
		"message":    err.Message,
		"context":    err.Context,
		"suggestion": err.Suggestion,
		"timestamp":  r.timestamp(),
	})
}

func (r *JSONReporter) PlaybackComplete(summary PlaybackSummary) {
	r.write(map[string]interface{}{
		"type":             "playback_complete",
		"delivered":        summary.Delivered,
		"failed":           summary.Failed,
		"last_frame":       summary.LastTime,
		"duration_seconds": summary.Elapsed.Seconds(),
		"actual_fps":       summary.ActualFPS,
		"timestamp":        r.timestamp(),
	})
}

func (r *JSONReporter) Verbose(message string) {
	r.write(map[string]interface{}{
		"type":      "verbose",
		"message":   message,
		"timestamp": r.timestamp(),
	})
}
