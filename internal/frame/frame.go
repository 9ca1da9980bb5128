// Package frame defines the values exchanged between the scheduler, the
// worker pool and the external renderer and sink.
package frame

import (
	"fmt"

	"github.com/google/uuid"
)

// SinkID is an opaque handle identifying the consumer a request is rendered for.
type SinkID = uuid.UUID

// NewSinkID returns a fresh random sink handle.
func NewSinkID() SinkID {
	return uuid.New()
}

// Direction is the playback direction.
type Direction int

const (
	// Stopped means no playback direction is active.
	Stopped Direction = iota
	// Forward plays toward the last frame.
	Forward
	// Backward plays toward the first frame.
	Backward
)

// String returns a string representation of the direction.
func (d Direction) String() string {
	switch d {
	case Stopped:
		return "stopped"
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return "unknown"
	}
}

// Step returns +1 for Forward, -1 for Backward and 0 otherwise.
func (d Direction) Step() int {
	switch d {
	case Forward:
		return 1
	case Backward:
		return -1
	default:
		return 0
	}
}

// Reverse returns the opposite playback direction. Stopped stays Stopped.
func (d Direction) Reverse() Direction {
	switch d {
	case Forward:
		return Backward
	case Backward:
		return Forward
	default:
		return d
	}
}

// Request describes one unit of render work. It is never mutated after creation.
type Request struct {
	Time        int       // Sequence time (frame number)
	View        int       // View index
	RenderScale float64   // Render scale, >= 0
	Sink        SinkID    // Consumer the frame is rendered for
	Epoch       uint64    // Abort epoch the request was submitted under
	Direction   Direction // Playback direction at submission
	Seq         uint64    // Plan ordinal, unique per scheduler
}

func (r Request) String() string {
	return fmt.Sprintf("frame %d (view %d, %s, epoch %d, seq %d)", r.Time, r.View, r.Direction, r.Epoch, r.Seq)
}

// Status is the outcome of a render.
type Status int

const (
	// StatusSuccess means the payload is valid.
	StatusSuccess Status = iota
	// StatusAborted means the render observed cancellation and gave up.
	StatusAborted
	// StatusFailed means the render failed; Err holds the reason.
	StatusFailed
)

// String returns a string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusAborted:
		return "aborted"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the completion of a Request. Payload is owned by the result until
// it is delivered to the sink; it is nil unless Status is StatusSuccess.
type Result struct {
	Request Request
	Payload any
	Status  Status
	Err     error
}

// Succeeded builds a successful result for req.
func Succeeded(req Request, payload any) Result {
	return Result{Request: req, Payload: payload, Status: StatusSuccess}
}

// Failed builds a failed result for req.
func Failed(req Request, err error) Result {
	return Result{Request: req, Status: StatusFailed, Err: err}
}

// Aborted builds an aborted result for req.
func Aborted(req Request) Result {
	return Result{Request: req, Status: StatusAborted}
}

// Releaser is implemented by payloads that hold resources (pooled buffers,
// shared memory) which must be returned when a result is discarded without
// being delivered.
type Releaser interface {
	Release()
}

// Release releases the payload of r if it implements Releaser and clears it.
func (r *Result) Release() {
	if rel, ok := r.Payload.(Releaser); ok {
		rel.Release()
	}
	r.Payload = nil
}
