// Package errors provides structured error types for cadence operations.
package errors

import (
	"errors"
	"fmt"
)

// ErrorKind represents the category of an error.
type ErrorKind int

const (
	// KindConfig represents rejected configuration or command arguments.
	KindConfig ErrorKind = iota
	// KindRender represents a renderer reporting failure for one frame.
	KindRender
	// KindRenderPanic represents a renderer panic recovered at the pool boundary.
	KindRenderPanic
	// KindFailureThreshold represents too many consecutive frame failures.
	KindFailureThreshold
	// KindBackpressure represents a saturated worker pool.
	KindBackpressure
	// KindClosed represents use of an engine or pool after shutdown.
	KindClosed
	// KindCancelled represents work cancelled by the caller.
	KindCancelled
)

// String returns a string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "Configuration error"
	case KindRender:
		return "Render error"
	case KindRenderPanic:
		return "Render panic"
	case KindFailureThreshold:
		return "Failure threshold exceeded"
	case KindBackpressure:
		return "Backpressure"
	case KindClosed:
		return "Closed"
	case KindCancelled:
		return "Operation cancelled"
	default:
		return "Unknown error"
	}
}

// FrameError records which frame a render failure belongs to.
type FrameError struct {
	Time       int
	Underlying error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %d: %v", e.Time, e.Underlying)
}

func (e *FrameError) Unwrap() error {
	return e.Underlying
}

// CoreError is the main error type for cadence operations.
type CoreError struct {
	Kind       ErrorKind
	Message    string
	Underlying error
}

func (e *CoreError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CoreError) Unwrap() error {
	return e.Underlying
}

// Is reports whether target matches this error's kind.
func (e *CoreError) Is(target error) bool {
	t, ok := target.(*CoreError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewConfigError creates a new configuration error.
func NewConfigError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindConfig, Message: message, Underlying: underlying}
}

// NewRenderError creates an error for a renderer failure on frame t.
func NewRenderError(t int, underlying error) *CoreError {
	return &CoreError{
		Kind:       KindRender,
		Message:    fmt.Sprintf("render of frame %d failed", t),
		Underlying: &FrameError{Time: t, Underlying: underlying},
	}
}

// NewRenderPanicError creates an error for a renderer panic on frame t.
func NewRenderPanicError(t int, recovered any) *CoreError {
	return &CoreError{
		Kind:    KindRenderPanic,
		Message: fmt.Sprintf("renderer panicked on frame %d: %v", t, recovered),
	}
}

// NewFailureThresholdError creates the fatal error raised when consecutive
// failures reach the configured threshold. last is the final failure.
func NewFailureThresholdError(count int, last error) *CoreError {
	return &CoreError{
		Kind:       KindFailureThreshold,
		Message:    fmt.Sprintf("%d consecutive frames failed, playback stopped", count),
		Underlying: last,
	}
}

// NewBackpressureError creates an error for a saturated worker pool.
func NewBackpressureError(capacity int) *CoreError {
	return &CoreError{Kind: KindBackpressure, Message: fmt.Sprintf("all %d pool slots busy", capacity)}
}

// NewClosedError creates an error for use after shutdown.
func NewClosedError(what string) *CoreError {
	return &CoreError{Kind: KindClosed, Message: fmt.Sprintf("%s is closed", what)}
}

// NewCancelledError creates an error for cancelled operations.
func NewCancelledError(underlying error) *CoreError {
	return &CoreError{Kind: KindCancelled, Message: "operation was cancelled", Underlying: underlying}
}

// IsKind checks if the error has the specified kind.
func IsKind(err error, kind ErrorKind) bool {
	var coreErr *CoreError
	if errors.As(err, &coreErr) {
		return coreErr.Kind == kind
	}
	return false
}

// IsBackpressure checks if the error is a backpressure error.
func IsBackpressure(err error) bool {
	return IsKind(err, KindBackpressure)
}

// IsClosed checks if the error is a closed error.
func IsClosed(err error) bool {
	return IsKind(err, KindClosed)
}

// IsFailureThreshold checks if the error is a failure threshold error.
func IsFailureThreshold(err error) bool {
	return IsKind(err, KindFailureThreshold)
}

// FrameTime extracts the frame time from a render error, if present.
func FrameTime(err error) (int, bool) {
	var fe *FrameError
	if errors.As(err, &fe) {
		return fe.Time, true
	}
	return 0, false
}
