package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/five82/cadence/internal/frame"
	"github.com/five82/cadence/internal/util"
)

// Default constants
const (
	// DefaultFPS is the desired playback rate.
	DefaultFPS float64 = 24

	// DefaultFirstFrame is the first frame of the default range.
	DefaultFirstFrame = 1

	// DefaultLastFrame is the last frame of the default range.
	DefaultLastFrame = 100

	// DefaultFailureThreshold is the number of consecutive failed frames
	// that stops playback.
	DefaultFailureThreshold = 3

	// DefaultRenderScale renders at full resolution.
	DefaultRenderScale float64 = 1.0

	// DefaultCommandQueue is the capacity of the transport command queue.
	DefaultCommandQueue = 64

	// MaxAutoWorkers caps the worker count picked from hardware concurrency.
	MaxAutoWorkers = 16

	// MaxWorkers is the largest accepted worker count.
	MaxWorkers = 256
)

// LoopMode controls what happens when playback reaches a bound.
type LoopMode string

const (
	// LoopOnce stops at the bound.
	LoopOnce LoopMode = "once"
	// LoopRepeat wraps to the opposite bound and keeps the direction.
	LoopRepeat LoopMode = "loop"
	// LoopBounce reverses direction at the bound.
	LoopBounce LoopMode = "bounce"
)

// ParseLoopMode parses a string into a LoopMode.
func ParseLoopMode(s string) (LoopMode, error) {
	switch strings.ToLower(s) {
	case "once":
		return LoopOnce, nil
	case "loop", "repeat":
		return LoopRepeat, nil
	case "bounce", "pingpong":
		return LoopBounce, nil
	default:
		return "", fmt.Errorf("%w: '%s', valid options: once, loop, bounce", ErrInvalidLoopMode, s)
	}
}

// String returns the string representation of the loop mode.
func (m LoopMode) String() string {
	return string(m)
}

// Valid reports whether m is a known loop mode.
func (m LoopMode) Valid() bool {
	switch m {
	case LoopOnce, LoopRepeat, LoopBounce:
		return true
	default:
		return false
	}
}

// ParseDirection parses a playable direction ("forward" or "backward").
func ParseDirection(s string) (frame.Direction, error) {
	switch strings.ToLower(s) {
	case "forward", "fwd", "f":
		return frame.Forward, nil
	case "backward", "reverse", "bwd", "b":
		return frame.Backward, nil
	default:
		return frame.Stopped, fmt.Errorf("%w: '%s', valid options: forward, backward", ErrInvalidDirection, s)
	}
}

// ValidateDirection rejects directions other than Forward and Backward.
func ValidateDirection(d frame.Direction) error {
	if d != frame.Forward && d != frame.Backward {
		return fmt.Errorf("%w: %s", ErrInvalidDirection, d)
	}
	return nil
}

// Bounds is an inclusive frame range.
type Bounds struct {
	First int
	Last  int
}

// Validate checks that First <= Last.
func (b Bounds) Validate() error {
	if b.First > b.Last {
		return fmt.Errorf("%w: first frame %d is after last frame %d", ErrInvalidBounds, b.First, b.Last)
	}
	return nil
}

// Span returns the number of frames in the range.
func (b Bounds) Span() int {
	if b.First > b.Last {
		return 0
	}
	return b.Last - b.First + 1
}

// Clamp limits t to the range.
func (b Bounds) Clamp(t int) int {
	return min(max(t, b.First), b.Last)
}

// Contains reports whether t lies in the range.
func (b Bounds) Contains(t int) bool {
	return t >= b.First && t <= b.Last
}

func (b Bounds) String() string {
	return fmt.Sprintf("%d-%d", b.First, b.Last)
}

// ParseBounds parses "FIRST-LAST" (e.g. "1-240"). Negative frame numbers are
// not accepted in this form.
func ParseBounds(s string) (Bounds, error) {
	var b Bounds
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d-%d", &b.First, &b.Last); err != nil {
		return Bounds{}, fmt.Errorf("%w: '%s', expected FIRST-LAST", ErrInvalidBounds, s)
	}
	if err := b.Validate(); err != nil {
		return Bounds{}, err
	}
	return b, nil
}

// ValidateFPS rejects non-positive and non-finite rates.
func ValidateFPS(fps float64) error {
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidFPS, fps)
	}
	return nil
}

// Config holds all configuration for one playback engine.
type Config struct {
	// Worker pool
	Workers int // Parallel render workers; also the look-ahead window

	// Playback
	DesiredFPS float64
	Bounds     Bounds
	LoopMode   LoopMode

	// Request template
	View        int
	RenderScale float64

	// Error policy
	FailureThreshold int // Consecutive failures that stop playback; 0 disables

	// Control loop
	CommandQueue int // Capacity of the transport command queue
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Workers:          util.DefaultWorkers(MaxAutoWorkers),
		DesiredFPS:       DefaultFPS,
		Bounds:           Bounds{First: DefaultFirstFrame, Last: DefaultLastFrame},
		LoopMode:         LoopOnce,
		View:             0,
		RenderScale:      DefaultRenderScale,
		FailureThreshold: DefaultFailureThreshold,
		CommandQueue:     DefaultCommandQueue,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Workers < 1 || c.Workers > MaxWorkers {
		return fmt.Errorf("%w: must be 1-%d, got %d", ErrInvalidWorkers, MaxWorkers, c.Workers)
	}

	if err := ValidateFPS(c.DesiredFPS); err != nil {
		return err
	}

	if err := c.Bounds.Validate(); err != nil {
		return err
	}

	if !c.LoopMode.Valid() {
		return fmt.Errorf("%w: '%s'", ErrInvalidLoopMode, c.LoopMode)
	}

	if c.RenderScale < 0 || math.IsNaN(c.RenderScale) || math.IsInf(c.RenderScale, 0) {
		return fmt.Errorf("%w: must be >= 0, got %v", ErrInvalidRenderScale, c.RenderScale)
	}

	if c.FailureThreshold < 0 {
		return fmt.Errorf("%w: must be >= 0, got %d", ErrInvalidThreshold, c.FailureThreshold)
	}

	return nil
}

// Lookahead returns the number of frames kept in flight or buffered ahead of
// the last delivered frame: the worker count capped by the range span.
func (c *Config) Lookahead() int {
	return max(min(c.Workers, c.Bounds.Span()), 1)
}

// GetCommandQueue returns the command queue capacity, falling back to the default.
func (c *Config) GetCommandQueue() int {
	if c.CommandQueue > 0 {
		return c.CommandQueue
	}
	return DefaultCommandQueue
}
