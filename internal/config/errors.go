// Package config provides configuration types and defaults for cadence.
package config

import "errors"

// Sentinel errors for configuration validation.
var (
	// ErrInvalidBounds indicates a first frame greater than the last frame.
	ErrInvalidBounds = errors.New("invalid frame bounds")

	// ErrInvalidFPS indicates a non-positive or non-finite frame rate.
	ErrInvalidFPS = errors.New("frame rate must be positive")

	// ErrInvalidWorkers indicates a worker count below one.
	ErrInvalidWorkers = errors.New("worker count out of range")

	// ErrInvalidRenderScale indicates a negative or non-finite render scale.
	ErrInvalidRenderScale = errors.New("render scale out of range")

	// ErrInvalidLoopMode indicates an unknown loop mode.
	ErrInvalidLoopMode = errors.New("invalid loop mode")

	// ErrInvalidThreshold indicates a negative failure threshold.
	ErrInvalidThreshold = errors.New("failure threshold out of range")

	// ErrInvalidDirection indicates a direction that cannot be played.
	ErrInvalidDirection = errors.New("invalid playback direction")
)
