// Package cadence provides a frame playback engine.
//
// An Engine asks a Renderer for frames ahead of the playhead on a bounded set
// of workers, restores sequence order as results complete, and hands frames to
// a Sink at a steady rate. Transport commands (play, pause, seek, abort) are
// applied on the engine's own goroutine; stale work is cancelled
// cooperatively through the abort snapshot passed to every render.
//
// Basic usage:
//
//	engine, err := cadence.New(renderer, sink,
//	    cadence.WithBounds(1, 240),
//	    cadence.WithFPS(24),
//	    cadence.WithLoopMode(cadence.LoopRepeat),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	go engine.Run(ctx)
//	_ = engine.Play(cadence.Forward)
package cadence

import (
	"context"
	"log/slog"

	"github.com/five82/cadence/internal/abort"
	"github.com/five82/cadence/internal/config"
	"github.com/five82/cadence/internal/errors"
	"github.com/five82/cadence/internal/frame"
	"github.com/five82/cadence/internal/logging"
	"github.com/five82/cadence/internal/reporter"
	"github.com/five82/cadence/internal/scheduler"
	"github.com/five82/cadence/internal/worker"
)

// Re-export value types
type (
	Direction    = frame.Direction
	Request      = frame.Request
	Result       = frame.Result
	FrameStatus  = frame.Status
	SinkID       = frame.SinkID
	Releaser     = frame.Releaser
	Snapshot     = abort.Snapshot
	Renderer     = worker.Renderer
	RendererFunc = worker.RendererFunc
	RenderFunc   = worker.RenderFunc
	Sink         = scheduler.Sink
	State        = scheduler.State
	SeekPolicy   = scheduler.SeekPolicy
	Status       = scheduler.Status
	LoopMode     = config.LoopMode
	Bounds       = config.Bounds
	Reporter     = reporter.Reporter
)

const (
	Forward  = frame.Forward
	Backward = frame.Backward

	StatusSuccess = frame.StatusSuccess
	StatusAborted = frame.StatusAborted
	StatusFailed  = frame.StatusFailed

	Stopped         = scheduler.Stopped
	PlayingForward  = scheduler.PlayingForward
	PlayingBackward = scheduler.PlayingBackward
	Seeking         = scheduler.Seeking
	Paused          = scheduler.Paused

	SeekPause  = scheduler.SeekPause
	SeekResume = scheduler.SeekResume

	LoopOnce   = config.LoopOnce
	LoopRepeat = config.LoopRepeat
	LoopBounce = config.LoopBounce
)

// Errors reported by configuration and commands.
var (
	ErrAborted          = worker.ErrAborted
	ErrInvalidBounds    = config.ErrInvalidBounds
	ErrInvalidFPS       = config.ErrInvalidFPS
	ErrInvalidWorkers   = config.ErrInvalidWorkers
	ErrInvalidLoopMode  = config.ErrInvalidLoopMode
	ErrInvalidDirection = config.ErrInvalidDirection
)

// ParseLoopMode converts "once", "loop" or "bounce" to a LoopMode.
func ParseLoopMode(s string) (LoopMode, error) {
	return config.ParseLoopMode(s)
}

// ParseDirection converts "forward" or "backward" to a Direction.
func ParseDirection(s string) (Direction, error) {
	return config.ParseDirection(s)
}

// NewSinkID returns a fresh sink handle.
func NewSinkID() SinkID {
	return frame.NewSinkID()
}

// IsFailureThreshold reports whether err is the error that stopped playback
// after too many consecutive failed frames.
func IsFailureThreshold(err error) bool {
	return errors.IsFailureThreshold(err)
}

// IsClosed reports whether err was returned because the engine has shut down.
func IsClosed(err error) bool {
	return errors.IsClosed(err)
}

// FailedFrame returns the frame time carried by a render failure reason, such
// as the error passed to Sink.NotifyFailure or wrapped by the threshold error.
func FailedFrame(err error) (int, bool) {
	return errors.FrameTime(err)
}

type settings struct {
	cfg    *config.Config
	opts   []scheduler.Option
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*settings)

// WithWorkers sets the number of parallel render workers. It also bounds the
// look-ahead window.
func WithWorkers(n int) Option {
	return func(s *settings) {
		s.cfg.Workers = n
	}
}

// WithFPS sets the desired playback rate.
func WithFPS(fps float64) Option {
	return func(s *settings) {
		s.cfg.DesiredFPS = fps
	}
}

// WithBounds sets the inclusive playable range.
func WithBounds(first, last int) Option {
	return func(s *settings) {
		s.cfg.Bounds = config.Bounds{First: first, Last: last}
	}
}

// WithLoopMode sets what happens when playback reaches a bound.
func WithLoopMode(m LoopMode) Option {
	return func(s *settings) {
		s.cfg.LoopMode = m
	}
}

// WithFailureThreshold sets how many consecutive failed frames stop
// playback. Zero never stops.
func WithFailureThreshold(n int) Option {
	return func(s *settings) {
		s.cfg.FailureThreshold = n
	}
}

// WithView sets the view index stamped on every request.
func WithView(view int) Option {
	return func(s *settings) {
		s.cfg.View = view
	}
}

// WithRenderScale sets the render scale stamped on every request.
func WithRenderScale(scale float64) Option {
	return func(s *settings) {
		s.cfg.RenderScale = scale
	}
}

// WithCommandQueue sets the capacity of the transport command queue.
func WithCommandQueue(n int) Option {
	return func(s *settings) {
		s.cfg.CommandQueue = n
	}
}

// WithReporter sets the reporter receiving state and progress notifications.
func WithReporter(r Reporter) Option {
	return func(s *settings) {
		s.opts = append(s.opts, scheduler.WithReporter(r))
	}
}

// WithLogger sets the structured logger. Without it the engine does not log.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}

// WithSinkID sets the sink handle stamped on every request.
func WithSinkID(id SinkID) Option {
	return func(s *settings) {
		s.opts = append(s.opts, scheduler.WithSinkID(id))
	}
}

// Engine is a playback engine for one sink.
type Engine struct {
	sched *scheduler.Scheduler
}

// New creates a stopped engine. Configuration errors are returned here; the
// engine does not render anything until Run is called and playback starts.
func New(r Renderer, sink Sink, opts ...Option) (*Engine, error) {
	s := &settings{cfg: config.NewConfig()}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger != nil {
		s.opts = append(s.opts, scheduler.WithLogger(&logging.Logger{Logger: s.logger}))
	}

	sched, err := scheduler.New(s.cfg, r, sink, s.opts...)
	if err != nil {
		return nil, err
	}
	return &Engine{sched: sched}, nil
}

// Run drives the engine until ctx is cancelled, then waits for in-flight
// renders and releases undelivered payloads. It returns nil on cancellation.
func (e *Engine) Run(ctx context.Context) error {
	return e.sched.Run(ctx)
}

// Done is closed once Run has returned.
func (e *Engine) Done() <-chan struct{} {
	return e.sched.Done()
}

// Play starts or resumes playback in dir.
func (e *Engine) Play(dir Direction) error {
	return e.sched.Play(dir)
}

// Pause stops playback at the last delivered frame.
func (e *Engine) Pause() error {
	return e.sched.Pause()
}

// Seek moves the playhead to t, clamped to the bounds.
func (e *Engine) Seek(t int, policy SeekPolicy) error {
	return e.sched.Seek(t, policy)
}

// Abort cancels all work and rewinds to the first frame.
func (e *Engine) Abort() error {
	return e.sched.Abort()
}

// SetDesiredFPS changes the playback rate.
func (e *Engine) SetDesiredFPS(fps float64) error {
	return e.sched.SetDesiredFPS(fps)
}

// SetBounds changes the playable range.
func (e *Engine) SetBounds(first, last int) error {
	return e.sched.SetBounds(first, last)
}

// SetLoopMode changes the loop mode.
func (e *Engine) SetLoopMode(m LoopMode) error {
	return e.sched.SetLoopMode(m)
}

// Status returns a snapshot of the engine state.
func (e *Engine) Status() Status {
	return e.sched.Status()
}

// Epoch returns the current abort epoch.
func (e *Engine) Epoch() uint64 {
	return e.sched.Epoch()
}

// SinkID returns the sink handle stamped on requests.
func (e *Engine) SinkID() SinkID {
	return e.sched.SinkID()
}
