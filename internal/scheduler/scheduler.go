// Package scheduler drives playback: it owns the transport state machine,
// keeps the worker pool fed with look-ahead requests, restores sequence order
// and paces delivery to the sink.
//
// All state is owned by the goroutine running Run. Transport commands and
// worker completions reach it through channels, so none of the playback state
// is locked.
package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/five82/cadence/internal/abort"
	"github.com/five82/cadence/internal/config"
	"github.com/five82/cadence/internal/errors"
	"github.com/five82/cadence/internal/frame"
	"github.com/five82/cadence/internal/logging"
	"github.com/five82/cadence/internal/reorder"
	"github.com/five82/cadence/internal/reporter"
	"github.com/five82/cadence/internal/timing"
	"github.com/five82/cadence/internal/worker"
)

type commandKind int

const (
	cmdPlay commandKind = iota
	cmdPause
	cmdSeek
	cmdAbort
	cmdSetFPS
	cmdSetBounds
	cmdSetLoopMode
)

type command struct {
	kind   commandKind
	dir    frame.Direction
	time   int
	policy SeekPolicy
	fps    float64
	bounds config.Bounds
	mode   config.LoopMode
}

// abandonRetries is how many times a frame the renderer gave up on under the
// current epoch is requested again before it is skipped.
const abandonRetries = 2

// cursor is a planned frame: a time and the direction it is played in. seq is
// the plan ordinal assigned at submission and keys the frame in flight and in
// the reorder buffer; times alone collide when a plan visits a frame twice.
type cursor struct {
	t       int
	dir     frame.Direction
	seq     uint64
	retries int
	waiting bool // awaiting resubmission
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithReporter sets the reporter receiving state and progress notifications.
func WithReporter(r reporter.Reporter) Option {
	return func(s *Scheduler) {
		if r != nil {
			s.rep = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// WithSinkID sets the sink handle stamped on every request.
func WithSinkID(id frame.SinkID) Option {
	return func(s *Scheduler) {
		s.sinkID = id
	}
}

// Scheduler is the playback engine for one sink.
type Scheduler struct {
	cfg      config.Config
	renderer worker.Renderer
	sink     Sink
	rep      reporter.Reporter
	log      *logging.Logger
	sinkID   frame.SinkID

	signal   abort.Signal
	pool     *worker.Pool
	governor *timing.Governor
	buffer   *reorder.Buffer

	commands    chan command
	completions chan frame.Result
	done        chan struct{}
	running     atomic.Bool
	status      atomic.Pointer[Status]

	// Owned by the Run goroutine.
	state     State
	dir       frame.Direction
	current   int
	shown     bool // current has been delivered
	pending   []cursor
	inFlight  map[uint64]int // seq -> time
	seq       uint64
	next      cursor
	hasNext   bool
	pacing    *time.Timer
	failures  int
	lastErr   error
	startedAt time.Time

	submitted     uint64
	delivered     uint64
	failed        uint64
	discarded     uint64
	passDelivered uint64
	passFailed    uint64
}

// New validates cfg and creates a stopped scheduler. Rendering starts once Run
// is called and a play command arrives.
func New(cfg *config.Config, r worker.Renderer, sink Sink, opts ...Option) (*Scheduler, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.NewConfigError("invalid scheduler configuration", err)
	}
	if r == nil {
		return nil, errors.NewConfigError("renderer is required", nil)
	}
	if sink == nil {
		return nil, errors.NewConfigError("sink is required", nil)
	}

	s := &Scheduler{
		cfg:         *cfg,
		renderer:    r,
		sink:        sink,
		rep:         reporter.NullReporter{},
		log:         logging.Discard(),
		sinkID:      frame.NewSinkID(),
		governor:    timing.NewGovernor(cfg.DesiredFPS),
		buffer:      reorder.New(),
		commands:    make(chan command, cfg.GetCommandQueue()),
		completions: make(chan frame.Result, cfg.Workers),
		done:        make(chan struct{}),
		state:       Stopped,
		dir:         frame.Stopped,
		current:     cfg.Bounds.First,
		inFlight:    make(map[uint64]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithComponent("scheduler")
	s.publish()
	return s, nil
}

// Run executes the control loop until ctx is cancelled. On return in-flight
// renders have finished and every undelivered payload has been released.
// Run may be called only once.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.NewClosedError("scheduler already started")
	}

	s.pool = worker.NewPool(s.cfg.Workers, s.renderer, s.complete, s.log)
	defer s.shutdown()

	s.log.Debug("control loop started", "workers", s.pool.Size(), "lookahead", s.cfg.Lookahead(), "sink", s.sinkID)

	for {
		var pace <-chan time.Time
		if s.pacing != nil {
			pace = s.pacing.C
		}

		select {
		case <-ctx.Done():
			s.log.Debug("control loop stopping", "reason", ctx.Err())
			return nil
		case cmd := <-s.commands:
			s.handle(cmd)
		case res := <-s.completions:
			s.handleCompletion(res)
		case <-pace:
			s.pacing = nil
		}

		s.cycle()
		s.publish()
	}
}

// Done is closed when Run has returned.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// Play starts or resumes playback in dir.
func (s *Scheduler) Play(dir frame.Direction) error {
	if err := config.ValidateDirection(dir); err != nil {
		return errors.NewConfigError("play", err)
	}
	return s.enqueue(command{kind: cmdPlay, dir: dir})
}

// Pause stops requesting frames and cancels in-flight work.
func (s *Scheduler) Pause() error {
	return s.enqueue(command{kind: cmdPause})
}

// Seek moves the playhead to t, clamped to the bounds.
func (s *Scheduler) Seek(t int, policy SeekPolicy) error {
	return s.enqueue(command{kind: cmdSeek, time: t, policy: policy})
}

// Abort cancels everything, drops buffered frames and rewinds to the first frame.
func (s *Scheduler) Abort() error {
	return s.enqueue(command{kind: cmdAbort})
}

// SetDesiredFPS changes the pacing rate.
func (s *Scheduler) SetDesiredFPS(fps float64) error {
	if err := config.ValidateFPS(fps); err != nil {
		return errors.NewConfigError("set desired fps", err)
	}
	return s.enqueue(command{kind: cmdSetFPS, fps: fps})
}

// SetBounds changes the playable range.
func (s *Scheduler) SetBounds(first, last int) error {
	b := config.Bounds{First: first, Last: last}
	if err := b.Validate(); err != nil {
		return errors.NewConfigError("set bounds", err)
	}
	return s.enqueue(command{kind: cmdSetBounds, bounds: b})
}

// SetLoopMode changes what happens at the bounds.
func (s *Scheduler) SetLoopMode(mode config.LoopMode) error {
	if !mode.Valid() {
		return errors.NewConfigError("set loop mode", fmt.Errorf("%w: '%s'", config.ErrInvalidLoopMode, mode))
	}
	return s.enqueue(command{kind: cmdSetLoopMode, mode: mode})
}

// Status returns the latest published snapshot.
func (s *Scheduler) Status() Status {
	return *s.status.Load()
}

// Epoch returns the current abort epoch.
func (s *Scheduler) Epoch() uint64 {
	return s.signal.Epoch()
}

// SinkID returns the handle stamped on requests.
func (s *Scheduler) SinkID() frame.SinkID {
	return s.sinkID
}

func (s *Scheduler) enqueue(cmd command) error {
	select {
	case <-s.done:
		return errors.NewClosedError("scheduler")
	default:
	}

	select {
	case s.commands <- cmd:
		return nil
	case <-s.done:
		return errors.NewClosedError("scheduler")
	}
}

// complete runs on worker goroutines and hands results to the control loop.
func (s *Scheduler) complete(res frame.Result) {
	select {
	case s.completions <- res:
	case <-s.done:
		res.Release()
	}
}

func (s *Scheduler) shutdown() {
	s.signal.Cancel()
	close(s.done)
	s.stopPacing()
	s.pool.Close()

	for drained := false; !drained; {
		select {
		case res := <-s.completions:
			res.Release()
		default:
			drained = true
		}
	}

	if n := s.buffer.Drain(); n > 0 {
		s.log.Debug("released buffered frames on shutdown", "count", n)
	}
	s.pending = nil
	clear(s.inFlight)
	s.hasNext = false
	s.setState(Stopped)
	s.publish()
}

func (s *Scheduler) publish() {
	st := &Status{
		State:               s.state,
		Direction:           s.state.Direction(),
		CurrentTime:         s.current,
		Epoch:               s.signal.Epoch(),
		Bounds:              s.cfg.Bounds,
		LoopMode:            s.cfg.LoopMode,
		Workers:             s.cfg.Workers,
		Lookahead:           s.cfg.Lookahead(),
		DesiredFPS:          s.governor.DesiredFPS(),
		ActualFPS:           s.governor.ActualFPS(),
		InFlight:            len(s.inFlight),
		Buffered:            s.buffer.Len(),
		Submitted:           s.submitted,
		Delivered:           s.delivered,
		Failed:              s.failed,
		Discarded:           s.discarded,
		ConsecutiveFailures: s.failures,
		Err:                 s.lastErr,
	}
	s.status.Store(st)
}
