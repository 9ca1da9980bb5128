package scheduler

import (
	"context"
	stderrors "errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/five82/cadence/internal/abort"
	"github.com/five82/cadence/internal/config"
	"github.com/five82/cadence/internal/frame"
	"github.com/five82/cadence/internal/reporter"
	"github.com/five82/cadence/internal/worker"
)

const waitTimeout = 5 * time.Second

var errBadFrame = stderrors.New("bad frame")

// recordingSink keeps everything the scheduler hands it.
type recordingSink struct {
	mu        sync.Mutex
	delivered []frame.Result
	failures  []int
}

func (s *recordingSink) Deliver(res frame.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered = append(s.delivered, res)
}

func (s *recordingSink) NotifyFailure(t int, _ error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, t)
}

func (s *recordingSink) times() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.delivered))
	for i, r := range s.delivered {
		out[i] = r.Request.Time
	}
	return out
}

func (s *recordingSink) results() []frame.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.delivered)
}

func (s *recordingSink) failed() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.failures)
}

// instantRenderer succeeds immediately unless fail or abandon say otherwise.
// abandon is called with the number of earlier requests for the same time.
type instantRenderer struct {
	mu       sync.Mutex
	requests []frame.Request
	fail     func(t int) bool
	abandon  func(t, attempt int) bool
}

func (r *instantRenderer) Render(req frame.Request, _ abort.Snapshot) frame.Result {
	r.mu.Lock()
	attempt := 0
	for _, prev := range r.requests {
		if prev.Time == req.Time {
			attempt++
		}
	}
	r.requests = append(r.requests, req)
	fail, abandon := r.fail, r.abandon
	r.mu.Unlock()

	if abandon != nil && abandon(req.Time, attempt) {
		return frame.Aborted(req)
	}
	if fail != nil && fail(req.Time) {
		return frame.Failed(req, errBadFrame)
	}
	return frame.Succeeded(req, req.Time)
}

func (r *instantRenderer) requested() []frame.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.requests)
}

// gatedRenderer blocks each render until its frame time is opened. It ignores
// the abort snapshot so late completions reach the scheduler.
type gatedRenderer struct {
	mu       sync.Mutex
	gates    map[int]chan struct{}
	requests []frame.Request
	stop     chan struct{}
	released *atomic.Int32
}

func newGatedRenderer() *gatedRenderer {
	return &gatedRenderer{
		gates:    make(map[int]chan struct{}),
		stop:     make(chan struct{}),
		released: &atomic.Int32{},
	}
}

func (g *gatedRenderer) gate(t int) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[t]
	if !ok {
		ch = make(chan struct{})
		g.gates[t] = ch
	}
	return ch
}

func (g *gatedRenderer) open(times ...int) {
	for _, t := range times {
		ch := g.gate(t)
		g.mu.Lock()
		select {
		case <-ch:
		default:
			close(ch)
		}
		g.mu.Unlock()
	}
}

func (g *gatedRenderer) openAll() {
	close(g.stop)
}

func (g *gatedRenderer) Render(req frame.Request, _ abort.Snapshot) frame.Result {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()

	select {
	case <-g.gate(req.Time):
	case <-g.stop:
	}
	return frame.Succeeded(req, releaseCounter{n: g.released})
}

func (g *gatedRenderer) requestedTimes() []int {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]int, len(g.requests))
	for i, r := range g.requests {
		out[i] = r.Time
	}
	return out
}

type releaseCounter struct {
	n *atomic.Int32
}

func (r releaseCounter) Release() { r.n.Add(1) }

// recordingReporter captures state transitions and completions.
type recordingReporter struct {
	reporter.NullReporter
	mu        sync.Mutex
	states    []string
	completes []reporter.PlaybackSummary
	errs      []reporter.ReporterError
	warnings  []string
}

func (r *recordingReporter) StateChanged(c reporter.StateChange) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, c.To)
}

func (r *recordingReporter) PlaybackComplete(s reporter.PlaybackSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completes = append(r.completes, s)
}

func (r *recordingReporter) Warning(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, msg)
}

func (r *recordingReporter) Error(e reporter.ReporterError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, e)
}

func testConfig(workers, first, last int, mode config.LoopMode) *config.Config {
	cfg := config.NewConfig()
	cfg.Workers = workers
	cfg.Bounds = config.Bounds{First: first, Last: last}
	cfg.LoopMode = mode
	cfg.DesiredFPS = 1000
	return cfg
}

// startScheduler creates a scheduler and runs it until the test ends.
func startScheduler(t *testing.T, cfg *config.Config, r worker.Renderer, sink Sink, opts ...Option) *Scheduler {
	t.Helper()

	s, err := New(cfg, r, sink, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errc:
			if err != nil {
				t.Errorf("Run() error = %v", err)
			}
		case <-time.After(waitTimeout):
			t.Error("Run() did not return after cancel")
		}
	})
	return s
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func waitState(t *testing.T, s *Scheduler, want State) {
	t.Helper()
	waitFor(t, "state "+want.String(), func() bool { return s.Status().State == want })
}

func mustDo(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
