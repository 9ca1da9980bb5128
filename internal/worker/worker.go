// Package worker runs render requests on a fixed set of goroutines.
package worker

import (
	stderrors "errors"
	"sync"
	"sync/atomic"

	"github.com/five82/cadence/internal/abort"
	"github.com/five82/cadence/internal/errors"
	"github.com/five82/cadence/internal/frame"
	"github.com/five82/cadence/internal/logging"
)

// ErrAborted may be returned by a RenderFunc that observed cancellation at
// one of its checkpoints.
var ErrAborted = stderrors.New("render aborted")

var errUnspecified = stderrors.New("renderer reported failure without a reason")

// Renderer produces the frame for a request. It is called concurrently from
// every worker with distinct requests and should poll snap.Aborted() at its
// natural checkpoints.
type Renderer interface {
	Render(req frame.Request, snap abort.Snapshot) frame.Result
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(req frame.Request, snap abort.Snapshot) frame.Result

// Render calls f.
func (f RendererFunc) Render(req frame.Request, snap abort.Snapshot) frame.Result {
	return f(req, snap)
}

// RenderFunc is the (payload, error) form of a renderer.
type RenderFunc func(req frame.Request, snap abort.Snapshot) (any, error)

// Render converts the returned error into a result status. ErrAborted maps to
// StatusAborted, any other error to StatusFailed.
func (f RenderFunc) Render(req frame.Request, snap abort.Snapshot) frame.Result {
	payload, err := f(req, snap)
	switch {
	case err == nil:
		return frame.Succeeded(req, payload)
	case stderrors.Is(err, ErrAborted):
		res := frame.Succeeded(req, payload)
		res.Release()
		return frame.Aborted(req)
	default:
		res := frame.Succeeded(req, payload)
		res.Release()
		return frame.Failed(req, err)
	}
}

// CompletionFunc receives every result produced by the pool, from the worker
// goroutine that produced it.
type CompletionFunc func(frame.Result)

// Semaphore provides a counting semaphore for bounding in-flight requests.
type Semaphore struct {
	permits chan struct{}
}

// NewSemaphore creates a new semaphore with the given number of permits.
func NewSemaphore(count int) *Semaphore {
	if count <= 0 {
		count = 1
	}
	s := &Semaphore{
		permits: make(chan struct{}, count),
	}
	for i := 0; i < count; i++ {
		s.permits <- struct{}{}
	}
	return s
}

// TryAcquire takes a permit without blocking. Returns false if none is free.
func (s *Semaphore) TryAcquire() bool {
	select {
	case <-s.permits:
		return true
	default:
		return false
	}
}

// Release returns a permit to the semaphore.
func (s *Semaphore) Release() {
	select {
	case s.permits <- struct{}{}:
	default:
		// Semaphore is full, this shouldn't happen in normal use
	}
}

// Available returns the number of free permits.
func (s *Semaphore) Available() int {
	return len(s.permits)
}

// Capacity returns the total number of permits.
func (s *Semaphore) Capacity() int {
	return cap(s.permits)
}

// Stats contains pool counters.
type Stats struct {
	Submitted uint64
	Rejected  uint64
	Succeeded uint64
	Failed    uint64
	Aborted   uint64
	Panics    uint64
}

type job struct {
	req  frame.Request
	snap abort.Snapshot
}

// Pool executes render requests on a fixed number of workers. At most Size()
// requests are queued or running at once; Submit never blocks and reports
// backpressure instead.
type Pool struct {
	renderer   Renderer
	onComplete CompletionFunc
	log        *logging.Logger

	sem  *Semaphore
	jobs chan job
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	submitted atomic.Uint64
	rejected  atomic.Uint64
	succeeded atomic.Uint64
	failed    atomic.Uint64
	aborted   atomic.Uint64
	panics    atomic.Uint64
}

// NewPool starts workers goroutines executing r. onComplete is called once for
// every accepted request.
func NewPool(workers int, r Renderer, onComplete CompletionFunc, log *logging.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = logging.Discard()
	}

	p := &Pool{
		renderer:   r,
		onComplete: onComplete,
		log:        log.WithComponent("worker-pool"),
		sem:        NewSemaphore(workers),
		jobs:       make(chan job, workers),
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func(workerID int) {
			defer p.wg.Done()
			p.work(workerID)
		}(i)
	}
	return p
}

// Size returns the number of parallel execution slots.
func (p *Pool) Size() int {
	return p.sem.Capacity()
}

// Available returns the number of requests that can be submitted right now.
func (p *Pool) Available() int {
	return p.sem.Available()
}

// InFlight returns the number of queued or running requests.
func (p *Pool) InFlight() int {
	return p.sem.Capacity() - p.sem.Available()
}

// Submit queues req for rendering under snap. It never blocks: a saturated
// pool returns a backpressure error and a closed pool a closed error.
func (p *Pool) Submit(req frame.Request, snap abort.Snapshot) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return errors.NewClosedError("worker pool")
	}
	if !p.sem.TryAcquire() {
		p.rejected.Add(1)
		return errors.NewBackpressureError(p.sem.Capacity())
	}

	// Holding a permit guarantees room in the channel.
	p.jobs <- job{req: req, snap: snap}
	p.submitted.Add(1)
	return nil
}

// Close stops accepting work and waits for running renders to finish. Queued
// requests still complete; a render that never returns blocks Close.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.wg.Wait()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Submitted: p.submitted.Load(),
		Rejected:  p.rejected.Load(),
		Succeeded: p.succeeded.Load(),
		Failed:    p.failed.Load(),
		Aborted:   p.aborted.Load(),
		Panics:    p.panics.Load(),
	}
}

// work runs in a goroutine and renders jobs until the channel closes.
func (p *Pool) work(workerID int) {
	for j := range p.jobs {
		res := p.execute(workerID, j)

		switch res.Status {
		case frame.StatusSuccess:
			p.succeeded.Add(1)
		case frame.StatusFailed:
			p.failed.Add(1)
		case frame.StatusAborted:
			p.aborted.Add(1)
		}

		// Free the slot before reporting so the receiver sees it available.
		p.sem.Release()

		if p.onComplete != nil {
			p.onComplete(res)
		} else {
			res.Release()
		}
	}
}

// execute renders one job, converting panics and late cancellation into
// result statuses.
func (p *Pool) execute(workerID int, j job) (res frame.Result) {
	if j.snap.Aborted() {
		return frame.Aborted(j.req)
	}

	defer func() {
		if r := recover(); r != nil {
			p.panics.Add(1)
			p.log.Warn("renderer panicked", "worker", workerID, "frame", j.req.Time, "panic", r)
			res = frame.Failed(j.req, errors.NewRenderPanicError(j.req.Time, r))
		}
	}()

	res = p.renderer.Render(j.req, j.snap)
	res.Request = j.req

	switch res.Status {
	case frame.StatusSuccess:
		if j.snap.Aborted() {
			res.Release()
			return frame.Aborted(j.req)
		}
	case frame.StatusFailed:
		res.Release()
		if res.Err == nil {
			res.Err = errUnspecified
		}
		if !errors.IsKind(res.Err, errors.KindRender) && !errors.IsKind(res.Err, errors.KindRenderPanic) {
			res.Err = errors.NewRenderError(j.req.Time, res.Err)
		}
	default:
		res.Release()
		res.Status = frame.StatusAborted
		res.Err = nil
	}
	return res
}
