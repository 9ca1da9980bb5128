// Package synth provides a synthetic renderer that draws a moving test
// pattern. It simulates render latency, checks for cancellation while it
// "works", and can be told to fail selected frames.
package synth

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math/rand/v2"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/five82/cadence/internal/abort"
	"github.com/five82/cadence/internal/frame"
)

// Default pattern size and pacing.
const (
	DefaultWidth       = 320
	DefaultHeight      = 180
	DefaultCheckpoints = 4
)

// ErrInjected is the reason carried by injected failures.
var ErrInjected = errors.New("injected render failure")

// Options configures the synthetic renderer.
type Options struct {
	Width       int           // Pattern width at render scale 1
	Height      int           // Pattern height at render scale 1
	Latency     time.Duration // Base time spent per frame
	Jitter      time.Duration // Extra random time, uniform in [0, Jitter)
	Checkpoints int           // Abort polls spread over the render time
	FailEvery   int           // Fail every Nth frame time; 0 disables
	FailFrames  []int         // Frame times that always fail
	PanicFrames []int         // Frame times whose render panics
	Seed        uint64        // Jitter seed
}

// DefaultOptions returns options for a fast, failure-free pattern.
func DefaultOptions() Options {
	return Options{
		Width:       DefaultWidth,
		Height:      DefaultHeight,
		Checkpoints: DefaultCheckpoints,
	}
}

// Frame is the payload produced by the renderer. Release returns its pixel
// buffer to the renderer's pool; the frame must not be used afterwards.
type Frame struct {
	Time  int
	View  int
	Image *image.NRGBA

	pool     *sync.Pool
	released atomic.Bool
}

// Release returns the pixel buffer for reuse. It is safe to call more than once.
func (f *Frame) Release() {
	if f == nil || !f.released.CompareAndSwap(false, true) {
		return
	}
	if f.pool != nil && f.Image != nil {
		f.pool.Put(f.Image)
	}
	f.Image = nil
}

// Stats contains renderer counters.
type Stats struct {
	Rendered uint64
	Aborted  uint64
	Failed   uint64
}

// Renderer draws test pattern frames. It is safe for concurrent use.
type Renderer struct {
	opts   Options
	images sync.Pool

	mu  sync.Mutex
	rng *rand.Rand

	rendered atomic.Uint64
	aborted  atomic.Uint64
	failed   atomic.Uint64
}

// New creates a renderer with opts. Zero sizes fall back to the defaults.
func New(opts Options) *Renderer {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Checkpoints <= 0 {
		opts.Checkpoints = 1
	}
	return &Renderer{
		opts: opts,
		rng:  rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
	}
}

// Render draws the frame for req, polling snap between work slices.
func (r *Renderer) Render(req frame.Request, snap abort.Snapshot) frame.Result {
	if slices.Contains(r.opts.PanicFrames, req.Time) {
		panic(fmt.Sprintf("synthetic panic on frame %d", req.Time))
	}

	slice := r.renderTime() / time.Duration(r.opts.Checkpoints)
	for i := 0; i < r.opts.Checkpoints; i++ {
		if snap.Aborted() {
			r.aborted.Add(1)
			return frame.Aborted(req)
		}
		if slice > 0 {
			time.Sleep(slice)
		}
	}

	if r.shouldFail(req.Time) {
		r.failed.Add(1)
		return frame.Failed(req, fmt.Errorf("frame %d: %w", req.Time, ErrInjected))
	}

	img := r.image(req.RenderScale)
	drawPattern(img, req.Time, req.View)
	r.rendered.Add(1)

	return frame.Succeeded(req, &Frame{
		Time:  req.Time,
		View:  req.View,
		Image: img,
		pool:  &r.images,
	})
}

// Stats returns a snapshot of the renderer counters.
func (r *Renderer) Stats() Stats {
	return Stats{
		Rendered: r.rendered.Load(),
		Aborted:  r.aborted.Load(),
		Failed:   r.failed.Load(),
	}
}

func (r *Renderer) renderTime() time.Duration {
	d := r.opts.Latency
	if r.opts.Jitter > 0 {
		r.mu.Lock()
		d += time.Duration(r.rng.Int64N(int64(r.opts.Jitter)))
		r.mu.Unlock()
	}
	return d
}

func (r *Renderer) shouldFail(t int) bool {
	if slices.Contains(r.opts.FailFrames, t) {
		return true
	}
	return r.opts.FailEvery > 0 && t%r.opts.FailEvery == 0
}

// image returns a buffer sized for scale, reusing a pooled one when it fits.
func (r *Renderer) image(scale float64) *image.NRGBA {
	if scale <= 0 {
		scale = 1
	}
	w := max(int(float64(r.opts.Width)*scale), 1)
	h := max(int(float64(r.opts.Height)*scale), 1)

	if v := r.images.Get(); v != nil {
		img := v.(*image.NRGBA)
		if img.Rect.Dx() == w && img.Rect.Dy() == h {
			return img
		}
	}
	return image.NewNRGBA(image.Rect(0, 0, w, h))
}

// drawPattern fills img with a gradient and a vertical bar whose position
// follows the frame time, so consecutive frames are visibly different.
func drawPattern(img *image.NRGBA, t, view int) {
	b := img.Bounds()
	w := b.Dx()
	bar := ((t % w) + w) % w
	tint := uint8(view * 40)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBA{
				R: uint8(x * 255 / max(w-1, 1)),
				G: uint8(y * 255 / max(b.Dy()-1, 1)),
				B: tint,
				A: 255,
			}
			if x-b.Min.X == bar {
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
}
