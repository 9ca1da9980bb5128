package main

import (
	"sync/atomic"

	"github.com/five82/cadence"
	"github.com/five82/cadence/internal/synth"
)

// displaySink stands in for a viewer: it accepts frames, accounts for them
// and hands their buffers back to the renderer.
type displaySink struct {
	delivered atomic.Uint64
	failed    atomic.Uint64
	pixels    atomic.Uint64
	last      atomic.Int64
}

func (s *displaySink) Deliver(res cadence.Result) {
	if f, ok := res.Payload.(*synth.Frame); ok && f.Image != nil {
		s.pixels.Add(uint64(len(f.Image.Pix) / 4))
	}
	s.last.Store(int64(res.Request.Time))
	s.delivered.Add(1)
	res.Release()
}

func (s *displaySink) NotifyFailure(t int, _ error) {
	s.last.Store(int64(t))
	s.failed.Add(1)
}
