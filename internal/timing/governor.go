// Package timing paces frame delivery toward a desired frame rate.
//
// Pacing never drops frames. When playback falls behind the budget the next
// frame is released immediately; only the sleep is skipped.
package timing

import (
	"math"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// fpsSmoothing is the weight of the newest interval in the actual-rate average.
const fpsSmoothing = 0.2

// FrameInterval returns the delivery budget for one frame at fps.
func FrameInterval(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}

// ShouldDeliverNow reports whether a frame may be delivered at now given the
// previous delivery time. A zero last time always delivers.
func ShouldDeliverNow(desiredFPS float64, last, now time.Time) bool {
	if last.IsZero() || desiredFPS <= 0 {
		return true
	}
	return now.Sub(last) >= FrameInterval(desiredFPS)
}

// Governor decides when the next buffered frame may be released. It is driven
// from the scheduler's control loop; ActualFPS may be read from any goroutine.
//
// Pacing uses a token bucket of depth one refilled at the desired rate, so a
// delivery is allowed once a full frame interval has passed since the previous
// one and a late frame is never held back.
type Governor struct {
	limiter      *rate.Limiter
	desired      float64
	lastDelivery time.Time
	actualBits   atomic.Uint64
}

// NewGovernor creates a governor for the desired rate.
func NewGovernor(desiredFPS float64) *Governor {
	return &Governor{
		limiter: rate.NewLimiter(rate.Limit(desiredFPS), 1),
		desired: desiredFPS,
	}
}

// DesiredFPS returns the target rate.
func (g *Governor) DesiredFPS() float64 {
	return g.desired
}

// SetDesiredFPS changes the target rate from now on.
func (g *Governor) SetDesiredFPS(fps float64, now time.Time) {
	g.desired = fps
	g.limiter.SetLimitAt(now, rate.Limit(fps))
}

// ShouldDeliverNow reports whether the next frame may be released at now.
func (g *Governor) ShouldDeliverNow(now time.Time) bool {
	return g.limiter.TokensAt(now) >= 1
}

// Delay returns how long to wait from now before ShouldDeliverNow turns true.
func (g *Governor) Delay(now time.Time) time.Duration {
	missing := 1 - g.limiter.TokensAt(now)
	if missing <= 0 || g.desired <= 0 {
		return 0
	}
	d := time.Duration(math.Ceil(missing / g.desired * float64(time.Second)))
	return max(d, time.Millisecond)
}

// Delivered records a delivery at now, consuming the pacing budget and
// updating the actual rate.
func (g *Governor) Delivered(now time.Time) {
	g.limiter.AllowN(now, 1)

	if !g.lastDelivery.IsZero() {
		if interval := now.Sub(g.lastDelivery); interval > 0 {
			inst := float64(time.Second) / float64(interval)
			prev := g.ActualFPS()
			next := inst
			if prev > 0 {
				next = prev + fpsSmoothing*(inst-prev)
			}
			g.actualBits.Store(math.Float64bits(next))
		}
	}
	g.lastDelivery = now
}

// ActualFPS returns the smoothed observed delivery rate, 0 before two
// deliveries have been made.
func (g *Governor) ActualFPS() float64 {
	return math.Float64frombits(g.actualBits.Load())
}

// Reset starts a new pacing run: the first frame after Reset is released
// immediately and the observed rate starts over.
func (g *Governor) Reset() {
	g.limiter = rate.NewLimiter(rate.Limit(g.desired), 1)
	g.lastDelivery = time.Time{}
	g.actualBits.Store(0)
}
