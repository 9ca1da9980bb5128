package scheduler

import (
	"fmt"
	"time"

	"github.com/five82/cadence/internal/config"
	"github.com/five82/cadence/internal/errors"
	"github.com/five82/cadence/internal/frame"
	"github.com/five82/cadence/internal/reporter"
)

func (s *Scheduler) handle(cmd command) {
	switch cmd.kind {
	case cmdPlay:
		s.handlePlay(cmd.dir)
	case cmdPause:
		s.handlePause()
	case cmdSeek:
		s.handleSeek(cmd.time, cmd.policy)
	case cmdAbort:
		s.handleAbort()
	case cmdSetFPS:
		s.handleSetFPS(cmd.fps)
	case cmdSetBounds:
		s.handleSetBounds(cmd.bounds)
	case cmdSetLoopMode:
		s.handleSetLoopMode(cmd.mode)
	}
}

func (s *Scheduler) handlePlay(dir frame.Direction) {
	if err := s.cfg.Bounds.Validate(); err != nil {
		s.log.Error("cannot start playback", "error", err)
		s.rep.Error(reporter.ReporterError{
			Title:   "Cannot start playback",
			Message: err.Error(),
		})
		return
	}
	if s.state == playingState(dir) {
		return
	}

	fresh := s.state == Stopped
	start, ok := s.resumeFrom(dir)
	if fresh || !ok {
		start = s.origin(dir)
		s.current = start.t
		s.shown = false
	}

	s.cancelPlan()
	if !s.state.Playing() {
		s.governor.Reset()
	}
	if fresh {
		s.failures = 0
		s.lastErr = nil
		s.passDelivered = 0
		s.passFailed = 0
		s.startedAt = time.Now()
		s.rep.PlaybackStarted(reporter.PlaybackInfo{
			Workers:    s.cfg.Workers,
			Lookahead:  s.cfg.Lookahead(),
			DesiredFPS: s.cfg.DesiredFPS,
			First:      s.cfg.Bounds.First,
			Last:       s.cfg.Bounds.Last,
			LoopMode:   s.cfg.LoopMode.String(),
			Direction:  dir.String(),
		})
	}
	s.start(start)
}

func (s *Scheduler) handlePause() {
	s.cancelPlan()
	if s.state.Playing() {
		s.setState(Paused)
	}
}

func (s *Scheduler) handleSeek(t int, policy SeekPolicy) {
	prev := s.state
	s.cancelPlan()
	s.current = s.cfg.Bounds.Clamp(t)
	s.shown = false
	s.setState(Seeking)

	if policy == SeekResume && prev.Playing() {
		s.start(cursor{t: s.current, dir: prev.Direction()})
		return
	}
	s.setState(Paused)
}

func (s *Scheduler) handleAbort() {
	s.cancelPlan()
	s.current = s.cfg.Bounds.First
	s.shown = false
	s.failures = 0
	s.lastErr = nil
	s.setState(Stopped)
}

func (s *Scheduler) handleSetFPS(fps float64) {
	s.cfg.DesiredFPS = fps
	s.governor.SetDesiredFPS(fps, time.Now())
	s.stopPacing()
	s.log.Debug("desired fps changed", "fps", fps)
}

func (s *Scheduler) handleSetBounds(b config.Bounds) {
	s.cfg.Bounds = b
	if c := b.Clamp(s.current); c != s.current {
		s.current = c
		s.shown = false
	}
	s.log.Debug("bounds changed", "bounds", b, "frame", s.current)
	s.replan()
}

func (s *Scheduler) handleSetLoopMode(mode config.LoopMode) {
	s.cfg.LoopMode = mode
	s.log.Debug("loop mode changed", "mode", mode)
	s.replan()
}

// replan restarts an active playback from the playhead under a new epoch.
func (s *Scheduler) replan() {
	if !s.state.Playing() {
		return
	}
	start, ok := s.resumeFrom(s.dir)
	if !ok {
		start = s.origin(s.dir)
		s.current = start.t
		s.shown = false
	}
	s.cancelPlan()
	s.start(start)
}

// origin is where playback in dir begins from Stopped.
func (s *Scheduler) origin(dir frame.Direction) cursor {
	if dir == frame.Backward {
		return cursor{t: s.cfg.Bounds.Last, dir: dir}
	}
	return cursor{t: s.cfg.Bounds.First, dir: dir}
}

// resumeFrom returns the first frame to play in dir from the playhead: the
// current frame if it has not been shown yet, otherwise the one after it.
// It reports false when a Once pass has nothing left in that direction.
func (s *Scheduler) resumeFrom(dir frame.Direction) (cursor, bool) {
	c := cursor{t: s.cfg.Bounds.Clamp(s.current), dir: dir}
	if !s.shown || c.t != s.current {
		return c, true
	}
	return s.step(c)
}

// step returns the cursor played after c under the current bounds and loop mode.
func (s *Scheduler) step(c cursor) (cursor, bool) {
	b := s.cfg.Bounds
	if nt := c.t + c.dir.Step(); b.Contains(nt) {
		return cursor{t: nt, dir: c.dir}, true
	}

	switch s.cfg.LoopMode {
	case config.LoopRepeat:
		return s.origin(c.dir), true
	case config.LoopBounce:
		rev := c.dir.Reverse()
		if rt := c.t + rev.Step(); b.Contains(rt) {
			return cursor{t: rt, dir: rev}, true
		}
		// Single frame range.
		return cursor{t: c.t, dir: c.dir}, true
	default:
		return cursor{}, false
	}
}

// start plans playback beginning at c. The epoch must already be fresh.
func (s *Scheduler) start(c cursor) {
	s.next = c
	s.hasNext = true
	s.dir = c.dir
	s.setState(playingState(c.dir))
}

// cancelPlan mints a new epoch and forgets every planned, in-flight and
// buffered frame of the old one.
func (s *Scheduler) cancelPlan() {
	epoch := s.signal.NewEpoch()
	held := s.buffer.Positions()
	dropped := s.buffer.Drain()
	s.discarded += uint64(dropped)
	s.pending = s.pending[:0]
	clear(s.inFlight)
	s.hasNext = false
	s.stopPacing()
	s.log.Debug("new epoch", "epoch", epoch, "dropped", dropped, "positions", held)
}

func (s *Scheduler) setState(to State) {
	if s.state == to {
		return
	}
	from := s.state
	s.state = to
	epoch := s.signal.Epoch()

	s.log.Info("state changed", "from", from, "to", to, "frame", s.current, "epoch", epoch)
	s.rep.StateChanged(reporter.StateChange{
		From:      from.String(),
		To:        to.String(),
		Direction: to.Direction().String(),
		Time:      s.current,
		Epoch:     epoch,
	})
}

func (s *Scheduler) handleCompletion(res frame.Result) {
	if res.Request.Epoch != s.signal.Epoch() {
		s.discarded++
		s.log.Debug("discarded stale result", "frame", res.Request.Time, "epoch", res.Request.Epoch, "current", s.signal.Epoch())
		res.Release()
		return
	}

	seq := res.Request.Seq
	if _, ok := s.inFlight[seq]; !ok {
		s.discarded++
		res.Release()
		return
	}
	delete(s.inFlight, seq)
	s.buffer.Insert(seq, res)
}

// cycle delivers whatever is ready, then tops up the look-ahead window.
func (s *Scheduler) cycle() {
	s.deliver()
	s.fill()
}

// fill resubmits requeued frames, then submits planned frames until the
// look-ahead window is full, the pool pushes back, or the plan ends. A frame
// time already in flight is not requested again until it completes.
func (s *Scheduler) fill() {
	if !s.state.Playing() {
		return
	}

	for i := range s.pending {
		if !s.pending[i].waiting {
			continue
		}
		c, ok := s.submit(s.pending[i])
		if !ok {
			return
		}
		c.waiting = false
		s.pending[i] = c
	}

	lookahead := s.cfg.Lookahead()
	for len(s.pending) < lookahead && s.hasNext {
		c, ok := s.submit(s.next)
		if !ok {
			return
		}
		s.pending = append(s.pending, c)
		s.next, s.hasNext = s.step(c)
	}
}

// submit requests c from the pool under a fresh plan ordinal.
func (s *Scheduler) submit(c cursor) (cursor, bool) {
	if s.timeInFlight(c.t) || s.pool.Available() == 0 {
		return c, false
	}

	c.seq = s.seq + 1
	snap := s.signal.Snapshot()
	req := frame.Request{
		Time:        c.t,
		View:        s.cfg.View,
		RenderScale: s.cfg.RenderScale,
		Sink:        s.sinkID,
		Epoch:       snap.Epoch(),
		Direction:   c.dir,
		Seq:         c.seq,
	}
	if err := s.pool.Submit(req, snap); err != nil {
		if errors.IsBackpressure(err) {
			s.log.Debug("worker pool saturated", "frame", c.t, "pending", len(s.pending))
		}
		return c, false
	}

	s.seq = c.seq
	s.submitted++
	s.inFlight[c.seq] = c.t
	return c, true
}

func (s *Scheduler) timeInFlight(t int) bool {
	for _, ft := range s.inFlight {
		if ft == t {
			return true
		}
	}
	return false
}

// deliver releases buffered frames in plan order while the governor allows.
func (s *Scheduler) deliver() {
	for s.state.Playing() && len(s.pending) > 0 {
		head := s.pending[0]
		if head.waiting {
			return
		}
		res, ok := s.buffer.PeekReady(head.seq)
		if !ok {
			return
		}

		if res.Status == frame.StatusAborted {
			s.buffer.PopReady(head.seq)
			res.Release()
			if s.requeueHead(head) {
				return
			}
		} else {
			now := time.Now()
			if !s.governor.ShouldDeliverNow(now) {
				s.armPacing(s.governor.Delay(now))
				return
			}

			s.buffer.PopReady(head.seq)
			s.pending = s.pending[1:]
			s.governor.Delivered(now)
			s.current = head.t
			s.shown = true
			if head.dir != s.dir {
				s.dir = head.dir
				s.setState(playingState(head.dir))
			}

			if !s.consume(res) {
				return
			}
			s.reportProgress()
		}

		if len(s.pending) == 0 && !s.hasNext {
			s.finishPass()
			return
		}
	}
}

// requeueHead handles a head frame the renderer abandoned without a new
// epoch. The frame is requested again until abandonRetries is used up, then
// skipped with a warning. It reports whether the frame was requeued.
func (s *Scheduler) requeueHead(head cursor) bool {
	s.discarded++
	if head.retries >= abandonRetries {
		s.pending = s.pending[1:]
		s.log.Warn("renderer abandoned frame, skipping", "frame", head.t, "attempts", head.retries+1)
		s.rep.Warning(fmt.Sprintf("frame %d skipped: renderer abandoned it %d times", head.t, head.retries+1))
		return false
	}

	head.retries++
	head.waiting = true
	s.pending[0] = head
	s.log.Warn("renderer abandoned frame, requesting again", "frame", head.t, "attempt", head.retries+1)
	return true
}

// consume hands a rendered or failed result to the sink. It returns false
// when the result tripped the failure threshold and playback stopped.
func (s *Scheduler) consume(res frame.Result) bool {
	if res.Status == frame.StatusSuccess {
		s.failures = 0
		s.delivered++
		s.passDelivered++
		s.sink.Deliver(res)
		return true
	}

	s.failures++
	s.failed++
	s.passFailed++
	if s.cfg.FailureThreshold > 0 && s.failures >= s.cfg.FailureThreshold {
		s.tripThreshold(res)
		return false
	}
	s.log.Warn("frame failed", "frame", res.Request.Time, "consecutive", s.failures, "error", res.Err)
	s.sink.NotifyFailure(res.Request.Time, res.Err)
	s.rep.FrameFailed(reporter.FrameFailure{
		Time:        res.Request.Time,
		Reason:      fmt.Sprint(res.Err),
		Consecutive: s.failures,
	})
	return true
}

func (s *Scheduler) tripThreshold(res frame.Result) {
	err := errors.NewFailureThresholdError(s.failures, res.Err)
	s.lastErr = err
	s.log.Error("stopping playback after consecutive failures", "frame", res.Request.Time, "consecutive", s.failures, "error", res.Err)

	s.cancelPlan()
	s.setState(Stopped)
	s.rep.Error(reporter.ReporterError{
		Title:      "Playback stopped",
		Message:    err.Error(),
		Context:    fmt.Sprintf("frame %d, epoch %d", res.Request.Time, res.Request.Epoch),
		Suggestion: "Check the renderer, then start playback again",
	})
}

func (s *Scheduler) finishPass() {
	s.log.Info("playback complete", "frame", s.current, "delivered", s.passDelivered, "failed", s.passFailed)
	s.setState(Stopped)
	s.rep.PlaybackComplete(reporter.PlaybackSummary{
		Delivered: s.passDelivered,
		Failed:    s.passFailed,
		LastTime:  s.current,
		Elapsed:   time.Since(s.startedAt),
		ActualFPS: s.governor.ActualFPS(),
	})
}

func (s *Scheduler) reportProgress() {
	s.rep.PlaybackProgress(reporter.ProgressSnapshot{
		Time:       s.current,
		First:      s.cfg.Bounds.First,
		Last:       s.cfg.Bounds.Last,
		Direction:  s.dir.String(),
		Delivered:  s.delivered,
		DesiredFPS: s.governor.DesiredFPS(),
		ActualFPS:  s.governor.ActualFPS(),
		InFlight:   len(s.inFlight),
		Buffered:   s.buffer.Len(),
	})
}

func (s *Scheduler) armPacing(d time.Duration) {
	if s.pacing != nil {
		return
	}
	s.pacing = time.NewTimer(d)
}

func (s *Scheduler) stopPacing() {
	if s.pacing != nil {
		s.pacing.Stop()
		s.pacing = nil
	}
}
