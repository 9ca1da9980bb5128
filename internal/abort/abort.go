// Package abort provides epoch-based cooperative cancellation for render work.
//
// The scheduler is the single writer: it mints a new epoch on every seek,
// pause, abort or re-plan. Workers hold a Snapshot taken at submission and
// poll it at their checkpoints; a snapshot whose epoch is no longer current
// reports itself as aborted.
package abort

import "sync/atomic"

// Signal is the shared cancellation token. The zero value is ready to use
// and starts at epoch 0.
type Signal struct {
	epoch     atomic.Uint64
	cancelled atomic.Bool
}

// NewEpoch invalidates every outstanding snapshot and returns the new epoch.
// The cancelled flag is cleared for the new epoch.
func (s *Signal) NewEpoch() uint64 {
	s.cancelled.Store(false)
	return s.epoch.Add(1)
}

// Epoch returns the current epoch.
func (s *Signal) Epoch() uint64 {
	return s.epoch.Load()
}

// Cancel marks the current epoch as cancelled without minting a new one.
// Used on shutdown so in-flight work stops at its next checkpoint.
func (s *Signal) Cancel() {
	s.cancelled.Store(true)
}

// Cancelled reports whether the current epoch has been cancelled.
func (s *Signal) Cancelled() bool {
	return s.cancelled.Load()
}

// Snapshot captures the current epoch.
func (s *Signal) Snapshot() Snapshot {
	return Snapshot{signal: s, epoch: s.epoch.Load()}
}

// IsStale reports whether snap was taken under an epoch that is no longer current.
func (s *Signal) IsStale(snap Snapshot) bool {
	return s.epoch.Load() != snap.epoch
}

// Snapshot is the capability handed to a render call. It is a small value and
// safe to copy and poll from any goroutine.
type Snapshot struct {
	signal *Signal
	epoch  uint64
}

// Epoch returns the epoch the snapshot was taken under.
func (s Snapshot) Epoch() uint64 {
	return s.epoch
}

// Stale reports whether a newer epoch has been minted since the snapshot.
func (s Snapshot) Stale() bool {
	if s.signal == nil {
		return false
	}
	return s.signal.IsStale(s)
}

// Aborted reports whether work under this snapshot should stop: the epoch is
// stale or the signal was cancelled.
func (s Snapshot) Aborted() bool {
	if s.signal == nil {
		return false
	}
	if s.signal.IsStale(s) {
		return true
	}
	return s.signal.Cancelled()
}
