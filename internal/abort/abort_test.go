package abort

import (
	"runtime"
	"sync"
	"testing"
)

func TestNewEpochMonotonic(t *testing.T) {
	var s Signal
	if s.Epoch() != 0 {
		t.Fatalf("zero Signal epoch = %d, want 0", s.Epoch())
	}

	prev := s.Epoch()
	for i := 0; i < 10; i++ {
		e := s.NewEpoch()
		if e != prev+1 {
			t.Fatalf("NewEpoch() = %d, want %d", e, prev+1)
		}
		prev = e
	}
}

func TestSnapshotStale(t *testing.T) {
	var s Signal
	snap := s.Snapshot()

	if s.IsStale(snap) || snap.Stale() || snap.Aborted() {
		t.Fatal("fresh snapshot should not be stale")
	}

	s.NewEpoch()
	if !s.IsStale(snap) {
		t.Error("IsStale() = false after NewEpoch(), want true")
	}
	if !snap.Stale() || !snap.Aborted() {
		t.Error("snapshot should report stale after NewEpoch()")
	}

	current := s.Snapshot()
	if current.Stale() {
		t.Error("snapshot of the current epoch should not be stale")
	}
}

func TestCancelClearedByNewEpoch(t *testing.T) {
	var s Signal
	snap := s.Snapshot()

	s.Cancel()
	if !snap.Aborted() {
		t.Error("Aborted() = false after Cancel(), want true")
	}
	if snap.Stale() {
		t.Error("Cancel() should not change the epoch")
	}

	s.NewEpoch()
	if s.Cancelled() {
		t.Error("NewEpoch() should clear the cancelled flag")
	}
	if s.Snapshot().Aborted() {
		t.Error("snapshot of a new epoch should not be aborted")
	}
}

func TestZeroSnapshotNeverAborts(t *testing.T) {
	var snap Snapshot
	if snap.Stale() || snap.Aborted() {
		t.Error("zero Snapshot should never report aborted")
	}
}

func TestConcurrentReaders(t *testing.T) {
	var s Signal
	snaps := make([]Snapshot, 0, 8)
	for i := 0; i < 8; i++ {
		snaps = append(snaps, s.Snapshot())
	}

	var wg sync.WaitGroup
	for _, snap := range snaps {
		wg.Add(1)
		go func(snap Snapshot) {
			defer wg.Done()
			for !snap.Aborted() {
				runtime.Gosched()
			}
		}(snap)
	}

	s.NewEpoch()
	wg.Wait()
}
