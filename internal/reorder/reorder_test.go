package reorder

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/five82/cadence/internal/frame"
)

type trackedPayload struct {
	released *int
}

func (p trackedPayload) Release() { *p.released++ }

func result(t int, dir frame.Direction, seq uint64) frame.Result {
	return frame.Succeeded(frame.Request{Time: t, Direction: dir, Seq: seq}, t)
}

func TestPeekReadyIsStrict(t *testing.T) {
	b := New()
	b.Insert(2, result(2, frame.Forward, 2))

	if _, ok := b.PeekReady(1); ok {
		t.Error("PeekReady(1) should miss while only 2 is buffered")
	}

	res, ok := b.PeekReady(2)
	if !ok || res.Request.Time != 2 {
		t.Errorf("PeekReady(2) = %v, %v, want frame 2", res.Request.Time, ok)
	}
	if b.Len() != 1 {
		t.Error("PeekReady must not remove the slot")
	}
}

func TestPopReadyRemoves(t *testing.T) {
	b := New()
	b.Insert(5, result(5, frame.Forward, 5))

	res, ok := b.PopReady(5)
	if !ok || res.Request.Time != 5 {
		t.Fatalf("PopReady(5) = %v, %v", res.Request.Time, ok)
	}
	if b.Contains(5) || b.Len() != 0 {
		t.Error("PopReady should remove the slot")
	}
	if _, ok := b.PopReady(5); ok {
		t.Error("a slot can only be popped once")
	}
}

func TestInsertOverwriteReleasesOld(t *testing.T) {
	released := 0
	b := New()
	req := frame.Request{Time: 3, Direction: frame.Forward}

	b.Insert(3, frame.Succeeded(req, trackedPayload{released: &released}))
	b.Insert(3, frame.Succeeded(req, "second"))

	if released != 1 {
		t.Errorf("released = %d, want 1", released)
	}
	if b.Len() != 1 {
		t.Errorf("Len() = %d, want 1", b.Len())
	}
	res, _ := b.PeekReady(3)
	if res.Payload != "second" {
		t.Errorf("payload = %v, want second", res.Payload)
	}
}

func TestFailedResultsHoldTheirSlot(t *testing.T) {
	b := New()
	b.Insert(1, frame.Failed(frame.Request{Time: 1}, nil))

	res, ok := b.PopReady(1)
	if !ok || res.Status != frame.StatusFailed {
		t.Errorf("failed result should be releasable in order, got %v, %v", res.Status, ok)
	}
}

// In-order release holds for any completion order, including plans that
// visit the same frame time in both directions.
func TestReleaseOrderForAnyCompletionOrder(t *testing.T) {
	plans := map[string][]int{
		"forward":         {1, 2, 3, 4, 5, 6, 7, 8},
		"backward":        {8, 7, 6, 5, 4, 3, 2, 1},
		"bounce-via-zero": {-2, -1, 0, 1, 2, 1, 0, -1, -2},
	}
	for name, times := range plans {
		t.Run(name, func(t *testing.T) {
			rng := rand.New(rand.NewPCG(1, uint64(len(times))))

			for trial := 0; trial < 50; trial++ {
				order := make([]int, len(times))
				for i := range order {
					order[i] = i
				}
				rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

				b := New()
				next := 0
				var delivered []int
				for _, seq := range order {
					b.Insert(uint64(seq), result(times[seq], frame.Forward, uint64(seq)))
					for next < len(times) {
						res, ok := b.PopReady(uint64(next))
						if !ok {
							break
						}
						delivered = append(delivered, res.Request.Time)
						next++
					}
				}

				if !slices.Equal(delivered, times) {
					t.Fatalf("completion order %v delivered %v, want %v", order, delivered, times)
				}
			}
		})
	}
}

func TestPositionsAscending(t *testing.T) {
	b := New()
	for _, seq := range []uint64{9, 4, 7} {
		b.Insert(seq, result(int(seq), frame.Backward, seq))
	}

	got := b.Positions()
	want := []uint64{4, 7, 9}
	if !slices.Equal(got, want) {
		t.Errorf("Positions() = %v, want %v", got, want)
	}
}

func TestDrainReleasesEverything(t *testing.T) {
	released := 0
	b := New()
	for i := uint64(1); i <= 3; i++ {
		b.Insert(i, frame.Succeeded(frame.Request{Time: int(i), Seq: i}, trackedPayload{released: &released}))
	}

	if n := b.Drain(); n != 3 {
		t.Errorf("Drain() = %d, want 3", n)
	}
	if released != 3 {
		t.Errorf("released = %d, want 3", released)
	}
	if b.Len() != 0 {
		t.Errorf("Len() = %d after Drain(), want 0", b.Len())
	}
}
