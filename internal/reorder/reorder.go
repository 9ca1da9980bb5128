// Package reorder holds completed frames until they can be released in
// sequence order.
package reorder

import (
	"slices"

	"github.com/five82/cadence/internal/frame"
)

// Buffer maps sequence positions (plan ordinals assigned by the scheduler) to
// completed results. It is owned by a single goroutine (the scheduler's
// control loop) and is not safe for concurrent use.
//
// Results are only released when they sit at exactly the position the caller
// expects next; out-of-order completions wait in the buffer.
type Buffer struct {
	slots map[uint64]frame.Result
}

// New creates an empty buffer.
func New() *Buffer {
	return &Buffer{slots: make(map[uint64]frame.Result)}
}

// Insert stores res at pos. A second insert for the same position replaces
// the first and releases its payload.
func (b *Buffer) Insert(pos uint64, res frame.Result) {
	if old, ok := b.slots[pos]; ok {
		old.Release()
	}
	b.slots[pos] = res
}

// PeekReady returns the result at expected without removing it.
func (b *Buffer) PeekReady(expected uint64) (frame.Result, bool) {
	res, ok := b.slots[expected]
	return res, ok
}

// PopReady removes and returns the result at expected. Ownership of the
// payload passes to the caller.
func (b *Buffer) PopReady(expected uint64) (frame.Result, bool) {
	res, ok := b.slots[expected]
	if ok {
		delete(b.slots, expected)
	}
	return res, ok
}

// Contains reports whether a result is held at pos.
func (b *Buffer) Contains(pos uint64) bool {
	_, ok := b.slots[pos]
	return ok
}

// Len returns the number of held results.
func (b *Buffer) Len() int {
	return len(b.slots)
}

// Positions returns the held positions in delivery (ascending) order.
func (b *Buffer) Positions() []uint64 {
	positions := make([]uint64, 0, len(b.slots))
	for pos := range b.slots {
		positions = append(positions, pos)
	}
	slices.Sort(positions)
	return positions
}

// Drain empties the buffer without delivering anything, releasing every
// payload. Returns the number of discarded results.
func (b *Buffer) Drain() int {
	n := len(b.slots)
	for pos, res := range b.slots {
		res.Release()
		delete(b.slots, pos)
	}
	return n
}
