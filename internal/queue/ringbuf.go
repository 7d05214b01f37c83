package queue

import (
	"sync/atomic"
)

// RingBuffer is a FIFO ring over a power-of-two slice.
//
// A growable RingBuffer doubles its storage instead of rejecting a Push,
// which is how the shared queue provides unbounded capacity without
// reallocating on every append.
//
// WARNING: RingBuffer is NOT safe for concurrent use. The caller must
// serialize every method call. The guard panics if two calls overlap.
type RingBuffer[T any] struct {
	buf  []T
	mask uint64
	head uint64 // next write position
	tail uint64 // next read position
	grow bool

	// guard: detects unserialized access
	active atomic.Uint32
}

// NewRingBuffer creates a fixed-size RingBuffer.
// Size will be rounded up to the next power of 2.
func NewRingBuffer[T any](size int) *RingBuffer[T] {
	n := roundPow2(size)
	return &RingBuffer[T]{
		buf:  make([]T, n),
		mask: n - 1,
	}
}

// NewGrowable creates a RingBuffer that starts with the given size (rounded
// up to a power of 2) and doubles whenever a Push would not fit.
func NewGrowable[T any](size int) *RingBuffer[T] {
	r := NewRingBuffer[T](size)
	r.grow = true
	return r
}

func roundPow2(size int) uint64 {
	n := uint64(1)
	for n < uint64(max(size, 1)) {
		n <<= 1
	}
	return n
}

// Push adds an item to the queue.
// Returns false if the queue is full and not growable.
func (r *RingBuffer[T]) Push(v T) bool {
	r.enter("Push")
	defer r.active.Store(0)

	if r.head-r.tail >= uint64(len(r.buf)) {
		if !r.grow {
			return false
		}
		r.resize(uint64(len(r.buf)) << 1)
	}

	r.buf[r.head&r.mask] = v
	r.head++

	return true
}

// Pop removes and returns an item from the queue.
// Returns false if the queue is empty.
func (r *RingBuffer[T]) Pop() (T, bool) {
	r.enter("Pop")
	defer r.active.Store(0)

	var zero T
	if r.tail >= r.head {
		return zero, false
	}

	i := r.tail & r.mask
	v := r.buf[i]
	r.buf[i] = zero // release the reference
	r.tail++

	return v, true
}

// Len returns the current number of items in the queue.
func (r *RingBuffer[T]) Len() int {
	return int(r.head - r.tail)
}

// Cap returns the current storage size of the queue.
func (r *RingBuffer[T]) Cap() int {
	return len(r.buf)
}

// Clear discards all items, keeping the current storage.
func (r *RingBuffer[T]) Clear() int {
	r.enter("Clear")
	defer r.active.Store(0)

	n := int(r.head - r.tail)
	clear(r.buf)
	r.head, r.tail = 0, 0
	return n
}

func (r *RingBuffer[T]) resize(n uint64) {
	buf := make([]T, n)
	for i := r.tail; i < r.head; i++ {
		buf[i-r.tail] = r.buf[i&r.mask]
	}
	r.head -= r.tail
	r.tail = 0
	r.buf = buf
	r.mask = n - 1
}

func (r *RingBuffer[T]) enter(op string) {
	if !r.active.CompareAndSwap(0, 1) {
		panic("queue: concurrent " + op + " on RingBuffer - calls must be serialized by the owner")
	}
}
