// Package queue provides the item storage that sits behind the shared queue's
// mutex.
//
// Two implementations of the Queue interface are provided:
//   - RingBuffer: power-of-two ring, optionally growable (unbounded mode)
//   - ChannelQueue: buffered channel with an exact capacity (bounded mode)
//
// # Serialization (IMPORTANT)
//
// None of these types synchronize on their own. Every call must be made while
// holding the owner's lock. RingBuffer includes a runtime guard that panics
// if two calls overlap, which catches a missing lock early.
package queue

// Queue is a FIFO store of pending items.
//
// Implementations are non-blocking: Push returns false if full,
// Pop returns false if empty.
type Queue[T any] interface {
	// Push appends an item.
	// Returns false if the queue is full.
	Push(T) bool

	// Pop removes and returns the oldest item.
	// Returns false if the queue is empty.
	Pop() (T, bool)

	// Len returns the number of stored items.
	Len() int

	// Clear discards every stored item, returning how many were dropped.
	Clear() int
}
