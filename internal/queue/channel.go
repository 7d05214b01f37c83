package queue

// ChannelQueue wraps a buffered channel as a Queue.
//
// It backs the bounded mode, since the channel capacity is exactly the
// configured limit (RingBuffer rounds up to a power of two).
type ChannelQueue[T any] struct {
	ch chan T
}

// NewChannel creates a ChannelQueue holding at most size items.
func NewChannel[T any](size int) *ChannelQueue[T] {
	if size < 1 {
		size = 1
	}
	return &ChannelQueue[T]{
		ch: make(chan T, size),
	}
}

// Push adds an item to the queue.
// Returns false if the queue is full (non-blocking).
func (q *ChannelQueue[T]) Push(v T) bool {
	select {
	case q.ch <- v:
		return true
	default:
		return false
	}
}

// Pop removes and returns an item from the queue.
// Returns false if the queue is empty (non-blocking).
func (q *ChannelQueue[T]) Pop() (T, bool) {
	select {
	case v := <-q.ch:
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// Len returns the current number of items in the queue.
func (q *ChannelQueue[T]) Len() int {
	return len(q.ch)
}

// Cap returns the capacity of the queue.
func (q *ChannelQueue[T]) Cap() int {
	return cap(q.ch)
}

// Clear drains the channel.
func (q *ChannelQueue[T]) Clear() int {
	var n int
	for {
		select {
		case <-q.ch:
			n++
		default:
			return n
		}
	}
}
