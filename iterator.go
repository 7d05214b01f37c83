package iterqueue

import (
	"context"
	"errors"
	"io"
	"iter"
)

// Iterator is a forward-only view over a Queue, for use in a loop:
//
//	it := q.Iter()
//	for it.Next() {
//		use(it.Value())
//	}
//	if err := it.Err(); err != nil {
//		// canceled
//	}
//
// Once Next returns false, it keeps returning false, even if new producer
// scopes are opened later. Each Iterator must be used by one goroutine, but
// any number of them may compete for the items of one Queue.
type Iterator[T any] struct {
	q     *Queue[T]
	ctx   context.Context
	value T
	err   error
	done  bool
}

// Iter returns a new Iterator over q.
func (q *Queue[T]) Iter() *Iterator[T] {
	return &Iterator[T]{q: q}
}

// IterContext returns a new Iterator over q that also stops when ctx is done.
func (q *Queue[T]) IterContext(ctx context.Context) *Iterator[T] {
	if ctx == nil {
		panic(`iterqueue: nil context`)
	}
	return &Iterator[T]{q: q, ctx: ctx}
}

// Next blocks until the next item is available, returning true, or until the
// stream ends, returning false.
func (x *Iterator[T]) Next() bool {
	if x.done {
		return false
	}
	v, err := x.q.next(x.ctx)
	if err != nil {
		var zero T
		x.value = zero
		x.done = true
		if !errors.Is(err, io.EOF) {
			x.err = err
		}
		return false
	}
	x.value = v
	return true
}

// Value returns the item received by the last successful call to Next.
func (x *Iterator[T]) Value() T {
	return x.value
}

// Err returns nil if iteration ended because the stream was exhausted,
// ErrCanceled if the queue was canceled, or the context's error.
func (x *Iterator[T]) Err() error {
	return x.err
}

// All returns a sequence that yields items until the stream ends.
//
//	for v := range q.All() {
//		...
//	}
func (q *Queue[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, ok := q.Next()
			if !ok || !yield(v) {
				return
			}
		}
	}
}

// Available returns a sequence that yields the currently buffered items,
// stopping as soon as the buffer is empty. It never blocks waiting for
// producers.
func (q *Queue[T]) Available() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, err := q.TryNext()
			if err != nil || !yield(v) {
				return
			}
		}
	}
}
