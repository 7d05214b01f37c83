package iterqueue

import (
	"context"
	"fmt"
)

// Producer is an open producer scope on a Queue, see Queue.Open.
//
// A Producer may be shared by goroutines that cooperate on one scope, but
// most callers open one per goroutine.
type Producer[T any] struct {
	q      *Queue[T]
	closed bool // guarded by q.mu
}

// Put appends v to the queue. For a bounded queue it blocks while the queue
// is full. It returns ErrCanceled if the queue was canceled, ErrEnded if the
// stream has already ended, or ErrProducerClosed if p was closed.
func (p *Producer[T]) Put(v T) error {
	return p.q.put(nil, p, v, true)
}

// PutContext is like Put, but gives up with ctx.Err() if ctx is done while
// waiting for room.
func (p *Producer[T]) PutContext(ctx context.Context, v T) error {
	if ctx == nil {
		panic(`iterqueue: nil context`)
	}
	return p.q.put(ctx, p, v, true)
}

// TryPut is like Put, but returns ErrFull instead of blocking.
func (p *Producer[T]) TryPut(v T) error {
	return p.q.put(nil, p, v, false)
}

// Close exits the producer scope. If it was the last open scope and nothing
// is buffered, every waiting consumer observes end-of-stream.
//
// Close panics if called more than once, since the queue can no longer tell
// when its producers are done.
func (p *Producer[T]) Close() {
	p.q.release(p)
}

func violation(msg string) error {
	return fmt.Errorf("%w: %s", ErrContractViolation, msg)
}
