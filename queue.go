package iterqueue

import (
	"context"
	"io"
	"sync"

	"github.com/joeycumines/logiface"

	"github.com/randomizedcoder/go-iterqueue/internal/cancel"
	"github.com/randomizedcoder/go-iterqueue/internal/queue"
)

// initial storage for the unbounded buffer, grows by doubling
const defaultBufferSize = 64

type (
	// Queue is a FIFO shared by any number of producers and consumers.
	//
	// Producers add items from within a scope, see Open and Produce.
	// Consumers pull items with Next (or Iter, All), which blocks until an
	// item is available, or the stream ends. The stream ends once no producer
	// scope is open and the buffer is empty, or once the queue is canceled.
	// Either way it stays ended: scopes opened later cannot add items.
	//
	// Instances must be initialized using the New factory.
	Queue[T any] struct {
		// all fields below are guarded by mu
		mu sync.Mutex

		// consumers wait here: item available, end of stream, or canceled
		readable sync.Cond

		// bounded producers wait here: room available, or canceled
		writable sync.Cond

		buf           queue.Queue[T]
		capacity      int
		producers     int
		started       bool
		ended         bool
		canceled      bool
		awaitProducer bool
		stats         Stats
		unwatch       func() bool

		// closed after canceled is set
		canceler *cancel.ContextCanceler
		logger   *logiface.Logger[logiface.Event]
	}

	// Stats are cumulative counters, see Queue.Stats.
	Stats struct {
		// Put is the number of items accepted from producers.
		Put uint64
		// Delivered is the number of items handed to consumers.
		Delivered uint64
		// Discarded is the number of buffered items dropped by Cancel.
		Discarded uint64
	}
)

// New initializes a Queue. An error is returned for invalid options.
func New[T any](opts ...Option) (*Queue[T], error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	q := &Queue[T]{
		capacity:      cfg.capacity,
		awaitProducer: cfg.awaitProducer,
		canceler:      cancel.NewContext(context.Background()),
		logger:        cfg.logger,
	}
	q.readable.L = &q.mu
	q.writable.L = &q.mu

	if cfg.capacity > 0 {
		q.buf = queue.NewChannel[T](cfg.capacity)
	} else {
		q.buf = queue.NewGrowable[T](defaultBufferSize)
	}

	if cfg.ctx.Err() != nil {
		q.Cancel()
	} else if cfg.ctx.Done() != nil {
		unwatch := context.AfterFunc(cfg.ctx, q.Cancel)
		q.mu.Lock()
		q.unwatch = unwatch
		q.mu.Unlock()
	}

	return q, nil
}

// Open enters a producer scope. The returned Producer must be closed exactly
// once, typically via defer. The stream cannot end while it is open.
//
// Opening a scope on a canceled queue succeeds, but every Put will fail with
// ErrCanceled. Likewise, once the stream has ended, every Put fails with
// ErrEnded.
func (q *Queue[T]) Open() *Producer[T] {
	q.mu.Lock()
	q.producers++
	q.started = true
	n := q.producers
	canceled := q.canceled
	q.mu.Unlock()

	q.logger.Debug().
		Int(`producers`, n).
		Bool(`canceled`, canceled).
		Log(`producer opened`)

	return &Producer[T]{q: q}
}

// Produce runs fn within a producer scope, closing it on every exit path,
// including panics. It returns the error from fn.
//
// fn must not close p itself.
func (q *Queue[T]) Produce(fn func(p *Producer[T]) error) error {
	p := q.Open()
	defer p.Close()
	return fn(p)
}

// release exits the scope held by p.
func (q *Queue[T]) release(p *Producer[T]) {
	q.mu.Lock()

	if p.closed || q.producers <= 0 {
		q.mu.Unlock()
		err := violation(`producer scope released more than once`)
		q.logger.Err().
			Err(err).
			Log(`producer scope violation`)
		panic(err)
	}

	p.closed = true
	q.producers--
	n := q.producers
	buffered := q.buf.Len()
	canceled := q.canceled
	ended := q.ended

	if n == 0 {
		if buffered == 0 {
			q.ended = true
		}
		// Every waiting consumer must re-check: the buffer may already be
		// empty, or become empty by another consumer's pop, and the waiters
		// would otherwise never be signaled again.
		q.readable.Broadcast()
	}

	q.mu.Unlock()

	q.logger.Debug().
		Int(`producers`, n).
		Log(`producer closed`)

	if n == 0 && !canceled && !ended {
		q.logger.Info().
			Int(`buffered`, buffered).
			Log(`all producers closed`)
	}
}

// Next blocks until an item is available, returning it, or until the stream
// ends, returning false. Buffered items are always delivered before a
// natural end is reported. After Cancel, Next always returns false.
func (q *Queue[T]) Next() (T, bool) {
	v, err := q.next(nil)
	return v, err == nil
}

// NextContext is like Next, but reports why no item was returned: io.EOF
// once the stream has ended naturally, ErrCanceled if the queue was canceled,
// or ctx.Err() if ctx is done first.
func (q *Queue[T]) NextContext(ctx context.Context) (T, error) {
	if ctx == nil {
		panic(`iterqueue: nil context`)
	}
	return q.next(ctx)
}

// TryNext returns the next item without blocking. It returns ErrEmpty if the
// stream is still open but nothing is buffered, io.EOF once it has ended, or
// ErrCanceled.
func (q *Queue[T]) TryNext() (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if q.canceled {
		return zero, ErrCanceled
	}
	if v, ok := q.popLocked(); ok {
		return v, nil
	}
	if q.endedLocked() {
		return zero, io.EOF
	}
	return zero, ErrEmpty
}

// next implements the blocking consumer protocol. A nil ctx never expires.
func (q *Queue[T]) next(ctx context.Context) (T, error) {
	if ctx != nil && ctx.Done() != nil {
		stop := context.AfterFunc(ctx, func() {
			// locking orders this after any waiter's ctx check
			q.mu.Lock()
			q.readable.Broadcast()
			q.mu.Unlock()
		})
		defer stop()
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	for {
		if q.canceled {
			return zero, ErrCanceled
		}
		if v, ok := q.popLocked(); ok {
			return v, nil
		}
		if q.endedLocked() {
			return zero, io.EOF
		}
		if ctx != nil {
			if err := ctx.Err(); err != nil {
				return zero, err
			}
		}
		q.readable.Wait()
	}
}

func (q *Queue[T]) popLocked() (T, bool) {
	v, ok := q.buf.Pop()
	if ok {
		q.stats.Delivered++
		if q.producers == 0 && q.buf.Len() == 0 {
			// drained after the last scope closed
			q.ended = true
		}
		if q.capacity > 0 {
			q.writable.Signal()
		}
	}
	return v, ok
}

// endedLocked reports natural exhaustion, assuming the buffer was just
// found empty. Once a scope has been opened, exhaustion is latched by ended.
// Before that, an empty queue has ended unless awaitProducer is set.
func (q *Queue[T]) endedLocked() bool {
	if q.ended {
		return true
	}
	return !q.started && q.producers == 0 && !q.awaitProducer
}

// put implements the producer protocol for p. A nil ctx never expires.
func (q *Queue[T]) put(ctx context.Context, p *Producer[T], v T, block bool) error {
	if block && q.capacity > 0 && ctx != nil && ctx.Done() != nil {
		stop := context.AfterFunc(ctx, func() {
			q.mu.Lock()
			q.writable.Broadcast()
			q.mu.Unlock()
		})
		defer stop()
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		if p.closed {
			return ErrProducerClosed
		}
		if q.canceled {
			return ErrCanceled
		}
		if q.ended {
			return ErrEnded
		}
		if q.buf.Push(v) {
			q.stats.Put++
			q.readable.Signal()
			return nil
		}
		if !block {
			return ErrFull
		}
		if ctx != nil {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		q.writable.Wait()
	}
}

// Cancel ends the stream immediately, for every producer and consumer.
// Buffered items are discarded. Blocked calls return promptly. Cancel may be
// called any number of times, from any goroutine.
func (q *Queue[T]) Cancel() {
	q.mu.Lock()
	if q.canceled {
		q.mu.Unlock()
		return
	}
	q.canceled = true
	discarded := q.buf.Clear()
	q.stats.Discarded += uint64(discarded)
	unwatch := q.unwatch
	q.unwatch = nil
	producers := q.producers
	q.readable.Broadcast()
	q.writable.Broadcast()
	q.mu.Unlock()

	q.canceler.Cancel()
	if unwatch != nil {
		unwatch()
	}

	q.logger.Notice().
		Int(`discarded`, discarded).
		Int(`producers`, producers).
		Log(`queue canceled`)
}

// Canceled reports whether Cancel has been called.
func (q *Queue[T]) Canceled() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.canceled
}

// Done returns a channel that is closed once the queue is canceled. It is
// not closed on natural exhaustion.
func (q *Queue[T]) Done() <-chan struct{} {
	return q.canceler.Context().Done()
}

// Err returns ErrCanceled if the queue has been canceled, otherwise nil.
func (q *Queue[T]) Err() error {
	if q.Canceled() {
		return ErrCanceled
	}
	return nil
}

// Status returns the current producer-side state.
func (q *Queue[T]) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()
	switch {
	case q.canceled:
		return StatusCanceled
	case q.ended:
		return StatusStopped
	case q.producers > 0:
		return StatusStarted
	case q.started:
		return StatusStopped
	default:
		return StatusUnstarted
	}
}

// Producers returns the number of open producer scopes.
func (q *Queue[T]) Producers() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.producers
}

// Len returns the number of buffered items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.buf.Len()
}

// Cap returns the configured capacity, or 0 if unbounded.
func (q *Queue[T]) Cap() int {
	return q.capacity
}

// Stats returns a snapshot of the queue's counters.
func (q *Queue[T]) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stats
}
