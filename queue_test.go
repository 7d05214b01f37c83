package iterqueue_test

import (
	"context"
	"io"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randomizedcoder/go-iterqueue"
)

const waitTimeout = 2 * time.Second

func newQueue[T any](t *testing.T, opts ...iterqueue.Option) *iterqueue.Queue[T] {
	t.Helper()
	q, err := iterqueue.New[T](opts...)
	require.NoError(t, err)
	return q
}

// collect drains q on a new goroutine, returning a channel of the result.
func collect[T any](q *iterqueue.Queue[T]) <-chan []T {
	ch := make(chan []T, 1)
	go func() {
		ch <- slices.Collect(q.All())
	}()
	return ch
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for consumer")
		panic("unreachable")
	}
}

func TestQueue_SingleProducer(t *testing.T) {
	q := newQueue[int](t)

	p := q.Open()
	for _, v := range []int{1, 2, 3} {
		require.NoError(t, p.Put(v))
	}
	p.Close()

	assert.Equal(t, []int{1, 2, 3}, slices.Collect(q.All()))

	// stays ended
	_, ok := q.Next()
	assert.False(t, ok)
}

func TestQueue_NoProducers_ImmediateEnd(t *testing.T) {
	q := newQueue[string](t)

	v, ok := q.Next()
	assert.False(t, ok)
	assert.Empty(t, v)

	_, err := q.NextContext(context.Background())
	assert.ErrorIs(t, err, io.EOF)

	assert.Empty(t, slices.Collect(q.All()))
	assert.NoError(t, q.Err())
}

func TestQueue_TwoProducers(t *testing.T) {
	q := newQueue[int](t)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		p := q.Open()
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			defer p.Close()
			for j := 0; j < 5; j++ {
				assert.NoError(t, p.Put(base+j))
				time.Sleep(time.Millisecond)
			}
		}(i * 100)
	}

	got := receive(t, collect(q))
	wg.Wait()

	slices.Sort(got)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 100, 101, 102, 103, 104}, got)
	assert.Equal(t, iterqueue.StatusStopped, q.Status())
	assert.False(t, q.Canceled())
}

func TestQueue_ConsumerWaitsForOpenProducer(t *testing.T) {
	q := newQueue[int](t)
	p := q.Open()

	ch := collect(q)

	require.NoError(t, p.Put(1))
	time.Sleep(50 * time.Millisecond)
	select {
	case <-ch:
		t.Fatal("consumer observed end-of-stream while a producer was open")
	default:
	}

	require.NoError(t, p.Put(2))
	p.Close()

	assert.Equal(t, []int{1, 2}, receive(t, ch))
}

func TestQueue_CancelUnblocksConsumer(t *testing.T) {
	q := newQueue[int](t)
	p := q.Open()
	defer p.Close()

	done := make(chan error, 1)
	go func() {
		_, err := q.NextContext(context.Background())
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("consumer returned before cancel")
	default:
	}

	q.Cancel()

	assert.ErrorIs(t, receive(t, done), iterqueue.ErrCanceled)
	assert.Equal(t, iterqueue.StatusCanceled, q.Status())
}

func TestQueue_CancelDiscardsBuffered(t *testing.T) {
	q := newQueue[int](t)
	p := q.Open()
	for i := 0; i < 5; i++ {
		require.NoError(t, p.Put(i))
	}

	v, ok := q.Next()
	require.True(t, ok)
	require.Equal(t, 0, v)

	q.Cancel()
	q.Cancel() // idempotent

	_, ok = q.Next()
	assert.False(t, ok)
	_, err := q.TryNext()
	assert.ErrorIs(t, err, iterqueue.ErrCanceled)
	assert.Empty(t, slices.Collect(q.All()))
	assert.Zero(t, q.Len())

	assert.ErrorIs(t, p.Put(9), iterqueue.ErrCanceled)
	assert.ErrorIs(t, p.TryPut(9), iterqueue.ErrCanceled)
	p.Close()

	assert.Equal(t, iterqueue.Stats{Put: 5, Delivered: 1, Discarded: 4}, q.Stats())
	assert.ErrorIs(t, q.Err(), iterqueue.ErrCanceled)
}

func TestQueue_OpenAfterCancel(t *testing.T) {
	q := newQueue[int](t)
	q.Cancel()

	p := q.Open()
	assert.Equal(t, 1, q.Producers())
	assert.ErrorIs(t, p.Put(1), iterqueue.ErrCanceled)
	p.Close()
	assert.Zero(t, q.Producers())
	assert.Equal(t, iterqueue.StatusCanceled, q.Status())
}

func TestQueue_Done(t *testing.T) {
	q := newQueue[int](t)
	p := q.Open()
	p.Close()

	// natural exhaustion does not close Done
	select {
	case <-q.Done():
		t.Fatal("Done closed without cancel")
	default:
	}

	q.Cancel()

	select {
	case <-q.Done():
	case <-time.After(waitTimeout):
		t.Fatal("Done not closed after cancel")
	}
}

func TestQueue_Status(t *testing.T) {
	q := newQueue[int](t)
	assert.Equal(t, iterqueue.StatusUnstarted, q.Status())

	p1 := q.Open()
	p2 := q.Open()
	assert.Equal(t, iterqueue.StatusStarted, q.Status())
	assert.Equal(t, 2, q.Producers())

	p1.Close()
	assert.Equal(t, iterqueue.StatusStarted, q.Status())
	p2.Close()
	assert.Equal(t, iterqueue.StatusStopped, q.Status())
	assert.Zero(t, q.Producers())

	q.Cancel()
	assert.Equal(t, iterqueue.StatusCanceled, q.Status())
}

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status   iterqueue.Status
		expected string
	}{
		{iterqueue.StatusUnstarted, "unstarted"},
		{iterqueue.StatusStarted, "started"},
		{iterqueue.StatusStopped, "stopped"},
		{iterqueue.StatusCanceled, "canceled"},
		{iterqueue.Status(42), "unknown"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.expected, tc.status.String())
	}
}

func TestQueue_TryNext(t *testing.T) {
	q := newQueue[int](t)
	p := q.Open()

	_, err := q.TryNext()
	assert.ErrorIs(t, err, iterqueue.ErrEmpty)

	require.NoError(t, p.Put(7))
	v, err := q.TryNext()
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	require.NoError(t, p.Put(8))
	p.Close()

	// buffered item still delivered after the last scope closed
	v, err = q.TryNext()
	require.NoError(t, err)
	assert.Equal(t, 8, v)

	_, err = q.TryNext()
	assert.ErrorIs(t, err, io.EOF)
}

func TestQueue_NextContext_Timeout(t *testing.T) {
	q := newQueue[int](t)
	p := q.Open()
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := q.NextContext(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), waitTimeout)

	// the queue itself is unaffected
	assert.False(t, q.Canceled())
	require.NoError(t, p.Put(1))
	v, err := q.NextContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestQueue_NextContext_NilPanics(t *testing.T) {
	q := newQueue[int](t)
	var ctx context.Context
	assert.PanicsWithValue(t, `iterqueue: nil context`, func() {
		_, _ = q.NextContext(ctx)
	})
}

func TestQueue_NoReopenAfterExhaustion(t *testing.T) {
	q := newQueue[int](t)

	err := q.Produce(func(p *iterqueue.Producer[int]) error {
		for i := 1; i <= 3; i++ {
			if err := p.Put(i); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, slices.Collect(q.All()))
	assert.Empty(t, slices.Collect(q.Available()))
	assert.Equal(t, iterqueue.StatusStopped, q.Status())

	for round := 0; round < 3; round++ {
		err := q.Produce(func(p *iterqueue.Producer[int]) error {
			return p.Put(9)
		})
		assert.ErrorIs(t, err, iterqueue.ErrEnded, "round %d", round)
		assert.Equal(t, iterqueue.StatusStopped, q.Status(), "round %d", round)

		_, ok := q.Next()
		assert.False(t, ok, "round %d", round)
		_, err = q.TryNext()
		assert.ErrorIs(t, err, io.EOF, "round %d", round)
	}

	assert.Equal(t, iterqueue.Stats{Put: 3, Delivered: 3}, q.Stats())
}

// TestQueue_EndSurvivesReopen checks that consumers blocked when the last
// scope closes all observe the end, even if a new scope opens before they
// reacquire the lock.
func TestQueue_EndSurvivesReopen(t *testing.T) {
	const consumers = 16

	for round := 0; round < 5; round++ {
		q := newQueue[int](t)
		p := q.Open()

		results := make([]<-chan []int, consumers)
		for i := range results {
			results[i] = collect(q)
		}
		time.Sleep(20 * time.Millisecond)

		p.Close()
		late := q.Open()

		for i, ch := range results {
			assert.Empty(t, receive(t, ch), "round %d consumer %d", round, i)
		}
		assert.ErrorIs(t, late.Put(1), iterqueue.ErrEnded)
		late.Close()
		assert.Zero(t, q.Stats().Put)
	}
}

// TestQueue_EndAfterDrain checks that the stream ends when the last
// buffered item is taken after every scope closed, and stays ended.
func TestQueue_EndAfterDrain(t *testing.T) {
	q := newQueue[int](t)
	p := q.Open()
	require.NoError(t, p.Put(1))
	p.Close()
	assert.Equal(t, 1, q.Len())

	// not ended yet, so a new scope may still add items
	p = q.Open()
	require.NoError(t, p.Put(2))
	p.Close()

	assert.Equal(t, []int{1, 2}, slices.Collect(q.All()))

	p = q.Open()
	defer p.Close()
	assert.ErrorIs(t, p.Put(3), iterqueue.ErrEnded)
	assert.ErrorIs(t, p.TryPut(3), iterqueue.ErrEnded)
}

func TestQueue_WithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := newQueue[int](t, iterqueue.WithContext(ctx))
	p := q.Open()
	defer p.Close()
	require.NoError(t, p.Put(1))

	cancel()

	select {
	case <-q.Done():
	case <-time.After(waitTimeout):
		t.Fatal("queue not canceled by its context")
	}
	assert.True(t, q.Canceled())
	assert.ErrorIs(t, p.Put(2), iterqueue.ErrCanceled)
	assert.Equal(t, uint64(1), q.Stats().Discarded)
}

func TestQueue_WithContext_AlreadyDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q := newQueue[int](t, iterqueue.WithContext(ctx))

	// canceled before New returns
	assert.True(t, q.Canceled())
	select {
	case <-q.Done():
	default:
		t.Fatal("Done not closed")
	}
	assert.ErrorIs(t, q.Open().Put(1), iterqueue.ErrCanceled)
	assert.Zero(t, q.Stats().Put)
}

func TestQueue_WithAwaitProducer(t *testing.T) {
	q := newQueue[int](t, iterqueue.WithAwaitProducer(true))

	_, err := q.TryNext()
	assert.ErrorIs(t, err, iterqueue.ErrEmpty)

	ch := collect(q)

	time.Sleep(50 * time.Millisecond)
	select {
	case <-ch:
		t.Fatal("consumer ended before any producer opened")
	default:
	}

	err = q.Produce(func(p *iterqueue.Producer[int]) error {
		return p.Put(5)
	})
	require.NoError(t, err)

	assert.Equal(t, []int{5}, receive(t, ch))
}

func TestQueue_WithAwaitProducer_Cancel(t *testing.T) {
	q := newQueue[int](t, iterqueue.WithAwaitProducer(true))
	ch := collect(q)
	q.Cancel()
	assert.Empty(t, receive(t, ch))
}

func TestQueue_Len(t *testing.T) {
	q := newQueue[int](t)
	p := q.Open()
	defer p.Close()

	for i := 0; i < 200; i++ {
		require.NoError(t, p.Put(i))
	}
	assert.Equal(t, 200, q.Len())
	assert.Zero(t, q.Cap())

	for i := 0; i < 200; i++ {
		v, ok := q.Next()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
	assert.Zero(t, q.Len())
}
