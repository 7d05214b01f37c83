// Package iterqueue implements a FIFO queue that many goroutines can feed and
// drain concurrently, and that ends its own stream.
//
// Producers enter a scope before adding items, and leave it when they are
// done. Consumers simply iterate. Once every producer scope has closed and
// every buffered item has been delivered, all consumers, blocked or not,
// observe end-of-stream. No explicit "close" call is needed, which makes a
// dynamic or unknown number of producers easy to coordinate:
//
//	q, _ := iterqueue.New[int]()
//	for i := 0; i < 4; i++ {
//		p := q.Open() // before starting the goroutine
//		go func() {
//			defer p.Close()
//			for j := 0; j < 10; j++ {
//				_ = p.Put(j)
//			}
//		}()
//	}
//	for v := range q.All() {
//		fmt.Println(v)
//	}
//
// Items are delivered to exactly one consumer each (competing consumers), in
// insertion order. Cancel ends the stream early for everyone: buffered items
// are discarded, blocked calls return, and further Put calls fail.
//
// A queue with zero open scopes and an empty buffer is already exhausted, so
// open producer scopes before consumers can observe the queue, or configure
// WithAwaitProducer. Once the stream has ended after producers ran, it stays
// ended: a scope opened later fails every Put with ErrEnded.
package iterqueue
