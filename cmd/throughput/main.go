// Command throughput compares a channel pipeline with the shared queue.
//
// Both pipelines hand every item from the producers to the consumers and end
// on their own: the channel with close(ch) once a WaitGroup drains, the queue
// when the last producer scope closes.
//
// Usage:
//
//	go run ./cmd/throughput -n 10000000 -producers 4 -consumers 4
package main

import (
	"flag"
	"fmt"
	"sync"
	"time"

	"github.com/randomizedcoder/go-iterqueue"
)

func main() {
	iterations := flag.Int("n", 10_000_000, "number of items")
	producers := flag.Int("producers", 1, "number of producer goroutines")
	consumers := flag.Int("consumers", 1, "number of consumer goroutines")
	size := flag.Int("size", 1024, "channel buffer size, also the bounded queue capacity")
	flag.Parse()

	if *producers < 1 || *consumers < 1 {
		fmt.Println("producers and consumers must be positive")
		return
	}
	per := *iterations / *producers
	total := per * *producers

	fmt.Printf("Benchmarking pipelines (%d items, %d producers, %d consumers, size=%d)\n",
		total, *producers, *consumers, *size)
	fmt.Println("─────────────────────────────────────────────────")

	chDur := runChannel(*producers, *consumers, per, *size)
	qDur := runQueue(*producers, *consumers, per, 0)
	bDur := runQueue(*producers, *consumers, per, *size)

	chPerOp := float64(chDur.Nanoseconds()) / float64(total)
	qPerOp := float64(qDur.Nanoseconds()) / float64(total)
	bPerOp := float64(bDur.Nanoseconds()) / float64(total)

	fmt.Printf("\nResults (one item, producer to consumer):\n")
	fmt.Printf("  Channel:         %v (%.2f ns/op)\n", chDur, chPerOp)
	fmt.Printf("  Queue:           %v (%.2f ns/op)\n", qDur, qPerOp)
	fmt.Printf("  Queue(bounded):  %v (%.2f ns/op)\n", bDur, bPerOp)

	fmt.Printf("\nThroughput:\n")
	fmt.Printf("  Channel:         %.2f M items/sec\n", 1000/chPerOp)
	fmt.Printf("  Queue:           %.2f M items/sec\n", 1000/qPerOp)
	fmt.Printf("  Queue(bounded):  %.2f M items/sec\n", 1000/bPerOp)
}

func runChannel(producers, consumers, per, size int) time.Duration {
	ch := make(chan int, size)
	start := time.Now()

	var cwg sync.WaitGroup
	for i := 0; i < consumers; i++ {
		cwg.Add(1)
		go func() {
			defer cwg.Done()
			for range ch {
			}
		}()
	}

	var pwg sync.WaitGroup
	for i := 0; i < producers; i++ {
		pwg.Add(1)
		go func() {
			defer pwg.Done()
			for j := 0; j < per; j++ {
				ch <- j
			}
		}()
	}

	pwg.Wait()
	close(ch)
	cwg.Wait()
	return time.Since(start)
}

func runQueue(producers, consumers, per, capacity int) time.Duration {
	q, err := iterqueue.New[int](iterqueue.WithCapacity(capacity))
	if err != nil {
		panic(err)
	}
	start := time.Now()

	// scopes must be open before any consumer can observe the queue
	handles := make([]*iterqueue.Producer[int], producers)
	for i := range handles {
		handles[i] = q.Open()
	}

	var cwg sync.WaitGroup
	for i := 0; i < consumers; i++ {
		cwg.Add(1)
		go func() {
			defer cwg.Done()
			for range q.All() {
			}
		}()
	}

	for _, p := range handles {
		go func() {
			defer p.Close()
			for j := 0; j < per; j++ {
				_ = p.Put(j)
			}
		}()
	}

	cwg.Wait()
	return time.Since(start)
}
