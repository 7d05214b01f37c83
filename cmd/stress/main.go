// Command stress runs many producers and consumers against one shared queue
// and checks that every item was delivered exactly once.
//
// The queue is canceled on SIGINT, or after -cancel-after if set, in which
// case the check becomes put == delivered + discarded.
//
// Usage:
//
//	go run ./cmd/stress -producers 8 -consumers 4 -items 100000
//	go run ./cmd/stress -capacity 64 -cancel-after 200ms -v
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"

	"github.com/randomizedcoder/go-iterqueue"
	"github.com/randomizedcoder/go-iterqueue/internal/cancel"
	"github.com/randomizedcoder/go-iterqueue/internal/tick"
)

type config struct {
	producers   int
	consumers   int
	items       int
	capacity    int
	cancelAfter time.Duration
	progress    time.Duration
	stop        string
	verbose     bool
}

func main() {
	var cfg config
	flag.IntVar(&cfg.producers, "producers", 4, "number of producer goroutines")
	flag.IntVar(&cfg.consumers, "consumers", 4, "number of consumer goroutines")
	flag.IntVar(&cfg.items, "items", 100_000, "items per producer")
	flag.IntVar(&cfg.capacity, "capacity", 0, "queue capacity, 0 for unbounded")
	flag.DurationVar(&cfg.cancelAfter, "cancel-after", 0, "cancel the queue after this long, 0 to disable")
	flag.DurationVar(&cfg.progress, "progress", tick.DefaultInterval, "progress log interval")
	flag.StringVar(&cfg.stop, "stop", "atomic", "how producers poll for cancellation: atomic or context")
	flag.BoolVar(&cfg.verbose, "v", false, "enable debug logging")
	flag.Parse()

	level := logiface.LevelInformational
	if cfg.verbose {
		level = logiface.LevelDebug
	}
	logger := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(os.Stderr)),
		stumpy.L.WithLevel(level),
	).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Err().Err(err).Log(`stress failed`)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, logger *logiface.Logger[logiface.Event]) error {
	if cfg.producers < 1 || cfg.consumers < 1 || cfg.items < 0 {
		return fmt.Errorf("invalid config: producers=%d consumers=%d items=%d", cfg.producers, cfg.consumers, cfg.items)
	}

	halt, err := newHalt(ctx, cfg.stop)
	if err != nil {
		return err
	}
	defer halt.Cancel()

	q, err := iterqueue.New[int](
		iterqueue.WithCapacity(cfg.capacity),
		iterqueue.WithContext(ctx),
		iterqueue.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	if cfg.cancelAfter > 0 {
		timer := time.AfterFunc(cfg.cancelAfter, q.Cancel)
		defer timer.Stop()
	}

	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-q.Done():
			halt.Cancel()
		case <-finished:
		}
	}()

	ticker := tick.NewAtomicTicker(cfg.progress)

	start := time.Now()
	ticker.Reset()

	handles := make([]*iterqueue.Producer[int], cfg.producers)
	for i := range handles {
		handles[i] = q.Open()
	}

	var putErrs atomic.Int64
	for id, p := range handles {
		go func() {
			defer p.Close()
			if err := produce(p, id*cfg.items, cfg.items, halt); err != nil {
				putErrs.Add(1)
			}
		}()
	}

	var lastDelivered atomic.Uint64
	var delivered atomic.Uint64
	var wg sync.WaitGroup
	for i := 0; i < cfg.consumers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range q.All() {
				n := delivered.Add(1)
				if ticker.Tick() {
					var rate float64
					if prev := lastDelivered.Swap(n); n > prev {
						rate = float64(n-prev) / ticker.Interval().Seconds()
					}
					logger.Info().
						Uint64(`delivered`, n).
						Float64(`per_sec`, rate).
						Int(`buffered`, q.Len()).
						Int(`producers`, q.Producers()).
						Log(`progress`)
				}
			}
		}()
	}
	wg.Wait()

	elapsed := time.Since(start)
	stats := q.Stats()

	fmt.Printf("Stress (%d producers x %d items, %d consumers, capacity=%d)\n",
		cfg.producers, cfg.items, cfg.consumers, cfg.capacity)
	fmt.Println("─────────────────────────────────────────────────")
	fmt.Printf("  status:     %s\n", q.Status())
	fmt.Printf("  put:        %d\n", stats.Put)
	fmt.Printf("  delivered:  %d\n", stats.Delivered)
	fmt.Printf("  discarded:  %d\n", stats.Discarded)
	fmt.Printf("  rejected:   %d producers\n", putErrs.Load())
	fmt.Printf("  elapsed:    %v\n", elapsed)
	if elapsed > 0 {
		fmt.Printf("  throughput: %.2f M items/sec\n", float64(stats.Delivered)/elapsed.Seconds()/1e6)
	}

	// an interrupt may halt producers before the queue's own cancel lands
	canceled := q.Canceled() || ctx.Err() != nil
	return verify(canceled, uint64(cfg.producers*cfg.items), delivered.Load(), stats)
}

// newHalt returns the flag producers poll between items. "context" derives it
// from ctx, so an interrupt stops producers even before the queue observes it.
func newHalt(ctx context.Context, mode string) (cancel.Canceler, error) {
	switch mode {
	case "atomic":
		return cancel.NewAtomic(), nil
	case "context":
		return cancel.NewContext(ctx), nil
	default:
		return nil, fmt.Errorf("invalid stop mode %q", mode)
	}
}

// produce puts items [base, base+n) until done, halt is set, or Put fails.
func produce(p *iterqueue.Producer[int], base, n int, halt cancel.Canceler) error {
	for j := 0; j < n && !halt.Done(); j++ {
		if err := p.Put(base + j); err != nil {
			return err
		}
	}
	return nil
}

func verify(canceled bool, expected, delivered uint64, stats iterqueue.Stats) error {
	if delivered != stats.Delivered {
		return fmt.Errorf("consumers received %d items, queue delivered %d", delivered, stats.Delivered)
	}
	if stats.Put != stats.Delivered+stats.Discarded {
		return fmt.Errorf("lost items: put=%d delivered=%d discarded=%d", stats.Put, stats.Delivered, stats.Discarded)
	}
	if !canceled && stats.Delivered != expected {
		return fmt.Errorf("expected %d items, delivered %d", expected, stats.Delivered)
	}
	return nil
}
