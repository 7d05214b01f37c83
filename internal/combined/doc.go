// Package combined provides pipeline benchmarks for the shared queue.
//
// They compare a full producer/consumer hand-off (scoped producers, blocking
// consumers, end-of-stream) against buffered channels and the sharded
// lock-free ring from go-lock-free-ring, which only offers polling.
package combined
