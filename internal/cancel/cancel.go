// Package cancel provides one-shot stop signals for producer loops.
//
// ContextCanceler backs Queue.Done and can be selected on. AtomicCanceler is a
// bare flag for loops that poll once per item. Neither can be un-canceled.
package cancel

// Canceler is a stop flag that producer loops poll between items.
//
// Done and Cancel may be called from any goroutine.
type Canceler interface {
	// Done reports whether Cancel has been called.
	Done() bool

	// Cancel sets the flag. Later calls do nothing.
	Cancel()
}
