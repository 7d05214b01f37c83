package iterqueue

import "errors"

var (
	// ErrCanceled is returned by producer and consumer operations once the
	// queue has been canceled. Items still buffered at that point are
	// discarded, never delivered.
	ErrCanceled = errors.New("iterqueue: queue canceled")

	// ErrProducerClosed is returned by Put on a Producer that has already
	// been closed. Items can only be added from within an open scope.
	ErrProducerClosed = errors.New("iterqueue: producer closed")

	// ErrEnded is returned by Put once the stream has ended naturally: every
	// scope had closed and the buffer was drained. Scopes opened after that
	// point cannot add items.
	ErrEnded = errors.New("iterqueue: stream ended")

	// ErrFull is returned by TryPut when a bounded queue has no room.
	ErrFull = errors.New("iterqueue: queue full")

	// ErrEmpty is returned by TryNext when nothing is buffered but the stream
	// has not ended.
	ErrEmpty = errors.New("iterqueue: queue empty")

	// ErrContractViolation is wrapped by the value passed to panic when a
	// producer scope is released more often than it was entered.
	ErrContractViolation = errors.New("iterqueue: contract violation")
)
