package iterqueue

// Status summarizes the producer side of a Queue.
type Status int

const (
	// StatusUnstarted means no producer scope has been opened yet.
	StatusUnstarted Status = iota
	// StatusStarted means at least one producer scope is open.
	StatusStarted
	// StatusStopped means every producer scope opened so far has closed, or
	// the stream has ended. Buffered items may still be waiting for
	// consumers.
	StatusStopped
	// StatusCanceled means Cancel was called. This is terminal.
	StatusCanceled
)

func (x Status) String() string {
	switch x {
	case StatusUnstarted:
		return "unstarted"
	case StatusStarted:
		return "started"
	case StatusStopped:
		return "stopped"
	case StatusCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}
