package cancel

import "context"

// ContextCanceler wraps context.Context for cancellation signaling.
//
// The shared queue owns one of these and cancels it after its own canceled
// flag has been set, so a closed Context().Done() channel always implies the
// queue reports itself canceled.
type ContextCanceler struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewContext creates a ContextCanceler from a parent context.
func NewContext(parent context.Context) *ContextCanceler {
	ctx, cancel := context.WithCancel(parent)
	return &ContextCanceler{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Done polls Context().Done() without blocking.
func (c *ContextCanceler) Done() bool {
	select {
	case <-c.ctx.Done():
		return true
	default:
		return false
	}
}

// Cancel triggers cancellation of the context.
func (c *ContextCanceler) Cancel() {
	c.cancel()
}

// Context returns the underlying context.Context.
func (c *ContextCanceler) Context() context.Context {
	return c.ctx
}
