package iterqueue

import (
	"context"
	"errors"
	"fmt"

	"github.com/joeycumines/logiface"
)

// queueOptions holds configuration options for Queue creation.
type queueOptions struct {
	ctx           context.Context
	logger        *logiface.Logger[logiface.Event]
	capacity      int
	awaitProducer bool
}

// Option configures a Queue instance.
type Option interface {
	applyQueue(*queueOptions) error
}

// optionImpl implements Option.
type optionImpl struct {
	applyQueueFunc func(*queueOptions) error
}

func (o *optionImpl) applyQueue(opts *queueOptions) error {
	return o.applyQueueFunc(opts)
}

// WithCapacity bounds the number of buffered items. Put blocks while the
// queue is full. Zero (the default) means unbounded. Negative values are
// rejected by New.
func WithCapacity(n int) Option {
	return &optionImpl{func(opts *queueOptions) error {
		if n < 0 {
			return fmt.Errorf("iterqueue: invalid capacity %d", n)
		}
		opts.capacity = n
		return nil
	}}
}

// WithContext ties the queue to ctx: once ctx is done, the queue is canceled,
// exactly as if Cancel had been called. This is the hook for external
// controllers, e.g. shutdown signals or deadlines.
func WithContext(ctx context.Context) Option {
	return &optionImpl{func(opts *queueOptions) error {
		if ctx == nil {
			return errors.New("iterqueue: nil context")
		}
		opts.ctx = ctx
		return nil
	}}
}

// WithAwaitProducer controls what consumers see before the first producer
// scope has ever been opened. When enabled, they block until a producer
// arrives (or the queue is canceled), instead of observing an immediate
// end-of-stream. Use it when consumers may start before producers.
func WithAwaitProducer(enabled bool) Option {
	return &optionImpl{func(opts *queueOptions) error {
		opts.awaitProducer = enabled
		return nil
	}}
}

// WithLogger sets the structured logger. A nil logger disables logging,
// which is the default.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *queueOptions) error {
		opts.logger = logger
		return nil
	}}
}

// resolveOptions applies Option instances to queueOptions.
func resolveOptions(opts []Option) (*queueOptions, error) {
	cfg := &queueOptions{
		ctx: context.Background(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyQueue(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
