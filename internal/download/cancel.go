package download

import (
	"context"
	"sync/atomic"
)

// Cancellation is a one-shot broadcast stop signal shared by every worker of
// a run.
//
// It starts unset, can be set at most once and is never cleared. Reading it
// never blocks. Done and Context expose the same signal for select
// statements and for request contexts.
type Cancellation struct {
	ctx    context.Context
	cancel context.CancelFunc
	fired  atomic.Bool
}

// NewCancellation returns an unset signal.
func NewCancellation() *Cancellation {
	ctx, cancel := context.WithCancel(context.Background())
	return &Cancellation{ctx: ctx, cancel: cancel}
}

// Cancel sets the signal. It reports whether this call was the one that set
// it; later calls are no-ops.
func (c *Cancellation) Cancel() bool {
	if !c.fired.CompareAndSwap(false, true) {
		return false
	}
	c.cancel()
	return true
}

// Cancelled reports whether the signal is set.
func (c *Cancellation) Cancelled() bool {
	return c.fired.Load()
}

// Done returns a channel closed once the signal is set.
func (c *Cancellation) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Context returns a context cancelled once the signal is set.
func (c *Cancellation) Context() context.Context {
	return c.ctx
}

// Follow sets the signal when ctx ends. If ctx is already done the signal is
// set before Follow returns. The returned func detaches it.
func (c *Cancellation) Follow(ctx context.Context) (stop func() bool) {
	if ctx.Err() != nil {
		c.Cancel()
	}
	return context.AfterFunc(ctx, func() { c.Cancel() })
}
