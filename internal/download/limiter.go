package download

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Limiter is a counting permit pool bounding concurrent transfers.
//
// Each permit authorizes one active transfer. Active and Peak expose the
// number of permits currently held and the highest number ever held.
type Limiter struct {
	sem    *semaphore.Weighted
	size   int
	active atomic.Int64
	peak   atomic.Int64
}

// NewLimiter creates a pool of n permits. n below 1 is treated as 1.
func NewLimiter(n int) *Limiter {
	if n < 1 {
		n = 1
	}
	return &Limiter{sem: semaphore.NewWeighted(int64(n)), size: n}
}

// Acquire blocks until a permit is free or ctx is done.
//
// The returned release func gives the permit back; calling it more than
// once has no further effect, so it is safe to defer alongside explicit
// early releases.
func (l *Limiter) Acquire(ctx context.Context) (release func(), err error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	cur := l.active.Add(1)
	for {
		p := l.peak.Load()
		if cur <= p || l.peak.CompareAndSwap(p, cur) {
			break
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.active.Add(-1)
			l.sem.Release(1)
		})
	}, nil
}

// Size returns the number of permits.
func (l *Limiter) Size() int { return l.size }

// Active returns the number of permits currently held.
func (l *Limiter) Active() int { return int(l.active.Load()) }

// Peak returns the highest number of permits held at once.
func (l *Limiter) Peak() int { return int(l.peak.Load()) }
