package download

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_NeverExceedsSize(t *testing.T) {
	l := NewLimiter(2)

	var active, maxActive atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background())
			if err != nil {
				t.Error(err)
				return
			}
			defer release()

			cur := active.Add(1)
			for {
				m := maxActive.Load()
				if cur <= m || maxActive.CompareAndSwap(m, cur) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			active.Add(-1)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, maxActive.Load(), int32(2))
	assert.LessOrEqual(t, l.Peak(), 2)
	assert.Zero(t, l.Active())
}

func TestLimiter_ReleaseIsIdempotent(t *testing.T) {
	l := NewLimiter(1)

	release, err := l.Acquire(context.Background())
	require.NoError(t, err)
	release()
	release()

	assert.Zero(t, l.Active())

	// The pool still holds exactly one permit.
	r1, err := l.Acquire(context.Background())
	require.NoError(t, err)
	defer r1()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLimiter_AcquireCancelled(t *testing.T) {
	l := NewLimiter(1)
	hold, err := l.Acquire(context.Background())
	require.NoError(t, err)
	defer hold()

	c := NewCancellation()
	errCh := make(chan error, 1)
	go func() {
		_, err := l.Acquire(c.Context())
		errCh <- err
	}()

	c.Cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Acquire did not observe cancellation")
	}
}

func TestNewLimiter_MinimumSize(t *testing.T) {
	assert.Equal(t, 1, NewLimiter(0).Size())
	assert.Equal(t, 4, NewLimiter(4).Size())
}

func TestCancellation(t *testing.T) {
	c := NewCancellation()
	assert.False(t, c.Cancelled())

	select {
	case <-c.Done():
		t.Fatal("Done closed before Cancel")
	default:
	}

	assert.True(t, c.Cancel())
	assert.False(t, c.Cancel(), "second Cancel is a no-op")
	assert.True(t, c.Cancelled())
	assert.ErrorIs(t, c.Context().Err(), context.Canceled)

	select {
	case <-c.Done():
	default:
		t.Fatal("Done not closed after Cancel")
	}
}

func TestCancellation_Follow(t *testing.T) {
	c := NewCancellation()
	ctx, cancel := context.WithCancel(context.Background())
	stop := c.Follow(ctx)
	defer stop()

	cancel()
	require.Eventually(t, c.Cancelled, time.Second, time.Millisecond)
}

func TestCancellation_FollowDoneContext(t *testing.T) {
	c := NewCancellation()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stop := c.Follow(ctx)
	defer stop()

	assert.True(t, c.Cancelled(), "already-done context sets the signal synchronously")
}

func TestCancellation_FollowDetached(t *testing.T) {
	c := NewCancellation()
	ctx, cancel := context.WithCancel(context.Background())

	stop := c.Follow(ctx)
	stop()
	cancel()

	time.Sleep(10 * time.Millisecond)
	assert.False(t, c.Cancelled())
}
