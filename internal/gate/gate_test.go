package gate

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit(), New(0).Limit())
	assert.Equal(t, DefaultLimit(), New(-3).Limit())
	assert.Equal(t, 7, New(7).Limit())
}

func TestGateBoundsConcurrency(t *testing.T) {
	const (
		limit   = 3
		workers = 20
	)

	g := New(limit)
	ctx := context.Background()

	var inFlight, peak atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, g.Acquire(ctx))
			defer g.Release()

			current := inFlight.Add(1)
			defer inFlight.Add(-1)

			// Record the high-water mark of concurrent holders.
			for {
				observed := peak.Load()
				if current <= observed || peak.CompareAndSwap(observed, current) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int64(limit))
	assert.Positive(t, peak.Load())
	assert.Zero(t, inFlight.Load())
}

func TestAcquireHonorsContextCancellation(t *testing.T) {
	g := New(1)
	require.NoError(t, g.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := g.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	g.Release()
	require.NoError(t, g.Acquire(context.Background()))
	g.Release()
}
