package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_UnderCapacity(t *testing.T) {
	t.Parallel()

	l := NewLimiter(30, 10*time.Minute)
	for i := 0; i < 30; i++ {
		assert.False(t, l.Check("10.0.0.1"), "request %d should be accepted", i+1)
	}
}

func TestCheck_RejectsOverCapacity(t *testing.T) {
	t.Parallel()

	l := NewLimiter(30, 10*time.Minute)
	for i := 0; i < 30; i++ {
		require.False(t, l.Check("10.0.0.1"))
	}
	assert.True(t, l.Check("10.0.0.1"), "31st request must be rejected")
	assert.True(t, l.Check("10.0.0.1"), "rejections persist for the window")
}

func TestCheck_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	l := NewLimiter(1, 10*time.Minute)
	require.False(t, l.Check("10.0.0.1"))
	require.True(t, l.Check("10.0.0.1"))

	assert.False(t, l.Check("10.0.0.2"), "other clients keep their own window")
}

func TestCheck_WindowResetsAfterPeriod(t *testing.T) {
	t.Parallel()

	l := NewLimiter(1, 20*time.Millisecond)
	require.False(t, l.Check("10.0.0.1"))
	require.True(t, l.Check("10.0.0.1"))

	time.Sleep(30 * time.Millisecond)

	assert.False(t, l.Check("10.0.0.1"), "lapsed window starts fresh")
}

func TestCheck_ConcurrentAtMostCapacityAccepted(t *testing.T) {
	t.Parallel()

	const capacity = 100
	l := NewLimiter(capacity, 10*time.Minute)

	var accepted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 4*capacity; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !l.Check("10.0.0.1") {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(capacity), accepted.Load())
}

func TestEvictStale(t *testing.T) {
	t.Parallel()

	l := NewLimiter(5, 10*time.Millisecond)
	l.Check("10.0.0.1")
	l.Check("10.0.0.2")
	require.Equal(t, 2, l.size())

	l.evictStale(time.Now().Add(time.Second))
	assert.Equal(t, 0, l.size())
}
