package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/bytedrop/pkg/content"
)

func record(key, body string) content.Record {
	return content.Record{
		Key:       key,
		MediaType: "text/plain",
		Expiry:    time.Now().Add(time.Hour),
		Body:      []byte(body),
	}
}

func TestGet_LoadsOnMiss(t *testing.T) {
	t.Parallel()

	var loads atomic.Int64
	c := New(Options{
		Load: func(key string) (content.Record, error) {
			loads.Add(1)
			return record(key, "hello"), nil
		},
	})

	rec, err := c.Get("abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), rec.Body)
	assert.Equal(t, int64(1), loads.Load())

	// Second access is served from memory.
	_, err = c.Get("abc")
	require.NoError(t, err)
	assert.Equal(t, int64(1), loads.Load())
}

func TestGet_SingleFlight(t *testing.T) {
	t.Parallel()

	var loads atomic.Int64
	release := make(chan struct{})
	c := New(Options{
		Load: func(key string) (content.Record, error) {
			loads.Add(1)
			<-release
			return record(key, "shared"), nil
		},
	})

	const readers = 32
	var wg sync.WaitGroup
	results := make([]content.Record, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec, err := c.Get("abc")
			require.NoError(t, err)
			results[i] = rec
		}(i)
	}

	// Give every reader time to block on the pending entry before
	// resolving.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), loads.Load(), "concurrent readers share one load")
	for _, rec := range results {
		assert.Equal(t, []byte("shared"), rec.Body)
	}
}

func TestGet_EmptySentinelIsCached(t *testing.T) {
	t.Parallel()

	var loads atomic.Int64
	c := New(Options{
		Load: func(string) (content.Record, error) {
			loads.Add(1)
			return content.Record{}, nil
		},
	})

	rec, err := c.Get("missing")
	require.NoError(t, err)
	assert.True(t, rec.Empty())

	// The sentinel short-circuits without another disk load.
	rec, err = c.Get("missing")
	require.NoError(t, err)
	assert.True(t, rec.Empty())
	assert.Equal(t, int64(1), loads.Load())
}

func TestGet_LoadErrorPropagatesAndRetries(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk exploded")
	var loads atomic.Int64
	c := New(Options{
		Load: func(key string) (content.Record, error) {
			if loads.Add(1) == 1 {
				return content.Record{}, boom
			}
			return record(key, "recovered"), nil
		},
	})

	_, err := c.Get("abc")
	assert.ErrorIs(t, err, boom)

	// Failed entries are dropped, so the next request retries the load.
	rec, err := c.Get("abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("recovered"), rec.Body)
}

func TestPut_ReadYourWrites(t *testing.T) {
	t.Parallel()

	c := New(Options{
		Load: func(string) (content.Record, error) {
			t.Error("load must not be called for a promised key")
			return content.Record{}, nil
		},
	})

	p := c.Put("abc")

	done := make(chan content.Record, 1)
	go func() {
		rec, err := c.Get("abc")
		require.NoError(t, err)
		done <- rec
	}()

	p.Resolve(record("abc", "fresh"))

	select {
	case rec := <-done:
		assert.Equal(t, []byte("fresh"), rec.Body)
	case <-time.After(time.Second):
		t.Fatal("reader never unblocked")
	}

	// Later reads also come from memory.
	rec, err := c.Get("abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("fresh"), rec.Body)
}

func TestWeightEviction(t *testing.T) {
	t.Parallel()

	c := New(Options{
		MaxWeight: 10,
		Load: func(key string) (content.Record, error) {
			return record(key, "12345678"), nil // weight 8 each
		},
	})

	_, err := c.Get("first")
	require.NoError(t, err)
	_, err = c.Get("second")
	require.NoError(t, err)

	// 16 > 10: the next access evicts the least recently used entry.
	_, err = c.Get("second")
	require.NoError(t, err)

	assert.Equal(t, 1, c.Len())
	assert.LessOrEqual(t, c.Weight(), int64(10))
}

func TestIdleEviction(t *testing.T) {
	t.Parallel()

	c := New(Options{
		IdleTTL: 10 * time.Millisecond,
		Load: func(key string) (content.Record, error) {
			return record(key, "body"), nil
		},
	})

	_, err := c.Get("stale")
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	time.Sleep(20 * time.Millisecond)

	// Any access sweeps idle entries from the LRU tail.
	_, err = c.Get("fresh")
	require.NoError(t, err)

	// "stale" was evicted by the lookup above; only "fresh" remains, and
	// a further access to it is a plain hit.
	_, err = c.Get("fresh")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
}

func TestPendingEntryIsNotEvicted(t *testing.T) {
	t.Parallel()

	c := New(Options{
		MaxWeight: 1, // everything resolved is immediately over weight
		Load: func(key string) (content.Record, error) {
			return record(key, "xx"), nil
		},
	})

	p := c.Put("pending")

	// Accesses to other keys must not evict the unresolved entry.
	_, err := c.Get("other")
	require.NoError(t, err)

	p.Resolve(record("pending", "now resolved"))

	rec, err := c.Get("pending")
	require.NoError(t, err)
	assert.Equal(t, []byte("now resolved"), rec.Body)
}

type countingMetrics struct {
	hits, misses, evictions atomic.Int64
	weight                  atomic.Int64
}

func (m *countingMetrics) Hit()                  { m.hits.Add(1) }
func (m *countingMetrics) Miss()                 { m.misses.Add(1) }
func (m *countingMetrics) Eviction()             { m.evictions.Add(1) }
func (m *countingMetrics) ObserveWeight(w int64) { m.weight.Store(w) }

func TestMetrics(t *testing.T) {
	t.Parallel()

	m := &countingMetrics{}
	c := New(Options{
		Metrics: m,
		Load: func(key string) (content.Record, error) {
			return record(key, "body"), nil
		},
	})

	_, _ = c.Get("abc")
	_, _ = c.Get("abc")

	assert.Equal(t, int64(1), m.misses.Load())
	assert.Equal(t, int64(1), m.hits.Load())
	assert.Equal(t, int64(4), m.weight.Load())
}
