// Package cache implements the in-memory record cache: weight-bounded,
// idle-expiring, with single-flight loads from the content store.
package cache

import (
	"sync"
	"time"

	"github.com/marmos91/bytedrop/pkg/content"
)

// Metrics receives cache observations. A nil value disables collection
// with no overhead.
type Metrics interface {
	Hit()
	Miss()
	Eviction()
	ObserveWeight(weight int64)
}

// LoadFunc generates a fresh record for a key that is not cached. It runs
// on the I/O worker pool and must be safe for concurrent use. A missing
// record is the empty sentinel, not an error.
type LoadFunc func(key string) (content.Record, error)

// Options configures a Cache.
type Options struct {
	// MaxWeight bounds the sum of body lengths over cached records.
	// Zero disables the weight bound.
	MaxWeight int64

	// IdleTTL is the maximum time since last access before a record
	// becomes eligible for eviction. Zero disables idle expiry.
	IdleTTL time.Duration

	// Load produces records on a cache miss.
	Load LoadFunc

	// Submit schedules a load on the I/O worker pool. When nil, loads
	// run on a fresh goroutine.
	Submit func(func())

	// Metrics receives hit/miss/eviction observations. May be nil.
	Metrics Metrics
}

// entry is one cached key: the single-flight unit and, at the same time,
// a link in the cache's recency chain.
//
// Readers block on ready until the record is published; publication
// happens exactly once and the entry is immutable afterwards. The chain
// links, weight and lastUsed belong to the cache and require its mutex;
// rec and err are safe to read once ready is closed.
type entry struct {
	key string

	// Recency chain, most recently used towards the head. Holding the
	// links inline keeps one allocation per key and lets eviction walk
	// straight from the tail.
	newer, older *entry

	// Bytes this record contributes to the cache total. Zero until the
	// record is published.
	weight int

	// Time of most recent lookup or insertion.
	lastUsed time.Time

	// ready is closed when rec and err carry the final value.
	ready chan struct{}

	rec content.Record
	err error
}

func newEntry(key string, now time.Time) *entry {
	return &entry{
		key:      key,
		lastUsed: now,
		ready:    make(chan struct{}),
	}
}

// publish stores the outcome and wakes every waiting reader. Must be
// called exactly once.
func (e *entry) publish(rec content.Record, err error) {
	e.rec = rec
	e.err = err
	close(e.ready)
}

// resolved reports whether the entry has been published. Pending entries
// are never evicted: their weight is unknown and readers hold their
// ready channel.
func (e *entry) resolved() bool {
	select {
	case <-e.ready:
		return true
	default:
		return false
	}
}

// Cache is a weight-bounded, idle-expiring map of key to record with
// asynchronous single-flight loading. All methods are safe for concurrent
// use.
type Cache struct {
	// Guards the map, the recency chain and the weight accounting.
	// Entry publication has its own synchronization via ready.
	mu sync.Mutex

	maxWeight, usedWeight int64
	idleTTL               time.Duration

	// head is the most recently used entry, tail the coldest.
	head, tail *entry
	entries    map[string]*entry

	load    LoadFunc
	submit  func(func())
	metrics Metrics
}

// New creates a cache with the given eviction limits and loader. Once
// either limit is exceeded the least recently used records are evicted
// until the requirements are satisfied again. Eviction is eventual, not
// immediate.
func New(opts Options) *Cache {
	submit := opts.Submit
	if submit == nil {
		submit = func(fn func()) { go fn() }
	}
	return &Cache{
		maxWeight: opts.MaxWeight,
		idleTTL:   opts.IdleTTL,
		entries:   make(map[string]*entry),
		load:      opts.Load,
		submit:    submit,
		metrics:   opts.Metrics,
	}
}

// Get returns the record for key, loading it through the store on a miss.
// Concurrent callers for the same key share one load and all receive the
// same result. A resolved empty sentinel is a legal cache value: it is
// returned without touching disk until the entry is evicted.
func (c *Cache) Get(key string) (content.Record, error) {
	ent, fresh := c.lookup(key)
	if fresh {
		if c.metrics != nil {
			c.metrics.Miss()
		}
		c.submit(func() { c.populate(ent) })
	} else if c.metrics != nil {
		c.metrics.Hit()
	}

	// Blocks only while the entry is pending; a published entry is
	// immutable and the channel stays closed.
	<-ent.ready
	return ent.rec, ent.err
}

// Promise is a pending cache entry installed at POST time. Resolving it
// publishes the record to every waiting and future reader.
type Promise struct {
	c   *Cache
	ent *entry
}

// Put installs a pending entry for key and returns its promise, so that
// readers see the new key immediately without a disk round-trip. Any
// existing entry for the key is replaced.
func (c *Cache) Put(key string) *Promise {
	now := time.Now()
	ent := newEntry(key, now)

	c.mu.Lock()
	if old, ok := c.entries[key]; ok {
		c.dropLocked(old)
	}
	c.entries[key] = ent
	c.attachLocked(ent)
	c.evictOverflowLocked(now)
	c.mu.Unlock()

	return &Promise{c: c, ent: ent}
}

// Resolve publishes rec and unblocks all waiting readers. It must be
// called exactly once.
func (p *Promise) Resolve(rec content.Record) {
	p.c.charge(p.ent, rec.Weight())
	p.ent.publish(rec, nil)
}

// lookup returns the entry for key, creating a pending one on a miss.
// fresh=true if the entry was created and requires population.
func (c *Cache) lookup(key string) (ent *entry, fresh bool) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[key]
	if ok {
		ent.lastUsed = now
		c.touchLocked(ent)
	} else {
		ent = newEntry(key, now)
		c.entries[key] = ent
		c.attachLocked(ent)
	}

	c.evictOverflowLocked(now)

	return ent, !ok
}

// populate resolves a freshly created entry through the loader.
// Runs on the I/O worker pool.
func (c *Cache) populate(ent *entry) {
	rec, err := c.load(ent.key)
	if err != nil {
		// Drop the entry so a later request retries the load, then
		// propagate the error to everyone already waiting on it.
		c.remove(ent)
		ent.publish(content.Record{}, err)
		return
	}

	c.charge(ent, rec.Weight())
	ent.publish(rec, nil)
}

// charge records the published entry's weight.
//
// The entry may have been evicted, and a new entry may occupy the same
// key, while this one was being populated. The weight feeds the cache
// total, so assert the entry is still current before counting it; all
// other concurrent eviction cases simply NOP.
func (c *Cache) charge(ent *entry, weight int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries[ent.key] != ent {
		return
	}
	ent.weight = weight
	c.usedWeight += int64(weight)

	if c.metrics != nil {
		c.metrics.ObserveWeight(c.usedWeight)
	}
}

// remove evicts ent if it is still the current entry for its key.
func (c *Cache) remove(ent *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries[ent.key] == ent {
		c.dropLocked(ent)
	}
}

// evictOverflowLocked evicts up to 2 entries from the cold end of the
// chain when the weight or idle limit is exceeded. Doing this on every
// access keeps the locking simple while staying eventually within
// bounds. A pending tail entry stops the walk: eviction of a pending
// entry waits for its resolution. Requires lock on c.mu.
func (c *Cache) evictOverflowLocked(now time.Time) {
	for i := 0; i < 2; i++ {
		coldest := c.tail
		if coldest == nil || !coldest.resolved() {
			break
		}
		overWeight := c.maxWeight != 0 && c.usedWeight > c.maxWeight
		idle := c.idleTTL != 0 && coldest.lastUsed.Add(c.idleTTL).Before(now)
		if !overWeight && !idle {
			break
		}
		c.dropLocked(coldest)
	}
}

// dropLocked deletes an entry, its chain links and its weight.
// Requires lock on c.mu.
func (c *Cache) dropLocked(ent *entry) {
	delete(c.entries, ent.key)
	c.detachLocked(ent)
	c.usedWeight -= int64(ent.weight)

	if c.metrics != nil {
		c.metrics.Eviction()
		c.metrics.ObserveWeight(c.usedWeight)
	}
}

// attachLocked inserts ent at the hot end of the chain.
// Requires lock on c.mu.
func (c *Cache) attachLocked(ent *entry) {
	ent.older = c.head
	ent.newer = nil
	if c.head != nil {
		c.head.newer = ent
	}
	c.head = ent
	if c.tail == nil {
		c.tail = ent
	}
}

// detachLocked unlinks ent from the chain. Requires lock on c.mu.
func (c *Cache) detachLocked(ent *entry) {
	if ent.newer != nil {
		ent.newer.older = ent.older
	} else {
		c.head = ent.older
	}
	if ent.older != nil {
		ent.older.newer = ent.newer
	} else {
		c.tail = ent.newer
	}
	ent.newer, ent.older = nil, nil
}

// touchLocked moves an existing entry to the hot end of the chain.
// Requires lock on c.mu.
func (c *Cache) touchLocked(ent *entry) {
	if c.head == ent {
		return
	}
	c.detachLocked(ent)
	c.attachLocked(ent)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Weight returns the current total weight.
func (c *Cache) Weight() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usedWeight
}
