package thumbcache

import (
	"container/list"
	"sync"

	"pdf-pagetool/internal/logging"
	"pdf-pagetool/internal/metrics"
	"pdf-pagetool/internal/pages"
)

// DefaultMaxEntries caps the cache when no explicit ceiling is configured.
const DefaultMaxEntries = 512

// Config bounds the cache. Both limits are enforced together: an insert
// evicts until the byte budget AND the entry ceiling hold.
type Config struct {
	BudgetBytes int64
	MaxEntries  int
}

type entry struct {
	key  Key
	data []byte
	elem *list.Element
	gen  uint64
}

// Cache is a bounded in-memory LRU of rendered thumbnails with an
// optional disk mirror in a TempStore. Get never blocks on rendering and
// never triggers one; misses are the caller's problem.
//
// Handles returned by Get and Put hold their own reference to the bitmap
// bytes, so a handle stays readable after its entry is evicted. Valid
// reports whether the entry is still current.
type Cache struct {
	mu      sync.Mutex
	cfg     Config
	store   *TempStore
	entries map[Key]*entry
	lru     *list.List // front = most recently used
	bytes   int64
	gen     uint64
	memOnly bool
}

// Handle is an immutable view of one cached bitmap.
type Handle struct {
	cache *Cache
	key   Key
	data  []byte
	gen   uint64
}

// Key returns the cache key the handle was issued for.
func (h *Handle) Key() Key { return h.key }

// Bytes returns the encoded bitmap. The slice must not be modified.
func (h *Handle) Bytes() []byte { return h.data }

// Valid reports whether the handle still reflects the cache's current
// entry for its key. Eviction and invalidation flip this to false; the
// bytes remain readable either way.
func (h *Handle) Valid() bool {
	h.cache.mu.Lock()
	defer h.cache.mu.Unlock()
	e, ok := h.cache.entries[h.key]
	return ok && e.gen == h.gen
}

// New creates a cache. store may be nil for memory-only operation.
func New(cfg Config, store *TempStore) *Cache {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	return &Cache{
		cfg:     cfg,
		store:   store,
		entries: make(map[Key]*entry),
		lru:     list.New(),
		memOnly: store == nil,
	}
}

// Get returns a handle for the key if cached, marking it most recently
// used. It never renders and never blocks beyond the cache lock.
func (c *Cache) Get(key Key) (*Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		metrics.CacheMissesTotal.Inc()
		return nil, false
	}
	c.lru.MoveToFront(e.elem)
	metrics.CacheHitsTotal.Inc()
	return &Handle{cache: c, key: key, data: e.data, gen: e.gen}, true
}

// Contains reports whether the key is cached without touching recency.
func (c *Cache) Contains(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// Put stores a bitmap, evicting least-recently-used entries until both
// bounds hold again, and returns a handle to the fresh entry. Storing an
// existing key replaces it in place.
func (c *Cache) Put(key Key, data []byte) *Handle {
	c.mu.Lock()

	if old, ok := c.entries[key]; ok {
		c.bytes -= int64(len(old.data))
		c.lru.Remove(old.elem)
		delete(c.entries, key)
	}

	c.gen++
	e := &entry{key: key, data: data, gen: c.gen}
	e.elem = c.lru.PushFront(e)
	c.entries[key] = e
	c.bytes += int64(len(data))

	c.evictLocked()
	c.publishLocked()
	h := &Handle{cache: c, key: key, data: data, gen: e.gen}
	memOnly := c.memOnly
	c.mu.Unlock()

	// Disk I/O happens outside the lock so concurrent Gets never stall
	// behind a write; the TempStore serializes itself. An entry evicted in
	// the window leaves a tracked file the store removes at Close.
	if !memOnly {
		if _, err := c.store.Write(key, data); err != nil {
			c.mu.Lock()
			c.degradeLocked(err)
			c.mu.Unlock()
		}
	}
	return h
}

// evictLocked drops entries from the LRU tail until both bounds hold.
// The newest entry is never evicted, even when it alone exceeds the byte
// budget; a cache that cannot hold the current page is useless.
func (c *Cache) evictLocked() {
	for c.lru.Len() > 1 &&
		(c.bytes > c.cfg.BudgetBytes || c.lru.Len() > c.cfg.MaxEntries) {
		victim := c.lru.Back().Value.(*entry)
		reason := "bytes"
		if c.bytes <= c.cfg.BudgetBytes {
			reason = "entries"
		}
		c.removeLocked(victim, reason)
	}
}

func (c *Cache) removeLocked(e *entry, reason string) {
	c.lru.Remove(e.elem)
	delete(c.entries, e.key)
	c.bytes -= int64(len(e.data))
	if !c.memOnly {
		c.store.Remove(e.key)
	}
	metrics.CacheEvictionsTotal.WithLabelValues(reason).Inc()
}

// Invalidate removes every entry whose key matches the predicate and
// returns the number removed. Outstanding handles for removed entries
// stop being Valid but keep their bytes.
func (c *Cache) Invalidate(pred func(Key) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var victims []*entry
	for _, e := range c.entries {
		if pred(e.key) {
			victims = append(victims, e)
		}
	}
	for _, e := range victims {
		c.removeLocked(e, "invalidated")
	}
	if len(victims) > 0 {
		c.publishLocked()
	}
	return len(victims)
}

// InvalidatePage removes every cached rendering of one page, across all
// rotations and sizes.
func (c *Cache) InvalidatePage(page pages.Key) int {
	return c.Invalidate(func(k Key) bool { return k.Page == page })
}

// InvalidateSource removes every cached rendering drawn from one source
// file.
func (c *Cache) InvalidateSource(source string) int {
	return c.Invalidate(func(k Key) bool { return k.Page.Source == source })
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Bytes returns the total cached payload size.
func (c *Cache) Bytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytes
}

// degradeLocked switches to memory-only mode after a disk write failure,
// halving the byte budget since there is no disk tier to lean on.
func (c *Cache) degradeLocked(err error) {
	metrics.TempStoreWriteErrors.Inc()
	if c.memOnly {
		return
	}
	c.memOnly = true
	c.cfg.BudgetBytes /= 2
	logging.Warn("Cache: temp store write failed (%v), degrading to memory-only with %d byte budget", err, c.cfg.BudgetBytes)
	c.evictLocked()
	c.publishLocked()
}

func (c *Cache) publishLocked() {
	metrics.CacheBytes.Set(float64(c.bytes))
	metrics.CacheEntries.Set(float64(c.lru.Len()))
}

// Close releases the disk tier. In-memory entries stay readable through
// existing handles but the cache should not be used afterwards.
func (c *Cache) Close() error {
	c.mu.Lock()
	store := c.store
	c.memOnly = true
	c.mu.Unlock()

	if store != nil {
		return store.Close()
	}
	return nil
}
