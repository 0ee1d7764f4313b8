package pages

import (
	"sync"

	"pdf-pagetool/internal/logging"
	"pdf-pagetool/internal/metrics"
)

// subscriberBuffer is the channel depth for asynchronous change subscribers.
// Sends never block; a subscriber that falls this far behind loses events.
const subscriberBuffer = 64

// Collection is the ordered, mutable sequence of pages assembled from the
// imported source files. Keys are unique within the sequence and insertion
// order is display order.
//
// All methods are safe for concurrent use. Mutations are atomic with
// respect to each other; readers never observe a partially applied move.
type Collection struct {
	mu      sync.RWMutex
	entries []Entry
	index   map[Key]int

	imported map[string]bool // sources whose primary import already happened
	copies   map[string]int  // next copy namespace per source

	obsMu     sync.RWMutex
	observers []func(Change)
	subs      []chan Change
}

// NewCollection creates an empty page collection.
func NewCollection() *Collection {
	return &Collection{
		index:    make(map[Key]int),
		imported: make(map[string]bool),
		copies:   make(map[string]int),
	}
}

// Observe registers a synchronous observer invoked after every mutation,
// outside the collection lock. Used for in-process wiring such as selection
// pruning and cache invalidation.
func (c *Collection) Observe(fn func(Change)) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.observers = append(c.observers, fn)
}

// Subscribe returns a buffered channel of collection changes for the UI
// layer plus a release func that removes the subscription. Sends are
// non-blocking; slow subscribers drop events. Callers must release when
// done or the subscription outlives them.
func (c *Collection) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, subscriberBuffer)
	c.obsMu.Lock()
	c.subs = append(c.subs, ch)
	c.obsMu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			c.obsMu.Lock()
			// Rebuild rather than shift in place: notify iterates a
			// snapshot of this slice outside the lock.
			next := make([]chan Change, 0, len(c.subs))
			for _, sub := range c.subs {
				if sub != ch {
					next = append(next, sub)
				}
			}
			c.subs = next
			c.obsMu.Unlock()
		})
	}
	return ch, release
}

func (c *Collection) notify(change Change) {
	metrics.CollectionOperationsTotal.WithLabelValues(string(change.Kind)).Inc()
	metrics.CollectionPages.Set(float64(c.Len()))

	c.obsMu.RLock()
	observers := c.observers
	subs := c.subs
	c.obsMu.RUnlock()

	for _, fn := range observers {
		fn(change)
	}
	for _, ch := range subs {
		select {
		case ch <- change:
		default:
			logging.Debug("Dropping %s change notification: subscriber backlogged", change.Kind)
		}
	}
}

// Import appends pageCount entries for source at the end of the sequence,
// rotation 0, in natural page order, and returns their keys. A source that
// was already imported is rejected with ErrDuplicateImport; use ImportCopy
// to include a file a second time on purpose.
func (c *Collection) Import(source string, pageCount int) ([]Key, error) {
	if pageCount <= 0 {
		return nil, ErrEmptyDocument
	}

	c.mu.Lock()
	if c.imported[source] {
		c.mu.Unlock()
		return nil, ErrDuplicateImport
	}
	c.imported[source] = true
	keys := c.appendLocked(source, pageCount, 0)
	c.mu.Unlock()

	logging.Info("Imported %d pages from %s", pageCount, source)
	c.notify(Change{Kind: ChangeImported, Keys: keys})
	return keys, nil
}

// ImportCopy appends pageCount entries for source under a fresh copy
// namespace. It never conflicts with earlier imports of the same file.
func (c *Collection) ImportCopy(source string, pageCount int) ([]Key, error) {
	if pageCount <= 0 {
		return nil, ErrEmptyDocument
	}

	c.mu.Lock()
	c.copies[source]++
	copyNum := c.copies[source]
	keys := c.appendLocked(source, pageCount, copyNum)
	c.mu.Unlock()

	logging.Info("Imported %d pages from %s (copy %d)", pageCount, source, copyNum)
	c.notify(Change{Kind: ChangeImported, Keys: keys})
	return keys, nil
}

func (c *Collection) appendLocked(source string, pageCount, copyNum int) []Key {
	keys := make([]Key, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		key := Key{Source: source, Page: i, Copy: copyNum}
		c.index[key] = len(c.entries)
		c.entries = append(c.entries, Entry{Key: key})
		keys = append(keys, key)
	}
	return keys
}

// Move removes the given keys preserving their relative display order, then
// re-inserts that contiguous block starting at target (clamped to the
// remaining sequence length). Unknown keys are ignored. Moving a block to
// its current position is a no-op and emits no change.
func (c *Collection) Move(keys []Key, target int) {
	if len(keys) == 0 {
		return
	}

	wanted := make(map[Key]bool, len(keys))
	for _, k := range keys {
		wanted[k] = true
	}

	c.mu.Lock()

	block := make([]Entry, 0, len(keys))
	remaining := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		if wanted[e.Key] {
			block = append(block, e)
		} else {
			remaining = append(remaining, e)
		}
	}
	if len(block) == 0 {
		c.mu.Unlock()
		return
	}

	if target < 0 {
		target = 0
	}
	if target > len(remaining) {
		target = len(remaining)
	}

	next := make([]Entry, 0, len(c.entries))
	next = append(next, remaining[:target]...)
	next = append(next, block...)
	next = append(next, remaining[target:]...)

	if equalOrder(c.entries, next) {
		c.mu.Unlock()
		return
	}

	c.entries = next
	c.reindexLocked()
	moved := make([]Key, len(block))
	for i, e := range block {
		moved[i] = e.Key
	}
	c.mu.Unlock()

	c.notify(Change{Kind: ChangeReordered, Keys: moved})
}

// Rotate adds delta degrees (any multiple of 90, positive or negative) to
// each key's cumulative rotation, modulo 360. Unknown keys are tolerated:
// deletion and rotation can race from concurrent UI actions.
func (c *Collection) Rotate(keys []Key, delta int) {
	c.mu.Lock()
	rotated := make([]Key, 0, len(keys))
	for _, k := range keys {
		i, ok := c.index[k]
		if !ok {
			continue
		}
		c.entries[i].Rotation = normalizeRotation(c.entries[i].Rotation + delta)
		rotated = append(rotated, k)
	}
	c.mu.Unlock()

	if len(rotated) == 0 {
		return
	}
	logging.Debug("Rotated %d pages by %d degrees", len(rotated), delta)
	c.notify(Change{Kind: ChangeRotated, Keys: rotated})
}

// Delete removes the given entries and returns the keys actually removed,
// which may be a subset when some keys were already gone.
func (c *Collection) Delete(keys []Key) []Key {
	wanted := make(map[Key]bool, len(keys))
	for _, k := range keys {
		wanted[k] = true
	}

	c.mu.Lock()
	removed := make([]Key, 0, len(keys))
	kept := c.entries[:0]
	for _, e := range c.entries {
		if wanted[e.Key] {
			removed = append(removed, e.Key)
			delete(c.index, e.Key)
		} else {
			kept = append(kept, e)
		}
	}
	c.entries = kept
	c.reindexLocked()
	c.mu.Unlock()

	if len(removed) == 0 {
		return removed
	}
	logging.Info("Deleted %d pages", len(removed))
	c.notify(Change{Kind: ChangeDeleted, Keys: removed})
	return removed
}

// Snapshot returns a consistent point-in-time copy of the sequence.
func (c *Collection) Snapshot() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Rotation returns the current rotation of a key, and whether it exists.
func (c *Collection) Rotation(key Key) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[key]
	if !ok {
		return 0, false
	}
	return c.entries[i].Rotation, true
}

// Contains reports whether the key is present in the collection.
func (c *Collection) Contains(key Key) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.index[key]
	return ok
}

// Len returns the number of pages in the collection.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Collection) reindexLocked() {
	for k := range c.index {
		delete(c.index, k)
	}
	for i, e := range c.entries {
		c.index[e.Key] = i
	}
}

func equalOrder(a, b []Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Key != b[i].Key {
			return false
		}
	}
	return true
}
