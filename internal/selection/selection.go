package selection

import (
	"sync"

	"pdf-pagetool/internal/logging"
	"pdf-pagetool/internal/metrics"
	"pdf-pagetool/internal/pages"
)

// Model tracks which page keys are selected, plus the anchor used for
// range selection and the last-clicked key. Selection is always a subset
// of the live collection: deleted keys are pruned automatically through a
// collection observer registered at construction.
type Model struct {
	mu        sync.RWMutex
	coll      *pages.Collection
	selected  map[pages.Key]struct{}
	anchor    pages.Key
	hasAnchor bool
	last      pages.Key
	hasLast   bool
}

// NewModel creates a selection model bound to a collection.
func NewModel(coll *pages.Collection) *Model {
	m := &Model{
		coll:     coll,
		selected: make(map[pages.Key]struct{}),
	}
	coll.Observe(func(ch pages.Change) {
		if ch.Kind == pages.ChangeDeleted {
			m.prune(ch.Keys)
		}
	})
	return m
}

// Click replaces the selection with the single key and moves the anchor
// to it.
func (m *Model) Click(key pages.Key) {
	m.mu.Lock()
	m.selected = map[pages.Key]struct{}{key: {}}
	m.anchor = key
	m.hasAnchor = true
	m.last = key
	m.hasLast = true
	m.mu.Unlock()
	m.publishSize()
}

// CtrlClick toggles membership of the key without disturbing the rest of
// the selection. The anchor is unchanged.
func (m *Model) CtrlClick(key pages.Key) {
	m.mu.Lock()
	if _, ok := m.selected[key]; ok {
		delete(m.selected, key)
	} else {
		m.selected[key] = struct{}{}
	}
	m.last = key
	m.hasLast = true
	m.mu.Unlock()
	m.publishSize()
}

// ShiftClick replaces the selection with the contiguous display-order range
// between the anchor and the key, inclusive. The anchor is unchanged. With
// no anchor set it behaves like Click.
func (m *Model) ShiftClick(key pages.Key) {
	m.mu.Lock()
	if !m.hasAnchor {
		m.mu.Unlock()
		m.Click(key)
		return
	}
	anchor := m.anchor
	m.mu.Unlock()

	snap := m.coll.Snapshot()
	lo, hi := -1, -1
	for i, e := range snap {
		if e.Key == anchor || e.Key == key {
			if lo == -1 {
				lo = i
			}
			hi = i
		}
	}
	if lo == -1 {
		logging.Debug("ShiftClick range endpoints not in collection, selecting %v only", key)
		m.Click(key)
		return
	}

	next := make(map[pages.Key]struct{}, hi-lo+1)
	for _, e := range snap[lo : hi+1] {
		next[e.Key] = struct{}{}
	}

	m.mu.Lock()
	m.selected = next
	m.last = key
	m.hasLast = true
	m.mu.Unlock()
	m.publishSize()
}

// RangeDrag replaces the selection with exactly the given key set
// (rectangular selection semantics). The anchor resets to the first member
// of the set in display order.
func (m *Model) RangeDrag(keys []pages.Key) {
	next := make(map[pages.Key]struct{}, len(keys))
	for _, k := range keys {
		next[k] = struct{}{}
	}

	var anchor pages.Key
	hasAnchor := false
	for _, e := range m.coll.Snapshot() {
		if _, ok := next[e.Key]; ok {
			anchor = e.Key
			hasAnchor = true
			break
		}
	}

	m.mu.Lock()
	m.selected = next
	m.anchor = anchor
	m.hasAnchor = hasAnchor
	m.mu.Unlock()
	m.publishSize()
}

// Clear empties the selection and drops the anchor.
func (m *Model) Clear() {
	m.mu.Lock()
	m.selected = make(map[pages.Key]struct{})
	m.hasAnchor = false
	m.hasLast = false
	m.mu.Unlock()
	m.publishSize()
}

// Selected returns the selected keys in display order.
func (m *Model) Selected() []pages.Key {
	m.mu.RLock()
	set := make(map[pages.Key]struct{}, len(m.selected))
	for k := range m.selected {
		set[k] = struct{}{}
	}
	m.mu.RUnlock()

	out := make([]pages.Key, 0, len(set))
	for _, e := range m.coll.Snapshot() {
		if _, ok := set[e.Key]; ok {
			out = append(out, e.Key)
		}
	}
	return out
}

// IsSelected reports whether the key is currently selected.
func (m *Model) IsSelected(key pages.Key) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.selected[key]
	return ok
}

// Anchor returns the current anchor key, if any.
func (m *Model) Anchor() (pages.Key, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.anchor, m.hasAnchor
}

// LastClicked returns the most recently clicked key, if any.
func (m *Model) LastClicked() (pages.Key, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last, m.hasLast
}

// Len returns the number of selected keys.
func (m *Model) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.selected)
}

// prune drops deleted keys from the selection and clears the anchor if it
// was removed.
func (m *Model) prune(removed []pages.Key) {
	m.mu.Lock()
	pruned := 0
	for _, k := range removed {
		if _, ok := m.selected[k]; ok {
			delete(m.selected, k)
			pruned++
		}
		if m.hasAnchor && m.anchor == k {
			m.hasAnchor = false
		}
		if m.hasLast && m.last == k {
			m.hasLast = false
		}
	}
	m.mu.Unlock()

	if pruned > 0 {
		logging.Debug("Pruned %d deleted keys from selection", pruned)
		m.publishSize()
	}
}

func (m *Model) publishSize() {
	metrics.SelectionSize.Set(float64(m.Len()))
}
