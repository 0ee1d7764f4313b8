package engine

import (
	"errors"

	"pdf-pagetool/internal/metrics"
	"pdf-pagetool/internal/pages"
	"pdf-pagetool/internal/pipeline"
	"pdf-pagetool/internal/render"
	"pdf-pagetool/internal/selection"
	"pdf-pagetool/internal/thumbcache"
)

// ErrUnknownPage means a thumbnail was requested for a key that is not in
// the collection.
var ErrUnknownPage = errors.New("page not in collection")

// Engine wires the page collection, selection model, thumbnail cache and
// render pipeline together. It owns the invalidation rules: rotating or
// deleting a page drops every cached rendering of it and cancels pending
// renders, so stale bitmaps can never be served afterwards.
type Engine struct {
	coll  *pages.Collection
	sel   *selection.Model
	cache *thumbcache.Cache
	pipe  *pipeline.Pipeline

	watcher *watcher
}

// New assembles an engine and registers the invalidation observer on the
// collection.
func New(coll *pages.Collection, sel *selection.Model, cache *thumbcache.Cache, pipe *pipeline.Pipeline) *Engine {
	e := &Engine{coll: coll, sel: sel, cache: cache, pipe: pipe}

	coll.Observe(func(ch pages.Change) {
		switch ch.Kind {
		case pages.ChangeRotated, pages.ChangeDeleted:
			for _, k := range ch.Keys {
				key := k
				e.cache.InvalidatePage(key)
				e.pipe.CancelWhere(func(ck thumbcache.Key) bool { return ck.Page == key })
			}
		}
	})
	return e
}

// Collection returns the underlying page collection.
func (e *Engine) Collection() *pages.Collection { return e.coll }

// Selection returns the underlying selection model.
func (e *Engine) Selection() *selection.Model { return e.sel }

// Cache returns the underlying thumbnail cache.
func (e *Engine) Cache() *thumbcache.Cache { return e.cache }

// Thumbnail requests a rendering of the page at its current rotation,
// fitted to the width x height bounding box. The returned channel
// delivers exactly one result; a cache hit resolves immediately.
func (e *Engine) Thumbnail(key pages.Key, width, height int, priority pipeline.Priority) (<-chan pipeline.Result, error) {
	rotation, ok := e.coll.Rotation(key)
	if !ok {
		return nil, ErrUnknownPage
	}

	size := width
	if height > size {
		size = height
	}
	ck := thumbcache.NewKey(key, rotation, size)
	req := render.Request{
		Source:   key.Source,
		Page:     key.Page,
		Rotation: rotation,
		Width:    width,
		Height:   height,
	}
	return e.pipe.Request(ck, req, priority), nil
}

// CancelThumbnail drops any pending render for the page at its current
// rotation and size bucket.
func (e *Engine) CancelThumbnail(key pages.Key, width, height int) {
	rotation, _ := e.coll.Rotation(key)
	size := width
	if height > size {
		size = height
	}
	e.pipe.Cancel(thumbcache.NewKey(key, rotation, size))
}

// Changes returns a buffered stream of collection changes for event
// consumers, plus a release func the consumer must call when done. Slow
// consumers drop events rather than stalling mutations.
func (e *Engine) Changes() (<-chan pages.Change, func()) {
	return e.coll.Subscribe()
}

// GetStats implements metrics.StatsProvider.
func (e *Engine) GetStats() metrics.Stats {
	return metrics.Stats{
		CollectionPages: e.coll.Len(),
		SelectedPages:   e.sel.Len(),
		CacheBytes:      e.cache.Bytes(),
		CacheEntries:    e.cache.Len(),
	}
}

// Close stops the source watcher if one was started.
func (e *Engine) Close() error {
	if e.watcher != nil {
		return e.watcher.close()
	}
	return nil
}
