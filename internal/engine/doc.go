// Package engine ties the page collection, selection model, thumbnail
// cache and render pipeline into one coherent unit and enforces the
// cross-cutting rules: mutations invalidate stale cache entries, deletes
// prune the selection, and on-disk source changes flush affected
// thumbnails.
package engine
