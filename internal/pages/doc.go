// Package pages holds the ordered, mutable model of pages drawn from the
// imported source PDF files: page identity, cumulative rotation, display
// order, and the change notification surface the rest of the engine hangs
// off (cache invalidation, selection pruning, UI events).
package pages
