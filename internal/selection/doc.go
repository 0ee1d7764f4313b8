// Package selection implements the page selection model: single click,
// ctrl-click toggle, shift-click range over display order, and rectangular
// drag selection, with automatic pruning when selected pages are deleted
// from the collection.
package selection
