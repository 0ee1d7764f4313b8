// Package pipeline schedules asynchronous thumbnail rendering over a
// bounded worker pool. Duplicate requests for a key coalesce onto one
// job, visible requests dispatch before prefetch, each attempt is
// deadline-bounded, and only successful renders reach the cache.
package pipeline
