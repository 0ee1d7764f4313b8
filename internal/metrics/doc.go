// Package metrics defines the Prometheus metrics exported by the page tool
// engine: page collection state, thumbnail cache occupancy and evictions,
// render pipeline throughput, importer activity, and memory backpressure.
//
// Metrics are registered via promauto at package load. Call
// InitializeMetrics once at startup to pre-populate label combinations so
// that every series is present from the first scrape, and run a Collector
// to publish gauges sampled from the live engine.
package metrics
