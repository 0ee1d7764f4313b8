package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, kind := range []string{"imported", "reordered", "rotated", "deleted"} {
		CollectionOperationsTotal.WithLabelValues(kind)
	}

	for _, reason := range []string{"bytes", "entries", "invalidated"} {
		CacheEvictionsTotal.WithLabelValues(reason)
	}

	for _, outcome := range []string{"cached", "coalesced", "enqueued"} {
		PipelineRequestsTotal.WithLabelValues(outcome)
	}

	for _, status := range []string{"success", "error", "timeout"} {
		PipelineRendersTotal.WithLabelValues(status)
	}

	for _, priority := range []string{"visible", "prefetch"} {
		PipelineQueueDepth.WithLabelValues(priority)
	}

	for _, status := range []string{"success", "not_found", "unreadable", "empty", "duplicate"} {
		ImporterFilesTotal.WithLabelValues(status)
	}
}
