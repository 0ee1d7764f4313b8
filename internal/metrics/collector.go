package metrics

import (
	"time"

	"pdf-pagetool/internal/logging"
)

// StatsProvider interface for collecting engine stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current engine statistics
type Stats struct {
	CollectionPages int
	SelectedPages   int
	CacheBytes      int64
	CacheEntries    int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	CollectionPages.Set(float64(stats.CollectionPages))
	SelectionSize.Set(float64(stats.SelectedPages))
	CacheBytes.Set(float64(stats.CacheBytes))
	CacheEntries.Set(float64(stats.CacheEntries))

	logging.Debug("Metrics collected: %d pages, %d selected, %d cache entries (%d bytes)",
		stats.CollectionPages, stats.SelectedPages, stats.CacheEntries, stats.CacheBytes)
}
