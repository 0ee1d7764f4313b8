package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagetool_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pagetool_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pagetool_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Page collection metrics
var (
	CollectionPages = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pagetool_collection_pages",
			Help: "Number of pages currently in the collection",
		},
	)

	CollectionOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagetool_collection_operations_total",
			Help: "Total number of collection mutations by kind",
		},
		[]string{"kind"}, // "imported", "reordered", "rotated", "deleted"
	)

	SelectionSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pagetool_selection_size",
			Help: "Number of pages currently selected",
		},
	)
)

// Thumbnail cache metrics
var (
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagetool_cache_hits_total",
			Help: "Total number of thumbnail cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagetool_cache_misses_total",
			Help: "Total number of thumbnail cache misses",
		},
	)

	CacheEvictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagetool_cache_evictions_total",
			Help: "Total number of cache evictions by reason",
		},
		[]string{"reason"}, // "bytes", "entries", "invalidated"
	)

	CacheBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pagetool_cache_bytes",
			Help: "Total bytes held by the thumbnail cache",
		},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pagetool_cache_entries",
			Help: "Number of entries in the thumbnail cache",
		},
	)

	TempStoreWriteErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagetool_tempstore_write_errors_total",
			Help: "Total number of temp store write failures (cache degrades to memory-only)",
		},
	)
)

// Render pipeline metrics
var (
	PipelineRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagetool_pipeline_requests_total",
			Help: "Total number of thumbnail requests by outcome",
		},
		[]string{"outcome"}, // "cached", "coalesced", "enqueued"
	)

	PipelineRendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagetool_pipeline_renders_total",
			Help: "Total number of render attempts by status",
		},
		[]string{"status"}, // "success", "error", "timeout"
	)

	PipelineRenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pagetool_pipeline_render_duration_seconds",
			Help:    "Render attempt duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	PipelineQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pagetool_pipeline_queue_depth",
			Help: "Number of requests waiting in the render queue by priority",
		},
		[]string{"priority"}, // "visible", "prefetch"
	)

	PipelineInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pagetool_pipeline_in_flight",
			Help: "Number of renders currently being serviced by workers",
		},
	)

	PipelineWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pagetool_pipeline_workers",
			Help: "Configured render worker count",
		},
	)

	PipelineCancelsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagetool_pipeline_cancels_total",
			Help: "Total number of cancelled thumbnail requests",
		},
	)
)

// Importer metrics
var (
	ImporterRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagetool_importer_runs_total",
			Help: "Total number of batch import runs",
		},
	)

	ImporterFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagetool_importer_files_total",
			Help: "Total number of imported files by status",
		},
		[]string{"status"}, // "success", "not_found", "unreadable", "empty", "duplicate"
	)

	ImporterPagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagetool_importer_pages_total",
			Help: "Total number of pages added by the importer",
		},
	)

	ImporterLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pagetool_importer_last_run_duration_seconds",
			Help: "Duration of the last batch import in seconds",
		},
	)

	ImporterWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pagetool_importer_workers",
			Help: "Configured importer worker count",
		},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pagetool_memory_usage_ratio",
			Help: "Current heap usage as a fraction of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pagetool_memory_paused",
			Help: "Whether rendering is paused due to memory pressure (1 = paused)",
		},
	)
)

// Source watcher metrics
var (
	WatcherInvalidationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagetool_watcher_invalidations_total",
			Help: "Total number of cache invalidations triggered by source file changes",
		},
	)
)
