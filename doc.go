// Package main provides the entry point for the PDF PageTool service.
//
// PDF PageTool maintains an ordered, mutable collection of pages drawn
// from any number of source PDF files and serves thumbnails for those
// pages through a bounded asynchronous render pipeline backed by an LRU
// cache.
//
// # Application Lifecycle
//
// The service follows a structured initialization sequence:
//
//  1. Memory Configuration: Sets GOMEMLIMIT from environment or cgroup limits
//  2. Configuration Loading: Reads environment variables and validates the temp directory
//  3. Renderer Initialization: Starts libvips, with poppler subprocess fallback
//  4. Component Initialization:
//     - Thumbnail Cache: LRU over rendered bitmaps, disk-backed temp store
//     - Memory Monitor: Pauses render workers under memory pressure
//     - Render Pipeline: Priority-ordered worker pool over the renderers
//     - Page Collection and Selection Model
//     - Importer: Parallel page-count probing with ordered commits
//     - Source Watcher: Invalidates cached thumbnails when files change
//     - Metrics Collector: Gathers Prometheus gauges
//  5. HTTP Server Setup: Configures routes, middleware, and starts the server
//  6. Graceful Shutdown: Handles SIGINT/SIGTERM, stops all components cleanly
//
// # HTTP Servers
//
// The service runs two HTTP servers:
//
//  1. Main Server (default port 8080):
//     - Import, page listing and mutation endpoints
//     - Selection endpoints mirroring click/ctrl-click/shift-click gestures
//     - Thumbnail serving through the render pipeline
//     - Collection change events over SSE
//     - Health, readiness, liveness and version probes
//
//  2. Metrics Server (default port 9090, optional):
//     - Prometheus metrics endpoint (/metrics)
//
// # Environment Variables
//
// Configuration is primarily through environment variables; see
// pdf-pagetool/internal/startup for the full list:
//
//   - PORT: Main HTTP server port (default: 8080)
//   - METRICS_PORT: Metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable metrics server (default: true)
//   - TEMP_DIR: Parent directory for the thumbnail temp store
//   - CACHE_BUDGET_BYTES: Thumbnail cache byte budget
//   - RENDER_WORKERS / IMPORT_WORKERS: Worker pool sizes
//   - RENDER_TIMEOUT: Per-attempt render deadline (default: 30s)
//   - WATCH_SOURCES: Invalidate thumbnails on source file changes (default: true)
//   - LOG_LEVEL: Logging level (debug/info/warn/error)
//   - GOMEMLIMIT: Memory limit (auto-detected from cgroups if not set)
//
// # Graceful Shutdown
//
// On SIGINT or SIGTERM the service stops accepting requests, drains the
// render pipeline (pending requests fail fast), stops the metrics
// collector and servers, and removes the thumbnail temp store.
//
// # Build Requirements
//
// The service requires CGO for libvips. The poppler utilities (pdftoppm,
// pdfinfo) are optional; without them the fallback renderer and the
// importer's page counter are degraded.
package main
