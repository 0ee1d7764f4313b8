// Package startup handles application initialization, configuration
// loading, and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig];
// a .env file in the working directory is honored without overriding the
// real environment. Supported variables:
//
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - TEMP_DIR: Parent directory for the thumbnail temp store (default: system temp)
//   - CACHE_BUDGET_BYTES: Thumbnail cache byte budget (default: derived from memory limit)
//   - CACHE_MAX_ENTRIES: Thumbnail cache entry ceiling (default: 512)
//   - RENDER_WORKERS: Render worker pool size (default: 4)
//   - IMPORT_WORKERS: Import probe pool size (default: 4)
//   - RENDER_TIMEOUT: Per-attempt render deadline as Go duration (default: 30s)
//   - WATCH_SOURCES: Invalidate thumbnails when source files change on disk (default: true)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_THUMBNAILS: Log thumbnail fetch requests (default: false)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//   - MEMORY_LIMIT: Container memory limit for automatic GOMEMLIMIT configuration
//   - MEMORY_RATIO: Percentage of MEMORY_LIMIT for Go heap (default: 0.80)
//   - GOMEMLIMIT: Direct override for Go's memory limit
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via
// [GetBuildInfo]: Version, Commit, BuildTime, GoVersion.
package startup
