// Package middleware provides the HTTP middleware chain for the page
// tool server: W3C access logging, Prometheus request metrics, and gzip
// compression for JSON responses. Thumbnail fetches and event streams get
// special handling so high-volume and long-lived requests do not distort
// logs or metrics.
package middleware
