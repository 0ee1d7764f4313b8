package handlers

import (
	"net/http"
	"runtime"
	"time"

	"pdf-pagetool/internal/startup"
)

const (
	statusHealthy = "healthy"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status          string `json:"status"`
	Version         string `json:"version"`
	Uptime          string `json:"uptime"`
	CollectionPages int    `json:"collectionPages"`
	SelectedPages   int    `json:"selectedPages"`
	CacheEntries    int    `json:"cacheEntries"`
	CacheBytes      int64  `json:"cacheBytes"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	stats := h.engine.GetStats()

	response := HealthResponse{
		Status:          statusHealthy,
		Version:         startup.Version,
		Uptime:          time.Since(h.startTime).Round(time.Second).String(),
		CollectionPages: stats.CollectionPages,
		SelectedPages:   stats.SelectedPages,
		CacheEntries:    stats.CacheEntries,
		CacheBytes:      stats.CacheBytes,
		GoVersion:       runtime.Version(),
		NumCPU:          runtime.NumCPU(),
		NumGoroutine:    runtime.NumGoroutine(),
	}

	respondJSON(w, http.StatusOK, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if the
// server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": "alive"})
	}
}

// ReadinessCheck returns 200 once the engine is wired up. The collection
// starts empty, so readiness does not depend on any import having run.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
