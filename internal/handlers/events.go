package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"pdf-pagetool/internal/logging"
)

// keepaliveInterval is how often an SSE comment is sent to hold idle
// connections open through proxies.
const keepaliveInterval = 30 * time.Second

// Events streams collection changes as Server-Sent Events. Each mutation
// produces one "change" event whose data is the JSON change record. A
// subscriber that falls behind misses events and should re-sync via
// GET /api/pages.
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	changes, release := h.engine.Changes()
	defer release()
	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case change := <-changes:
			data, err := json.Marshal(change)
			if err != nil {
				logging.Error("Failed to marshal change event: %v", err)
				continue
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", data)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}
