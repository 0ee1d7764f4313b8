package handlers

import (
	"net/http"

	"pdf-pagetool/internal/pages"
)

type importRequest struct {
	Paths []string `json:"paths"`
}

// importResult is the wire form of one file's import outcome.
type importResult struct {
	Path  string      `json:"path"`
	Keys  []pages.Key `json:"keys,omitempty"`
	Error string      `json:"error,omitempty"`
}

// ImportFiles imports a batch of PDF files. Files are probed in parallel
// but their pages land in the collection in request order. Partial
// failure is reported per file, not as a request failure.
func (h *Handlers) ImportFiles(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Paths) == 0 {
		respondError(w, http.StatusBadRequest, "paths must not be empty")
		return
	}

	results := h.importer.ImportAll(r.Context(), req.Paths)

	out := make([]importResult, len(results))
	imported := 0
	for i, res := range results {
		out[i] = importResult{Path: res.Path, Keys: res.Keys}
		if res.Err != nil {
			out[i].Error = res.Err.Error()
		} else {
			imported++
		}
	}

	status := http.StatusOK
	if imported == 0 {
		status = http.StatusUnprocessableEntity
	}
	respondJSON(w, status, map[string]interface{}{
		"results":  out,
		"imported": imported,
	})
}
