package handlers

import (
	"net/http"

	"pdf-pagetool/internal/pages"
)

// pageEntry is the wire form of one collection entry.
type pageEntry struct {
	Key      pages.Key `json:"key"`
	Rotation int       `json:"rotation"`
	Index    int       `json:"index"`
}

// ListPages returns the collection in display order.
func (h *Handlers) ListPages(w http.ResponseWriter, _ *http.Request) {
	snap := h.engine.Collection().Snapshot()

	entries := make([]pageEntry, len(snap))
	for i, e := range snap {
		entries[i] = pageEntry{Key: e.Key, Rotation: e.Rotation, Index: i}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"pages": entries,
		"count": len(entries),
	})
}

type moveRequest struct {
	Keys   []pages.Key `json:"keys"`
	Target int         `json:"target"`
}

// MovePages moves a block of pages to a new position.
func (h *Handlers) MovePages(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Keys) == 0 {
		respondError(w, http.StatusBadRequest, "keys must not be empty")
		return
	}

	h.engine.Collection().Move(keyList(req.Keys), req.Target)
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type rotateRequest struct {
	Keys  []pages.Key `json:"keys"`
	Delta int         `json:"delta"`
}

// RotatePages adds a rotation delta to each page.
func (h *Handlers) RotatePages(w http.ResponseWriter, r *http.Request) {
	var req rotateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Keys) == 0 {
		respondError(w, http.StatusBadRequest, "keys must not be empty")
		return
	}
	if req.Delta%90 != 0 {
		respondError(w, http.StatusBadRequest, "delta must be a multiple of 90")
		return
	}

	h.engine.Collection().Rotate(keyList(req.Keys), req.Delta)
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type deleteRequest struct {
	Keys []pages.Key `json:"keys"`
}

// DeletePages removes pages from the collection and reports which keys
// were actually removed.
func (h *Handlers) DeletePages(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Keys) == 0 {
		respondError(w, http.StatusBadRequest, "keys must not be empty")
		return
	}

	removed := h.engine.Collection().Delete(keyList(req.Keys))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"removed": removed,
		"count":   len(removed),
	})
}
