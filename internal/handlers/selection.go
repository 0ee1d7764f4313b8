package handlers

import (
	"net/http"

	"pdf-pagetool/internal/pages"
)

type selectionKeyRequest struct {
	Key pages.Key `json:"key"`
}

type selectionRangeRequest struct {
	Keys []pages.Key `json:"keys"`
}

// GetSelection returns the selected keys in display order plus the
// anchor and last-clicked key.
func (h *Handlers) GetSelection(w http.ResponseWriter, _ *http.Request) {
	sel := h.engine.Selection()

	resp := map[string]interface{}{
		"selected": sel.Selected(),
		"count":    sel.Len(),
	}
	if anchor, ok := sel.Anchor(); ok {
		resp["anchor"] = anchor
	}
	if last, ok := sel.LastClicked(); ok {
		resp["lastClicked"] = last
	}
	respondJSON(w, http.StatusOK, resp)
}

// SelectionClick replaces the selection with one key.
func (h *Handlers) SelectionClick(w http.ResponseWriter, r *http.Request) {
	var req selectionKeyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.engine.Selection().Click(req.Key)
	h.GetSelection(w, r)
}

// SelectionCtrlClick toggles one key in the selection.
func (h *Handlers) SelectionCtrlClick(w http.ResponseWriter, r *http.Request) {
	var req selectionKeyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.engine.Selection().CtrlClick(req.Key)
	h.GetSelection(w, r)
}

// SelectionShiftClick selects the display-order range from the anchor to
// the key.
func (h *Handlers) SelectionShiftClick(w http.ResponseWriter, r *http.Request) {
	var req selectionKeyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.engine.Selection().ShiftClick(req.Key)
	h.GetSelection(w, r)
}

// SelectionRange replaces the selection with the given key set.
func (h *Handlers) SelectionRange(w http.ResponseWriter, r *http.Request) {
	var req selectionRangeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.engine.Selection().RangeDrag(keyList(req.Keys))
	h.GetSelection(w, r)
}

// SelectionClear empties the selection.
func (h *Handlers) SelectionClear(w http.ResponseWriter, r *http.Request) {
	h.engine.Selection().Clear()
	h.GetSelection(w, r)
}
