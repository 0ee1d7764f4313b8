package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"pdf-pagetool/internal/engine"
	"pdf-pagetool/internal/pages"
	"pdf-pagetool/internal/pipeline"
	"pdf-pagetool/internal/render"

	"github.com/gorilla/mux"
)

const (
	defaultThumbWidth  = 160
	defaultThumbHeight = 220
	maxThumbDimension  = 2048
)

// Thumbnail serves the rendered thumbnail for one page. A cache hit
// returns immediately; otherwise the request rides the render pipeline
// and the response blocks until the render finishes, fails, or the
// client goes away.
//
//	GET /api/thumbnail/{source}?page=0&copy=0&w=160&h=220&priority=visible
func (h *Handlers) Thumbnail(w http.ResponseWriter, r *http.Request) {
	source := mux.Vars(r)["source"]
	q := r.URL.Query()

	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 0 {
		respondError(w, http.StatusBadRequest, "invalid page index")
		return
	}

	copyNum := 0
	if v := q.Get("copy"); v != "" {
		if copyNum, err = strconv.Atoi(v); err != nil || copyNum < 0 {
			respondError(w, http.StatusBadRequest, "invalid copy number")
			return
		}
	}

	width := queryDimension(q.Get("w"), defaultThumbWidth)
	height := queryDimension(q.Get("h"), defaultThumbHeight)

	priority := pipeline.PriorityVisible
	if q.Get("priority") == "prefetch" {
		priority = pipeline.PriorityPrefetch
	}

	key := pages.Key{Source: source, Page: page, Copy: copyNum}
	ch, err := h.engine.Thumbnail(key, width, height, priority)
	if err != nil {
		if errors.Is(err, engine.ErrUnknownPage) {
			respondError(w, http.StatusNotFound, "page not in collection")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	select {
	case res := <-ch:
		if res.Err != nil {
			respondRenderError(w, res.Err)
			return
		}
		data := res.Handle.Bytes()
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		// The URL does not encode rotation, so the bitmap behind it can
		// change at any moment.
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	case <-r.Context().Done():
		h.engine.CancelThumbnail(key, width, height)
	}
}

// respondRenderError maps the render error taxonomy onto HTTP statuses.
func respondRenderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, render.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, render.ErrCorrupt):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, render.ErrUnsupported):
		respondError(w, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, render.ErrTimeout):
		respondError(w, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, pipeline.ErrCanceled), errors.Is(err, pipeline.ErrStopped):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func queryDimension(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fallback
	}
	if n > maxThumbDimension {
		return maxThumbDimension
	}
	return n
}
