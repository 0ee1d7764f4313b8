package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"pdf-pagetool/internal/engine"
	"pdf-pagetool/internal/importer"
	"pdf-pagetool/internal/logging"
	"pdf-pagetool/internal/pages"

	"github.com/gorilla/mux"
)

// Handlers carries the HTTP layer's dependencies.
type Handlers struct {
	engine    *engine.Engine
	importer  *importer.Importer
	startTime time.Time
}

// New creates the handler set.
func New(eng *engine.Engine, imp *importer.Importer) *Handlers {
	return &Handlers{
		engine:    eng,
		importer:  imp,
		startTime: time.Now(),
	}
}

// RegisterRoutes attaches every API and probe route to the router.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	router.HandleFunc("/version", h.Version).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/import", h.ImportFiles).Methods(http.MethodPost)
	api.HandleFunc("/pages", h.ListPages).Methods(http.MethodGet)
	api.HandleFunc("/pages/move", h.MovePages).Methods(http.MethodPost)
	api.HandleFunc("/pages/rotate", h.RotatePages).Methods(http.MethodPost)
	api.HandleFunc("/pages/delete", h.DeletePages).Methods(http.MethodPost)
	api.HandleFunc("/selection", h.GetSelection).Methods(http.MethodGet)
	api.HandleFunc("/selection/click", h.SelectionClick).Methods(http.MethodPost)
	api.HandleFunc("/selection/ctrl-click", h.SelectionCtrlClick).Methods(http.MethodPost)
	api.HandleFunc("/selection/shift-click", h.SelectionShiftClick).Methods(http.MethodPost)
	api.HandleFunc("/selection/range", h.SelectionRange).Methods(http.MethodPost)
	api.HandleFunc("/selection/clear", h.SelectionClear).Methods(http.MethodPost)
	api.HandleFunc("/thumbnail/{source:.+}", h.Thumbnail).Methods(http.MethodGet)
	api.HandleFunc("/events", h.Events).Methods(http.MethodGet)
}

// writeJSON encodes v as the response body. The status must already be
// written.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("Failed to encode JSON response: %v", err)
	}
}

// respondJSON writes a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	writeJSON(w, v)
}

// respondError writes a JSON error body.
func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// decodeBody parses the request body into v, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// keyList converts wire keys into collection keys.
func keyList(in []pages.Key) []pages.Key {
	out := make([]pages.Key, len(in))
	copy(out, in)
	return out
}
