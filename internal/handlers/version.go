package handlers

import (
	"net/http"

	"pdf-pagetool/internal/startup"
)

// Version returns build information.
func (h *Handlers) Version(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, startup.GetBuildInfo())
}
