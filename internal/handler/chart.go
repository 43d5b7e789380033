package handler

import (
	"net/http"
	"os"

	"github.com/justinj8/fintech-copilot/internal/viz"
)

// ChartHandler serves the current chart artifact.
type ChartHandler struct {
	store *viz.ArtifactStore
}

// NewChartHandler creates a new chart handler.
func NewChartHandler(store *viz.ArtifactStore) *ChartHandler {
	return &ChartHandler{store: store}
}

// Chart handles GET /api/v1/chart. Only the most recent render exists;
// before the first render this is a 404.
func (h *ChartHandler) Chart(w http.ResponseWriter, r *http.Request) {
	png, ok := h.store.Latest()
	if !ok {
		// A previous process may have left an artifact on disk.
		disk, err := os.ReadFile(h.store.Path())
		if err != nil {
			writeError(w, http.StatusNotFound, "no chart has been generated yet")
			return
		}
		png = disk
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
