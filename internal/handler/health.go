package handler

import (
	"net/http"

	"github.com/justinj8/fintech-copilot/internal/dataset"
	natsclient "github.com/justinj8/fintech-copilot/internal/nats"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	ds         *dataset.Dataset
	natsClient *natsclient.Client
}

// NewHealthHandler creates a new health handler. natsClient may be nil
// when the optional stream mirror is not configured.
func NewHealthHandler(ds *dataset.Dataset, natsClient *natsclient.Client) *HealthHandler {
	return &HealthHandler{
		ds:         ds,
		natsClient: natsClient,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.ds == nil || h.ds.Len() == 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "dataset not loaded",
		})
		return
	}

	if h.natsClient != nil && !h.natsClient.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "NATS not connected",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
