package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/justinj8/fintech-copilot/internal/middleware"
	"github.com/justinj8/fintech-copilot/internal/session"
	"github.com/justinj8/fintech-copilot/pkg/logger"
)

// SessionHandler exposes the per-session conversation log.
type SessionHandler struct {
	store  *session.Store
	logger *logger.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(store *session.Store, log *logger.Logger) *SessionHandler {
	return &SessionHandler{store: store, logger: log}
}

// ListTurns handles GET /api/v1/sessions/{id}/turns
func (h *SessionHandler) ListTurns(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if err := middleware.ValidateSessionID(sessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			offset = n
		}
	}

	resp, err := h.store.List(sessionID, limit, offset)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ClearTurns handles DELETE /api/v1/sessions/{id}/turns
func (h *SessionHandler) ClearTurns(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if err := middleware.ValidateSessionID(sessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.store.Clear(sessionID)
	w.WriteHeader(http.StatusNoContent)
}
