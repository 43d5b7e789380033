package handler

import (
	"encoding/json"
	"net/http"

	"github.com/justinj8/fintech-copilot/internal/agent"
	"github.com/justinj8/fintech-copilot/internal/middleware"
	"github.com/justinj8/fintech-copilot/internal/model"
	"github.com/justinj8/fintech-copilot/internal/session"
	"github.com/justinj8/fintech-copilot/pkg/logger"
)

// AskHandler answers natural-language questions about the dataset.
type AskHandler struct {
	orchestrator *agent.Orchestrator
	store        *session.Store
	logger       *logger.Logger
}

// NewAskHandler creates a new ask handler.
func NewAskHandler(orchestrator *agent.Orchestrator, store *session.Store, log *logger.Logger) *AskHandler {
	return &AskHandler{
		orchestrator: orchestrator,
		store:        store,
		logger:       log,
	}
}

// Ask handles POST /api/v1/ask
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateQuestion(req.Question); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = session.NewSessionID()
	} else if err := middleware.ValidateSessionID(sessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.store.Append(ctx, sessionID, model.RoleUser, req.Question)

	result := h.orchestrator.Run(ctx, sessionID, req.Question)

	h.store.AppendAssistant(ctx, sessionID, result.Answer,
		result.Model, result.TokensIn, result.TokensOut, result.LatencyMs)

	writeJSON(w, http.StatusOK, &model.AskResponse{
		SessionID: sessionID,
		Answer:    result.Answer,
		Insight:   result.Insight,
		Intent:    result.Intent,
		ChartPath: result.ChartPath,
		Fallback:  result.Fallback,
	})
}
