package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/justinj8/fintech-copilot/internal/analysis"
	"github.com/justinj8/fintech-copilot/internal/insight"
	"github.com/justinj8/fintech-copilot/internal/middleware"
	"github.com/justinj8/fintech-copilot/internal/model"
	"github.com/justinj8/fintech-copilot/internal/session"
	"github.com/justinj8/fintech-copilot/pkg/logger"
	"github.com/justinj8/fintech-copilot/pkg/metrics"

	"go.uber.org/zap"
)

// StreamHandler handles SSE streaming endpoints.
type StreamHandler struct {
	engine   *analysis.Engine
	insights *insight.Generator
	store    *session.Store
	logger   *logger.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(
	engine *analysis.Engine,
	insights *insight.Generator,
	store *session.Store,
	log *logger.Logger,
) *StreamHandler {
	return &StreamHandler{
		engine:   engine,
		insights: insights,
		store:    store,
		logger:   log,
	}
}

// tokenEvent is one streamed insight token.
type tokenEvent struct {
	Token string `json:"token"`
	Index int    `json:"index"`
}

// doneEvent closes the stream.
type doneEvent struct {
	Intent   string `json:"intent"`
	Fallback bool   `json:"fallback"`
}

// Stream handles GET /api/v1/ask/stream?question=...&session_id=...
// The aggregate answer is sent as a single event, then the insight
// narrative is streamed token by token.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	question := r.URL.Query().Get("question")
	if err := middleware.ValidateQuestion(question); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		sessionID = session.NewSessionID()
	} else if err := middleware.ValidateSessionID(sessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	sendSSEEvent(w, flusher, "connected", map[string]string{
		"session_id": sessionID,
	})

	h.store.Append(ctx, sessionID, model.RoleUser, question)

	answer, intent := h.engine.Answer(question)
	sendSSEEvent(w, flusher, "answer", map[string]string{
		"answer": answer,
		"intent": string(intent),
	})

	insightText, fallback := h.insights.SummarizeStream(ctx, answer, func(token string, index int) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		return sendSSEEvent(w, flusher, "token", &tokenEvent{Token: token, Index: index})
	})

	h.store.Append(ctx, sessionID, model.RoleAssistant, answer+"\n\n"+insightText)

	sendSSEEvent(w, flusher, "done", &doneEvent{
		Intent:   string(intent),
		Fallback: fallback,
	})

	h.logger.Debug("stream complete",
		zap.String("session_id", sessionID),
		zap.String("intent", string(intent)),
	)
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()

	return nil
}
