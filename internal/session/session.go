// Package session keeps the per-session conversation log.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/justinj8/fintech-copilot/internal/model"
	natsclient "github.com/justinj8/fintech-copilot/internal/nats"
	"github.com/justinj8/fintech-copilot/pkg/logger"
	"github.com/justinj8/fintech-copilot/pkg/metrics"
)

// Store records question and answer turns per session. Storage is
// in-memory; when a stream manager is configured each turn is also
// mirrored to JetStream for durability.
type Store struct {
	streamManager *natsclient.StreamManager
	logger        *logger.Logger

	mu    sync.RWMutex
	turns map[string][]model.Turn
}

// NewStore creates a session store. streamManager may be nil, in which
// case turns are kept in memory only.
func NewStore(streamManager *natsclient.StreamManager, log *logger.Logger) *Store {
	return &Store{
		streamManager: streamManager,
		logger:        log,
		turns:         make(map[string][]model.Turn),
	}
}

// NewSessionID mints an identifier for a fresh session.
func NewSessionID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Append records a turn and returns it with identity and timestamp filled.
func (s *Store) Append(ctx context.Context, sessionID string, role model.Role, content string) model.Turn {
	turn := model.Turn{
		ID:        uuid.Must(uuid.NewV7()).String(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.turns[sessionID] = append(s.turns[sessionID], turn)
	s.mu.Unlock()

	metrics.TurnsTotal.WithLabelValues(string(role)).Inc()

	if s.streamManager != nil {
		if _, err := s.streamManager.PublishTurn(ctx, &turn); err != nil {
			s.logger.Warn("failed to mirror turn to stream",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
		}
	}

	return turn
}

// AppendAssistant records an assistant turn with LLM metadata attached.
func (s *Store) AppendAssistant(ctx context.Context, sessionID, content, llmModel string, tokensIn, tokensOut int, latencyMs int64) model.Turn {
	turn := s.Append(ctx, sessionID, model.RoleAssistant, content)
	if llmModel == "" {
		return turn
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	log := s.turns[sessionID]
	for i := len(log) - 1; i >= 0; i-- {
		if log[i].ID == turn.ID {
			log[i].Model = &llmModel
			log[i].TokensIn = &tokensIn
			log[i].TokensOut = &tokensOut
			log[i].LatencyMs = &latencyMs
			return log[i]
		}
	}
	return turn
}

// List returns a page of turns for a session in insertion order.
func (s *Store) List(sessionID string, limit, offset int) (*model.ListTurnsResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log, exists := s.turns[sessionID]
	if !exists {
		return nil, fmt.Errorf("session not found")
	}

	total := len(log)
	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	page := make([]model.Turn, end-start)
	copy(page, log[start:end])

	return &model.ListTurnsResponse{
		Turns:   page,
		Total:   total,
		HasMore: end < total,
	}, nil
}

// Recent returns up to window most recent turns for prompt context.
func (s *Store) Recent(sessionID string, window int) []model.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.turns[sessionID]
	if len(log) <= window {
		out := make([]model.Turn, len(log))
		copy(out, log)
		return out
	}
	out := make([]model.Turn, window)
	copy(out, log[len(log)-window:])
	return out
}

// Clear drops all turns for a session. Clearing an unknown session is a
// no-op so repeated resets are safe.
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	delete(s.turns, sessionID)
	s.mu.Unlock()
}

// Sessions returns the number of sessions with recorded turns.
func (s *Store) Sessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}
