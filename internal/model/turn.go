// Package model defines data structures for the analytics assistant.
package model

import (
	"time"
)

// Role represents the role of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Turn represents one entry in a session's conversation log.
type Turn struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`

	// LLM metadata (nil for non-assistant turns)
	Model     *string `json:"model,omitempty"`
	TokensIn  *int    `json:"tokens_in,omitempty"`
	TokensOut *int    `json:"tokens_out,omitempty"`
	LatencyMs *int64  `json:"latency_ms,omitempty"`
}

// AskRequest is the request to ask a natural-language question.
type AskRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
	Model     string `json:"model,omitempty"`
}

// AskResponse is the combined answer for one question.
type AskResponse struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
	Insight   string `json:"insight,omitempty"`
	Intent    string `json:"intent"`
	ChartPath string `json:"chart_path,omitempty"`
	Fallback  bool   `json:"fallback,omitempty"`
}

// ListTurnsResponse is the response for listing a session's turns.
type ListTurnsResponse struct {
	Turns   []Turn `json:"turns"`
	Total   int    `json:"total"`
	HasMore bool   `json:"has_more"`
}
