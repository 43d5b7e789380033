// Package agent orchestrates the tool-calling loop that answers a
// business question end to end.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/justinj8/fintech-copilot/internal/analysis"
	"github.com/justinj8/fintech-copilot/internal/glossary"
	"github.com/justinj8/fintech-copilot/internal/insight"
	"github.com/justinj8/fintech-copilot/internal/llm"
	"github.com/justinj8/fintech-copilot/internal/model"
	"github.com/justinj8/fintech-copilot/internal/session"
	"github.com/justinj8/fintech-copilot/internal/viz"
	"github.com/justinj8/fintech-copilot/pkg/logger"
	"github.com/justinj8/fintech-copilot/pkg/metrics"
)

const systemPrompt = `You are an expert fintech data analyst and business intelligence assistant.

Your capabilities:
- Deep understanding of fintech metrics, KPIs, and business models
- Advanced data analysis and statistical reasoning
- Intelligent visualization selection based on data types and user intent
- Context-aware responses that build on conversation history
- Ability to handle ambiguous questions by asking clarifying questions or making reasonable assumptions

Approach:
1. ALWAYS start with Smart Analyzer to understand the user's intent
2. Use context from conversation history to provide relevant insights
3. Choose appropriate visualizations based on data type and analysis goal
4. Provide actionable business insights, not just data summaries
5. Ask clarifying questions when needed, but also make intelligent assumptions
6. Consider multiple angles: customer behavior, business impact, trends, and recommendations

Dataset Context: Fintech product data including customer demographics, account tiers, spending patterns, feature usage, and churn data.

To use a tool, respond with a JSON object:
{"action": "<tool name>", "action_input": "<tool input>"}

When you have the final answer, respond with:
{"action": "Final Answer", "action_input": "<your answer>"}`

// Result is the combined output for one question.
type Result struct {
	Answer    string
	Insight   string
	Intent    string
	ChartPath string
	Fallback  bool

	Model     string
	TokensIn  int
	TokensOut int
	LatencyMs int64
}

// Orchestrator drives the LLM action loop over the tool registry, with a
// deterministic pipeline behind it for when no LLM is configured or the
// loop fails.
type Orchestrator struct {
	client   llm.Client
	planner  *analysis.Planner
	engine   *analysis.Engine
	selector *viz.Selector
	insights *insight.Generator
	glossary *glossary.Glossary
	store    *session.Store
	log      *logger.Logger

	window   int
	maxSteps int
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithMemoryWindow sets how many recent turns are replayed as context.
func WithMemoryWindow(n int) Option {
	return func(o *Orchestrator) { o.window = n }
}

// WithMaxSteps caps the number of tool-call iterations per question.
func WithMaxSteps(n int) Option {
	return func(o *Orchestrator) { o.maxSteps = n }
}

// New creates an orchestrator. A nil client forces the deterministic
// pipeline for every question.
func New(
	client llm.Client,
	planner *analysis.Planner,
	engine *analysis.Engine,
	selector *viz.Selector,
	insights *insight.Generator,
	gl *glossary.Glossary,
	store *session.Store,
	log *logger.Logger,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		client:   client,
		planner:  planner,
		engine:   engine,
		selector: selector,
		insights: insights,
		glossary: gl,
		store:    store,
		log:      log,
		window:   10,
		maxSteps: 5,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// action is the JSON shape the model must emit each step.
type action struct {
	Action      string `json:"action"`
	ActionInput string `json:"action_input"`
}

// runState carries the mutable state of a single Run call. Tools write to
// it instead of the orchestrator, which serves concurrent requests.
type runState struct {
	chartPath string
}

// Run answers one question. It never fails: every LLM or parsing failure
// degrades to the deterministic pipeline.
func (o *Orchestrator) Run(ctx context.Context, sessionID, question string) *Result {
	if o.client == nil {
		return o.pipeline(ctx, question)
	}

	result, err := o.actionLoop(ctx, sessionID, question)
	if err != nil {
		o.log.Warn("agent loop failed, using deterministic pipeline",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		metrics.LLMFallbacksTotal.WithLabelValues("agent").Inc()
		return o.pipeline(ctx, question)
	}
	return result
}

func (o *Orchestrator) actionLoop(ctx context.Context, sessionID, question string) (*Result, error) {
	st := &runState{}

	messages := []llm.ChatMessage{{Role: "system", Content: o.systemMessage()}}
	for _, turn := range o.store.Recent(sessionID, o.window) {
		role := "user"
		if turn.Role == model.RoleAssistant {
			role = "assistant"
		}
		messages = append(messages, llm.ChatMessage{Role: role, Content: turn.Content})
	}
	messages = append(messages, llm.ChatMessage{Role: "user", Content: question})

	var tokensIn, tokensOut int
	var latencyMs int64
	var llmModel string

	for step := 0; step < o.maxSteps; step++ {
		resp, err := o.client.Complete(ctx, &llm.CompletionRequest{
			Messages:    messages,
			Temperature: 0.1,
		})
		if err != nil {
			return nil, fmt.Errorf("completion failed at step %d: %w", step, err)
		}

		tokensIn += resp.TokensIn
		tokensOut += resp.TokensOut
		latencyMs += resp.LatencyMs
		llmModel = resp.Model
		metrics.RecordLLMRequest(resp.Model, "success", float64(resp.LatencyMs)/1000.0, resp.TokensIn, resp.TokensOut)

		raw, ok := llm.ExtractJSON(resp.Content)
		if !ok {
			return nil, fmt.Errorf("no action JSON at step %d", step)
		}
		var act action
		if err := json.Unmarshal([]byte(raw), &act); err != nil {
			return nil, fmt.Errorf("malformed action at step %d: %w", step, err)
		}

		if strings.EqualFold(act.Action, "Final Answer") {
			insightText, insightFallback := o.insights.Summarize(ctx, act.ActionInput)
			return &Result{
				Answer:    act.ActionInput,
				Insight:   insightText,
				Intent:    string(analysis.Classify(question)),
				ChartPath: st.chartPath,
				Fallback:  insightFallback,
				Model:     llmModel,
				TokensIn:  tokensIn,
				TokensOut: tokensOut,
				LatencyMs: latencyMs,
			}, nil
		}

		tool, found := o.findTool(st, act.Action)
		if !found {
			return nil, fmt.Errorf("unknown tool %q at step %d", act.Action, step)
		}

		observation := tool.Run(ctx, act.ActionInput)
		messages = append(messages,
			llm.ChatMessage{Role: "assistant", Content: raw},
			llm.ChatMessage{Role: "user", Content: "Observation: " + observation},
		)
	}

	return nil, fmt.Errorf("no final answer after %d steps", o.maxSteps)
}

func (o *Orchestrator) systemMessage() string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\nAvailable tools:\n")
	for _, t := range o.tools(&runState{}) {
		b.WriteString("- " + t.Name + ": " + t.Description + "\n")
	}
	return b.String()
}

// pipeline is the deterministic path: plan, dispatch, visualize when the
// question asks for it, then summarize.
func (o *Orchestrator) pipeline(ctx context.Context, question string) *Result {
	plan := o.planner.Plan(ctx, question)
	answer, intent := o.engine.Answer(question)

	chartPath := ""
	if wantsChart(question) {
		rendered := o.selector.Visualize(question)
		if !strings.HasPrefix(rendered, "Visualization failed") {
			chartPath = rendered
		} else {
			answer += "\n\n" + rendered
		}
	}

	insightText, _ := o.insights.Summarize(ctx, answer)

	o.log.Debug("pipeline answered question",
		zap.String("intent", string(intent)),
		zap.String("plan_intent", plan.Intent),
		zap.Bool("plan_fallback", plan.Fallback),
	)

	return &Result{
		Answer:    answer,
		Insight:   insightText,
		Intent:    string(intent),
		ChartPath: chartPath,
		Fallback:  true,
	}
}

// wantsChart reports whether the question explicitly asks for a picture.
func wantsChart(question string) bool {
	lower := strings.ToLower(question)
	for _, w := range []string{"chart", "plot", "graph", "visuali", "show me", "dashboard"} {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
