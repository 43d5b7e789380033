package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/justinj8/fintech-copilot/internal/llm"
	"github.com/justinj8/fintech-copilot/internal/model"
	"github.com/justinj8/fintech-copilot/pkg/logger"
	"github.com/justinj8/fintech-copilot/pkg/metrics"
)

const planTemplate = `You are a fintech data analysis expert. Analyze the user's question and provide a structured analysis plan.

User Question: %s
Context: Fintech dataset with customer data, account tiers, spending, features usage, and churn information.

Provide a JSON response with:
{
    "intent": "primary goal (analysis, comparison, trend, prediction, etc.)",
    "data_focus": "main data areas to examine",
    "metrics": ["list of key metrics to calculate"],
    "visualization_type": "best chart type (bar, line, scatter, heatmap, pie, etc.)",
    "analysis_depth": "summary|detailed|comprehensive",
    "assumptions": "reasonable assumptions if question is ambiguous",
    "suggested_queries": ["specific data queries needed"],
    "business_context": "why this analysis matters for fintech business"
}`

// Planner produces a structured analysis plan for a question. The LLM path
// is best effort; any failure falls back deterministically to the keyword
// rule, so a plan is always produced.
type Planner struct {
	client llm.Client
	log    *logger.Logger
}

// NewPlanner creates a planner. A nil client is allowed and forces the
// deterministic fallback.
func NewPlanner(client llm.Client, log *logger.Logger) *Planner {
	return &Planner{client: client, log: log}
}

// Plan analyzes the question. It never fails.
func (p *Planner) Plan(ctx context.Context, question string) *model.Plan {
	if p.client == nil {
		return fallbackPlan(question)
	}

	resp, err := p.client.Complete(ctx, &llm.CompletionRequest{
		Messages: []llm.ChatMessage{
			{Role: "user", Content: fmt.Sprintf(planTemplate, question)},
		},
		Temperature: 0.1,
	})
	if err != nil {
		p.log.Warn("planner LLM call failed", zap.Error(err))
		metrics.LLMFallbacksTotal.WithLabelValues("planner").Inc()
		return fallbackPlan(question)
	}

	metrics.RecordLLMRequest(resp.Model, "success", float64(resp.LatencyMs)/1000.0, resp.TokensIn, resp.TokensOut)

	raw, ok := llm.ExtractJSON(resp.Content)
	if !ok {
		p.log.Warn("planner response contained no JSON object")
		metrics.LLMFallbacksTotal.WithLabelValues("planner").Inc()
		return fallbackPlan(question)
	}

	var plan model.Plan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		p.log.Warn("planner response JSON was malformed", zap.Error(err))
		metrics.LLMFallbacksTotal.WithLabelValues("planner").Inc()
		return fallbackPlan(question)
	}
	return &plan
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// fallbackPlan restates the keyword rule as a plan when the LLM path is
// unavailable or returns something unusable.
func fallbackPlan(question string) *model.Plan {
	lower := strings.ToLower(question)

	var intent, vizType string
	var planMetrics []string

	switch {
	case containsAny(lower, "churn", "retention", "leave", "quit"):
		intent = "churn_analysis"
		planMetrics = []string{"churn_rate", "retention_rate", "customer_lifetime"}
		vizType = "bar"
	case containsAny(lower, "revenue", "money", "profit", "income"):
		intent = "revenue_analysis"
		planMetrics = []string{"monthly_revenue", "revenue_per_customer", "total_revenue"}
		vizType = "line"
	case containsAny(lower, "compare", "vs", "versus", "difference"):
		intent = "comparison"
		planMetrics = []string{"comparative_metrics"}
		vizType = "bar"
	case containsAny(lower, "trend", "over time", "monthly", "growth"):
		intent = "trend_analysis"
		planMetrics = []string{"time_series_metrics"}
		vizType = "line"
	default:
		intent = "exploratory"
		planMetrics = []string{"descriptive_statistics"}
		vizType = "bar"
	}

	return &model.Plan{
		Intent:            intent,
		DataFocus:         "customer_behavior",
		Metrics:           planMetrics,
		VisualizationType: vizType,
		AnalysisDepth:     "detailed",
		Assumptions:       "Using available dataset columns for analysis",
		SuggestedQueries:  []string{"Analyze data related to: " + question},
		BusinessContext:   "Understanding customer patterns for business optimization",
		Fallback:          true,
	}
}
