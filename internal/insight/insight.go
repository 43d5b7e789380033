// Package insight turns analysis output into business narrative text.
package insight

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/justinj8/fintech-copilot/internal/llm"
	"github.com/justinj8/fintech-copilot/pkg/logger"
	"github.com/justinj8/fintech-copilot/pkg/metrics"
)

const insightTemplate = `You are a senior fintech business analyst and data scientist. Analyze the following data and provide comprehensive business insights.

Data Analysis:
%DATA%

Context: This is from a fintech company with multiple account tiers (Free, Plus, Premium), customer segments (Student, Professional, Retired), and various product features.

Provide a structured analysis with:

1. **Executive Summary** (2-3 sentences)
   - Key finding and business impact

2. **Critical Insights** (3-4 bullet points)
   - Data-driven observations
   - Business implications
   - Potential risks or opportunities

3. **Strategic Recommendations** (2-3 actionable items)
   - Specific actions based on data
   - Expected business outcomes

4. **Metrics to Monitor**
   - KPIs that need attention
   - Success indicators

Focus on actionable insights that drive revenue growth, reduce churn, and improve customer experience.`

const comparativeTemplate = `You are a fintech business strategist. Compare the following data points and provide strategic insights.

Comparison Data:
%DATA%

Provide:
1. **Key Differences**: What stands out in the comparison?
2. **Performance Leaders**: Which segments/tiers perform best?
3. **Improvement Opportunities**: Where are the gaps?
4. **Strategic Actions**: What should the business do?

Focus on competitive advantages and growth opportunities.`

const trendTemplate = `You are a fintech growth analyst. Analyze the following trend data and provide forward-looking insights.

Trend Analysis:
%DATA%

Provide:
1. **Trend Summary**: What patterns do you see?
2. **Growth Drivers**: What's driving positive trends?
3. **Risk Factors**: What concerning trends exist?
4. **Forecasting**: What might happen next?
5. **Action Plan**: How to capitalize on trends?

Focus on sustainable growth and risk mitigation.`

// Generator produces narrative insights from analysis text.
type Generator struct {
	client llm.Client
	log    *logger.Logger
}

// NewGenerator creates a generator. A nil client forces the canned fallback.
func NewGenerator(client llm.Client, log *logger.Logger) *Generator {
	return &Generator{client: client, log: log}
}

// Summarize selects a narrative template by keyword, sends it to the LLM,
// and returns its text. On any failure the deterministic canned insight is
// substituted; Summarize never fails. The second return reports whether the
// fallback was used.
func (g *Generator) Summarize(ctx context.Context, analysisText string) (string, bool) {
	if g.client == nil {
		return fallbackInsight(analysisText), true
	}

	prompt := strings.Replace(selectTemplate(analysisText), "%DATA%", analysisText, 1)

	resp, err := g.client.Complete(ctx, &llm.CompletionRequest{
		Messages: []llm.ChatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: 0.1,
	})
	if err != nil {
		g.log.Warn("insight LLM call failed", zap.Error(err))
		metrics.LLMFallbacksTotal.WithLabelValues("insight").Inc()
		return fallbackInsight(analysisText), true
	}

	metrics.RecordLLMRequest(resp.Model, "success", float64(resp.LatencyMs)/1000.0, resp.TokensIn, resp.TokensOut)
	return resp.Content, false
}

// SummarizeStream behaves like Summarize but delivers the narrative
// token by token through callback. The canned fallback is delivered as a
// single callback invocation.
func (g *Generator) SummarizeStream(ctx context.Context, analysisText string, callback llm.StreamCallback) (string, bool) {
	if g.client == nil {
		text := fallbackInsight(analysisText)
		_ = callback(text, 0)
		return text, true
	}

	prompt := strings.Replace(selectTemplate(analysisText), "%DATA%", analysisText, 1)

	resp, err := g.client.CompleteStream(ctx, &llm.CompletionRequest{
		Messages: []llm.ChatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: 0.1,
	}, callback)
	if err != nil {
		g.log.Warn("insight LLM stream failed", zap.Error(err))
		metrics.LLMFallbacksTotal.WithLabelValues("insight").Inc()
		text := fallbackInsight(analysisText)
		_ = callback(text, 0)
		return text, true
	}

	metrics.RecordLLMRequest(resp.Model, "success", float64(resp.LatencyMs)/1000.0, resp.TokensIn, resp.TokensOut)
	return resp.Content, false
}

// selectTemplate picks the narrative template. Priority: comparison
// keywords, then trend keywords, then the default insight template.
func selectTemplate(analysisText string) string {
	lower := strings.ToLower(analysisText)

	switch {
	case strings.Contains(lower, "comparison") || strings.Contains(lower, "vs") || strings.Contains(lower, "compare"):
		return comparativeTemplate
	case strings.Contains(lower, "trend") || strings.Contains(lower, "over time") || strings.Contains(lower, "monthly"):
		return trendTemplate
	default:
		return insightTemplate
	}
}

// fallbackInsight returns canned, keyword-triggered insight bullets.
func fallbackInsight(analysisText string) string {
	lower := strings.ToLower(analysisText)

	var insights []string
	switch {
	case strings.Contains(lower, "churn"):
		insights = []string{
			"**Churn Analysis**: Customer retention requires immediate attention.",
			"**Recommendation**: Implement targeted retention campaigns for high-risk segments.",
			"**Monitor**: Monthly churn rates by tier and segment.",
		}
	case strings.Contains(lower, "revenue"):
		insights = []string{
			"**Revenue Insights**: Focus on revenue optimization opportunities.",
			"**Recommendation**: Prioritize high-value customer segments and tiers.",
			"**Monitor**: Revenue per customer and lifetime value metrics.",
		}
	default:
		insights = []string{
			"**Data Summary**: Key business metrics require strategic focus.",
			"**Recommendation**: Develop data-driven action plans based on findings.",
			"**Monitor**: Core KPIs and performance indicators.",
		}
	}

	return strings.Join(insights, "\n\n")
}
