package agent

import (
	"context"
	"strings"
)

// Tool is one capability the orchestrator can invoke. Run never fails;
// every tool converts its own failures to guidance text.
type Tool struct {
	Name        string
	Description string
	Run         func(ctx context.Context, input string) string
}

// tools builds the registry the action loop selects from, bound to the
// state of one Run call. Tool names are part of the prompt contract: the
// model must echo them verbatim.
func (o *Orchestrator) tools(st *runState) []Tool {
	return []Tool{
		{
			Name:        "Smart Analyzer",
			Description: "Intelligently analyze user questions and determine the best approach for data analysis, visualization, and insights. Use this FIRST for any user question to understand intent and context.",
			Run: func(ctx context.Context, input string) string {
				plan := o.planner.Plan(ctx, input)
				return plan.Describe()
			},
		},
		{
			Name:        "Query DataFrame",
			Description: "Execute data queries on fintech dataset. Supports natural language queries, pandas operations, and statistical analysis.",
			Run: func(ctx context.Context, input string) string {
				answer, _ := o.engine.Answer(input)
				return answer
			},
		},
		{
			Name:        "Generate Visualization",
			Description: "Create intelligent visualizations (bar charts, line plots, heatmaps, scatter plots, etc.) based on data type and analysis goals.",
			Run: func(ctx context.Context, input string) string {
				result := o.selector.Visualize(input)
				if !strings.HasPrefix(result, "Visualization failed") {
					st.chartPath = result
					return "Chart saved to " + result
				}
				return result
			},
		},
		{
			Name:        "Summarize Insights",
			Description: "Generate comprehensive business insights and executive summaries from data analysis.",
			Run: func(ctx context.Context, input string) string {
				text, _ := o.insights.Summarize(ctx, input)
				return text
			},
		},
		{
			Name:        "Glossary Lookup",
			Description: "Look up fintech business terms, metrics, and definitions (CLTV, CAC, NRR, etc.).",
			Run: func(ctx context.Context, input string) string {
				return o.glossary.Search(ctx, input)
			},
		},
	}
}

func (o *Orchestrator) findTool(st *runState, name string) (Tool, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for _, t := range o.tools(st) {
		if strings.ToLower(t.Name) == needle {
			return t, true
		}
	}
	return Tool{}, false
}
