package model

import "strings"

// Plan is the structured analysis plan produced for a question, either by
// the LLM planner or by the deterministic keyword fallback.
type Plan struct {
	Intent            string   `json:"intent"`
	DataFocus         string   `json:"data_focus"`
	Metrics           []string `json:"metrics"`
	VisualizationType string   `json:"visualization_type"`
	AnalysisDepth     string   `json:"analysis_depth"`
	Assumptions       string   `json:"assumptions"`
	SuggestedQueries  []string `json:"suggested_queries"`
	BusinessContext   string   `json:"business_context"`

	// Fallback reports whether the plan came from the deterministic
	// keyword rule rather than the LLM.
	Fallback bool `json:"-"`
}

// Describe renders the plan as prose for use inside a prompt.
func (p *Plan) Describe() string {
	var b strings.Builder
	b.WriteString("Analysis plan:\n")
	b.WriteString("- Intent: " + p.Intent + "\n")
	b.WriteString("- Data focus: " + p.DataFocus + "\n")
	b.WriteString("- Metrics: " + strings.Join(p.Metrics, ", ") + "\n")
	b.WriteString("- Visualization: " + p.VisualizationType + "\n")
	b.WriteString("- Depth: " + p.AnalysisDepth + "\n")
	if p.Assumptions != "" {
		b.WriteString("- Assumptions: " + p.Assumptions + "\n")
	}
	if p.BusinessContext != "" {
		b.WriteString("- Business context: " + p.BusinessContext + "\n")
	}
	return b.String()
}
