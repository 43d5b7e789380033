package analysis

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/justinj8/fintech-copilot/internal/dataset"
	"github.com/justinj8/fintech-copilot/pkg/logger"
	"github.com/justinj8/fintech-copilot/pkg/metrics"
)

// HandlerFunc computes one category of aggregate report.
type HandlerFunc func(question, lower string) (string, error)

type route struct {
	keyword string
	intent  Intent
	handler HandlerFunc
}

// Engine dispatches questions to analysis handlers with a constrained
// expression fallback. Dispatch never returns an error: every failure
// path terminates in a diagnostic message.
type Engine struct {
	ds     *dataset.Dataset
	log    *logger.Logger
	routes []route
}

// NewEngine creates an analysis engine over the loaded dataset.
func NewEngine(ds *dataset.Dataset, log *logger.Logger) *Engine {
	e := &Engine{ds: ds, log: log}
	e.routes = []route{
		{"churn", IntentChurn, e.handleChurn},
		{"revenue", IntentRevenue, e.handleRevenue},
		{"spending", IntentSpending, e.handleSpending},
		{"feature", IntentFeature, e.handleFeature},
		{"customer", IntentCustomer, e.handleCustomer},
		{"tier", IntentTier, e.handleTier},
		{"segment", IntentSegment, e.handleSegment},
		{"trend", IntentTrend, e.handleTrend},
		{"compare", IntentComparison, e.handleComparison},
	}
	return e
}

// Answer classifies the question and dispatches it.
func (e *Engine) Answer(question string) (string, Intent) {
	intent := Classify(question)
	return e.Dispatch(question, intent), intent
}

// Dispatch routes a question to its handler. Handler errors are swallowed
// and the next matching pattern is tried; when no pattern succeeds the
// generic expression fallback runs, and its failure yields the diagnostic.
func (e *Engine) Dispatch(question string, intent Intent) string {
	start := time.Now()
	lower := strings.ToLower(question)
	outcome := "handler"

	defer func() {
		metrics.RecordQuestion(string(intent), outcome, time.Since(start).Seconds())
	}()

	for _, rt := range e.routes {
		if rt.intent != intent && !strings.Contains(lower, rt.keyword) {
			continue
		}
		out, err := rt.handler(question, lower)
		if err != nil {
			e.log.Debug("handler failed, trying next pattern",
				zap.String("intent", string(rt.intent)),
				zap.Error(err),
			)
			continue
		}
		return out
	}

	result, err := e.ds.Query(question)
	if err == nil {
		outcome = "fallback"
		return result
	}

	outcome = "diagnostic"
	e.log.Debug("fallback query failed", zap.Error(err))
	return e.diagnostic(err)
}

// querySuggestions are the canned example queries shown in the diagnostic.
var querySuggestions = []string{
	"Try: 'churn rate by tier'",
	"Try: 'revenue analysis by segment'",
	"Try: 'spending patterns'",
	"Try: 'feature usage analysis'",
	"Try: 'customer tier comparison'",
	"Try: 'monthly trends'",
}

// diagnostic is the terminal error boundary for the query path. It reports
// live dataset facts, the failure, and example queries, and never fails.
func (e *Engine) diagnostic(err error) string {
	min, max := e.ds.DateRange()

	var sb strings.Builder
	sb.WriteString("Dataset Overview:\n")
	sb.WriteString("- Total customers: " + dataset.GroupedInt(e.ds.Len()) + "\n")
	sb.WriteString("- Available columns: " + strings.Join(dataset.Columns, ", ") + "\n")
	sb.WriteString("- Date range: " + min.Format("2006-01-02") + " to " + max.Format("2006-01-02") + "\n\n")
	sb.WriteString("Query failed: " + err.Error() + "\n\n")
	sb.WriteString("Suggestions:\n")
	sb.WriteString(strings.Join(querySuggestions, "\n"))
	return sb.String()
}
