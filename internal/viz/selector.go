package viz

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/justinj8/fintech-copilot/internal/dataset"
	"github.com/justinj8/fintech-copilot/pkg/logger"
	"github.com/justinj8/fintech-copilot/pkg/metrics"
)

// Selector routes a visualization description to a dashboard renderer.
type Selector struct {
	ds    *dataset.Dataset
	store *ArtifactStore
	log   *logger.Logger
}

// NewSelector creates a visualization selector over the loaded dataset.
func NewSelector(ds *dataset.Dataset, store *ArtifactStore, log *logger.Logger) *Selector {
	return &Selector{ds: ds, store: store, log: log}
}

// Store exposes the artifact slot for the HTTP layer.
func (s *Selector) Store() *ArtifactStore {
	return s.store
}

// Visualize renders the dashboard matching the description to the shared
// artifact slot and returns its path. Routing priority: churn > revenue >
// spending > feature > trend/time > comparison/compare > overview. Any
// rendering failure is converted to guidance text; Visualize never fails.
func (s *Selector) Visualize(description string) string {
	lower := strings.ToLower(description)

	var kind string
	var render func() ([]byte, error)

	switch {
	case strings.Contains(lower, "churn"):
		kind, render = "churn", s.churnDashboard
	case strings.Contains(lower, "revenue"):
		kind, render = "revenue", s.revenueDashboard
	case strings.Contains(lower, "spending"):
		kind, render = "spending", s.spendingDashboard
	case strings.Contains(lower, "feature"):
		kind, render = "feature", s.featureDashboard
	case strings.Contains(lower, "trend") || strings.Contains(lower, "time"):
		kind, render = "trend", s.trendDashboard
	case strings.Contains(lower, "comparison") || strings.Contains(lower, "compare"):
		kind, render = "comparison", s.comparisonDashboard
	default:
		kind, render = "overview", s.overviewDashboard
	}

	png, err := render()
	if err == nil {
		err = s.store.Put(png)
	}
	if err != nil {
		s.log.Warn("dashboard render failed",
			zap.String("dashboard", kind),
			zap.Error(err),
		)
		metrics.ChartRendersTotal.WithLabelValues(kind, "error").Inc()
		return fmt.Sprintf("Visualization failed: %v. Try describing what you'd like to see visualized.", err)
	}

	metrics.ChartRendersTotal.WithLabelValues(kind, "success").Inc()
	return s.store.Path()
}
