package viz

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/justinj8/fintech-copilot/internal/dataset"
	"github.com/justinj8/fintech-copilot/pkg/logger"
)

var pngMagic = []byte{0x89, 0x50, 0x4e, 0x47}

func testRow(tier, segment, feature string, spend, revenue float64, churned bool, month time.Month) dataset.Customer {
	status := "Active"
	if churned {
		status = "Closed"
	}
	return dataset.Customer{
		AccountTier:        tier,
		CustomerSegment:    segment,
		ProductFeatureUsed: feature,
		AccountStatus:      status,
		CardType:           "physical",
		MonthlySpend:       spend,
		MonthlyRevenue:     revenue,
		TransactionsCount:  int(spend / 20),
		Churned:            churned,
		AccountCreatedAt:   dataset.DateTime{Time: time.Date(2024, month, 10, 0, 0, 0, 0, time.UTC)},
	}
}

func testSelector(t *testing.T) *Selector {
	t.Helper()
	rows := []dataset.Customer{
		testRow("Free", "Student", "budgeting", 120, 10, true, time.January),
		testRow("Free", "Student", "savings_goals", 150, 12, false, time.January),
		testRow("Plus", "Professional", "bill_pay", 800, 25, false, time.February),
		testRow("Plus", "Retired", "bill_pay", 650, 22, true, time.March),
		testRow("Premium", "Professional", "investments", 3100, 70, false, time.March),
		testRow("Premium", "Retired", "investments", 2800, 64, false, time.April),
	}
	store := NewArtifactStore(filepath.Join(t.TempDir(), "chart.png"))
	return NewSelector(dataset.New(rows), store, &logger.Logger{Logger: zap.NewNop()})
}

func TestVisualizeRendersChurnDashboard(t *testing.T) {
	s := testSelector(t)

	out := s.Visualize("show me churn by tier")
	assert.Equal(t, s.Store().Path(), out)

	png, ok := s.Store().Latest()
	require.True(t, ok)
	assert.Equal(t, pngMagic, png[:4])

	disk, err := os.ReadFile(s.Store().Path())
	require.NoError(t, err)
	assert.Equal(t, png, disk)
}

func TestVisualizeDefaultsToOverview(t *testing.T) {
	s := testSelector(t)

	out := s.Visualize("just show me something")
	assert.Equal(t, s.Store().Path(), out)

	_, ok := s.Store().Latest()
	assert.True(t, ok)
}

// The artifact slot holds exactly one chart: a second render replaces the
// first, on disk and in memory.
func TestVisualizeOverwritesSingleSlot(t *testing.T) {
	s := testSelector(t)

	s.Visualize("churn")
	first, ok := s.Store().Latest()
	require.True(t, ok)

	s.Visualize("revenue")
	second, ok := s.Store().Latest()
	require.True(t, ok)

	assert.NotEqual(t, first, second)

	disk, err := os.ReadFile(s.Store().Path())
	require.NoError(t, err)
	assert.Equal(t, second, disk)
}

func TestVisualizeRoutingOrder(t *testing.T) {
	s := testSelector(t)

	// "churn" outranks "revenue" when both appear.
	tests := []string{
		"churn and revenue together",
		"revenue breakdown",
		"spending distribution",
		"feature adoption",
		"trend over time",
		"comparison of tiers",
	}
	for _, desc := range tests {
		t.Run(desc, func(t *testing.T) {
			out := s.Visualize(desc)
			assert.Equal(t, s.Store().Path(), out)
		})
	}
}

func TestArtifactStoreEmpty(t *testing.T) {
	store := NewArtifactStore(filepath.Join(t.TempDir(), "chart.png"))

	_, ok := store.Latest()
	assert.False(t, ok)
	assert.False(t, store.Exists())
}
