package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(tier, segment, feature string, spend, revenue float64, churned bool, created string) Customer {
	c := Customer{
		AccountTier:        tier,
		CustomerSegment:    segment,
		ProductFeatureUsed: feature,
		MonthlySpend:       spend,
		MonthlyRevenue:     revenue,
		Churned:            churned,
	}
	if created != "" {
		t, _ := time.Parse("2006-01-02", created)
		c.AccountCreatedAt = DateTime{t}
	}
	return c
}

func TestGroupAggSortsKeysAndDropsEmpty(t *testing.T) {
	rows := []Customer{
		row("Premium", "Professional", "", 300, 30, false, ""),
		row("Free", "Student", "", 100, 10, false, ""),
		row("", "Student", "", 999, 99, false, ""), // empty key dropped
		row("Plus", "Retired", "", 200, 20, false, ""),
	}

	groups := GroupAgg(rows, ByTier, SpendVal)
	require.Len(t, groups, 3)
	assert.Equal(t, "Free", groups[0].Key)
	assert.Equal(t, "Plus", groups[1].Key)
	assert.Equal(t, "Premium", groups[2].Key)
}

func TestGroupAggStats(t *testing.T) {
	rows := []Customer{
		row("Free", "", "", 100, 0, false, ""),
		row("Free", "", "", 200, 0, false, ""),
		row("Free", "", "", 400, 0, false, ""),
	}

	groups := GroupAgg(rows, ByTier, SpendVal)
	require.Len(t, groups, 1)
	g := groups[0]
	assert.Equal(t, 3, g.Count)
	assert.InDelta(t, 700.0, g.Sum, 1e-9)
	assert.InDelta(t, 233.333333, g.Mean, 1e-5)
	assert.InDelta(t, 200.0, g.Median, 1e-9)
}

func TestChurnValAsRate(t *testing.T) {
	rows := []Customer{
		row("Free", "", "", 0, 0, true, ""),
		row("Free", "", "", 0, 0, false, ""),
		row("Free", "", "", 0, 0, false, ""),
	}

	groups := GroupAgg(rows, ByTier, ChurnVal)
	require.Len(t, groups, 1)
	assert.InDelta(t, 1.0/3.0, groups[0].Mean, 1e-9)
	assert.InDelta(t, 1.0, groups[0].Sum, 1e-9)
}

func TestValueCountsOrdering(t *testing.T) {
	rows := []Customer{
		row("", "", "budgeting", 0, 0, false, ""),
		row("", "", "budgeting", 0, 0, false, ""),
		row("", "", "bill_pay", 0, 0, false, ""),
		row("", "", "investments", 0, 0, false, ""),
		row("", "", "", 0, 0, false, ""), // empty dropped
	}

	counts := ValueCounts(rows, ByFeature)
	require.Len(t, counts, 3)
	// Most frequent first, ties break alphabetically.
	assert.Equal(t, Count{Value: "budgeting", N: 2}, counts[0])
	assert.Equal(t, Count{Value: "bill_pay", N: 1}, counts[1])
	assert.Equal(t, Count{Value: "investments", N: 1}, counts[2])
}

func TestMonthlyCounts(t *testing.T) {
	rows := []Customer{
		row("", "", "", 0, 0, false, "2024-03-15"),
		row("", "", "", 0, 0, false, "2024-01-02"),
		row("", "", "", 0, 0, false, "2024-01-30"),
		row("", "", "", 0, 0, false, ""), // undated dropped
	}

	counts := MonthlyCounts(rows)
	require.Len(t, counts, 2)
	assert.Equal(t, PeriodCount{Period: "2024-01", N: 2}, counts[0])
	assert.Equal(t, PeriodCount{Period: "2024-03", N: 1}, counts[1])
}

func TestMedianMidpoint(t *testing.T) {
	// Even count averages the two middle elements.
	assert.InDelta(t, 2.5, Median([]float64{4, 1, 3, 2}), 1e-9)
	assert.InDelta(t, 350, Median([]float64{100, 200, 500, 3000}), 1e-9)
	// Odd count takes the middle element, no interpolation.
	assert.InDelta(t, 3.0, Median([]float64{5, 1, 3}), 1e-9)
	assert.InDelta(t, 7.0, Median([]float64{7}), 1e-9)
	assert.Equal(t, 0.0, Median(nil))
}

func TestMeanEmpty(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 0.333, Round(1.0/3.0, 3))
	assert.Equal(t, 15.33, Round(15.333, 2))
	assert.Equal(t, 16.0, Round(15.5, 0))
}
