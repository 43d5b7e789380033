package analysis

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/justinj8/fintech-copilot/internal/dataset"
	"github.com/justinj8/fintech-copilot/pkg/logger"
)

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func testRow(tier, segment, feature string, spend, revenue float64, churned bool, created string) dataset.Customer {
	c := dataset.Customer{
		AccountTier:        tier,
		CustomerSegment:    segment,
		ProductFeatureUsed: feature,
		AccountStatus:      "Active",
		MonthlySpend:       spend,
		MonthlyRevenue:     revenue,
		TransactionsCount:  10,
		Churned:            churned,
	}
	if churned {
		c.AccountStatus = "Closed"
	}
	if created != "" {
		t, _ := time.Parse("2006-01-02", created)
		c.AccountCreatedAt = dataset.DateTime{Time: t}
	}
	return c
}

func testEngine() *Engine {
	rows := []dataset.Customer{
		testRow("Free", "Student", "budgeting", 100, 10, true, "2024-01-05"),
		testRow("Free", "Student", "savings_goals", 150, 12, false, "2024-01-20"),
		testRow("Free", "Retired", "budgeting", 120, 11, false, "2024-02-02"),
		testRow("Plus", "Professional", "bill_pay", 800, 25, false, "2024-02-14"),
		testRow("Plus", "Retired", "bill_pay", 600, 20, true, "2024-03-01"),
		testRow("Premium", "Professional", "investments", 3000, 70, false, "2024-03-18"),
		testRow("Premium", "Professional", "investments", 3500, 80, false, "2024-04-09"),
	}
	return NewEngine(dataset.New(rows), testLogger())
}

// Every input produces a non-empty answer; there is no error path out of
// Dispatch.
func TestDispatchTotality(t *testing.T) {
	e := testEngine()

	inputs := []string{
		"",
		"   ",
		"churn rate",
		"revenue by tier",
		"spending patterns",
		"feature usage",
		"customer distribution",
		"tier comparison",
		"segment breakdown",
		"monthly trend",
		"compare everything",
		"complete gibberish with no keywords",
		"unbalanced 'quote",
		"🙂 emoji question",
	}

	for _, q := range inputs {
		t.Run(fmt.Sprintf("%q", q), func(t *testing.T) {
			out := e.Dispatch(q, Classify(q))
			assert.NotEmpty(t, out)
		})
	}
}

func TestDispatchChurnByTier(t *testing.T) {
	e := testEngine()

	out := e.Dispatch("churn rate by tier", IntentChurn)

	assert.Contains(t, out, "Overall churn rate:")
	assert.Contains(t, out, "Churn Rate by Account Tier:")
	assert.Contains(t, out, "account_tier")
	assert.Contains(t, out, "total_customers")
	assert.Contains(t, out, "churned_customers")
	assert.Contains(t, out, "churn_rate")

	// 1 of 3 Free customers churned: rounded to 3 decimals.
	assert.Contains(t, out, "0.333")
	// 2 of 7 overall, shown as a one-decimal percent.
	assert.Contains(t, out, "28.6%")
}

func TestDispatchChurnBeatsTier(t *testing.T) {
	e := testEngine()

	// Both keywords present: churn wins by declared order.
	out := e.Dispatch("churn rate by tier", Classify("churn rate by tier"))
	assert.Contains(t, out, "Churn Rate by Account Tier:")
	assert.NotContains(t, out, "Comprehensive Tier Analysis:")
}

func TestDispatchRevenueDefault(t *testing.T) {
	e := testEngine()

	out := e.Dispatch("how much revenue do we make", IntentRevenue)
	assert.Contains(t, out, "Total Revenue: $228.00")
	assert.Contains(t, out, "Average Revenue per Customer: $32.57")
	assert.Contains(t, out, "Revenue by Tier:")
}

// The per-customer average carries no thousands separators, unlike the
// grouped total above it.
func TestDispatchRevenueAverageUngrouped(t *testing.T) {
	rows := []dataset.Customer{
		testRow("Premium", "Professional", "investments", 9000, 1100, false, "2024-01-05"),
		testRow("Premium", "Professional", "investments", 9500, 1500, false, "2024-02-09"),
	}
	e := NewEngine(dataset.New(rows), testLogger())

	out := e.Dispatch("how much revenue do we make", IntentRevenue)
	assert.Contains(t, out, "Total Revenue: $2,600.00")
	assert.Contains(t, out, "Average Revenue per Customer: $1300.00")
	assert.NotContains(t, out, "$1,300.00")
}

func TestDispatchSpendingRounding(t *testing.T) {
	e := testEngine()

	out := e.Dispatch("spending analysis by segment", IntentSpending)
	assert.Contains(t, out, "Spending Analysis by Segment:")
	// Professional mean: (800+3000+3500)/3 = 2433.33, rounded to 2 decimals.
	assert.Contains(t, out, "2433.33")
}

func TestDispatchTierSummary(t *testing.T) {
	e := testEngine()

	out := e.Dispatch("tier analysis", IntentTier)
	assert.Contains(t, out, "Comprehensive Tier Analysis:")
	for _, header := range []string{"account_tier", "customers", "avg_spend", "avg_revenue", "churn_rate", "avg_transactions"} {
		assert.Contains(t, out, header)
	}
}

func TestDispatchTrend(t *testing.T) {
	e := testEngine()

	out := e.Dispatch("monthly trend", IntentTrend)
	assert.Contains(t, out, "Monthly Customer Signups Trend:")
	assert.Contains(t, out, "2024-01")
	assert.Contains(t, out, "month_year")
}

func TestDispatchTrendCapsAtTwelveMonths(t *testing.T) {
	var rows []dataset.Customer
	for i := 0; i < 15; i++ {
		created := time.Date(2023, time.Month(1), 1, 0, 0, 0, 0, time.UTC).AddDate(0, i, 0)
		rows = append(rows, testRow("Free", "Student", "budgeting", 10, 1, false, created.Format("2006-01-02")))
	}
	e := NewEngine(dataset.New(rows), testLogger())

	out := e.Dispatch("trend", IntentTrend)
	assert.NotContains(t, out, "2023-01")
	assert.NotContains(t, out, "2023-03")
	assert.Contains(t, out, "2023-04")
	assert.Contains(t, out, "2024-03")
}

func TestDispatchComparisonJoint(t *testing.T) {
	e := testEngine()

	out := e.Dispatch("compare performance", IntentComparison)
	assert.Contains(t, out, "Tier vs Segment Comparison:")
	assert.Contains(t, out, "Free")
	assert.Contains(t, out, "Student")
}

func TestDispatchExpressionFallback(t *testing.T) {
	e := testEngine()

	// No keyword matches, but the input is a valid filter expression.
	out := e.Dispatch("monthly_spend > 1000", IntentUnknown)
	assert.Contains(t, out, "Premium")
	assert.NotContains(t, out, "Query failed")
}

func TestDispatchDiagnostic(t *testing.T) {
	e := testEngine()

	out := e.Dispatch("no keywords and not an expression either", IntentUnknown)

	assert.Contains(t, out, "Dataset Overview:")
	assert.Contains(t, out, "Total customers: 7")
	assert.Contains(t, out, "customer_id")
	assert.Contains(t, out, "2024-01-05 to 2024-04-09")
	assert.Contains(t, out, "Query failed:")
	assert.Equal(t, 6, strings.Count(out, "Try: '"))
}

// The diagnostic is deterministic: asking the same broken question twice
// yields byte-identical output.
func TestDispatchDiagnosticIdempotent(t *testing.T) {
	e := testEngine()

	first := e.Dispatch("???", IntentUnknown)
	second := e.Dispatch("???", IntentUnknown)
	require.Equal(t, first, second)
}

func TestAnswerClassifiesAndDispatches(t *testing.T) {
	e := testEngine()

	out, intent := e.Answer("churn by segment")
	assert.Equal(t, IntentChurn, intent)
	assert.Contains(t, out, "Churn Rate by Customer Segment:")
}
