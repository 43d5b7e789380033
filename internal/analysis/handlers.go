package analysis

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/justinj8/fintech-copilot/internal/dataset"
)

// handleChurn reports churn rates, grouped by whichever dimension the
// question names. Grouping priority: tier > segment > feature > none.
func (e *Engine) handleChurn(question, lower string) (string, error) {
	rows := e.ds.Rows()

	switch {
	case strings.Contains(lower, "tier") || strings.Contains(lower, "account_tier"):
		groups := dataset.GroupAgg(rows, dataset.ByTier, dataset.ChurnVal)
		if len(groups) == 0 {
			return "", fmt.Errorf("no tier groups in dataset")
		}
		overall := dataset.Mean(dataset.Values(rows, dataset.ChurnVal))
		summary := fmt.Sprintf("Overall churn rate: %s\n\n", dataset.Percent(overall))
		return summary + "Churn Rate by Account Tier:\n" + churnTable("account_tier", groups), nil

	case strings.Contains(lower, "segment"):
		groups := dataset.GroupAgg(rows, dataset.BySegment, dataset.ChurnVal)
		if len(groups) == 0 {
			return "", fmt.Errorf("no segment groups in dataset")
		}
		return "Churn Rate by Customer Segment:\n" + churnTable("customer_segment", groups), nil

	case strings.Contains(lower, "feature"):
		groups := dataset.GroupAgg(rows, dataset.ByFeature, dataset.ChurnVal)
		if len(groups) == 0 {
			return "", fmt.Errorf("no feature groups in dataset")
		}
		return "Churn Rate by Feature Usage:\n" + churnTable("product_feature_used", groups), nil

	default:
		overall := dataset.Mean(dataset.Values(rows, dataset.ChurnVal))
		byTier := dataset.GroupAgg(rows, dataset.ByTier, dataset.ChurnVal)
		bySegment := dataset.GroupAgg(rows, dataset.BySegment, dataset.ChurnVal)

		result := fmt.Sprintf("Overall Churn Rate: %s\n\n", dataset.Percent(overall))
		result += "By Tier:\n" + meanTable("account_tier", "churned", byTier, 3) + "\n\n"
		result += "By Segment:\n" + meanTable("customer_segment", "churned", bySegment, 3)
		return result, nil
	}
}

// handleRevenue reports revenue aggregates. Grouping priority: tier >
// segment > none.
func (e *Engine) handleRevenue(question, lower string) (string, error) {
	rows := e.ds.Rows()

	switch {
	case strings.Contains(lower, "tier"):
		groups := dataset.GroupAgg(rows, dataset.ByTier, dataset.RevenueVal)
		return "Revenue Analysis by Tier:\n" + amountTable("account_tier", "revenue", groups), nil

	case strings.Contains(lower, "segment"):
		groups := dataset.GroupAgg(rows, dataset.BySegment, dataset.RevenueVal)
		return "Revenue Analysis by Segment:\n" + amountTable("customer_segment", "revenue", groups), nil

	default:
		vals := dataset.Values(rows, dataset.RevenueVal)
		byTier := dataset.GroupAgg(rows, dataset.ByTier, dataset.RevenueVal)

		result := fmt.Sprintf("Total Revenue: $%s\n", dataset.Money(dataset.Sum(vals)))
		result += fmt.Sprintf("Average Revenue per Customer: $%.2f\n\n", dataset.Mean(vals))
		result += "Revenue by Tier:\n" + sumTable("account_tier", "monthly_revenue", byTier)
		return result, nil
	}
}

// handleSpending reports spending aggregates. Grouping priority: tier >
// segment > none.
func (e *Engine) handleSpending(question, lower string) (string, error) {
	rows := e.ds.Rows()

	switch {
	case strings.Contains(lower, "tier"):
		groups := dataset.GroupAgg(rows, dataset.ByTier, dataset.SpendVal)
		return "Spending Analysis by Tier:\n" + amountTable("account_tier", "spend", groups), nil

	case strings.Contains(lower, "segment"):
		groups := dataset.GroupAgg(rows, dataset.BySegment, dataset.SpendVal)
		return "Spending Analysis by Segment:\n" + amountTable("customer_segment", "spend", groups), nil

	default:
		vals := dataset.Values(rows, dataset.SpendVal)
		byTier := dataset.GroupAgg(rows, dataset.ByTier, dataset.SpendVal)

		result := fmt.Sprintf("Average Monthly Spend: $%s\n", dataset.Money(dataset.Mean(vals)))
		result += fmt.Sprintf("Median Monthly Spend: $%s\n\n", dataset.Money(dataset.Median(vals)))
		result += "Average Spend by Tier:\n" + meanTable("account_tier", "monthly_spend", byTier, 2)
		return result, nil
	}
}

// handleFeature reports feature usage counts and mean revenue per feature.
func (e *Engine) handleFeature(question, lower string) (string, error) {
	rows := e.ds.Rows()

	counts := dataset.ValueCounts(rows, dataset.ByFeature)
	if len(counts) == 0 {
		return "", fmt.Errorf("no feature usage recorded")
	}
	revenue := dataset.GroupAgg(rows, dataset.ByFeature, dataset.RevenueVal)

	result := "Feature Usage Count:\n" + countsTable("product_feature_used", counts) + "\n\n"
	result += "Average Revenue by Feature:\n" + meanTable("product_feature_used", "monthly_revenue", revenue, 2)
	return result, nil
}

// handleCustomer reports either the active-customer rate or the status and
// tier distributions.
func (e *Engine) handleCustomer(question, lower string) (string, error) {
	rows := e.ds.Rows()

	if strings.Contains(lower, "active") {
		active := 0
		for _, row := range rows {
			if row.AccountStatus == "Active" {
				active++
			}
		}
		total := len(rows)
		rate := float64(active) / float64(total)
		return fmt.Sprintf("Active Customers: %s out of %s (%s)",
			dataset.GroupedInt(active), dataset.GroupedInt(total), dataset.Percent(rate)), nil
	}

	statusCounts := dataset.ValueCounts(rows, dataset.ByStatus)
	tierCounts := dataset.ValueCounts(rows, dataset.ByTier)

	result := "Customer Status Distribution:\n" + countsTable("account_status", statusCounts) + "\n\n"
	result += "Tier Distribution:\n" + countsTable("account_tier", tierCounts)
	return result, nil
}

// handleTier reports the comprehensive per-tier summary.
func (e *Engine) handleTier(question, lower string) (string, error) {
	table, err := e.groupSummary(dataset.ByTier, "account_tier")
	if err != nil {
		return "", err
	}
	return "Comprehensive Tier Analysis:\n" + table, nil
}

// handleSegment reports the comprehensive per-segment summary.
func (e *Engine) handleSegment(question, lower string) (string, error) {
	table, err := e.groupSummary(dataset.BySegment, "customer_segment")
	if err != nil {
		return "", err
	}
	return "Customer Segment Analysis:\n" + table, nil
}

// handleTrend reports signup counts for the 12 most recent month periods.
func (e *Engine) handleTrend(question, lower string) (string, error) {
	counts := dataset.MonthlyCounts(e.ds.Rows())
	if len(counts) == 0 {
		return "", fmt.Errorf("no dated rows in dataset")
	}
	if len(counts) > 12 {
		counts = counts[len(counts)-12:]
	}

	cells := make([][]string, len(counts))
	for i, c := range counts {
		cells[i] = []string{c.Period, strconv.Itoa(c.N)}
	}
	return "Monthly Customer Signups Trend:\n" + dataset.Table([]string{"month_year", "count"}, cells), nil
}

// handleComparison delegates to the tier or segment summary when those
// keywords are present, otherwise compares the (tier, segment) pairs jointly.
func (e *Engine) handleComparison(question, lower string) (string, error) {
	if strings.Contains(lower, "tier") {
		return e.handleTier(question, lower)
	}
	if strings.Contains(lower, "segment") {
		return e.handleSegment(question, lower)
	}

	type pair struct{ tier, segment string }
	buckets := make(map[pair][]dataset.Customer)
	for _, row := range e.ds.Rows() {
		buckets[pair{row.AccountTier, row.CustomerSegment}] = append(buckets[pair{row.AccountTier, row.CustomerSegment}], row)
	}

	pairs := make([]pair, 0, len(buckets))
	for p := range buckets {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].tier != pairs[j].tier {
			return pairs[i].tier < pairs[j].tier
		}
		return pairs[i].segment < pairs[j].segment
	})

	cells := make([][]string, 0, len(pairs))
	for _, p := range pairs {
		group := buckets[p]
		cells = append(cells, []string{
			p.tier,
			p.segment,
			round2Cell(dataset.Mean(dataset.Values(group, dataset.SpendVal))),
			round2Cell(dataset.Mean(dataset.Values(group, dataset.RevenueVal))),
			round2Cell(dataset.Mean(dataset.Values(group, dataset.ChurnVal))),
		})
	}

	headers := []string{"account_tier", "customer_segment", "monthly_spend", "monthly_revenue", "churned"}
	return "Tier vs Segment Comparison:\n" + dataset.Table(headers, cells), nil
}

// groupSummary renders count, mean spend, mean revenue, churn rate, and mean
// transactions per group, all rounded to 2 decimals.
func (e *Engine) groupSummary(key dataset.KeyFunc, label string) (string, error) {
	rows := e.ds.Rows()
	counts := dataset.GroupAgg(rows, key, dataset.SpendVal)
	if len(counts) == 0 {
		return "", fmt.Errorf("no %s groups in dataset", label)
	}
	revenue := dataset.GroupAgg(rows, key, dataset.RevenueVal)
	churn := dataset.GroupAgg(rows, key, dataset.ChurnVal)
	transactions := dataset.GroupAgg(rows, key, dataset.TransactionsVal)

	cells := make([][]string, len(counts))
	for i, g := range counts {
		cells[i] = []string{
			g.Key,
			strconv.Itoa(g.Count),
			round2Cell(g.Mean),
			round2Cell(revenue[i].Mean),
			round2Cell(churn[i].Mean),
			round2Cell(transactions[i].Mean),
		}
	}

	headers := []string{label, "customers", "avg_spend", "avg_revenue", "churn_rate", "avg_transactions"}
	return dataset.Table(headers, cells), nil
}

// churnTable renders count/sum/mean of the churn flag with the renamed
// output columns, churn_rate rounded to 3 decimals.
func churnTable(label string, groups []dataset.Group) string {
	cells := make([][]string, len(groups))
	for i, g := range groups {
		cells[i] = []string{
			g.Key,
			strconv.Itoa(g.Count),
			strconv.Itoa(int(g.Sum)),
			dataset.FormatFloat(dataset.Round(g.Mean, 3)),
		}
	}
	return dataset.Table([]string{label, "total_customers", "churned_customers", "churn_rate"}, cells)
}

// amountTable renders count/sum/mean/median of a currency column with the
// renamed output columns, rounded to 2 decimals.
func amountTable(label, kind string, groups []dataset.Group) string {
	cells := make([][]string, len(groups))
	for i, g := range groups {
		cells[i] = []string{
			g.Key,
			strconv.Itoa(g.Count),
			round2Cell(g.Sum),
			round2Cell(g.Mean),
			round2Cell(g.Median),
		}
	}
	headers := []string{label, "customers", "total_" + kind, "avg_" + kind, "median_" + kind}
	return dataset.Table(headers, cells)
}

func meanTable(label, valueName string, groups []dataset.Group, decimals int) string {
	cells := make([][]string, len(groups))
	for i, g := range groups {
		cells[i] = []string{g.Key, dataset.FormatFloat(dataset.Round(g.Mean, decimals))}
	}
	return dataset.Table([]string{label, valueName}, cells)
}

func sumTable(label, valueName string, groups []dataset.Group) string {
	cells := make([][]string, len(groups))
	for i, g := range groups {
		cells[i] = []string{g.Key, round2Cell(g.Sum)}
	}
	return dataset.Table([]string{label, valueName}, cells)
}

func countsTable(label string, counts []dataset.Count) string {
	cells := make([][]string, len(counts))
	for i, c := range counts {
		cells[i] = []string{c.Value, strconv.Itoa(c.N)}
	}
	return dataset.Table([]string{label, "count"}, cells)
}

func round2Cell(v float64) string {
	return dataset.FormatFloat(dataset.Round(v, 2))
}
