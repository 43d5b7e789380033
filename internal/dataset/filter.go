package dataset

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// TablePrefix marks a query as a direct expression over the whole table
// rather than a per-row filter predicate.
const TablePrefix = "df."

// MaxResultRows caps how many matching rows a query renders.
const MaxResultRows = 15

// Query evaluates q against the dataset and renders the result as a table
// (for row filters) or a scalar (for table expressions). Only an allow-listed
// grammar of column identifiers, comparisons, arithmetic, and boolean
// connectives is accepted; there is no open evaluation.
func (d *Dataset) Query(q string) (string, error) {
	trimmed := strings.TrimSpace(q)
	if trimmed == "" {
		return "", fmt.Errorf("empty query")
	}
	if strings.HasPrefix(trimmed, TablePrefix) {
		return d.evalTableExpression(strings.TrimPrefix(trimmed, TablePrefix))
	}
	return d.filterRows(trimmed)
}

// filterRows compiles q as a boolean predicate over the row columns and
// renders up to MaxResultRows matching rows.
func (d *Dataset) filterRows(q string) (string, error) {
	program, err := expr.Compile(q, expr.Env(rowEnv(Customer{})), expr.AsBool())
	if err != nil {
		return "", fmt.Errorf("invalid filter expression: %w", err)
	}

	var matched []Customer
	for _, row := range d.rows {
		ok, err := runPredicate(program, rowEnv(row))
		if err != nil {
			return "", fmt.Errorf("filter evaluation failed: %w", err)
		}
		if ok {
			matched = append(matched, row)
			if len(matched) == MaxResultRows {
				break
			}
		}
	}

	if len(matched) == 0 {
		return "No rows matched the filter.", nil
	}
	return Head(matched, MaxResultRows), nil
}

// evalTableExpression compiles q against whole-column slices plus a small
// set of aggregate helpers (count, sum, mean, median, min, max).
func (d *Dataset) evalTableExpression(q string) (string, error) {
	env := d.tableEnv()
	program, err := expr.Compile(q, expr.Env(env))
	if err != nil {
		return "", fmt.Errorf("invalid table expression: %w", err)
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return "", fmt.Errorf("table expression failed: %w", err)
	}

	switch v := out.(type) {
	case float64:
		return FormatFloat(v), nil
	case int:
		return fmt.Sprintf("%d", v), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

func runPredicate(program *vm.Program, env map[string]any) (bool, error) {
	out, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}
	ok, isBool := out.(bool)
	if !isBool {
		return false, fmt.Errorf("filter did not evaluate to a boolean")
	}
	return ok, nil
}

// rowEnv exposes exactly the schema columns to the expression compiler.
func rowEnv(c Customer) map[string]any {
	return map[string]any{
		"customer_id":          c.CustomerID,
		"account_created_at":   c.AccountCreatedAt.Time,
		"account_status":       c.AccountStatus,
		"kyc_completed":        c.KYCCompleted,
		"card_activated":       c.CardActivated,
		"card_type":            c.CardType,
		"monthly_spend":        c.MonthlySpend,
		"transactions_count":   c.TransactionsCount,
		"product_feature_used": c.ProductFeatureUsed,
		"feature_used_at":      c.FeatureUsedAt.Time,
		"account_tier":         c.AccountTier,
		"decline_rate":         c.DeclineRate,
		"customer_segment":     c.CustomerSegment,
		"monthly_revenue":      c.MonthlyRevenue,
		"churned":              c.Churned,
	}
}

func (d *Dataset) tableEnv() map[string]any {
	spend := Values(d.rows, SpendVal)
	revenue := Values(d.rows, RevenueVal)
	transactions := Values(d.rows, TransactionsVal)
	decline := Values(d.rows, func(c Customer) float64 { return c.DeclineRate })
	churned := Values(d.rows, ChurnVal)

	return map[string]any{
		"monthly_spend":      spend,
		"monthly_revenue":    revenue,
		"transactions_count": transactions,
		"decline_rate":       decline,
		"churned":            churned,
		"count":              func(xs []float64) int { return len(xs) },
		"sum":                Sum,
		"mean":               Mean,
		"median":             Median,
		"min":                minOf,
		"max":                maxOf,
	}
}

func minOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func maxOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}
