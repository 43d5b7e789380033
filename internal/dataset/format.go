package dataset

import (
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var englishPrinter = message.NewPrinter(language.English)

// Table renders headers and rows as a markdown-style text table.
func Table(headers []string, rows [][]string) string {
	var sb strings.Builder
	table := tablewriter.NewWriter(&sb)
	table.SetHeader(headers)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
	return strings.TrimRight(sb.String(), "\n")
}

// FormatFloat renders a float with no trailing zeros.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Money renders a currency amount with thousands separators and two decimals.
func Money(v float64) string {
	return englishPrinter.Sprintf("%.2f", v)
}

// GroupedInt renders an integer with thousands separators.
func GroupedInt(n int) string {
	return englishPrinter.Sprintf("%d", n)
}

// Percent renders a fraction as a percentage with one decimal place.
func Percent(v float64) string {
	return strconv.FormatFloat(v*100, 'f', 1, 64) + "%"
}

// RowStrings renders one row's cells in schema column order.
func RowStrings(c Customer) []string {
	created, _ := c.AccountCreatedAt.MarshalCSV()
	featureUsed, _ := c.FeatureUsedAt.MarshalCSV()
	return []string{
		c.CustomerID,
		created,
		c.AccountStatus,
		strconv.FormatBool(c.KYCCompleted),
		strconv.FormatBool(c.CardActivated),
		c.CardType,
		FormatFloat(c.MonthlySpend),
		strconv.Itoa(c.TransactionsCount),
		c.ProductFeatureUsed,
		featureUsed,
		c.AccountTier,
		FormatFloat(c.DeclineRate),
		c.CustomerSegment,
		FormatFloat(c.MonthlyRevenue),
		strconv.FormatBool(c.Churned),
	}
}

// Head renders the first n rows as a table with the full column set.
func Head(rows []Customer, n int) string {
	if len(rows) > n {
		rows = rows[:n]
	}
	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = RowStrings(row)
	}
	return Table(Columns, cells)
}
