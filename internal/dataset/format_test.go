package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMoney(t *testing.T) {
	assert.Equal(t, "1,234.50", Money(1234.5))
	assert.Equal(t, "0.00", Money(0))
	assert.Equal(t, "1,000,000.99", Money(1000000.99))
}

func TestGroupedInt(t *testing.T) {
	assert.Equal(t, "1,500", GroupedInt(1500))
	assert.Equal(t, "42", GroupedInt(42))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "12.3%", Percent(0.123))
	assert.Equal(t, "0.0%", Percent(0))
	assert.Equal(t, "100.0%", Percent(1))
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "0.333", FormatFloat(0.333))
	assert.Equal(t, "15", FormatFloat(15.0))
	assert.Equal(t, "15.5", FormatFloat(15.5))
}

func TestTableShape(t *testing.T) {
	out := Table([]string{"account_tier", "count"}, [][]string{
		{"Free", "10"},
		{"Premium", "3"},
	})

	lines := strings.Split(out, "\n")
	// Header, separator, two data rows.
	assert.Len(t, lines, 4)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "|"), "line %q should start with pipe", line)
	}
	assert.Contains(t, lines[0], "account_tier")
	assert.Contains(t, lines[2], "Free")
}

func TestHeadCapsRows(t *testing.T) {
	rows := make([]Customer, 5)
	for i := range rows {
		rows[i] = row("Free", "Student", "budgeting", 10, 1, false, "2024-01-01")
		rows[i].CustomerID = "CUST"
	}

	out := Head(rows, 2)
	assert.Equal(t, 2, strings.Count(out, "CUST"))
}
