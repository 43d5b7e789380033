package dataset

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filterTestDataset() *Dataset {
	rows := []Customer{
		row("Free", "Student", "budgeting", 100, 10, false, "2024-01-05"),
		row("Premium", "Professional", "investments", 3000, 60, false, "2024-02-10"),
		row("Plus", "Retired", "bill_pay", 500, 15, true, "2024-03-20"),
	}
	rows[0].CustomerID = "CUST-A"
	rows[1].CustomerID = "CUST-B"
	rows[2].CustomerID = "CUST-C"
	return New(rows)
}

func TestQueryRowFilter(t *testing.T) {
	ds := filterTestDataset()

	out, err := ds.Query(`account_tier == "Premium"`)
	require.NoError(t, err)
	assert.Contains(t, out, "CUST-B")
	assert.NotContains(t, out, "CUST-A")
	assert.Contains(t, out, "customer_id")
}

func TestQueryNumericFilter(t *testing.T) {
	ds := filterTestDataset()

	out, err := ds.Query("monthly_spend > 400 && !churned")
	require.NoError(t, err)
	assert.Contains(t, out, "CUST-B")
	assert.NotContains(t, out, "CUST-C")
}

func TestQueryNoMatch(t *testing.T) {
	ds := filterTestDataset()

	out, err := ds.Query(`account_tier == "Platinum"`)
	require.NoError(t, err)
	assert.Equal(t, "No rows matched the filter.", out)
}

func TestQueryResultCap(t *testing.T) {
	rows := make([]Customer, MaxResultRows+5)
	for i := range rows {
		rows[i] = row("Free", "Student", "budgeting", 10, 1, false, "")
		rows[i].CustomerID = fmt.Sprintf("CUST-%02d", i)
	}
	ds := New(rows)

	out, err := ds.Query(`account_tier == "Free"`)
	require.NoError(t, err)
	assert.Equal(t, MaxResultRows, strings.Count(out, "CUST-"))
}

func TestQueryTableExpression(t *testing.T) {
	ds := filterTestDataset()

	out, err := ds.Query("df.mean(monthly_spend)")
	require.NoError(t, err)
	assert.Equal(t, "1200", out)

	out, err = ds.Query("df.count(monthly_revenue)")
	require.NoError(t, err)
	assert.Equal(t, "3", out)

	out, err = ds.Query("df.max(monthly_spend) - min(monthly_spend)")
	require.NoError(t, err)
	assert.Equal(t, "2900", out)
}

func TestQueryRejectsInvalidExpression(t *testing.T) {
	ds := filterTestDataset()

	_, err := ds.Query("nonexistent_column == 1")
	assert.Error(t, err)

	_, err = ds.Query("df.exec('rm -rf /')")
	assert.Error(t, err)

	_, err = ds.Query("")
	assert.Error(t, err)
}

func TestQueryRejectsNonBooleanFilter(t *testing.T) {
	ds := filterTestDataset()

	_, err := ds.Query("monthly_spend + 1")
	assert.Error(t, err)
}
