// Package dataset loads the fintech product dataset and provides read-only
// column access and grouped aggregation over it.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gocarina/gocsv"
)

// Columns is the fixed dataset schema, in file order.
var Columns = []string{
	"customer_id",
	"account_created_at",
	"account_status",
	"kyc_completed",
	"card_activated",
	"card_type",
	"monthly_spend",
	"transactions_count",
	"product_feature_used",
	"feature_used_at",
	"account_tier",
	"decline_rate",
	"customer_segment",
	"monthly_revenue",
	"churned",
}

// DateTime wraps time.Time with CSV parsing for the dataset's timestamp columns.
type DateTime struct {
	time.Time
}

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
}

// UnmarshalCSV parses a timestamp cell. Empty cells yield the zero time.
func (dt *DateTime) UnmarshalCSV(s string) error {
	if s == "" {
		dt.Time = time.Time{}
		return nil
	}
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			dt.Time = t
			return nil
		}
	}
	return fmt.Errorf("unparseable timestamp %q: %w", s, err)
}

// MarshalCSV renders the timestamp back to its canonical cell form.
func (dt DateTime) MarshalCSV() (string, error) {
	if dt.IsZero() {
		return "", nil
	}
	return dt.Format("2006-01-02 15:04:05"), nil
}

// Customer is one row of the dataset.
type Customer struct {
	CustomerID         string   `csv:"customer_id"`
	AccountCreatedAt   DateTime `csv:"account_created_at"`
	AccountStatus      string   `csv:"account_status"`
	KYCCompleted       bool     `csv:"kyc_completed"`
	CardActivated      bool     `csv:"card_activated"`
	CardType           string   `csv:"card_type"`
	MonthlySpend       float64  `csv:"monthly_spend"`
	TransactionsCount  int      `csv:"transactions_count"`
	ProductFeatureUsed string   `csv:"product_feature_used"`
	FeatureUsedAt      DateTime `csv:"feature_used_at"`
	AccountTier        string   `csv:"account_tier"`
	DeclineRate        float64  `csv:"decline_rate"`
	CustomerSegment    string   `csv:"customer_segment"`
	MonthlyRevenue     float64  `csv:"monthly_revenue"`
	Churned            bool     `csv:"churned"`
}

// Dataset is the immutable in-memory table. It is loaded once at startup and
// never mutated afterwards, so it is safe to share without locking.
type Dataset struct {
	rows []Customer
}

// Load reads the dataset from a CSV file, validating that every required
// column is present. A missing file or column is a fatal startup error.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	if err := validateHeader(f); err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind dataset: %w", err)
	}

	var rows []Customer
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("dataset %s contains no rows", path)
	}

	return &Dataset{rows: rows}, nil
}

// New builds a dataset from in-memory rows. Intended for tests.
func New(rows []Customer) *Dataset {
	return &Dataset{rows: rows}
}

func validateHeader(r io.Reader) error {
	header, err := csv.NewReader(r).Read()
	if err != nil {
		return fmt.Errorf("failed to read dataset header: %w", err)
	}

	present := make(map[string]bool, len(header))
	for _, name := range header {
		present[name] = true
	}
	for _, required := range Columns {
		if !present[required] {
			return fmt.Errorf("dataset is missing required column %q", required)
		}
	}
	return nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.rows)
}

// Rows returns the underlying rows. Callers must treat them as read-only.
func (d *Dataset) Rows() []Customer {
	return d.rows
}

// DateRange returns the min and max of the account creation timestamp.
func (d *Dataset) DateRange() (time.Time, time.Time) {
	min, max := d.rows[0].AccountCreatedAt.Time, d.rows[0].AccountCreatedAt.Time
	for _, row := range d.rows[1:] {
		t := row.AccountCreatedAt.Time
		if t.Before(min) {
			min = t
		}
		if t.After(max) {
			max = t
		}
	}
	return min, max
}
