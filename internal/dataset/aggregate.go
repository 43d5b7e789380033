package dataset

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Group holds the aggregates for one group-by bucket.
type Group struct {
	Key    string
	Count  int
	Sum    float64
	Mean   float64
	Median float64
}

// KeyFunc extracts a grouping key from a row.
type KeyFunc func(Customer) string

// ValFunc extracts a numeric value from a row.
type ValFunc func(Customer) float64

// Common key extractors.
var (
	ByTier    KeyFunc = func(c Customer) string { return c.AccountTier }
	BySegment KeyFunc = func(c Customer) string { return c.CustomerSegment }
	ByFeature KeyFunc = func(c Customer) string { return c.ProductFeatureUsed }
	ByStatus  KeyFunc = func(c Customer) string { return c.AccountStatus }
)

// Common value extractors.
var (
	SpendVal        ValFunc = func(c Customer) float64 { return c.MonthlySpend }
	RevenueVal      ValFunc = func(c Customer) float64 { return c.MonthlyRevenue }
	TransactionsVal ValFunc = func(c Customer) float64 { return float64(c.TransactionsCount) }
	ChurnVal        ValFunc = func(c Customer) float64 {
		if c.Churned {
			return 1
		}
		return 0
	}
)

// GroupAgg groups rows by key and aggregates val per group. Groups are
// returned in ascending key order; rows with an empty key are excluded,
// matching null-key drop semantics.
func GroupAgg(rows []Customer, key KeyFunc, val ValFunc) []Group {
	buckets := make(map[string][]float64)
	for _, row := range rows {
		k := key(row)
		if k == "" {
			continue
		}
		buckets[k] = append(buckets[k], val(row))
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groups := make([]Group, 0, len(keys))
	for _, k := range keys {
		vals := buckets[k]
		groups = append(groups, Group{
			Key:    k,
			Count:  len(vals),
			Sum:    Sum(vals),
			Mean:   stat.Mean(vals, nil),
			Median: Median(vals),
		})
	}
	return groups
}

// Count holds one value-count entry.
type Count struct {
	Value string
	N     int
}

// ValueCounts tallies key occurrences, most frequent first. Empty keys are
// excluded. Ties break on ascending value for determinism.
func ValueCounts(rows []Customer, key KeyFunc) []Count {
	tally := make(map[string]int)
	for _, row := range rows {
		k := key(row)
		if k == "" {
			continue
		}
		tally[k]++
	}

	counts := make([]Count, 0, len(tally))
	for v, n := range tally {
		counts = append(counts, Count{Value: v, N: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].N != counts[j].N {
			return counts[i].N > counts[j].N
		}
		return counts[i].Value < counts[j].Value
	})
	return counts
}

// PeriodCount holds a month-level period and its row count.
type PeriodCount struct {
	Period string
	N      int
}

// MonthlyCounts groups rows into month periods of the account creation
// timestamp, in chronological order.
func MonthlyCounts(rows []Customer) []PeriodCount {
	tally := make(map[string]int)
	for _, row := range rows {
		if row.AccountCreatedAt.IsZero() {
			continue
		}
		tally[row.AccountCreatedAt.Format("2006-01")]++
	}

	periods := make([]string, 0, len(tally))
	for p := range tally {
		periods = append(periods, p)
	}
	sort.Strings(periods)

	counts := make([]PeriodCount, 0, len(periods))
	for _, p := range periods {
		counts = append(counts, PeriodCount{Period: p, N: tally[p]})
	}
	return counts
}

// Sum returns the sum of vals.
func Sum(vals []float64) float64 {
	var total float64
	for _, v := range vals {
		total += v
	}
	return total
}

// Mean returns the arithmetic mean of vals, or 0 for an empty slice.
func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	return stat.Mean(vals, nil)
}

// Median returns the midpoint median of vals, or 0 for an empty slice. For
// an even count this is the average of the two middle elements.
func Median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// Values extracts val from every row.
func Values(rows []Customer, val ValFunc) []float64 {
	vals := make([]float64, len(rows))
	for i, row := range rows {
		vals[i] = val(row)
	}
	return vals
}

// Round rounds v to the given number of decimal places.
func Round(v float64, decimals int) float64 {
	scale := math.Pow10(decimals)
	return math.Round(v*scale) / scale
}
