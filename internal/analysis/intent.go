// Package analysis routes natural-language business questions to grouped
// aggregate reports over the fintech dataset.
package analysis

import (
	"strings"
)

// Intent is the closed category describing what kind of analysis a
// question requests.
type Intent string

const (
	IntentChurn      Intent = "churn"
	IntentRevenue    Intent = "revenue"
	IntentSpending   Intent = "spending"
	IntentFeature    Intent = "feature"
	IntentCustomer   Intent = "customer"
	IntentTier       Intent = "tier"
	IntentSegment    Intent = "segment"
	IntentTrend      Intent = "trend"
	IntentComparison Intent = "comparison"
	IntentUnknown    Intent = "unknown"
)

// intentKeywords maps each intent to its trigger keyword, in declared
// priority order. The order is part of the routing contract: a question
// containing both "churn" and "tier" resolves to churn.
var intentKeywords = []struct {
	keyword string
	intent  Intent
}{
	{"churn", IntentChurn},
	{"revenue", IntentRevenue},
	{"spending", IntentSpending},
	{"feature", IntentFeature},
	{"customer", IntentCustomer},
	{"tier", IntentTier},
	{"segment", IntentSegment},
	{"trend", IntentTrend},
	{"compare", IntentComparison},
}

// Classify maps a free-form question to an intent by keyword containment,
// first match in declared order wins. Unmatched (including empty) input
// yields IntentUnknown.
func Classify(question string) Intent {
	lower := strings.ToLower(question)
	for _, entry := range intentKeywords {
		if strings.Contains(lower, entry.keyword) {
			return entry.intent
		}
	}
	return IntentUnknown
}
