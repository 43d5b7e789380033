package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		question string
		want     Intent
	}{
		{"What is our churn rate?", IntentChurn},
		{"Show revenue by segment", IntentRevenue},
		{"spending patterns by tier", IntentSpending},
		{"Which feature is most used?", IntentFeature},
		{"How many active customers do we have?", IntentCustomer},
		{"tier breakdown", IntentTier},
		{"segment analysis", IntentSegment},
		{"monthly trend of signups", IntentTrend},
		{"compare Free and Premium", IntentComparison},
		{"CHURN RATE", IntentChurn},
		{"", IntentUnknown},
		{"hello there", IntentUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.question))
		})
	}
}

// A question matching several keywords resolves to the first in declared
// order, so the routing is deterministic.
func TestClassifyPriority(t *testing.T) {
	assert.Equal(t, IntentChurn, Classify("churn rate by tier"))
	assert.Equal(t, IntentChurn, Classify("compare churn across segments"))
	assert.Equal(t, IntentRevenue, Classify("revenue trend by segment"))
	assert.Equal(t, IntentFeature, Classify("feature usage per customer tier"))
}
