package insight

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/justinj8/fintech-copilot/pkg/logger"
)

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func TestSummarizeWithoutClient(t *testing.T) {
	g := NewGenerator(nil, testLogger())

	text, fallback := g.Summarize(context.Background(), "churn rate by tier: 0.333")
	assert.True(t, fallback)
	assert.Contains(t, text, "Churn Analysis")
	assert.Contains(t, text, "retention campaigns")
}

func TestFallbackInsightSelection(t *testing.T) {
	tests := []struct {
		name     string
		analysis string
		expect   string
	}{
		{"churn", "the churn numbers look bad", "**Churn Analysis**"},
		{"revenue", "total revenue is up", "**Revenue Insights**"},
		{"generic", "feature usage counts", "**Data Summary**"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, fallbackInsight(tt.analysis), tt.expect)
		})
	}
}

// Comparison keywords outrank trend keywords, which outrank the default.
func TestSelectTemplate(t *testing.T) {
	assert.Equal(t, comparativeTemplate, selectTemplate("comparison of monthly trends"))
	assert.Equal(t, comparativeTemplate, selectTemplate("Free vs Premium"))
	assert.Equal(t, trendTemplate, selectTemplate("monthly signups"))
	assert.Equal(t, trendTemplate, selectTemplate("growth over time"))
	assert.Equal(t, insightTemplate, selectTemplate("churn rate by tier"))
}

func TestSummarizeStreamWithoutClient(t *testing.T) {
	g := NewGenerator(nil, testLogger())

	var streamed string
	text, fallback := g.SummarizeStream(context.Background(), "revenue summary", func(token string, index int) error {
		streamed += token
		return nil
	})

	assert.True(t, fallback)
	assert.Equal(t, text, streamed)
	assert.Contains(t, text, "Revenue Insights")
}
