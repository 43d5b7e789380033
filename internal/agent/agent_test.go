package agent

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/justinj8/fintech-copilot/internal/analysis"
	"github.com/justinj8/fintech-copilot/internal/dataset"
	"github.com/justinj8/fintech-copilot/internal/glossary"
	"github.com/justinj8/fintech-copilot/internal/insight"
	"github.com/justinj8/fintech-copilot/internal/llm"
	"github.com/justinj8/fintech-copilot/internal/session"
	"github.com/justinj8/fintech-copilot/internal/viz"
	"github.com/justinj8/fintech-copilot/pkg/logger"
)

// scriptedClient replays canned responses in order.
type scriptedClient struct {
	responses []string
	calls     int
}

func (c *scriptedClient) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if c.calls >= len(c.responses) {
		c.calls++
		return &llm.CompletionResponse{Content: c.responses[len(c.responses)-1], Model: "scripted"}, nil
	}
	resp := &llm.CompletionResponse{Content: c.responses[c.calls], Model: "scripted"}
	c.calls++
	return resp, nil
}

func (c *scriptedClient) CompleteStream(ctx context.Context, req *llm.CompletionRequest, callback llm.StreamCallback) (*llm.CompletionResponse, error) {
	resp, err := c.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := callback(resp.Content, 0); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *scriptedClient) Name() string { return "scripted" }

func testOrchestrator(t *testing.T, client llm.Client) *Orchestrator {
	t.Helper()
	log := &logger.Logger{Logger: zap.NewNop()}

	rows := []dataset.Customer{
		{AccountTier: "Free", CustomerSegment: "Student", ProductFeatureUsed: "budgeting", AccountStatus: "Active",
			MonthlySpend: 100, MonthlyRevenue: 10, TransactionsCount: 5, Churned: true,
			AccountCreatedAt: dataset.DateTime{Time: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)}},
		{AccountTier: "Premium", CustomerSegment: "Professional", ProductFeatureUsed: "investments", AccountStatus: "Active",
			MonthlySpend: 3000, MonthlyRevenue: 60, TransactionsCount: 80, Churned: false,
			AccountCreatedAt: dataset.DateTime{Time: time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)}},
	}
	ds := dataset.New(rows)

	gl, err := glossary.Load("testdata/glossary.json", nil, log)
	require.NoError(t, err)

	store := viz.NewArtifactStore(filepath.Join(t.TempDir(), "chart.png"))

	return New(
		client,
		analysis.NewPlanner(nil, log),
		analysis.NewEngine(ds, log),
		viz.NewSelector(ds, store, log),
		insight.NewGenerator(nil, log),
		gl,
		session.NewStore(nil, log),
		log,
	)
}

func TestRunWithoutClientUsesPipeline(t *testing.T) {
	o := testOrchestrator(t, nil)

	result := o.Run(context.Background(), session.NewSessionID(), "churn rate by tier")

	assert.True(t, result.Fallback)
	assert.Equal(t, "churn", result.Intent)
	assert.Contains(t, result.Answer, "Churn Rate by Account Tier:")
	assert.NotEmpty(t, result.Insight)
	assert.Empty(t, result.ChartPath)
}

func TestPipelineRendersChartWhenAsked(t *testing.T) {
	o := testOrchestrator(t, nil)

	result := o.Run(context.Background(), session.NewSessionID(), "show me a chart of churn")

	assert.NotEmpty(t, result.ChartPath)
}

func TestRunFinalAnswer(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"action": "Final Answer", "action_input": "Churn is concentrated in the Free tier."}`,
	}}
	o := testOrchestrator(t, client)

	result := o.Run(context.Background(), session.NewSessionID(), "churn summary")

	assert.Equal(t, "Churn is concentrated in the Free tier.", result.Answer)
	assert.Equal(t, "scripted", result.Model)
}

func TestRunToolThenFinalAnswer(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"action": "Query DataFrame", "action_input": "churn rate by tier"}`,
		`{"action": "Final Answer", "action_input": "done"}`,
	}}
	o := testOrchestrator(t, client)

	result := o.Run(context.Background(), session.NewSessionID(), "churn summary")

	assert.Equal(t, "done", result.Answer)
	assert.Equal(t, 2, client.calls)
}

func TestRunVisualizationToolSetsChartPath(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"action": "Generate Visualization", "action_input": "churn dashboard"}`,
		`{"action": "Final Answer", "action_input": "see chart"}`,
	}}
	o := testOrchestrator(t, client)

	result := o.Run(context.Background(), session.NewSessionID(), "visualize churn")

	assert.Equal(t, "see chart", result.Answer)
	assert.NotEmpty(t, result.ChartPath)
}

// A model that never emits valid action JSON degrades to the pipeline
// rather than failing.
func TestRunMalformedActionsFallBack(t *testing.T) {
	client := &scriptedClient{responses: []string{
		"I think the answer is probably churn related.",
	}}
	o := testOrchestrator(t, client)

	result := o.Run(context.Background(), session.NewSessionID(), "churn rate")

	assert.True(t, result.Fallback)
	assert.Contains(t, result.Answer, "Churn")
}

func TestRunUnknownToolFallsBack(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"action": "Launch Missiles", "action_input": "now"}`,
	}}
	o := testOrchestrator(t, client)

	result := o.Run(context.Background(), session.NewSessionID(), "churn rate")

	assert.True(t, result.Fallback)
	assert.NotEmpty(t, result.Answer)
}

func TestGlossaryTool(t *testing.T) {
	o := testOrchestrator(t, nil)

	tool, ok := o.findTool(&runState{}, "glossary lookup")
	require.True(t, ok)

	out := tool.Run(context.Background(), "CAC")
	assert.Contains(t, out, "Customer Acquisition Cost")
}

// A chart rendered in one Run must not leak into the result of a later
// Run that rendered nothing.
func TestChartPathDoesNotLeakAcrossRuns(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"action": "Generate Visualization", "action_input": "churn dashboard"}`,
		`{"action": "Final Answer", "action_input": "see chart"}`,
		`{"action": "Final Answer", "action_input": "no chart this time"}`,
	}}
	o := testOrchestrator(t, client)

	first := o.Run(context.Background(), session.NewSessionID(), "visualize churn")
	require.NotEmpty(t, first.ChartPath)

	second := o.Run(context.Background(), session.NewSessionID(), "churn summary")
	assert.Empty(t, second.ChartPath)
	assert.Equal(t, "no chart this time", second.Answer)
}

// finalAnswerClient is stateless so concurrent Runs share it safely.
type finalAnswerClient struct{}

func (finalAnswerClient) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return &llm.CompletionResponse{
		Content: `{"action": "Final Answer", "action_input": "done"}`,
		Model:   "stateless",
	}, nil
}

func (c finalAnswerClient) CompleteStream(ctx context.Context, req *llm.CompletionRequest, callback llm.StreamCallback) (*llm.CompletionResponse, error) {
	return c.Complete(ctx, req)
}

func (finalAnswerClient) Name() string { return "stateless" }

func TestConcurrentRuns(t *testing.T) {
	o := testOrchestrator(t, finalAnswerClient{})

	var wg sync.WaitGroup
	results := make([]*Result, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = o.Run(context.Background(), session.NewSessionID(), "churn rate")
		}(i)
	}
	wg.Wait()

	for _, result := range results {
		require.NotNil(t, result)
		assert.Equal(t, "done", result.Answer)
		assert.Empty(t, result.ChartPath)
	}
}

func TestWantsChart(t *testing.T) {
	assert.True(t, wantsChart("show me a chart"))
	assert.True(t, wantsChart("PLOT the revenue"))
	assert.True(t, wantsChart("visualize churn"))
	assert.False(t, wantsChart("churn rate by tier"))
}
