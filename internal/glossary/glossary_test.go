package glossary

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/justinj8/fintech-copilot/pkg/logger"
)

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func TestLoad(t *testing.T) {
	g, err := Load("testdata/glossary.json", nil, testLogger())
	require.NoError(t, err)
	require.Len(t, g.texts, 3)

	// Entries are flattened to "term: definition", sorted by term.
	assert.Equal(t, "CAC: Customer Acquisition Cost - the total cost of acquiring a new customer.", g.texts[0])
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("testdata/nope.json", nil, testLogger())
	assert.Error(t, err)
}

func TestSearchSubstringFallback(t *testing.T) {
	g, err := Load("testdata/glossary.json", nil, testLogger())
	require.NoError(t, err)

	ctx := context.Background()

	out := g.Search(ctx, "CLTV")
	assert.Contains(t, out, "Customer Lifetime Value")

	// Case-insensitive containment against the flattened text.
	out = g.Search(ctx, "churn rate")
	assert.Contains(t, out, "stop using the product")
}

func TestSearchNoMatch(t *testing.T) {
	g, err := Load("testdata/glossary.json", nil, testLogger())
	require.NoError(t, err)

	ctx := context.Background()
	assert.Equal(t, NoMatch, g.Search(ctx, "quantum entanglement"))
	assert.Equal(t, NoMatch, g.Search(ctx, ""))
	assert.Equal(t, NoMatch, g.Search(ctx, "   "))
}

// failingEmbedder always errors, forcing the substring path after the
// index build fails.
type failingEmbedder struct{}

func (failingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("embeddings unavailable")
}

func TestSearchFallsBackWhenEmbedderFails(t *testing.T) {
	g, err := Load("testdata/glossary.json", failingEmbedder{}, testLogger())
	require.NoError(t, err)

	out := g.Search(context.Background(), "CAC")
	assert.Contains(t, out, "Customer Acquisition Cost")
}

// stubEmbedder returns fixed vectors so nearest-neighbor lookup is
// deterministic: the query vector matches the second text exactly.
type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 1 {
		return [][]float32{{0, 1, 0}}, nil
	}
	return [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}, nil
}

func TestSearchNearestNeighbor(t *testing.T) {
	g, err := Load("testdata/glossary.json", stubEmbedder{}, testLogger())
	require.NoError(t, err)

	out := g.Search(context.Background(), "lifetime value of a customer")
	assert.Equal(t, g.texts[1], out)
}
