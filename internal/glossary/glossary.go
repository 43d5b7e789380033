// Package glossary provides nearest-neighbor lookup of fintech business
// terms backed by an embedding index.
package glossary

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/justinj8/fintech-copilot/internal/llm"
	"github.com/justinj8/fintech-copilot/pkg/logger"
)

// NoMatch is the sentinel returned when no glossary entry matches.
const NoMatch = "No glossary match found."

// Glossary holds the term definitions and a lazily built embedding index.
type Glossary struct {
	texts    []string
	embedder llm.Embedder
	log      *logger.Logger

	once    sync.Once
	vectors [][]float64
	indexed bool
}

// Load reads the key→definition mapping file. Entries are flattened to
// "term: definition" strings for indexing.
func Load(path string, embedder llm.Embedder, log *logger.Logger) (*Glossary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read glossary: %w", err)
	}

	var entries map[string]string
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse glossary: %w", err)
	}

	terms := make([]string, 0, len(entries))
	for term := range entries {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	texts := make([]string, len(terms))
	for i, term := range terms {
		texts[i] = term + ": " + entries[term]
	}

	return &Glossary{texts: texts, embedder: embedder, log: log}, nil
}

// Search returns the single best-matching glossary entry, or NoMatch. The
// embedding index is built on first use and cached for the process lifetime;
// without an embedder (or if indexing or query embedding fails) a substring
// scan is used instead. Search never fails.
func (g *Glossary) Search(ctx context.Context, term string) string {
	if len(g.texts) == 0 {
		return NoMatch
	}

	if g.embedder != nil {
		g.once.Do(func() { g.buildIndex(ctx) })
		if g.indexed {
			if match, ok := g.nearest(ctx, term); ok {
				return match
			}
		}
	}

	return g.substringSearch(term)
}

func (g *Glossary) buildIndex(ctx context.Context) {
	vectors, err := g.embedder.Embed(ctx, g.texts)
	if err != nil {
		g.log.Warn("failed to build glossary embedding index", zap.Error(err))
		return
	}
	if len(vectors) != len(g.texts) {
		g.log.Warn("glossary embedding count mismatch",
			zap.Int("texts", len(g.texts)),
			zap.Int("vectors", len(vectors)),
		)
		return
	}

	g.vectors = make([][]float64, len(vectors))
	for i, v := range vectors {
		g.vectors[i] = toFloat64(v)
	}
	g.indexed = true
}

func (g *Glossary) nearest(ctx context.Context, term string) (string, bool) {
	queryVecs, err := g.embedder.Embed(ctx, []string{term})
	if err != nil || len(queryVecs) != 1 {
		g.log.Warn("failed to embed glossary query", zap.Error(err))
		return "", false
	}
	query := toFloat64(queryVecs[0])

	best := -1
	bestScore := math.Inf(-1)
	for i, vec := range g.vectors {
		score := cosine(query, vec)
		if score > bestScore {
			best = i
			bestScore = score
		}
	}
	if best == -1 {
		return "", false
	}
	return g.texts[best], true
}

// substringSearch is the deterministic path used when embeddings are
// unavailable: case-insensitive containment against the term names.
func (g *Glossary) substringSearch(term string) string {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return NoMatch
	}
	for _, text := range g.texts {
		if strings.Contains(strings.ToLower(text), needle) {
			return text
		}
	}
	return NoMatch
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(-1)
	}
	dot := floats.Dot(a, b)
	na := math.Sqrt(floats.Dot(a, a))
	nb := math.Sqrt(floats.Dot(b, b))
	if na == 0 || nb == 0 {
		return math.Inf(-1)
	}
	return dot / (na * nb)
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
