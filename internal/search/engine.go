// Package search implements brute-force semantic search over the persisted
// index: embed the query, scan every entry, rank by cosine similarity.
package search

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lorekeep/lorekeep/internal/llm"
	"github.com/lorekeep/lorekeep/internal/model"
	"github.com/lorekeep/lorekeep/internal/store"
)

// DefaultLimit caps results when the caller does not ask for a limit.
const DefaultLimit = 10

const snippetLength = 200

// Engine ranks index entries against a query embedding.
type Engine struct {
	index    store.SearchIndex
	provider llm.Provider
	log      zerolog.Logger
}

// NewEngine builds an Engine.
func NewEngine(index store.SearchIndex, provider llm.Provider, log zerolog.Logger) *Engine {
	return &Engine{index: index, provider: provider, log: log}
}

// Search embeds the query and returns up to limit entries ordered by
// descending similarity. An empty index yields an empty slice, not an error.
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	queryVec, err := e.provider.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	entries, err := e.index.All(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		e.log.Warn().Msg("search index is empty, no results available")
		return []model.SearchResult{}, nil
	}

	results := make([]model.SearchResult, 0, len(entries))
	for _, entry := range entries {
		results = append(results, model.SearchResult{
			EntityType: entry.EntityType,
			EntityID:   entry.EntityID,
			Name:       nameFromBlob(entry.TextBlob),
			Snippet:    snippet(entry.TextBlob),
			Similarity: cosineSimilarity(queryVec, entry.Embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// cosineSimilarity returns 0.0 when either vector has zero norm, so
// unembeddable entries rank last instead of erroring.
func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// snippet returns the first 200 chars of the blob, with an ellipsis when
// truncated.
func snippet(blob string) string {
	if len(blob) <= snippetLength {
		return blob
	}
	return blob[:snippetLength] + "..."
}

// nameFromBlob extracts the display name from the blob's first line, which
// follows the "Name: <value>" convention.
func nameFromBlob(blob string) string {
	line := blob
	if i := strings.IndexByte(blob, '\n'); i >= 0 {
		line = blob[:i]
	}
	if i := strings.IndexByte(line, ':'); i >= 0 {
		return strings.TrimSpace(line[i+1:])
	}
	return line
}
