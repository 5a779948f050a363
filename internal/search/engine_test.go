package search

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeep/lorekeep/internal/model"
)

type fakeEmbedder struct {
	vec []float32
}

func (f *fakeEmbedder) Generate(_ context.Context, _, _ string) (string, error) {
	return "", nil
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return f.vec, nil
}

type memIndex struct {
	entries []model.SearchIndexEntry
}

func (m *memIndex) Upsert(_ context.Context, e *model.SearchIndexEntry) error {
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memIndex) All(_ context.Context) ([]model.SearchIndexEntry, error) {
	return m.entries, nil
}

func (m *memIndex) Delete(_ context.Context, _, _ string) error { return nil }

func TestCosineSimilarityBounds(t *testing.T) {
	v := []float32{0.3, 0.4, 0.5}
	assert.InDelta(t, 1.0, cosineSimilarity(v, v), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity(v, []float32{-0.3, -0.4, -0.5}), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarity(v, []float32{0, 0, 0}))
	assert.Equal(t, 0.0, cosineSimilarity([]float32{}, v))
}

func TestSearchRanksBySimilarity(t *testing.T) {
	idx := &memIndex{entries: []model.SearchIndexEntry{
		{EntityType: model.SubjectCharacter, EntityID: "2", TextBlob: "Name: Morty Smith", Embedding: []float32{0, 1}},
		{EntityType: model.SubjectCharacter, EntityID: "1", TextBlob: "Name: Rick Sanchez", Embedding: []float32{1, 0}},
		{EntityType: model.SubjectLocation, EntityID: "3", TextBlob: "Name: Citadel", Embedding: []float32{0.7, 0.7}},
	}}
	eng := NewEngine(idx, &fakeEmbedder{vec: []float32{1, 0}}, zerolog.Nop())

	results, err := eng.Search(context.Background(), "rick", 0)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "Rick Sanchez", results[0].Name)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-9)
	assert.Equal(t, "Citadel", results[1].Name)
	assert.Equal(t, "Morty Smith", results[2].Name)
}

func TestSearchHonorsLimit(t *testing.T) {
	idx := &memIndex{}
	for i := 0; i < 15; i++ {
		idx.entries = append(idx.entries, model.SearchIndexEntry{
			EntityType: model.SubjectEpisode,
			EntityID:   "e",
			TextBlob:   "Name: Something",
			Embedding:  []float32{1, 0},
		})
	}
	eng := NewEngine(idx, &fakeEmbedder{vec: []float32{1, 0}}, zerolog.Nop())

	results, err := eng.Search(context.Background(), "q", 5)
	require.NoError(t, err)
	assert.Len(t, results, 5)

	// Zero limit falls back to the default.
	results, err = eng.Search(context.Background(), "q", 0)
	require.NoError(t, err)
	assert.Len(t, results, DefaultLimit)
}

func TestSearchEmptyIndex(t *testing.T) {
	eng := NewEngine(&memIndex{}, &fakeEmbedder{vec: []float32{1}}, zerolog.Nop())
	results, err := eng.Search(context.Background(), "anything", 10)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSnippetTruncation(t *testing.T) {
	long := "Name: X\n" + strings.Repeat("a", 300)
	got := snippet(long)
	assert.Len(t, got, 203)
	assert.True(t, strings.HasSuffix(got, "..."))

	assert.Equal(t, "short blob", snippet("short blob"))
}

func TestNameFromBlob(t *testing.T) {
	assert.Equal(t, "Rick Sanchez", nameFromBlob("Name: Rick Sanchez\nStatus: Alive"))
	assert.Equal(t, "no colon first line", nameFromBlob("no colon first line\nsecond"))
}
