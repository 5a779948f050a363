package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeep/lorekeep/internal/model"
	"github.com/lorekeep/lorekeep/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	db, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	st, err := NewWithDB(db)
	require.NoError(t, err)
	return st
}

func TestNotesLifecycle(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	added, err := st.Notes().Add(ctx, model.SubjectCharacter, 1, "has a portal gun")
	require.NoError(t, err)
	assert.NotZero(t, added.ID)

	got, err := st.Notes().Get(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, "has a portal gun", got.Text)

	updated, err := st.Notes().Update(ctx, added.ID, "portal gun runs on dark matter")
	require.NoError(t, err)
	assert.Equal(t, "portal gun runs on dark matter", updated.Text)

	require.NoError(t, st.Notes().Delete(ctx, added.ID))

	_, err = st.Notes().Get(ctx, added.ID)
	assert.True(t, errors.Is(err, model.ErrNotFound))

	err = st.Notes().Delete(ctx, added.ID)
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestNotesListPage(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, text := range []string{"first", "second", "third"} {
		_, err := st.Notes().Add(ctx, model.SubjectLocation, 3, text)
		require.NoError(t, err)
	}
	// Notes for another subject must not leak into the page.
	_, err := st.Notes().Add(ctx, model.SubjectLocation, 4, "other subject")
	require.NoError(t, err)

	page, total, err := st.Notes().ListPage(ctx, model.SubjectLocation, 3, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, page, 2)

	page2, _, err := st.Notes().ListPage(ctx, model.SubjectLocation, 3, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page2, 1)
}

func TestContentSaveAndLatest(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.Content().LatestBySubject(ctx, 7, "location_summary")
	assert.True(t, errors.Is(err, model.ErrNotFound))

	first, err := st.Content().Save(ctx, &model.GeneratedContent{
		SubjectID:         7,
		PromptType:        "location_summary",
		OutputText:        "a planet, allegedly",
		FactualScore:      model.ScoreSentinel,
		CompletenessScore: model.ScoreSentinel,
		CreativityScore:   model.ScoreSentinel,
		RelevanceScore:    model.ScoreSentinel,
		Context:           map[string]any{"name": "Earth"},
	})
	require.NoError(t, err)

	second, err := st.Content().Save(ctx, &model.GeneratedContent{
		SubjectID:  7,
		PromptType: "location_summary",
		OutputText: "a newer take",
	})
	require.NoError(t, err)

	latest, err := st.Content().LatestBySubject(ctx, 7, "location_summary")
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	require.NoError(t, st.Content().UpdateScores(ctx, first.ID, model.EvaluationResult{
		Factual: 0.8, Completeness: 0.6, Creativity: 0.7, Relevance: 0.9,
	}))
	all, err := st.Content().ListBySubject(ctx, 7, "location_summary")
	require.NoError(t, err)
	require.Len(t, all, 2)
	// Newest first; the scored row is the older one.
	assert.Equal(t, 0.8, all[1].FactualScore)
	assert.Equal(t, "Earth", all[1].Context["name"])
}

func TestGenerationsInitiateThenFinalize(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.Generations().GetByEntity(ctx, model.SubjectEpisode, "11")
	assert.True(t, errors.Is(err, model.ErrNotFound))

	gen, err := st.Generations().CreateInitiated(ctx, model.SubjectEpisode, "11", "pilot recap")
	require.NoError(t, err)
	assert.Equal(t, model.StatusInitiated, gen.Status)
	assert.Nil(t, gen.FactualScore)
	assert.NotEmpty(t, gen.GenerationID)

	require.NoError(t, st.Generations().UpdateScores(ctx, model.SubjectEpisode, "11", model.EvaluationResult{
		Factual: 0.75, Completeness: 0.4, Creativity: 0.55, Relevance: 0.5,
	}))

	done, err := st.Generations().GetByEntity(ctx, model.SubjectEpisode, "11")
	require.NoError(t, err)
	assert.Equal(t, model.StatusGenerated, done.Status)
	require.NotNil(t, done.FactualScore)
	assert.Equal(t, 0.75, *done.FactualScore)
	assert.Equal(t, 0.4, *done.CompletenessScore)
}

func TestGenerationsRegenerateResetsScores(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.Generations().CreateInitiated(ctx, model.SubjectCharacter, "1", "v1")
	require.NoError(t, err)
	require.NoError(t, st.Generations().UpdateScores(ctx, model.SubjectCharacter, "1", model.EvaluationResult{
		Factual: 0.9, Completeness: 0.9, Creativity: 0.9, Relevance: 0.9,
	}))

	gen, err := st.Generations().CreateInitiated(ctx, model.SubjectCharacter, "1", "v2")
	require.NoError(t, err)
	assert.Equal(t, "v2", gen.SummaryText)
	assert.Equal(t, model.StatusInitiated, gen.Status)
	assert.Nil(t, gen.FactualScore)
}

func TestSearchIndexRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	entry := &model.SearchIndexEntry{
		EntityType: model.SubjectCharacter,
		EntityID:   "1",
		TextBlob:   "Name: Rick Sanchez\nStatus: Alive",
		Embedding:  []float32{0.1, -0.2, 0.3},
	}
	require.NoError(t, st.SearchIndex().Upsert(ctx, entry))

	// Upsert with the same key replaces the row.
	entry.TextBlob = "Name: Rick Sanchez\nStatus: Presumed Alive"
	require.NoError(t, st.SearchIndex().Upsert(ctx, entry))

	all, err := st.SearchIndex().All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Name: Rick Sanchez\nStatus: Presumed Alive", all[0].TextBlob)
	assert.Equal(t, []float32{0.1, -0.2, 0.3}, all[0].Embedding)

	require.NoError(t, st.SearchIndex().Delete(ctx, model.SubjectCharacter, "1"))
	all, err = st.SearchIndex().All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
