package generation

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeep/lorekeep/internal/eval"
	"github.com/lorekeep/lorekeep/internal/jobs"
	"github.com/lorekeep/lorekeep/internal/model"
	"github.com/lorekeep/lorekeep/internal/store"
	"github.com/lorekeep/lorekeep/internal/store/sqlite"
)

type fakeSource struct{}

func (f *fakeSource) GetCharacter(_ context.Context, id int) (*model.Character, error) {
	return &model.Character{
		ID:          id,
		Name:        "Rick Sanchez",
		Status:      "Alive",
		Species:     "Human",
		Gender:      "Male",
		Origin:      model.Reference{Name: "Earth (C-137)"},
		Location:    model.Reference{Name: "Citadel of Ricks"},
		EpisodeRefs: []string{"S01E01", "S01E02"},
		Episodes: []model.Episode{
			{ID: 1, Name: "Pilot", Code: "S01E01"},
			{ID: 2, Name: "Lawnmower Dog", Code: "S01E02"},
		},
	}, nil
}

func (f *fakeSource) GetCharacters(_ context.Context, _ []int) ([]model.Character, error) {
	return nil, nil
}

func (f *fakeSource) GetCharactersPage(_ context.Context, _ int) ([]model.Character, int, error) {
	return nil, 0, nil
}

func (f *fakeSource) GetLocation(_ context.Context, id int) (*model.Location, error) {
	return &model.Location{
		ID:        id,
		Name:      "Citadel of Ricks",
		Type:      "Space station",
		Dimension: "unknown",
		Residents: []model.Character{
			{ID: 1, Name: "Rick Sanchez", Status: "Alive", Species: "Human"},
			{ID: 2, Name: "Morty Smith", Status: "Alive", Species: "Human"},
		},
		ResidentCount: 2,
	}, nil
}

func (f *fakeSource) GetLocationsPage(_ context.Context, _ int) ([]model.Location, int, error) {
	return nil, 0, nil
}

func (f *fakeSource) GetEpisode(_ context.Context, id int) (*model.Episode, error) {
	return &model.Episode{ID: id, Name: "Pilot", AirDate: "December 2, 2013", Code: "S01E01"}, nil
}

func (f *fakeSource) GetEpisodeWithCharacters(_ context.Context, id int) (*model.Episode, []model.Character, error) {
	ep := &model.Episode{ID: id, Name: "Pilot", AirDate: "December 2, 2013", Code: "S01E01"}
	chars := []model.Character{
		{ID: 1, Name: "Rick Sanchez", Species: "Human"},
		{ID: 2, Name: "Morty Smith", Species: "Human"},
	}
	return ep, chars, nil
}

func (f *fakeSource) GetEpisodesPage(_ context.Context, _ int) ([]model.Episode, int, error) {
	return nil, 0, nil
}

type fakeProvider struct {
	text     string
	embedDim int
}

func (f *fakeProvider) Generate(_ context.Context, _, _ string) (string, error) {
	return f.text, nil
}

func (f *fakeProvider) Embed(_ context.Context, _ string) ([]float32, error) {
	vec := make([]float32, f.embedDim)
	for i := range vec {
		vec[i] = 0.5
	}
	return vec, nil
}

func newTestService(t *testing.T, generated string) (*Service, *jobs.Queue, store.Store) {
	t.Helper()
	db, err := sqlite.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	st, err := sqlite.NewWithDB(db)
	require.NoError(t, err)

	queue := jobs.NewQueue(zerolog.Nop())
	provider := &fakeProvider{text: generated, embedDim: 4}
	svc := NewService(&fakeSource{}, provider, eval.New(zerolog.Nop()), st, queue, zerolog.Nop())
	return svc, queue, st
}

func TestGenerateSummaryInitiatesAndCaches(t *testing.T) {
	svc, queue, _ := newTestService(t, "Rick Sanchez did a thing. Wow!")
	ctx := context.Background()

	gen, err := svc.GenerateSummary(ctx, model.SubjectCharacter, "1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusInitiated, gen.Status)
	assert.Nil(t, gen.FactualScore)
	assert.Equal(t, "Rick Sanchez did a thing. Wow!", gen.SummaryText)
	assert.Equal(t, 1, queue.Len())

	// Second call hits the cache; no extra job is enqueued.
	again, err := svc.GenerateSummary(ctx, model.SubjectCharacter, "1")
	require.NoError(t, err)
	assert.Equal(t, gen.GenerationID, again.GenerationID)
	assert.Equal(t, 1, queue.Len())
}

func TestGenerateSummaryValidation(t *testing.T) {
	svc, _, _ := newTestService(t, "whatever")
	ctx := context.Background()

	_, err := svc.GenerateSummary(ctx, "planet", "1")
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.GenerateSummary(ctx, model.SubjectCharacter, "abc")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestFinalizeGenerationJob(t *testing.T) {
	svc, queue, st := newTestService(t, "Rick Sanchez, a Human from Earth, did something through a portal!")
	ctx := context.Background()

	_, err := svc.GenerateSummary(ctx, model.SubjectCharacter, "1")
	require.NoError(t, err)

	job, ok := queue.Dequeue()
	require.True(t, ok)
	assert.Equal(t, jobs.TypeFinalizeGeneration, job.Type)
	require.NoError(t, svc.ProcessJob(ctx, job))

	gen, err := st.Generations().GetByEntity(ctx, model.SubjectCharacter, "1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusGenerated, gen.Status)
	require.NotNil(t, gen.FactualScore)
	assert.GreaterOrEqual(t, *gen.FactualScore, 0.0)
	assert.LessOrEqual(t, *gen.FactualScore, 1.0)

	// Finalizing also refreshes the search index entry for the entity.
	entries, err := st.SearchIndex().All(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.SubjectCharacter, entries[0].EntityType)
	assert.True(t, strings.HasPrefix(entries[0].TextBlob, "Name: Rick Sanchez"))
	assert.NotEmpty(t, entries[0].Embedding)
}

func TestGenerateLocationSummarySentinelThenScored(t *testing.T) {
	svc, queue, st := newTestService(t, "The Citadel of Ricks, home to Rick Sanchez and Morty Smith!")
	ctx := context.Background()

	content, err := svc.GenerateLocationSummary(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, model.ScoreSentinel, content.FactualScore)
	assert.Equal(t, model.ScoreSentinel, content.CreativityScore)

	// Cache hit returns the same row and enqueues nothing.
	again, err := svc.GenerateLocationSummary(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, content.ID, again.ID)
	assert.Equal(t, 1, queue.Len())

	job, ok := queue.Dequeue()
	require.True(t, ok)
	assert.Equal(t, jobs.TypeScoreContent, job.Type)
	require.NoError(t, svc.ProcessJob(ctx, job))

	scored, err := st.Content().LatestBySubject(ctx, 3, PromptLocationSummary)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, scored.FactualScore, 0.0)
	assert.GreaterOrEqual(t, scored.CompletenessScore, 0.0)
	assert.GreaterOrEqual(t, scored.CreativityScore, 0.0)
	assert.GreaterOrEqual(t, scored.RelevanceScore, 0.0)
}

func TestGenerateDialogueScoresSynchronously(t *testing.T) {
	svc, queue, _ := newTestService(t, "Rick: Morty! Morty: Aw geez, Rick.")
	ctx := context.Background()

	content, err := svc.GenerateDialogue(ctx, 1, 2, "portals")
	require.NoError(t, err)
	assert.Equal(t, PromptDialogue, content.PromptType)
	assert.GreaterOrEqual(t, content.FactualScore, 0.0)
	assert.GreaterOrEqual(t, content.CreativityScore, 0.0)
	assert.Equal(t, "portals", content.Context["topic"])
	// No deferred work for dialogue.
	assert.Equal(t, 0, queue.Len())
}

func TestImproveNoteTruncatesAtWordLimit(t *testing.T) {
	long := strings.TrimSpace(strings.Repeat("word ", 350))
	svc, _, _ := newTestService(t, long)

	improved, err := svc.ImproveNote(context.Background(), "short note", model.SubjectCharacter, 1)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(improved, "..."))
	assert.Len(t, strings.Fields(improved), improveNoteWordLimit)

	_, err = svc.ImproveNote(context.Background(), "short note", "planet", 1)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestRebuildSearchIndexIncludesNotesAndSummary(t *testing.T) {
	svc, queue, st := newTestService(t, "Rick Sanchez summary text.")
	ctx := context.Background()

	_, err := st.Notes().Add(ctx, model.SubjectCharacter, 1, "keeps a flask")
	require.NoError(t, err)

	// Generate and score the summary so it qualifies for the blob.
	_, err = svc.GenerateCharacterSummary(ctx, 1)
	require.NoError(t, err)
	job, ok := queue.Dequeue()
	require.True(t, ok)
	require.NoError(t, svc.ProcessJob(ctx, job))

	entries, err := st.SearchIndex().All(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	blob := entries[0].TextBlob
	assert.Contains(t, blob, "Name: Rick Sanchez")
	assert.Contains(t, blob, "User notes:")
	assert.Contains(t, blob, "- keeps a flask")
	assert.Contains(t, blob, "AI Summary: Rick Sanchez summary text.")
	assert.Contains(t, blob, "Episodes: 2")
}

func TestScoreContentJobSkipsIndexForDialogue(t *testing.T) {
	svc, _, st := newTestService(t, "some text")
	ctx := context.Background()

	saved, err := st.Content().Save(ctx, &model.GeneratedContent{
		SubjectID:  1,
		PromptType: PromptDialogue,
		OutputText: "some text",
	})
	require.NoError(t, err)

	require.NoError(t, svc.ProcessJob(ctx, jobs.Job{
		Type:       jobs.TypeScoreContent,
		ContentID:  saved.ID,
		SubjectID:  1,
		PromptType: PromptDialogue,
		Text:       "some text",
	}))

	entries, err := st.SearchIndex().All(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
