package notes

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeep/lorekeep/internal/model"
	"github.com/lorekeep/lorekeep/internal/store"
	"github.com/lorekeep/lorekeep/internal/store/sqlite"
)

type recordingRebuilder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingRebuilder) RebuildSearchIndex(_ context.Context, entityType, entityID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, entityType+"/"+entityID)
}

func newTestService(t *testing.T) (*Service, *recordingRebuilder, store.Store) {
	t.Helper()
	db, err := sqlite.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	st, err := sqlite.NewWithDB(db)
	require.NoError(t, err)
	rb := &recordingRebuilder{}
	return NewService(st.Notes(), rb, zerolog.Nop()), rb, st
}

func TestAddValidatesAndRebuildsIndex(t *testing.T) {
	svc, rb, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, "planet", 1, "text")
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.Add(ctx, model.SubjectCharacter, 1, "   ")
	assert.ErrorIs(t, err, model.ErrValidation)

	note, err := svc.Add(ctx, model.SubjectCharacter, 1, "owns a portal gun")
	require.NoError(t, err)
	assert.Equal(t, model.SubjectCharacter, note.SubjectType)
	assert.Equal(t, []string{"character/1"}, rb.calls)
}

func TestUpdateRebuildsForOwningSubject(t *testing.T) {
	svc, rb, _ := newTestService(t)
	ctx := context.Background()

	note, err := svc.Add(ctx, model.SubjectLocation, 42, "nice views")
	require.NoError(t, err)

	updated, err := svc.Update(ctx, note.ID, "terrible views actually")
	require.NoError(t, err)
	assert.Equal(t, "terrible views actually", updated.Text)
	assert.Equal(t, []string{"location/42", "location/42"}, rb.calls)

	_, err = svc.Update(ctx, 9999, "whatever")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestDeleteMissingNote(t *testing.T) {
	svc, rb, _ := newTestService(t)
	ctx := context.Background()

	err := svc.Delete(ctx, 12345)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Empty(t, rb.calls)

	note, err := svc.Add(ctx, model.SubjectEpisode, 7, "good one")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, note.ID))
	assert.Equal(t, "episode/"+strconv.Itoa(7), rb.calls[len(rb.calls)-1])
}

func TestListPageDefaults(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Add(ctx, model.SubjectCharacter, 5, "note "+strconv.Itoa(i))
		require.NoError(t, err)
	}

	notes, total, err := svc.ListPage(ctx, model.SubjectCharacter, 5, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, notes, 3)

	_, _, err = svc.ListPage(ctx, "planet", 5, 1, 10)
	assert.ErrorIs(t, err, model.ErrValidation)
}
