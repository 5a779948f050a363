package store

import (
	"context"

	"github.com/lorekeep/lorekeep/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (sqlite, postgres).
type Store interface {
	Notes() Notes
	Content() Content
	Generations() Generations
	SearchIndex() SearchIndex
	Ping(ctx context.Context) error
}

// Notes persists user annotations. Lookups of absent ids return model.ErrNotFound.
type Notes interface {
	List(ctx context.Context, subjectType string, subjectID int) ([]model.Note, error)
	ListPage(ctx context.Context, subjectType string, subjectID, page, limit int) ([]model.Note, int, error)
	Add(ctx context.Context, subjectType string, subjectID int, text string) (*model.Note, error)
	Get(ctx context.Context, noteID int64) (*model.Note, error)
	Update(ctx context.Context, noteID int64, text string) (*model.Note, error)
	Delete(ctx context.Context, noteID int64) error
}

// Content persists per-type generation attempts with their scores.
type Content interface {
	Save(ctx context.Context, c *model.GeneratedContent) (*model.GeneratedContent, error)
	ListBySubject(ctx context.Context, subjectID int, promptType string) ([]model.GeneratedContent, error)
	LatestBySubject(ctx context.Context, subjectID int, promptType string) (*model.GeneratedContent, error)
	UpdateScores(ctx context.Context, contentID int64, r model.EvaluationResult) error
}

// Generations persists the unified per-entity summary records.
type Generations interface {
	GetByEntity(ctx context.Context, entityType, entityID string) (*model.Generation, error)
	CreateInitiated(ctx context.Context, entityType, entityID, summaryText string) (*model.Generation, error)
	// UpdateScores finalizes the record: sets all four scores and moves
	// status to GENERATED.
	UpdateScores(ctx context.Context, entityType, entityID string, r model.EvaluationResult) error
}

// SearchIndex persists the denormalized text+vector entry per entity.
type SearchIndex interface {
	Upsert(ctx context.Context, e *model.SearchIndexEntry) error
	All(ctx context.Context) ([]model.SearchIndexEntry, error)
	Delete(ctx context.Context, entityType, entityID string) error
}
