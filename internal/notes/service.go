// Package notes manages user annotations on catalog entities.
package notes

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lorekeep/lorekeep/internal/model"
	"github.com/lorekeep/lorekeep/internal/store"
)

// IndexRebuilder refreshes the search index entry for one entity. The rebuild
// is best effort; implementations must not fail the calling flow.
type IndexRebuilder interface {
	RebuildSearchIndex(ctx context.Context, entityType, entityID string)
}

// Service validates and persists notes, keeping the search index in sync.
type Service struct {
	notes     store.Notes
	rebuilder IndexRebuilder
	log       zerolog.Logger
}

// NewService wires the note service. rebuilder may be nil, which disables
// index refreshes.
func NewService(notes store.Notes, rebuilder IndexRebuilder, log zerolog.Logger) *Service {
	return &Service{notes: notes, rebuilder: rebuilder, log: log}
}

// List returns all notes for a subject, newest first.
func (s *Service) List(ctx context.Context, subjectType string, subjectID int) ([]model.Note, error) {
	if !model.ValidSubjectType(subjectType) {
		return nil, fmt.Errorf("%w: unknown subject type %q", model.ErrValidation, subjectType)
	}
	return s.notes.List(ctx, subjectType, subjectID)
}

// ListPage returns one page of notes plus the total count.
func (s *Service) ListPage(ctx context.Context, subjectType string, subjectID, page, limit int) ([]model.Note, int, error) {
	if !model.ValidSubjectType(subjectType) {
		return nil, 0, fmt.Errorf("%w: unknown subject type %q", model.ErrValidation, subjectType)
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	return s.notes.ListPage(ctx, subjectType, subjectID, page, limit)
}

// Add stores a new note and refreshes the subject's index entry.
func (s *Service) Add(ctx context.Context, subjectType string, subjectID int, text string) (*model.Note, error) {
	if !model.ValidSubjectType(subjectType) {
		return nil, fmt.Errorf("%w: unknown subject type %q", model.ErrValidation, subjectType)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: note text must not be empty", model.ErrValidation)
	}

	note, err := s.notes.Add(ctx, subjectType, subjectID, text)
	if err != nil {
		return nil, err
	}
	s.rebuild(ctx, subjectType, subjectID)
	return note, nil
}

// Update rewrites a note's text. Returns model.ErrNotFound for unknown ids.
func (s *Service) Update(ctx context.Context, noteID int64, text string) (*model.Note, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: note text must not be empty", model.ErrValidation)
	}
	note, err := s.notes.Update(ctx, noteID, text)
	if err != nil {
		return nil, err
	}
	s.rebuild(ctx, note.SubjectType, note.SubjectID)
	return note, nil
}

// Delete removes a note. Returns model.ErrNotFound for unknown ids.
func (s *Service) Delete(ctx context.Context, noteID int64) error {
	note, err := s.notes.Get(ctx, noteID)
	if err != nil {
		return err
	}
	if err := s.notes.Delete(ctx, noteID); err != nil {
		return err
	}
	s.rebuild(ctx, note.SubjectType, note.SubjectID)
	return nil
}

func (s *Service) rebuild(ctx context.Context, subjectType string, subjectID int) {
	if s.rebuilder == nil {
		return
	}
	s.rebuilder.RebuildSearchIndex(ctx, subjectType, strconv.Itoa(subjectID))
}
