// Package sqlite implements store.Store on a local SQLite database. It is the
// default backend for single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lorekeep/lorekeep/internal/model"
	"github.com/lorekeep/lorekeep/internal/store"
)

type sqliteStore struct {
	db *sql.DB
}

// New opens (or creates) the database file and bootstraps the schema.
func New(path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewWithDB(db)
}

// NewWithDB wires an existing connection, used by tests and the factory.
func NewWithDB(db *sql.DB) (store.Store, error) {
	if err := EnsureSchema(db); err != nil {
		return nil, err
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Notes() store.Notes             { return &noteStore{db: s.db} }
func (s *sqliteStore) Content() store.Content         { return &contentStore{db: s.db} }
func (s *sqliteStore) Generations() store.Generations { return &generationStore{db: s.db} }
func (s *sqliteStore) SearchIndex() store.SearchIndex { return &searchIndexStore{db: s.db} }

func (s *sqliteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// --- Notes ---

type noteStore struct {
	db *sql.DB
}

func (n *noteStore) List(ctx context.Context, subjectType string, subjectID int) ([]model.Note, error) {
	rows, err := n.db.QueryContext(ctx,
		`SELECT id, subject_type, subject_id, note_text, created_at
		 FROM notes WHERE subject_type = ? AND subject_id = ?
		 ORDER BY created_at DESC, id DESC`,
		subjectType, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotes(rows)
}

func (n *noteStore) ListPage(ctx context.Context, subjectType string, subjectID, page, limit int) ([]model.Note, int, error) {
	var total int
	err := n.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notes WHERE subject_type = ? AND subject_id = ?`,
		subjectType, subjectID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	rows, err := n.db.QueryContext(ctx,
		`SELECT id, subject_type, subject_id, note_text, created_at
		 FROM notes WHERE subject_type = ? AND subject_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		subjectType, subjectID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	notes, err := scanNotes(rows)
	if err != nil {
		return nil, 0, err
	}
	return notes, total, nil
}

func (n *noteStore) Add(ctx context.Context, subjectType string, subjectID int, text string) (*model.Note, error) {
	now := time.Now().UTC()
	res, err := n.db.ExecContext(ctx,
		`INSERT INTO notes (subject_type, subject_id, note_text, created_at) VALUES (?,?,?,?)`,
		subjectType, subjectID, text, now)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.Note{
		ID:          id,
		SubjectType: subjectType,
		SubjectID:   subjectID,
		Text:        text,
		CreatedAt:   now,
	}, nil
}

func (n *noteStore) Get(ctx context.Context, noteID int64) (*model.Note, error) {
	row := n.db.QueryRowContext(ctx,
		`SELECT id, subject_type, subject_id, note_text, created_at FROM notes WHERE id = ?`, noteID)
	var note model.Note
	if err := row.Scan(&note.ID, &note.SubjectType, &note.SubjectID, &note.Text, &note.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("note %d: %w", noteID, model.ErrNotFound)
		}
		return nil, err
	}
	return &note, nil
}

func (n *noteStore) Update(ctx context.Context, noteID int64, text string) (*model.Note, error) {
	res, err := n.db.ExecContext(ctx, `UPDATE notes SET note_text = ? WHERE id = ?`, text, noteID)
	if err != nil {
		return nil, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, fmt.Errorf("note %d: %w", noteID, model.ErrNotFound)
	}
	return n.Get(ctx, noteID)
}

func (n *noteStore) Delete(ctx context.Context, noteID int64) error {
	res, err := n.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, noteID)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("note %d: %w", noteID, model.ErrNotFound)
	}
	return nil
}

func scanNotes(rows *sql.Rows) ([]model.Note, error) {
	var out []model.Note
	for rows.Next() {
		var note model.Note
		if err := rows.Scan(&note.ID, &note.SubjectType, &note.SubjectID, &note.Text, &note.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, note)
	}
	return out, rows.Err()
}

// --- Generated content ---

type contentStore struct {
	db *sql.DB
}

func (c *contentStore) Save(ctx context.Context, gc *model.GeneratedContent) (*model.GeneratedContent, error) {
	now := time.Now().UTC()
	ctxJSON, err := json.Marshal(gc.Context)
	if err != nil {
		return nil, err
	}
	res, err := c.db.ExecContext(ctx,
		`INSERT INTO generated_content
		 (subject_id, prompt_type, output_text, factual_score, completeness_score, creativity_score, relevance_score, context_json, created_at)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		gc.SubjectID, gc.PromptType, gc.OutputText,
		gc.FactualScore, gc.CompletenessScore, gc.CreativityScore, gc.RelevanceScore,
		string(ctxJSON), now)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	saved := *gc
	saved.ID = id
	saved.CreatedAt = now
	return &saved, nil
}

func (c *contentStore) ListBySubject(ctx context.Context, subjectID int, promptType string) ([]model.GeneratedContent, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, subject_id, prompt_type, output_text, factual_score, completeness_score, creativity_score, relevance_score, context_json, created_at
		 FROM generated_content WHERE subject_id = ? AND prompt_type = ?
		 ORDER BY created_at DESC, id DESC`,
		subjectID, promptType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.GeneratedContent
	for rows.Next() {
		gc, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *gc)
	}
	return out, rows.Err()
}

func (c *contentStore) LatestBySubject(ctx context.Context, subjectID int, promptType string) (*model.GeneratedContent, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, subject_id, prompt_type, output_text, factual_score, completeness_score, creativity_score, relevance_score, context_json, created_at
		 FROM generated_content WHERE subject_id = ? AND prompt_type = ?
		 ORDER BY created_at DESC, id DESC LIMIT 1`,
		subjectID, promptType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("content for subject %d/%s: %w", subjectID, promptType, model.ErrNotFound)
	}
	return scanContent(rows)
}

func (c *contentStore) UpdateScores(ctx context.Context, contentID int64, r model.EvaluationResult) error {
	res, err := c.db.ExecContext(ctx,
		`UPDATE generated_content
		 SET factual_score = ?, completeness_score = ?, creativity_score = ?, relevance_score = ?
		 WHERE id = ?`,
		r.Factual, r.Completeness, r.Creativity, r.Relevance, contentID)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("content %d: %w", contentID, model.ErrNotFound)
	}
	return nil
}

func scanContent(rows *sql.Rows) (*model.GeneratedContent, error) {
	var gc model.GeneratedContent
	var ctxJSON sql.NullString
	if err := rows.Scan(&gc.ID, &gc.SubjectID, &gc.PromptType, &gc.OutputText,
		&gc.FactualScore, &gc.CompletenessScore, &gc.CreativityScore, &gc.RelevanceScore,
		&ctxJSON, &gc.CreatedAt); err != nil {
		return nil, err
	}
	if ctxJSON.Valid && ctxJSON.String != "" {
		if err := json.Unmarshal([]byte(ctxJSON.String), &gc.Context); err != nil {
			return nil, err
		}
	}
	return &gc, nil
}

// --- Generations ---

type generationStore struct {
	db *sql.DB
}

func (g *generationStore) GetByEntity(ctx context.Context, entityType, entityID string) (*model.Generation, error) {
	row := g.db.QueryRowContext(ctx,
		`SELECT generation_id, entity_type, entity_id, summary_text,
		        factual_score, creativity_score, completeness_score, relevance_score,
		        scores_status, created_at, updated_at
		 FROM generations WHERE entity_type = ? AND entity_id = ?`,
		entityType, entityID)
	var gen model.Generation
	err := row.Scan(&gen.GenerationID, &gen.EntityType, &gen.EntityID, &gen.SummaryText,
		&gen.FactualScore, &gen.CreativityScore, &gen.CompletenessScore, &gen.RelevanceScore,
		&gen.Status, &gen.CreatedAt, &gen.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("generation %s/%s: %w", entityType, entityID, model.ErrNotFound)
		}
		return nil, err
	}
	return &gen, nil
}

func (g *generationStore) CreateInitiated(ctx context.Context, entityType, entityID, summaryText string) (*model.Generation, error) {
	now := time.Now().UTC()
	gen := &model.Generation{
		GenerationID: uuid.New().String(),
		EntityType:   entityType,
		EntityID:     entityID,
		SummaryText:  summaryText,
		Status:       model.StatusInitiated,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := g.db.ExecContext(ctx,
		`INSERT INTO generations (generation_id, entity_type, entity_id, summary_text, scores_status, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?)
		 ON CONFLICT (entity_type, entity_id) DO UPDATE SET
		   summary_text = excluded.summary_text,
		   factual_score = NULL, creativity_score = NULL, completeness_score = NULL, relevance_score = NULL,
		   scores_status = excluded.scores_status,
		   updated_at = excluded.updated_at`,
		gen.GenerationID, entityType, entityID, summaryText, model.StatusInitiated, now, now)
	if err != nil {
		return nil, err
	}
	return g.GetByEntity(ctx, entityType, entityID)
}

func (g *generationStore) UpdateScores(ctx context.Context, entityType, entityID string, r model.EvaluationResult) error {
	res, err := g.db.ExecContext(ctx,
		`UPDATE generations
		 SET factual_score = ?, creativity_score = ?, completeness_score = ?, relevance_score = ?,
		     scores_status = ?, updated_at = ?
		 WHERE entity_type = ? AND entity_id = ?`,
		r.Factual, r.Creativity, r.Completeness, r.Relevance,
		model.StatusGenerated, time.Now().UTC(), entityType, entityID)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("generation %s/%s: %w", entityType, entityID, model.ErrNotFound)
	}
	return nil
}

// --- Search index ---

type searchIndexStore struct {
	db *sql.DB
}

func (s *searchIndexStore) Upsert(ctx context.Context, e *model.SearchIndexEntry) error {
	vecJSON, err := json.Marshal(e.Embedding)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO search_index (entity_type, entity_id, text_blob, embedding_json, updated_at)
		 VALUES (?,?,?,?,?)
		 ON CONFLICT (entity_type, entity_id) DO UPDATE SET
		   text_blob = excluded.text_blob,
		   embedding_json = excluded.embedding_json,
		   updated_at = excluded.updated_at`,
		e.EntityType, e.EntityID, e.TextBlob, string(vecJSON), time.Now().UTC())
	return err
}

func (s *searchIndexStore) All(ctx context.Context) ([]model.SearchIndexEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entity_type, entity_id, text_blob, embedding_json FROM search_index`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SearchIndexEntry
	for rows.Next() {
		var e model.SearchIndexEntry
		var vecJSON string
		if err := rows.Scan(&e.EntityType, &e.EntityID, &e.TextBlob, &vecJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(vecJSON), &e.Embedding); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *searchIndexStore) Delete(ctx context.Context, entityType, entityID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM search_index WHERE entity_type = ? AND entity_id = ?`, entityType, entityID)
	return err
}
