// Package postgres implements store.Store on PostgreSQL via the pgx stdlib
// driver. Selected with LOREKEEP_DB_DRIVER=postgres.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/lorekeep/lorekeep/internal/model"
	"github.com/lorekeep/lorekeep/internal/store"
)

// Open opens a PostgreSQL connection and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// New opens the connection and bootstraps the schema.
func New(dsn string) (store.Store, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewWithDB(db), nil
}

// NewWithDB wires an existing connection, used by tests and the factory.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Notes() store.Notes             { return &notes{db: s.db} }
func (s *pgStore) Content() store.Content         { return &content{db: s.db} }
func (s *pgStore) Generations() store.Generations { return &generations{db: s.db} }
func (s *pgStore) SearchIndex() store.SearchIndex { return &searchIndex{db: s.db} }

func (s *pgStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS notes (
		id           BIGSERIAL PRIMARY KEY,
		subject_type TEXT      NOT NULL,
		subject_id   INTEGER   NOT NULL,
		note_text    TEXT      NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notes_subject ON notes (subject_type, subject_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS generated_content (
		id                 BIGSERIAL PRIMARY KEY,
		subject_id         INTEGER NOT NULL,
		prompt_type        TEXT    NOT NULL,
		output_text        TEXT    NOT NULL,
		factual_score      DOUBLE PRECISION NOT NULL,
		completeness_score DOUBLE PRECISION NOT NULL,
		creativity_score   DOUBLE PRECISION NOT NULL,
		relevance_score    DOUBLE PRECISION NOT NULL,
		context_json       JSONB,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_content_subject ON generated_content (subject_id, prompt_type, created_at)`,

	`CREATE TABLE IF NOT EXISTS generations (
		generation_id      TEXT PRIMARY KEY,
		entity_type        TEXT NOT NULL,
		entity_id          TEXT NOT NULL,
		summary_text       TEXT NOT NULL,
		factual_score      DOUBLE PRECISION,
		creativity_score   DOUBLE PRECISION,
		completeness_score DOUBLE PRECISION,
		relevance_score    DOUBLE PRECISION,
		scores_status      TEXT NOT NULL,
		created_at         TIMESTAMPTZ NOT NULL,
		updated_at         TIMESTAMPTZ NOT NULL,
		UNIQUE (entity_type, entity_id)
	)`,

	`CREATE TABLE IF NOT EXISTS search_index (
		entity_type    TEXT NOT NULL,
		entity_id      TEXT NOT NULL,
		text_blob      TEXT NOT NULL,
		embedding_json JSONB NOT NULL,
		updated_at     TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (entity_type, entity_id)
	)`,
}

// EnsureSchema creates the tables when they do not exist yet.
func EnsureSchema(db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// --- Notes ---

type notes struct{ db *sql.DB }

func (n *notes) List(ctx context.Context, subjectType string, subjectID int) ([]model.Note, error) {
	rows, err := n.db.QueryContext(ctx, `
        SELECT id, subject_type, subject_id, note_text, created_at
        FROM notes WHERE subject_type=$1 AND subject_id=$2
        ORDER BY created_at DESC, id DESC
    `, subjectType, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotes(rows)
}

func (n *notes) ListPage(ctx context.Context, subjectType string, subjectID, page, limit int) ([]model.Note, int, error) {
	var total int
	if err := n.db.QueryRowContext(ctx, `
        SELECT COUNT(*) FROM notes WHERE subject_type=$1 AND subject_id=$2
    `, subjectType, subjectID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := n.db.QueryContext(ctx, `
        SELECT id, subject_type, subject_id, note_text, created_at
        FROM notes WHERE subject_type=$1 AND subject_id=$2
        ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4
    `, subjectType, subjectID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out, err := scanNotes(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (n *notes) Add(ctx context.Context, subjectType string, subjectID int, text string) (*model.Note, error) {
	var note model.Note
	row := n.db.QueryRowContext(ctx, `
        INSERT INTO notes (subject_type, subject_id, note_text)
        VALUES ($1,$2,$3)
        RETURNING id, created_at
    `, subjectType, subjectID, text)
	if err := row.Scan(&note.ID, &note.CreatedAt); err != nil {
		return nil, err
	}
	note.SubjectType = subjectType
	note.SubjectID = subjectID
	note.Text = text
	return &note, nil
}

func (n *notes) Get(ctx context.Context, noteID int64) (*model.Note, error) {
	var note model.Note
	row := n.db.QueryRowContext(ctx, `
        SELECT id, subject_type, subject_id, note_text, created_at FROM notes WHERE id=$1
    `, noteID)
	if err := row.Scan(&note.ID, &note.SubjectType, &note.SubjectID, &note.Text, &note.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("note %d: %w", noteID, model.ErrNotFound)
		}
		return nil, err
	}
	return &note, nil
}

func (n *notes) Update(ctx context.Context, noteID int64, text string) (*model.Note, error) {
	res, err := n.db.ExecContext(ctx, `UPDATE notes SET note_text=$1 WHERE id=$2`, text, noteID)
	if err != nil {
		return nil, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, fmt.Errorf("note %d: %w", noteID, model.ErrNotFound)
	}
	return n.Get(ctx, noteID)
}

func (n *notes) Delete(ctx context.Context, noteID int64) error {
	res, err := n.db.ExecContext(ctx, `DELETE FROM notes WHERE id=$1`, noteID)
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

type content struct{ db *sql.DB }

func (c *content) Save(ctx context.Context, gc *model.GeneratedContent) (*model.GeneratedContent, error) {
	ctxJSON, err := json.Marshal(gc.Context)
	if err != nil {
		return nil, err
	}
	saved := *gc
	row := c.db.QueryRowContext(ctx, `
        INSERT INTO generated_content
        (subject_id, prompt_type, output_text, factual_score, completeness_score, creativity_score, relevance_score, context_json)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at
    `, gc.SubjectID, gc.PromptType, gc.OutputText,
		gc.FactualScore, gc.CompletenessScore, gc.CreativityScore, gc.RelevanceScore, string(ctxJSON))
	if err := row.Scan(&saved.ID, &saved.CreatedAt); err != nil {
		return nil, err
	}
	return &saved, nil
}

func (c *content) ListBySubject(ctx context.Context, subjectID int, promptType string) ([]model.GeneratedContent, error) {
	rows, err := c.db.QueryContext(ctx, `
        SELECT id, subject_id, prompt_type, output_text, factual_score, completeness_score, creativity_score, relevance_score, context_json, created_at
        FROM generated_content WHERE subject_id=$1 AND prompt_type=$2
        ORDER BY created_at DESC, id DESC
    `, subjectID, promptType)
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

func (c *content) LatestBySubject(ctx context.Context, subjectID int, promptType string) (*model.GeneratedContent, error) {
	rows, err := c.db.QueryContext(ctx, `
        SELECT id, subject_id, prompt_type, output_text, factual_score, completeness_score, creativity_score, relevance_score, context_json, created_at
        FROM generated_content WHERE subject_id=$1 AND prompt_type=$2
        ORDER BY created_at DESC, id DESC LIMIT 1
    `, subjectID, promptType)
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

func (c *content) UpdateScores(ctx context.Context, contentID int64, r model.EvaluationResult) error {
	res, err := c.db.ExecContext(ctx, `
        UPDATE generated_content
        SET factual_score=$1, completeness_score=$2, creativity_score=$3, relevance_score=$4
        WHERE id=$5
    `, r.Factual, r.Completeness, r.Creativity, r.Relevance, contentID)
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

type generations struct{ db *sql.DB }

func (g *generations) GetByEntity(ctx context.Context, entityType, entityID string) (*model.Generation, error) {
	var gen model.Generation
	row := g.db.QueryRowContext(ctx, `
        SELECT generation_id, entity_type, entity_id, summary_text,
               factual_score, creativity_score, completeness_score, relevance_score,
               scores_status, created_at, updated_at
        FROM generations WHERE entity_type=$1 AND entity_id=$2
    `, entityType, entityID)
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

func (g *generations) CreateInitiated(ctx context.Context, entityType, entityID, summaryText string) (*model.Generation, error) {
	now := time.Now().UTC()
	_, err := g.db.ExecContext(ctx, `
        INSERT INTO generations (generation_id, entity_type, entity_id, summary_text, scores_status, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$6)
        ON CONFLICT (entity_type, entity_id) DO UPDATE SET
          summary_text = EXCLUDED.summary_text,
          factual_score = NULL, creativity_score = NULL, completeness_score = NULL, relevance_score = NULL,
          scores_status = EXCLUDED.scores_status,
          updated_at = EXCLUDED.updated_at
    `, uuid.New().String(), entityType, entityID, summaryText, model.StatusInitiated, now)
	if err != nil {
		return nil, err
	}
	return g.GetByEntity(ctx, entityType, entityID)
}

func (g *generations) UpdateScores(ctx context.Context, entityType, entityID string, r model.EvaluationResult) error {
	res, err := g.db.ExecContext(ctx, `
        UPDATE generations
        SET factual_score=$1, creativity_score=$2, completeness_score=$3, relevance_score=$4,
            scores_status=$5, updated_at=now()
        WHERE entity_type=$6 AND entity_id=$7
    `, r.Factual, r.Creativity, r.Completeness, r.Relevance, model.StatusGenerated, entityType, entityID)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("generation %s/%s: %w", entityType, entityID, model.ErrNotFound)
	}
	return nil
}

// --- Search index ---

type searchIndex struct{ db *sql.DB }

func (s *searchIndex) Upsert(ctx context.Context, e *model.SearchIndexEntry) error {
	vecJSON, err := json.Marshal(e.Embedding)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO search_index (entity_type, entity_id, text_blob, embedding_json, updated_at)
        VALUES ($1,$2,$3,$4,now())
        ON CONFLICT (entity_type, entity_id) DO UPDATE SET
          text_blob = EXCLUDED.text_blob,
          embedding_json = EXCLUDED.embedding_json,
          updated_at = EXCLUDED.updated_at
    `, e.EntityType, e.EntityID, e.TextBlob, string(vecJSON))
	return err
}

func (s *searchIndex) All(ctx context.Context) ([]model.SearchIndexEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT entity_type, entity_id, text_blob, embedding_json FROM search_index
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SearchIndexEntry
	for rows.Next() {
		var e model.SearchIndexEntry
		var vecJSON []byte
		if err := rows.Scan(&e.EntityType, &e.EntityID, &e.TextBlob, &vecJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(vecJSON, &e.Embedding); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *searchIndex) Delete(ctx context.Context, entityType, entityID string) error {
	_, err := s.db.ExecContext(ctx, `
        DELETE FROM search_index WHERE entity_type=$1 AND entity_id=$2
    `, entityType, entityID)
	return err
}
