package sqlite

import "database/sql"

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS notes (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		subject_type TEXT    NOT NULL,
		subject_id   INTEGER NOT NULL,
		note_text    TEXT    NOT NULL,
		created_at   TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notes_subject ON notes (subject_type, subject_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS generated_content (
		id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		subject_id         INTEGER NOT NULL,
		prompt_type        TEXT    NOT NULL,
		output_text        TEXT    NOT NULL,
		factual_score      REAL    NOT NULL,
		completeness_score REAL    NOT NULL,
		creativity_score   REAL    NOT NULL,
		relevance_score    REAL    NOT NULL,
		context_json       TEXT,
		created_at         TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_content_subject ON generated_content (subject_id, prompt_type, created_at)`,

	`CREATE TABLE IF NOT EXISTS generations (
		generation_id      TEXT PRIMARY KEY,
		entity_type        TEXT NOT NULL,
		entity_id          TEXT NOT NULL,
		summary_text       TEXT NOT NULL,
		factual_score      REAL,
		creativity_score   REAL,
		completeness_score REAL,
		relevance_score    REAL,
		scores_status      TEXT NOT NULL,
		created_at         TIMESTAMP NOT NULL,
		updated_at         TIMESTAMP NOT NULL,
		UNIQUE (entity_type, entity_id)
	)`,

	`CREATE TABLE IF NOT EXISTS search_index (
		entity_type    TEXT NOT NULL,
		entity_id      TEXT NOT NULL,
		text_blob      TEXT NOT NULL,
		embedding_json TEXT NOT NULL,
		updated_at     TIMESTAMP NOT NULL,
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
