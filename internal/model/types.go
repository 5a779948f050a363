package model

import "time"

// Subject types notes, summaries and search entries can attach to.
const (
	SubjectCharacter = "character"
	SubjectLocation  = "location"
	SubjectEpisode   = "episode"
)

// ValidSubjectType reports whether t names a known entity type.
func ValidSubjectType(t string) bool {
	switch t {
	case SubjectCharacter, SubjectLocation, SubjectEpisode:
		return true
	}
	return false
}

// Character is a catalog character as projected from the upstream API.
type Character struct {
	ID       int       `json:"id"`
	Name     string    `json:"name"`
	Status   string    `json:"status"`
	Species  string    `json:"species"`
	Type     string    `json:"type"`
	Gender   string    `json:"gender"`
	Origin   Reference `json:"origin"`
	Location Reference `json:"location"`
	Image    string    `json:"image"`
	// Episode codes or ids the character appears in.
	EpisodeRefs []string `json:"episode"`
	// Full episode records when the query projected them.
	Episodes []Episode `json:"episodes,omitempty"`
	Created  string    `json:"created,omitempty"`
}

// Reference is a lightweight link to another catalog entity.
type Reference struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// Location is a catalog location with optionally projected residents.
type Location struct {
	ID        int         `json:"id"`
	Name      string      `json:"name"`
	Type      string      `json:"type"`
	Dimension string      `json:"dimension"`
	Residents []Character `json:"residents,omitempty"`
	// List queries project resident ids only; the count survives here.
	ResidentCount int `json:"residentCount"`
}

// Episode is a catalog episode with optionally projected characters.
type Episode struct {
	ID         int         `json:"id"`
	Name       string      `json:"name"`
	AirDate    string      `json:"airDate"`
	Code       string      `json:"episode"`
	Characters []Character `json:"characters,omitempty"`
	// List queries project character ids only; the count survives here.
	CharacterCount int    `json:"characterCount"`
	Created        string `json:"created,omitempty"`
}

// Note is a user annotation on a catalog entity.
type Note struct {
	ID          int64     `json:"id"`
	SubjectType string    `json:"subjectType"`
	SubjectID   int       `json:"subjectId"`
	Text        string    `json:"noteText"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ScoreSentinel marks a score that has not been computed yet on
// generated-content rows. Generations use nil pointers instead.
const ScoreSentinel = -1.0

// GeneratedContent is one generation attempt with its evaluation scores.
// Scores hold ScoreSentinel until the scoring job finalizes them.
type GeneratedContent struct {
	ID                int64          `json:"id"`
	SubjectID         int            `json:"subjectId"`
	PromptType        string         `json:"promptType"`
	OutputText        string         `json:"outputText"`
	FactualScore      float64        `json:"factualScore"`
	CompletenessScore float64        `json:"completenessScore"`
	CreativityScore   float64        `json:"creativityScore"`
	RelevanceScore    float64        `json:"relevanceScore"`
	Context           map[string]any `json:"context,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
}

// Generation status values.
const (
	StatusInitiated = "INITIATED"
	StatusGenerated = "GENERATED"
)

// Generation is the unified per-entity summary record. Scores are nil while the
// finalize job is pending; Status moves INITIATED -> GENERATED exactly once.
type Generation struct {
	GenerationID      string    `json:"generationId"`
	EntityType        string    `json:"entityType"`
	EntityID          string    `json:"entityId"`
	SummaryText       string    `json:"summaryText"`
	FactualScore      *float64  `json:"factualScore"`
	CreativityScore   *float64  `json:"creativityScore"`
	CompletenessScore *float64  `json:"completenessScore"`
	RelevanceScore    *float64  `json:"relevanceScore"`
	Status            string    `json:"scoresStatus"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// EvaluationResult holds the four quality scores, each in [0,1].
type EvaluationResult struct {
	Factual      float64 `json:"factualScore"`
	Completeness float64 `json:"completenessScore"`
	Creativity   float64 `json:"creativityScore"`
	Relevance    float64 `json:"relevanceScore"`
}

// SearchIndexEntry is the denormalized searchable unit for one entity.
type SearchIndexEntry struct {
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	TextBlob   string    `json:"textBlob"`
	Embedding  []float32 `json:"embedding"`
}

// SearchResult is one ranked hit from the semantic search engine.
type SearchResult struct {
	EntityType string  `json:"entity_type"`
	EntityID   string  `json:"entity_id"`
	Name       string  `json:"name"`
	Snippet    string  `json:"snippet"`
	Similarity float64 `json:"similarity"`
}
