// Package generation orchestrates LLM content generation: unified entity
// summaries with deferred scoring, per-type summaries, character dialogue,
// note improvement and search index maintenance.
package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/lorekeep/lorekeep/internal/catalog"
	"github.com/lorekeep/lorekeep/internal/eval"
	"github.com/lorekeep/lorekeep/internal/jobs"
	"github.com/lorekeep/lorekeep/internal/llm"
	"github.com/lorekeep/lorekeep/internal/model"
	"github.com/lorekeep/lorekeep/internal/store"
)

const improveNoteWordLimit = 300

// Service coordinates catalog lookups, the LLM provider, the evaluator and
// the job queue. It implements jobs.Processor for the deferred scoring work.
type Service struct {
	catalog   catalog.Source
	provider  llm.Provider
	evaluator *eval.Evaluator
	store     store.Store
	queue     *jobs.Queue
	log       zerolog.Logger
}

// NewService wires the orchestrator.
func NewService(src catalog.Source, provider llm.Provider, evaluator *eval.Evaluator, st store.Store, queue *jobs.Queue, log zerolog.Logger) *Service {
	return &Service{
		catalog:   src,
		provider:  provider,
		evaluator: evaluator,
		store:     st,
		queue:     queue,
		log:       log,
	}
}

// GenerateSummary is the unified generation flow: return the cached record if
// one exists, otherwise generate, persist with INITIATED status and enqueue
// the finalize job. Scores arrive asynchronously.
func (s *Service) GenerateSummary(ctx context.Context, entityType, entityID string) (*model.Generation, error) {
	if !model.ValidSubjectType(entityType) {
		return nil, fmt.Errorf("%w: unknown entity type %q", model.ErrValidation, entityType)
	}
	id, err := strconv.Atoi(entityID)
	if err != nil {
		return nil, fmt.Errorf("%w: entity id must be numeric, got %q", model.ErrValidation, entityID)
	}

	existing, err := s.store.Generations().GetByEntity(ctx, entityType, entityID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	canonicalContext, err := s.fetchCanonicalContext(ctx, entityType, id)
	if err != nil {
		return nil, err
	}

	contextJSON, err := json.MarshalIndent(canonicalContext, "", "  ")
	if err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf(unifiedPromptTemplate, entityType, contextJSON)

	summaryText, err := s.provider.Generate(ctx, prompt, unifiedSystemPrompt)
	if err != nil {
		return nil, err
	}

	generation, err := s.store.Generations().CreateInitiated(ctx, entityType, entityID, summaryText)
	if err != nil {
		return nil, err
	}

	s.queue.Enqueue(jobs.Job{
		Type:       jobs.TypeFinalizeGeneration,
		EntityType: entityType,
		EntityID:   entityID,
		Text:       summaryText,
		Context:    canonicalContext,
	})
	return generation, nil
}

// GetSummary returns the stored generation record without triggering work.
func (s *Service) GetSummary(ctx context.Context, entityType, entityID string) (*model.Generation, error) {
	if !model.ValidSubjectType(entityType) {
		return nil, fmt.Errorf("%w: unknown entity type %q", model.ErrValidation, entityType)
	}
	return s.store.Generations().GetByEntity(ctx, entityType, entityID)
}

func (s *Service) fetchCanonicalContext(ctx context.Context, entityType string, entityID int) (map[string]any, error) {
	switch entityType {
	case model.SubjectLocation:
		location, err := s.catalog.GetLocation(ctx, entityID)
		if err != nil {
			return nil, err
		}
		residents := make([]map[string]any, 0, len(location.Residents))
		for _, r := range location.Residents {
			residents = append(residents, map[string]any{
				"name":    r.Name,
				"status":  r.Status,
				"species": r.Species,
			})
		}
		return map[string]any{
			"name":      location.Name,
			"type":      location.Type,
			"dimension": location.Dimension,
			"residents": residents,
		}, nil

	case model.SubjectCharacter:
		character, err := s.catalog.GetCharacter(ctx, entityID)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"name":              character.Name,
			"status":            character.Status,
			"species":           character.Species,
			"origin":            character.Origin.Name,
			"lastKnownLocation": character.Location.Name,
		}, nil

	case model.SubjectEpisode:
		episode, characters, err := s.catalog.GetEpisodeWithCharacters(ctx, entityID)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(characters))
		for _, c := range characters {
			names = append(names, c.Name)
		}
		return map[string]any{
			"title":       episode.Name,
			"episodeCode": episode.Code,
			"airDate":     episode.AirDate,
			"characters":  names,
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown entity type %q", model.ErrValidation, entityType)
}

// GenerateLocationSummary generates (or returns the cached) per-location
// summary. Scores are persisted as the -1 sentinel until the scoring job runs.
func (s *Service) GenerateLocationSummary(ctx context.Context, locationID int) (*model.GeneratedContent, error) {
	existing, err := s.store.Content().LatestBySubject(ctx, locationID, PromptLocationSummary)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	location, err := s.catalog.GetLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}

	residents := make([]map[string]any, 0, len(location.Residents))
	for _, r := range location.Residents {
		residents = append(residents, map[string]any{
			"id":      r.ID,
			"name":    r.Name,
			"status":  r.Status,
			"species": r.Species,
		})
	}
	factualContext := map[string]any{
		"location": map[string]any{
			"id":        location.ID,
			"name":      location.Name,
			"type":      location.Type,
			"dimension": location.Dimension,
		},
		"residents": residents,
	}

	prompt := fmt.Sprintf(
		"Write a creative, engaging summary of the location '%s' (%s in %s). "+
			"Include interesting details about its %d residents: %s%s. "+
			"Keep it fun, informative, and true to the Rick and Morty style.",
		location.Name, location.Type, location.Dimension,
		len(location.Residents), characterNames(location.Residents, 5), andMore(len(location.Residents), 5))

	return s.generateScoredContent(ctx, locationID, PromptLocationSummary, prompt, locationSystemPrompt, factualContext)
}

// GenerateEpisodeSummary generates (or returns the cached) per-episode summary.
func (s *Service) GenerateEpisodeSummary(ctx context.Context, episodeID int) (*model.GeneratedContent, error) {
	existing, err := s.store.Content().LatestBySubject(ctx, episodeID, PromptEpisodeSummary)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	episode, characters, err := s.catalog.GetEpisodeWithCharacters(ctx, episodeID)
	if err != nil {
		return nil, err
	}

	contextCharacters := characters
	if len(contextCharacters) > 10 {
		contextCharacters = contextCharacters[:10]
	}
	charMaps := make([]map[string]any, 0, len(contextCharacters))
	for _, c := range contextCharacters {
		charMaps = append(charMaps, map[string]any{
			"id":      c.ID,
			"name":    c.Name,
			"species": c.Species,
		})
	}
	factualContext := map[string]any{
		"episode": map[string]any{
			"id":       episode.ID,
			"name":     episode.Name,
			"air_date": episode.AirDate,
			"episode":  episode.Code,
		},
		"characters": charMaps,
	}

	prompt := fmt.Sprintf(
		"Write a creative, engaging summary of the episode '%s' (Episode %s, aired %s). "+
			"Include details about the %d characters involved: %s%s. "+
			"Keep it fun, informative, and true to the Rick and Morty style.",
		episode.Name, episode.Code, episode.AirDate,
		len(characters), characterNames(characters, 5), andMore(len(characters), 5))

	return s.generateScoredContent(ctx, episodeID, PromptEpisodeSummary, prompt, episodeSystemPrompt, factualContext)
}

// GenerateCharacterSummary generates (or returns the cached) per-character
// summary.
func (s *Service) GenerateCharacterSummary(ctx context.Context, characterID int) (*model.GeneratedContent, error) {
	existing, err := s.store.Content().LatestBySubject(ctx, characterID, PromptCharacterSummary)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	character, err := s.catalog.GetCharacter(ctx, characterID)
	if err != nil {
		return nil, err
	}

	episodes := character.Episodes
	if len(episodes) > 10 {
		episodes = episodes[:10]
	}
	episodesInfo := make([]map[string]any, 0, len(episodes))
	for _, ep := range episodes {
		episodesInfo = append(episodesInfo, map[string]any{
			"id":      ep.ID,
			"name":    ep.Name,
			"episode": ep.Code,
		})
	}

	factualContext := map[string]any{
		"character": map[string]any{
			"id":       character.ID,
			"name":     character.Name,
			"status":   character.Status,
			"species":  character.Species,
			"type":     character.Type,
			"gender":   character.Gender,
			"origin":   character.Origin.Name,
			"location": character.Location.Name,
		},
		"episodes": episodesInfo,
	}

	var originText, locationText string
	if character.Origin.Name != "" {
		originText = "From " + character.Origin.Name
	}
	if character.Location.Name != "" {
		locationText = "Currently located at " + character.Location.Name
	}
	episodesText := "Has appeared in multiple episodes"
	if len(episodesInfo) > 0 {
		episodesText = fmt.Sprintf("Appears in %d episodes", len(episodesInfo))
	}

	prompt := fmt.Sprintf(
		"Write a creative, engaging summary of the character '%s' (%s, %s). "+
			"%s %s. %s. "+
			"Keep it fun, informative, and true to the Rick and Morty style. "+
			"Include interesting personality traits and memorable moments if relevant.",
		character.Name, character.Species, character.Status,
		originText, locationText, episodesText)

	return s.generateScoredContent(ctx, characterID, PromptCharacterSummary, prompt, characterSystemPrompt, factualContext)
}

// generateScoredContent runs the shared deferred-scoring flow: generate,
// persist with sentinel scores, enqueue the scoring job.
func (s *Service) generateScoredContent(ctx context.Context, subjectID int, promptType, prompt, systemPrompt string, factualContext map[string]any) (*model.GeneratedContent, error) {
	outputText, err := s.provider.Generate(ctx, prompt, systemPrompt)
	if err != nil {
		return nil, err
	}

	saved, err := s.store.Content().Save(ctx, &model.GeneratedContent{
		SubjectID:         subjectID,
		PromptType:        promptType,
		OutputText:        outputText,
		FactualScore:      model.ScoreSentinel,
		CompletenessScore: model.ScoreSentinel,
		CreativityScore:   model.ScoreSentinel,
		RelevanceScore:    model.ScoreSentinel,
		Context:           factualContext,
	})
	if err != nil {
		return nil, err
	}

	s.queue.Enqueue(jobs.Job{
		Type:       jobs.TypeScoreContent,
		ContentID:  saved.ID,
		SubjectID:  subjectID,
		PromptType: promptType,
		Text:       outputText,
		Context:    factualContext,
	})
	return saved, nil
}

// GenerateDialogue writes a dialogue between two characters. Scoring happens
// synchronously since dialogue has no canonical entity to finalize against.
func (s *Service) GenerateDialogue(ctx context.Context, characterID1, characterID2 int, topic string) (*model.GeneratedContent, error) {
	char1, err := s.catalog.GetCharacter(ctx, characterID1)
	if err != nil {
		return nil, err
	}
	char2, err := s.catalog.GetCharacter(ctx, characterID2)
	if err != nil {
		return nil, err
	}

	contextTopic := topic
	if contextTopic == "" {
		contextTopic = "general conversation"
	}
	factualContext := map[string]any{
		"character1": map[string]any{
			"id": char1.ID, "name": char1.Name, "species": char1.Species, "status": char1.Status,
		},
		"character2": map[string]any{
			"id": char2.ID, "name": char2.Name, "species": char2.Species, "status": char2.Status,
		},
		"topic": contextTopic,
	}

	topicText := ""
	if topic != "" {
		topicText = fmt.Sprintf("The topic should be about: %s", topic)
	}
	prompt := fmt.Sprintf(
		"Write a short, engaging dialogue between %s (%s) and %s (%s). "+
			"%sKeep it true to the show's humor and character personalities. "+
			"Maximum 10-12 exchanges between them.",
		char1.Name, char1.Species, char2.Name, char2.Species, topicText)

	outputText, err := s.provider.Generate(ctx, prompt, dialogueSystemPrompt)
	if err != nil {
		return nil, err
	}

	result := s.evaluator.Evaluate(outputText, factualContext)
	return s.store.Content().Save(ctx, &model.GeneratedContent{
		SubjectID:         characterID1,
		PromptType:        PromptDialogue,
		OutputText:        outputText,
		FactualScore:      result.Factual,
		CompletenessScore: result.Completeness,
		CreativityScore:   result.Creativity,
		RelevanceScore:    result.Relevance,
		Context:           factualContext,
	})
}

// ImproveNote rewrites note text with entity context. The result is not
// persisted and not scored; output is capped at 300 words.
func (s *Service) ImproveNote(ctx context.Context, noteText, entityType string, entityID int) (string, error) {
	var contextInfo, entityContext string
	switch entityType {
	case model.SubjectLocation:
		location, err := s.catalog.GetLocation(ctx, entityID)
		if err != nil {
			return "", err
		}
		contextInfo = fmt.Sprintf("Location: %s (%s in %s)", location.Name, location.Type, location.Dimension)
		entityContext = fmt.Sprintf("%d residents", len(location.Residents))
	case model.SubjectEpisode:
		episode, characters, err := s.catalog.GetEpisodeWithCharacters(ctx, entityID)
		if err != nil {
			return "", err
		}
		contextInfo = fmt.Sprintf("Episode: %s (Episode %s, aired %s)", episode.Name, episode.Code, episode.AirDate)
		entityContext = fmt.Sprintf("%d characters", len(characters))
	case model.SubjectCharacter:
		character, err := s.catalog.GetCharacter(ctx, entityID)
		if err != nil {
			return "", err
		}
		contextInfo = fmt.Sprintf("Character: %s (%s, %s)", character.Name, character.Species, character.Status)
		entityContext = character.Name
	default:
		return "", fmt.Errorf("%w: unknown entity type %q", model.ErrValidation, entityType)
	}

	prompt := fmt.Sprintf(
		"Improve and enhance this note about %s:\n\n"+
			"Original note:\n%s\n\n"+
			"Context: %s\n\n"+
			"Generate an improved version that is clear, engaging, and relevant. "+
			"Keep it concise (under 300 words). Maintain the Rick & Morty universe tone. "+
			"Output only the improved text, no explanations or metadata.",
		contextInfo, noteText, entityContext)

	improved, err := s.provider.Generate(ctx, prompt, improveNoteSystemPrompt)
	if err != nil {
		return "", err
	}

	words := strings.Fields(improved)
	if len(words) > improveNoteWordLimit {
		improved = strings.Join(words[:improveNoteWordLimit], " ") + "..."
	}
	return strings.TrimSpace(improved), nil
}

// ProcessJob dispatches queued work. Implements jobs.Processor.
func (s *Service) ProcessJob(ctx context.Context, j jobs.Job) error {
	switch j.Type {
	case jobs.TypeFinalizeGeneration:
		return s.finalizeGeneration(ctx, j)
	case jobs.TypeScoreContent:
		return s.scoreContent(ctx, j)
	default:
		return fmt.Errorf("unknown job type: %s", j.Type)
	}
}

// finalizeGeneration computes all four scores for a unified generation, with
// creativity judged by the LLM, then flips the record to GENERATED and
// refreshes the search index.
func (s *Service) finalizeGeneration(ctx context.Context, j jobs.Job) error {
	result := s.evaluator.Evaluate(j.Text, j.Context)
	result.Creativity = s.evaluator.ScoreCreativityLLM(ctx, s.provider, j.Text)

	if err := s.store.Generations().UpdateScores(ctx, j.EntityType, j.EntityID, result); err != nil {
		return errors.Wrap(err, "update generation scores")
	}
	s.log.Info().
		Str("entityType", j.EntityType).
		Str("entityId", j.EntityID).
		Float64("factual", result.Factual).
		Float64("creativity", result.Creativity).
		Float64("completeness", result.Completeness).
		Float64("relevance", result.Relevance).
		Msg("finalized generation")

	s.RebuildSearchIndex(ctx, j.EntityType, j.EntityID)
	return nil
}

// scoreContent replaces the sentinel scores on a generated_content row and
// refreshes the search index for summary prompt types.
func (s *Service) scoreContent(ctx context.Context, j jobs.Job) error {
	result := s.evaluator.Evaluate(j.Text, j.Context)
	if err := s.store.Content().UpdateScores(ctx, j.ContentID, result); err != nil {
		return errors.Wrap(err, "update content scores")
	}
	s.log.Info().
		Int64("contentId", j.ContentID).
		Float64("factual", result.Factual).
		Float64("completeness", result.Completeness).
		Float64("creativity", result.Creativity).
		Float64("relevance", result.Relevance).
		Msg("updated content scores")

	if entityType, ok := entityTypeForPrompt(j.PromptType); ok {
		s.RebuildSearchIndex(ctx, entityType, strconv.Itoa(j.SubjectID))
	}
	return nil
}

func entityTypeForPrompt(promptType string) (string, bool) {
	switch promptType {
	case PromptLocationSummary:
		return model.SubjectLocation, true
	case PromptCharacterSummary:
		return model.SubjectCharacter, true
	case PromptEpisodeSummary:
		return model.SubjectEpisode, true
	}
	return "", false
}

// RebuildSearchIndex rebuilds the index entry for one entity from canonical
// facts, recent notes and the latest scored summary. Failures are logged and
// swallowed so index maintenance never breaks the main flow.
func (s *Service) RebuildSearchIndex(ctx context.Context, entityType, entityID string) {
	if err := s.rebuildSearchIndex(ctx, entityType, entityID); err != nil {
		s.log.Error().Err(err).
			Str("entityType", entityType).
			Str("entityId", entityID).
			Msg("search index rebuild failed")
		return
	}
	s.log.Info().Str("entityType", entityType).Str("entityId", entityID).Msg("rebuilt search index")
}

func (s *Service) rebuildSearchIndex(ctx context.Context, entityType, entityID string) error {
	id, err := strconv.Atoi(entityID)
	if err != nil {
		return fmt.Errorf("%w: entity id must be numeric, got %q", model.ErrValidation, entityID)
	}

	parts, err := s.canonicalFactLines(ctx, entityType, id)
	if err != nil {
		return err
	}

	notes, err := s.store.Notes().List(ctx, entityType, id)
	if err != nil {
		s.log.Warn().Err(err).Msg("fetching notes for search index failed")
	} else if len(notes) > 0 {
		if len(notes) > 5 {
			notes = notes[:5]
		}
		parts = append(parts, "\nUser notes:")
		for _, note := range notes {
			parts = append(parts, "- "+note.Text)
		}
	}

	if promptType, ok := promptForEntityType(entityType); ok {
		summary, err := s.store.Content().LatestBySubject(ctx, id, promptType)
		switch {
		case err == nil && summary.OutputText != "" && summary.FactualScore >= 0:
			text := summary.OutputText
			if len(text) > 500 {
				text = text[:500]
			}
			parts = append(parts, "\nAI Summary: "+text)
		case err != nil && !errors.Is(err, model.ErrNotFound):
			s.log.Warn().Err(err).Msg("fetching summary for search index failed")
		}
	}

	textBlob := strings.Join(parts, "\n")
	embedding, err := s.provider.Embed(ctx, textBlob)
	if err != nil {
		return err
	}
	return s.store.SearchIndex().Upsert(ctx, &model.SearchIndexEntry{
		EntityType: entityType,
		EntityID:   entityID,
		TextBlob:   textBlob,
		Embedding:  embedding,
	})
}

func promptForEntityType(entityType string) (string, bool) {
	switch entityType {
	case model.SubjectCharacter:
		return PromptCharacterSummary, true
	case model.SubjectLocation:
		return PromptLocationSummary, true
	case model.SubjectEpisode:
		return PromptEpisodeSummary, true
	}
	return "", false
}

func (s *Service) canonicalFactLines(ctx context.Context, entityType string, id int) ([]string, error) {
	switch entityType {
	case model.SubjectCharacter:
		character, err := s.catalog.GetCharacter(ctx, id)
		if err != nil {
			return nil, err
		}
		charType := character.Type
		if charType == "" {
			charType = "Unknown"
		}
		parts := []string{
			"Name: " + character.Name,
			"Species: " + character.Species,
			"Status: " + character.Status,
			"Type: " + charType,
			"Gender: " + character.Gender,
		}
		if character.Origin.Name != "" {
			parts = append(parts, "Origin: "+character.Origin.Name)
		}
		if character.Location.Name != "" {
			parts = append(parts, "Location: "+character.Location.Name)
		}
		parts = append(parts, fmt.Sprintf("Episodes: %d", len(character.EpisodeRefs)))
		return parts, nil

	case model.SubjectLocation:
		location, err := s.catalog.GetLocation(ctx, id)
		if err != nil {
			return nil, err
		}
		parts := []string{
			"Name: " + location.Name,
			"Type: " + location.Type,
			"Dimension: " + location.Dimension,
			fmt.Sprintf("Residents: %d", len(location.Residents)),
		}
		if len(location.Residents) > 0 {
			parts = append(parts, "Residents include: "+characterNames(location.Residents, 10))
		}
		return parts, nil

	case model.SubjectEpisode:
		episode, characters, err := s.catalog.GetEpisodeWithCharacters(ctx, id)
		if err != nil {
			return nil, err
		}
		parts := []string{
			"Title: " + episode.Name,
			"Episode: " + episode.Code,
			"Air Date: " + episode.AirDate,
		}
		if len(characters) > 0 {
			parts = append(parts, "Characters: "+characterNames(characters, 10))
		} else if episode.CharacterCount > 0 {
			parts = append(parts, fmt.Sprintf("Characters: %d characters", episode.CharacterCount))
		}
		return parts, nil
	}
	return nil, fmt.Errorf("%w: unknown entity type %q", model.ErrValidation, entityType)
}

// characterNames joins up to limit character names with commas.
func characterNames(chars []model.Character, limit int) string {
	if len(chars) > limit {
		chars = chars[:limit]
	}
	names := make([]string, 0, len(chars))
	for _, c := range chars {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}

func andMore(total, shown int) string {
	if total > shown {
		return " and more"
	}
	return ""
}
