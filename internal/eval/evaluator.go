// Package eval scores generated text on four axes: factual accuracy,
// completeness, creativity and relevance. Scores are heuristic and cheap;
// creativity can optionally be judged by an LLM.
package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lorekeep/lorekeep/internal/llm"
	"github.com/lorekeep/lorekeep/internal/model"
)

// Contradiction indicators pull the factual score down slightly.
var contradictionIndicators = []string{"but", "however", "although", "despite", "contradict"}

// Narrative indicators and their weights for the creativity heuristic.
var narrativeIndicators = map[string]float64{
	"dialogue":  0.15,
	"adventure": 0.12,
	"journey":   0.10,
	"story":     0.08,
	"tale":      0.08,
	"narrative": 0.08,
}

var engagingPhrases = []string{
	"epic", "amazing", "incredible", "fantastic", "legendary",
	"unforgettable", "mind-blowing", "extraordinary", "remarkable",
	"spectacular", "phenomenal", "outrageous", "wicked", "brutal",
}

// Vocabulary typical of the source universe; its presence reads as flavor.
var universeStyleWords = []string{
	"portal", "multiverse", "dimension", "scientist", "genius",
	"brilliant", "crazy", "insane", "absurd", "ridiculous",
	"paradox", "quantum", "galactic", "cosmic",
}

var focusKeywords = []string{
	"this", "here", "specifically", "particularly", "notably", "especially",
}

var offTopicPhrases = []string{
	"unrelated", "besides", "incidentally", "tangent",
	"digression", "by the way", "speaking of",
}

var termPattern = regexp.MustCompile(`\b\w{4,}\b`)

// Evaluator computes heuristic scores. It is stateless and safe for
// concurrent use.
type Evaluator struct {
	log zerolog.Logger
}

// New builds an Evaluator.
func New(log zerolog.Logger) *Evaluator {
	return &Evaluator{log: log}
}

// Evaluate scores text against the factual context it was generated from.
// Every score lands in [0,1]; an empty context yields neutral scores rather
// than an error.
func (e *Evaluator) Evaluate(text string, factualContext map[string]any) model.EvaluationResult {
	ctx := normalizeContext(factualContext)
	return model.EvaluationResult{
		Factual:      factualScore(text, ctx),
		Completeness: completenessScore(text, ctx),
		Creativity:   CreativityHeuristic(text),
		Relevance:    relevanceScore(text, ctx),
	}
}

// normalizeContext round-trips the context through JSON so nested values
// arrive as map[string]any / []any regardless of how the caller built them.
func normalizeContext(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	raw, err := json.Marshal(in)
	if err != nil {
		return in
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return in
	}
	return out
}

// countWholeWord counts case-insensitive whole-word occurrences of value.
func countWholeWord(textLower, value string) int {
	if value == "" {
		return 0
	}
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(strings.ToLower(value)) + `\b`)
	if err != nil {
		return 0
	}
	return len(re.FindAllStringIndex(textLower, -1))
}

func containsWholeWord(textLower, value string) bool {
	return countWholeWord(textLower, value) > 0
}

func factualScore(text string, ctx map[string]any) float64 {
	textLower := strings.ToLower(text)
	var parts []float64

	// Character or resident names, capped to keep the scan cheap.
	characters, ok := ctx["characters"].([]any)
	if !ok {
		characters, _ = ctx["residents"].([]any)
	}
	if len(characters) > 0 {
		limit := len(characters)
		if limit > 10 {
			limit = 10
		}
		matches := 0
		for _, c := range characters[:limit] {
			m, ok := c.(map[string]any)
			if !ok {
				continue
			}
			if name, _ := m["name"].(string); name != "" && containsWholeWord(textLower, name) {
				matches++
			}
		}
		parts = append(parts, float64(matches)/float64(limit))
	}

	if loc, ok := ctx["location"].(map[string]any); ok {
		parts = appendFieldMatchRatio(parts, textLower, loc, []string{"name", "type", "dimension"})
	}
	if ep, ok := ctx["episode"].(map[string]any); ok {
		parts = appendFieldMatchRatio(parts, textLower, ep, []string{"name", "episode", "air_date"})
	}

	if len(parts) == 0 {
		return 0.5
	}
	base := 0.0
	for _, p := range parts {
		base += p
	}
	base /= float64(len(parts))

	contradictions := 0
	for _, word := range contradictionIndicators {
		if strings.Contains(textLower, word) {
			contradictions++
		}
	}
	penalty := float64(contradictions) * 0.02
	if penalty > 0.1 {
		penalty = 0.1
	}
	return clamp01(base - penalty)
}

// appendFieldMatchRatio appends the fraction of non-empty fields whose value
// appears in the text as a whole word.
func appendFieldMatchRatio(parts []float64, textLower string, entity map[string]any, keys []string) []float64 {
	matches, total := 0, 0
	for _, key := range keys {
		value := stringValue(entity[key])
		if value == "" {
			continue
		}
		total++
		if containsWholeWord(textLower, value) {
			matches++
		}
	}
	if total > 0 {
		parts = append(parts, float64(matches)/float64(total))
	}
	return parts
}

func completenessScore(text string, ctx map[string]any) float64 {
	words := len(strings.Fields(text))

	infoCount := 0
	for _, value := range ctx {
		switch v := value.(type) {
		case []any:
			infoCount += len(v)
		case map[string]any:
			for _, inner := range v {
				if truthy(inner) {
					infoCount++
				}
			}
		default:
			if truthy(value) {
				infoCount++
			}
		}
	}

	var lengthScore float64
	switch {
	case words < 30:
		lengthScore = 0.2
	case words < 60:
		lengthScore = 0.4
	case words < 100:
		lengthScore = 0.6
	case words < 150:
		lengthScore = 0.75
	case words < 250:
		lengthScore = 0.9
	default:
		lengthScore = 0.9 + float64(words-250)/1000
		if lengthScore > 1.0 {
			lengthScore = 1.0
		}
	}

	coverageBonus := 0.0
	if infoCount > 0 {
		raw, err := json.Marshal(ctx)
		if err == nil {
			contextTerms := termSet(strings.ToLower(string(raw)))
			if len(contextTerms) > 0 {
				textTerms := termSet(strings.ToLower(text))
				overlap := 0
				for term := range textTerms {
					if _, ok := contextTerms[term]; ok {
						overlap++
					}
				}
				coverageBonus = float64(overlap) / float64(len(contextTerms)) * 0.2
				if coverageBonus > 0.2 {
					coverageBonus = 0.2
				}
			}
		}
	}

	return clamp01(lengthScore + coverageBonus)
}

// CreativityHeuristic scores narrative texture without calling an LLM. It is
// the fallback when the LLM judge is unavailable.
func CreativityHeuristic(text string) float64 {
	textLower := strings.ToLower(text)
	score := 0.0

	for indicator, weight := range narrativeIndicators {
		if strings.Contains(textLower, indicator) {
			score += weight
		}
	}

	punctuation := 0
	for _, r := range text {
		if strings.ContainsRune(".,!?:;", r) {
			punctuation++
		}
	}
	length := len(text)
	if length == 0 {
		length = 1
	}
	if float64(punctuation)/float64(length) > 0.04 {
		score += 0.1
	}

	engaging := 0
	for _, phrase := range engagingPhrases {
		if strings.Contains(textLower, phrase) {
			engaging++
		}
	}
	score += capped(float64(engaging)*0.03, 0.15)

	style := 0
	for _, word := range universeStyleWords {
		if strings.Contains(textLower, word) {
			style++
		}
	}
	score += capped(float64(style)*0.05, 0.2)

	if strings.ContainsAny(text, "!?") {
		score += 0.1
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

func relevanceScore(text string, ctx map[string]any) float64 {
	textLower := strings.ToLower(text)
	var indicators []float64

	for _, key := range []string{"location", "character", "episode"} {
		entity, ok := ctx[key].(map[string]any)
		if !ok {
			continue
		}
		name, _ := entity["name"].(string)
		if name == "" {
			continue
		}
		if count := countWholeWord(textLower, name); count >= 1 {
			indicators = append(indicators, capped(float64(count)/3.0, 1.0))
		}
	}

	offTopic := 0
	for _, phrase := range offTopicPhrases {
		if strings.Contains(textLower, phrase) {
			offTopic++
		}
	}
	penalty := capped(float64(offTopic)*0.05, 0.2)

	focus := 0
	for _, word := range focusKeywords {
		if strings.Contains(textLower, word) {
			focus++
		}
	}
	bonus := capped(float64(focus)*0.03, 0.15)

	base := 0.5
	if len(indicators) > 0 {
		base = 0.0
		for _, v := range indicators {
			base += v
		}
		base /= float64(len(indicators))
	}

	return clamp01(base + bonus - penalty)
}

var llmScorePattern = regexp.MustCompile(`\b([1-5])\b`)

const creativityJudgePrompt = "You are an expert evaluator of creative writing in the style of Rick & Morty. " +
	"Rate the creativity and narrative style of this summary on a scale of 1-5:\n\n" +
	"Scoring criteria:\n" +
	"- 1-2: Generic, boring, lacks personality\n" +
	"- 3: Somewhat engaging but missing the irreverent Rick & Morty tone\n" +
	"- 4: Good creativity and style, captures some of the show's humor\n" +
	"- 5: Excellent creativity, perfectly captures Rick & Morty's sarcastic, " +
	"irreverent, and darkly comedic tone\n\n" +
	"Summary to evaluate:\n%s\n\n" +
	"Respond with only a single number (1-5)."

// ScoreCreativityLLM asks the provider to judge creativity on a 1-5 rubric and
// normalizes to [0,1]. Any failure, including an unparseable response, falls
// back to the heuristic so scoring never blocks the pipeline.
func (e *Evaluator) ScoreCreativityLLM(ctx context.Context, provider llm.Provider, text string) float64 {
	response, err := provider.Generate(ctx, fmt.Sprintf(creativityJudgePrompt, text), "")
	if err != nil {
		e.log.Error().Err(err).Msg("llm creativity scoring failed, using heuristic")
		return CreativityHeuristic(text)
	}
	match := llmScorePattern.FindStringSubmatch(strings.TrimSpace(response))
	if match == nil {
		e.log.Warn().Str("response", response).Msg("could not parse llm creativity score, using heuristic")
		return CreativityHeuristic(text)
	}
	score := float64(match[1][0] - '0')
	normalized := (score - 1) / 4.0
	e.log.Info().Float64("score", score).Float64("normalized", normalized).Msg("llm creativity score")
	return normalized
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

func termSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, term := range termPattern.FindAllString(s, -1) {
		out[term] = struct{}{}
	}
	return out
}

func capped(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
