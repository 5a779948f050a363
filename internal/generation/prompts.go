package generation

// Prompt types stored on generated_content rows.
const (
	PromptLocationSummary  = "location_summary"
	PromptEpisodeSummary   = "episode_summary"
	PromptCharacterSummary = "character_summary"
	PromptDialogue         = "character_dialogue"
)

const unifiedSystemPrompt = "You are a sarcastic, in-universe narrator from Rick & Morty. " +
	"Summarize this in 3-5 sentences. Be irreverent and funny, but stay " +
	"consistent with the structured data below. Do not invent characters " +
	"or contradict facts. Output only plain text - no markdown or JSON."

const unifiedPromptTemplate = "Summarize this %s in the tone of a Rick & Morty narrator:\n\n" +
	"Data:\n%s\n\n" +
	"Output only plain text - no markdown or JSON."

const locationSystemPrompt = "You are a narrator for the Rick and Morty universe. " +
	"Write engaging, witty summaries in the tone of the show."

const episodeSystemPrompt = "You are a narrator for the Rick and Morty universe. " +
	"Write engaging, witty episode summaries in the tone of the show."

const characterSystemPrompt = "You are a narrator for the Rick and Morty universe. " +
	"Write engaging, witty character summaries in the tone of the show."

const dialogueSystemPrompt = "You are a writer for Rick and Morty. " +
	"Write authentic dialogue that matches each character's personality."

const improveNoteSystemPrompt = "You are a helpful writing assistant for Rick & Morty notes. " +
	"Improve and enhance the given note text while keeping it concise " +
	"and relevant to the entity. Keep it under 300 words. " +
	"Maintain the original meaning and style if provided, or create " +
	"engaging content in the Rick & Morty tone if the text is minimal."
