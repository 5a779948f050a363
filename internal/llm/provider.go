// Package llm abstracts text generation and embedding.
package llm

import "context"

// Provider exposes the two capabilities the service needs from a language
// model backend. Failures are wrapped with model.ErrProvider.
type Provider interface {
	// Generate produces text for the prompt; systemPrompt may be empty.
	Generate(ctx context.Context, prompt, systemPrompt string) (string, error)
	// Embed returns a dense vector for the text.
	Embed(ctx context.Context, text string) ([]float32, error)
}
