// Package openai implements llm.Provider against an OpenAI-compatible API.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/lorekeep/lorekeep/internal/model"
)

// Provider calls the chat-completions and embeddings endpoints.
type Provider struct {
	client         *resty.Client
	chatModel      string
	embeddingModel string
}

// Config carries the provider settings.
type Config struct {
	BaseURL        string
	APIKey         string
	ChatModel      string
	EmbeddingModel string
	Timeout        time.Duration
}

// New builds a Provider from config.
func New(cfg Config) *Provider {
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(cfg.APIKey).
		SetTimeout(cfg.Timeout)
	return &Provider{
		client:         c,
		chatModel:      cfg.ChatModel,
		embeddingModel: cfg.EmbeddingModel,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate produces text for the prompt.
func (p *Provider) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	var messages []chatMessage
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(&chatRequest{Model: p.chatModel, Messages: messages, Temperature: 0.7}).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat request: %w: %v", model.ErrProvider, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("chat status %d: %w", resp.StatusCode(), model.ErrProvider)
	}

	var out chatResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("chat decode: %w: %v", model.ErrProvider, err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("chat: %w: %s", model.ErrProvider, out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("chat: %w: empty choices", model.ErrProvider)
	}
	return out.Choices[0].Message.Content, nil
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Embed returns the embedding vector for the text.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(&embeddingRequest{Model: p.embeddingModel, Input: text}).
		Post("/embeddings")
	if err != nil {
		return nil, fmt.Errorf("embeddings request: %w: %v", model.ErrProvider, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("embeddings status %d: %w", resp.StatusCode(), model.ErrProvider)
	}

	var out embeddingResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("embeddings decode: %w: %v", model.ErrProvider, err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("embeddings: %w: %s", model.ErrProvider, out.Error.Message)
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("embeddings: %w: empty data", model.ErrProvider)
	}
	return out.Data[0].Embedding, nil
}
