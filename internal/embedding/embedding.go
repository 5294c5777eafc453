package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/rohitN04/Bank-Statement-Analysis-RAG/internal/config"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Client wraps the embedding-model endpoint and turns text into a
// fixed-length vector. No retry logic lives here; callers decide what is
// worth retrying based on the error kind.
type Client struct {
	embedder *embeddings.EmbedderImpl
	model    string
}

// New creates an embedding client for the configured provider.
func New(cfg *config.LLMConfig) (*Client, error) {
	switch cfg.Provider {
	case "ollama":
		return NewOllama(cfg)
	default:
		return NewOpenAI(cfg)
	}
}

// NewOpenAI creates an embedder backed by an OpenAI-compatible endpoint.
func NewOpenAI(cfg *config.LLMConfig) (*Client, error) {
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("embedding: initializing openai llm: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("embedding: creating embedder: %w", err)
	}
	return &Client{embedder: embedder, model: cfg.Model}, nil
}

// NewOllama creates an embedder backed by a local ollama server.
func NewOllama(cfg *config.LLMConfig) (*Client, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("embedding: initializing ollama llm: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("embedding: creating embedder: %w", err)
	}
	return &Client{embedder: embedder, model: cfg.Model}, nil
}

// Embed returns the embedding vector for the given text. The input must be
// non-empty; the vector length is fixed by the model.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &Error{Kind: KindBadResponse, Model: c.model, Err: errEmptyInput}
	}
	vec, err := c.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, &Error{Kind: classify(err), Model: c.model, Err: err}
	}
	if len(vec) == 0 {
		return nil, &Error{Kind: KindBadResponse, Model: c.model, Err: errNoEmbedding}
	}
	return vec, nil
}
