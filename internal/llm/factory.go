package llm

import (
	"context"
	"fmt"
	"time"
)

// Config selects and configures a model provider. Provider "none" (or an
// empty API key for hosted providers) disables generation; the responder then
// always answers from its deterministic fallback rules.
type Config struct {
	Provider       string // gemini, openai, ollama, none
	APIKey         string
	Model          string
	BaseURL        string
	EmbeddingModel string
	Timeout        time.Duration
	Params         GenerationParams
}

// NewTextGenerator creates the TextGenerator for the configured provider.
// Returns (nil, nil) when generation is disabled.
func NewTextGenerator(ctx context.Context, cfg Config) (TextGenerator, error) {
	switch cfg.Provider {
	case "gemini", "":
		if cfg.APIKey == "" {
			return nil, nil
		}
		return NewGeminiClient(ctx, GeminiConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
			Params:  cfg.Params,
		})
	case "openai":
		if cfg.APIKey == "" {
			return nil, nil
		}
		return NewOpenAIClient(OpenAIConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
			Params:  cfg.Params,
		}), nil
	case "ollama":
		return NewOllamaClient(OllamaConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
			Params:  cfg.Params,
		}), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported model provider: %q", cfg.Provider)
	}
}

// NewEmbeddingGenerator creates the EmbeddingGenerator for the configured
// provider. Returns (nil, nil) for providers without an embedding API; the
// PostgreSQL store then keeps to keyword search.
func NewEmbeddingGenerator(cfg Config) (EmbeddingGenerator, error) {
	switch cfg.Provider {
	case "ollama":
		model := cfg.EmbeddingModel
		if model == "" {
			model = "nomic-embed-text"
		}
		return NewOllamaClient(OllamaConfig{
			BaseURL: cfg.BaseURL,
			Model:   model,
			Timeout: cfg.Timeout,
		}), nil
	default:
		return nil, nil
	}
}
