package llm

import "context"

// TextGenerator is the interface for model text completion. Reply generation
// uses single-string completion style (not multi-turn chat); conversation
// context is already folded into the prompt by the composer.
type TextGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
	GetModel() string
}

// EmbeddingGenerator is the interface for generating vector embeddings.
type EmbeddingGenerator interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	GetModel() string
}

// GenerationParams control sampling for reply generation. Zero values are
// replaced with the service defaults by Normalize.
type GenerationParams struct {
	Temperature     float32
	TopP            float32
	MaxOutputTokens int32
}

// DefaultGenerationParams are the service-wide sampling defaults.
func DefaultGenerationParams() GenerationParams {
	return GenerationParams{
		Temperature:     0.7,
		TopP:            0.8,
		MaxOutputTokens: 500,
	}
}

// Normalize fills unset fields with defaults.
func (p *GenerationParams) Normalize() {
	def := DefaultGenerationParams()
	if p.Temperature <= 0 {
		p.Temperature = def.Temperature
	}
	if p.TopP <= 0 {
		p.TopP = def.TopP
	}
	if p.MaxOutputTokens <= 0 {
		p.MaxOutputTokens = def.MaxOutputTokens
	}
}
