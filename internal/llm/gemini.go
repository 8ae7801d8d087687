package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	APIKey  string
	Model   string           // default: gemini-pro
	Timeout time.Duration    // default: 30s
	Params  GenerationParams // zero fields take service defaults
}

// GeminiClient implements TextGenerator using the Google generative language
// API. The default provider for reply generation.
type GeminiClient struct {
	client         *genai.Client
	cfg            GeminiConfig
	circuitBreaker *CircuitBreaker
}

// NewGeminiClient creates a Gemini client with the given configuration.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-pro"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.Params.Normalize()

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create client: %w", err)
	}

	return &GeminiClient{
		client:         client,
		cfg:            cfg,
		circuitBreaker: NewCircuitBreaker(),
	}, nil
}

// Complete sends the prompt to Gemini and returns the generated text. Calls
// are wrapped with circuit breaker protection.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return c.complete(ctx, prompt)
	})
	if err != nil {
		if errors.Is(err, ErrCircuitOpen) {
			return "", fmt.Errorf("gemini circuit breaker open: %w", err)
		}
		return "", err
	}
	return result.(string), nil
}

func (c *GeminiClient) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	model := c.client.GenerativeModel(c.cfg.Model)
	model.SetTemperature(c.cfg.Params.Temperature)
	model.SetTopP(c.cfg.Params.TopP)
	model.SetMaxOutputTokens(c.cfg.Params.MaxOutputTokens)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini: generate failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini: empty response")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", errors.New("gemini: response contained no text parts")
	}
	return out, nil
}

// Close releases the underlying API client.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// GetModel returns the configured model name.
func (c *GeminiClient) GetModel() string {
	return c.cfg.Model
}

// Compile-time assertion.
var _ TextGenerator = (*GeminiClient)(nil)
