// Package config provides configuration management for Recall.
// Settings load from environment variables with the RECALL_ prefix, with an
// optional YAML config file underneath; environment variables win over the
// file and both win over the built-in defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration settings for the Recall service.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	LLM      LLMConfig      `yaml:"llm"`
	Chat     ChatConfig     `yaml:"chat"`
	Security SecurityConfig `yaml:"security"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"` // Server port (default: 8000)
	Host string `yaml:"host"` // Server host (default: 127.0.0.1)
}

// StorageConfig contains database configuration.
type StorageConfig struct {
	Engine      string `yaml:"engine"`       // Storage engine: sqlite, postgres (default: sqlite)
	DataPath    string `yaml:"data_path"`    // SQLite data directory (default: ./data)
	PostgresDSN string `yaml:"postgres_dsn"` // PostgreSQL connection string
}

// LLMConfig contains model provider configuration.
type LLMConfig struct {
	Provider       string `yaml:"provider"`        // gemini, openai, ollama, none (default: gemini)
	GeminiAPIKey   string `yaml:"gemini_api_key"`  // also read from GEMINI_API_KEY
	GeminiModel    string `yaml:"gemini_model"`    // default: gemini-pro
	OpenAIAPIKey   string `yaml:"openai_api_key"`
	OpenAIModel    string `yaml:"openai_model"` // default: gpt-4o-mini
	OllamaURL      string `yaml:"ollama_url"`      // default: http://localhost:11434
	OllamaModel    string `yaml:"ollama_model"`    // default: llama3.2
	EmbeddingModel string `yaml:"embedding_model"` // default: nomic-embed-text
	TimeoutSeconds int    `yaml:"timeout_seconds"` // outbound call timeout (default: 30)
}

// ChatConfig contains the prompt composition and retrieval limits.
type ChatConfig struct {
	SearchLimit             int `yaml:"search_limit"`              // memories retrieved per turn (default: 5)
	RecentConversations     int `yaml:"recent_conversations"`      // conversations in the prompt (default: 2)
	MessagesPerConversation int `yaml:"messages_per_conversation"` // messages per conversation (default: 5)
	MaxMessageChars         int `yaml:"max_message_chars"`         // per-message truncation (default: 200)
	HistoryLimit            int `yaml:"history_limit"`             // history endpoint default page (default: 5)
}

// SecurityConfig contains authentication and rate limit settings.
type SecurityConfig struct {
	Mode          string  `yaml:"mode"`            // development, production (default: development)
	APIToken      string  `yaml:"api_token"`       // bearer token, required in production mode
	RatePerSecond float64 `yaml:"rate_per_second"` // per-client request rate (default: 10)
	RateBurst     int     `yaml:"rate_burst"`      // per-client burst (default: 20)
}

// Load builds the configuration. Precedence, lowest to highest: built-in
// defaults, the YAML file named by RECALL_CONFIG_FILE (if set), then RECALL_*
// environment variables. GEMINI_API_KEY is honored as a fallback for
// RECALL_GEMINI_API_KEY.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("RECALL_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if cfg.LLM.GeminiAPIKey == "" {
		cfg.LLM.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}

	return cfg, nil
}

// Timeout returns the outbound model call timeout as a duration.
func (c *LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8000,
			Host: "127.0.0.1",
		},
		Storage: StorageConfig{
			Engine:   "sqlite",
			DataPath: "./data",
		},
		LLM: LLMConfig{
			Provider:       "gemini",
			GeminiModel:    "gemini-pro",
			OpenAIModel:    "gpt-4o-mini",
			OllamaURL:      "http://localhost:11434",
			OllamaModel:    "llama3.2",
			EmbeddingModel: "nomic-embed-text",
			TimeoutSeconds: 30,
		},
		Chat: ChatConfig{
			SearchLimit:             5,
			RecentConversations:     2,
			MessagesPerConversation: 5,
			MaxMessageChars:         200,
			HistoryLimit:            5,
		},
		Security: SecurityConfig{
			Mode:          "development",
			RatePerSecond: 10,
			RateBurst:     20,
		},
	}
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnvInt("RECALL_PORT", cfg.Server.Port)
	cfg.Server.Host = getEnv("RECALL_HOST", cfg.Server.Host)

	cfg.Storage.Engine = getEnv("RECALL_STORAGE_ENGINE", cfg.Storage.Engine)
	cfg.Storage.DataPath = getEnv("RECALL_DATA_PATH", cfg.Storage.DataPath)
	cfg.Storage.PostgresDSN = getEnv("RECALL_POSTGRES_DSN", cfg.Storage.PostgresDSN)

	cfg.LLM.Provider = getEnv("RECALL_LLM_PROVIDER", cfg.LLM.Provider)
	cfg.LLM.GeminiAPIKey = getEnv("RECALL_GEMINI_API_KEY", cfg.LLM.GeminiAPIKey)
	cfg.LLM.GeminiModel = getEnv("RECALL_GEMINI_MODEL", cfg.LLM.GeminiModel)
	cfg.LLM.OpenAIAPIKey = getEnv("RECALL_OPENAI_API_KEY", cfg.LLM.OpenAIAPIKey)
	cfg.LLM.OpenAIModel = getEnv("RECALL_OPENAI_MODEL", cfg.LLM.OpenAIModel)
	cfg.LLM.OllamaURL = getEnv("RECALL_OLLAMA_URL", cfg.LLM.OllamaURL)
	cfg.LLM.OllamaModel = getEnv("RECALL_OLLAMA_MODEL", cfg.LLM.OllamaModel)
	cfg.LLM.EmbeddingModel = getEnv("RECALL_EMBEDDING_MODEL", cfg.LLM.EmbeddingModel)
	cfg.LLM.TimeoutSeconds = getEnvInt("RECALL_LLM_TIMEOUT_SECONDS", cfg.LLM.TimeoutSeconds)

	cfg.Chat.SearchLimit = getEnvInt("RECALL_SEARCH_LIMIT", cfg.Chat.SearchLimit)
	cfg.Chat.RecentConversations = getEnvInt("RECALL_RECENT_CONVERSATIONS", cfg.Chat.RecentConversations)
	cfg.Chat.MessagesPerConversation = getEnvInt("RECALL_MESSAGES_PER_CONVERSATION", cfg.Chat.MessagesPerConversation)
	cfg.Chat.MaxMessageChars = getEnvInt("RECALL_MAX_MESSAGE_CHARS", cfg.Chat.MaxMessageChars)
	cfg.Chat.HistoryLimit = getEnvInt("RECALL_HISTORY_LIMIT", cfg.Chat.HistoryLimit)

	cfg.Security.Mode = getEnv("RECALL_SECURITY_MODE", cfg.Security.Mode)
	cfg.Security.APIToken = getEnv("RECALL_API_TOKEN", cfg.Security.APIToken)
	cfg.Security.RatePerSecond = getEnvFloat("RECALL_RATE_PER_SECOND", cfg.Security.RatePerSecond)
	cfg.Security.RateBurst = getEnvInt("RECALL_RATE_BURST", cfg.Security.RateBurst)
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default
// value. Unparseable values fall back to the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default
// value. Unparseable values fall back to the default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
