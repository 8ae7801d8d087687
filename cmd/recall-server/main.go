package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/recallhq/recall/internal/config"
	"github.com/recallhq/recall/internal/engine"
	"github.com/recallhq/recall/internal/llm"
	"github.com/recallhq/recall/internal/server"
	"github.com/recallhq/recall/internal/storage"
	"github.com/recallhq/recall/internal/storage/postgres"
	"github.com/recallhq/recall/internal/storage/sqlite"
	"github.com/recallhq/recall/web/handlers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	llmCfg := llm.Config{
		Provider:       cfg.LLM.Provider,
		Model:          modelFor(cfg),
		BaseURL:        cfg.LLM.OllamaURL,
		APIKey:         apiKeyFor(cfg),
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		Timeout:        cfg.LLM.Timeout(),
	}

	generator, err := llm.NewTextGenerator(ctx, llmCfg)
	if err != nil {
		log.Fatalf("Failed to initialize model provider: %v", err)
	}
	if generator == nil {
		log.Println("No model provider configured; replies use fallback rules only")
	} else {
		log.Printf("Model provider: %s (%s)", cfg.LLM.Provider, generator.GetModel())
	}

	store, err := openStore(cfg, llmCfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	wsHub := handlers.NewWebSocketHub()
	go wsHub.Run()

	eng := engine.New(store, engine.NewResponder(generator, cfg.LLM.Timeout()), wsHub, engine.Config{
		SearchLimit:             cfg.Chat.SearchLimit,
		RecentConversations:     cfg.Chat.RecentConversations,
		MessagesPerConversation: cfg.Chat.MessagesPerConversation,
		MaxMessageChars:         cfg.Chat.MaxMessageChars,
	})

	addr, err := server.Start(ctx, cfg, store, eng, wsHub)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	log.Printf("Recall API listening on http://%s", addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	cancel()
	time.Sleep(1 * time.Second)
}

// openStore creates the configured storage backend.
func openStore(cfg *config.Config, llmCfg llm.Config) (storage.Store, error) {
	switch cfg.Storage.Engine {
	case "postgres":
		embedder, err := llm.NewEmbeddingGenerator(llmCfg)
		if err != nil {
			return nil, err
		}
		opts := postgres.Options{}
		if embedder != nil {
			opts.Embedder = embedder
		}
		return postgres.New(cfg.Storage.PostgresDSN, opts)
	default:
		if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
			return nil, err
		}
		return sqlite.New(filepath.Join(cfg.Storage.DataPath, "recall.db"))
	}
}

func modelFor(cfg *config.Config) string {
	switch cfg.LLM.Provider {
	case "openai":
		return cfg.LLM.OpenAIModel
	case "ollama":
		return cfg.LLM.OllamaModel
	default:
		return cfg.LLM.GeminiModel
	}
}

func apiKeyFor(cfg *config.Config) string {
	switch cfg.LLM.Provider {
	case "openai":
		return cfg.LLM.OpenAIAPIKey
	default:
		return cfg.LLM.GeminiAPIKey
	}
}
