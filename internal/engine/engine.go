// Package engine orchestrates a chat turn: retrieve memories, compose the
// prompt, generate the reply, persist the exchange and extract new memories.
// The engine always answers; storage and model failures degrade the turn
// rather than failing it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/recallhq/recall/internal/extractor"
	"github.com/recallhq/recall/internal/storage"
	"github.com/recallhq/recall/pkg/types"
)

// Sentinel conversation ids reported when the exchange could not be stored.
// The reply is still returned to the user.
const (
	ConversationIDError = "error"
	ConversationIDEmpty = "empty"
)

// Notifier receives engine events. Implemented by the websocket hub; may be
// nil.
type Notifier interface {
	NotifyChatTurn(userID, conversationID string)
	NotifyMemoryCreated(userID, content string)
}

// Config holds the engine's retrieval and composition limits.
type Config struct {
	SearchLimit             int // memories retrieved per turn (default: 5)
	RecentConversations     int // conversations folded into the prompt (default: 2)
	MessagesPerConversation int // trailing messages per conversation (default: 5)
	MaxMessageChars         int // per-message truncation (default: 200)
}

func (c *Config) normalize() {
	if c.SearchLimit < 1 {
		c.SearchLimit = 5
	}
	if c.RecentConversations < 1 {
		c.RecentConversations = 2
	}
	if c.MessagesPerConversation < 1 {
		c.MessagesPerConversation = 5
	}
	if c.MaxMessageChars < 1 {
		c.MaxMessageChars = 200
	}
}

// ChatEngine ties the store and the responder together.
type ChatEngine struct {
	store     storage.Store
	responder *Responder
	notifier  Notifier
	cfg       Config
}

// New creates a chat engine. notifier may be nil.
func New(store storage.Store, responder *Responder, notifier Notifier, cfg Config) *ChatEngine {
	cfg.normalize()
	return &ChatEngine{
		store:     store,
		responder: responder,
		notifier:  notifier,
		cfg:       cfg,
	}
}

// HandleMessage runs one chat turn for the user. It never returns an error:
// read failures shrink the context, write failures map to sentinel
// conversation ids, model failures fall back to canned replies.
func (e *ChatEngine) HandleMessage(ctx context.Context, userID, message string) types.ChatResult {
	if strings.TrimSpace(message) == "" {
		// Nothing to persist or extract; answer anyway.
		return types.ChatResult{
			Response:       e.responder.Respond(ctx, "", message, nil),
			ConversationID: ConversationIDEmpty,
			MemoryUsed:     []string{},
			Timestamp:      time.Now().UTC(),
		}
	}

	memories, err := e.store.SearchMemories(ctx, userID, message, e.cfg.SearchLimit)
	if err != nil {
		log.Printf("engine: memory search failed for %s: %v", userID, err)
		memories = nil
	}

	history, err := e.store.History(ctx, userID, e.cfg.RecentConversations)
	if err != nil {
		log.Printf("engine: history lookup failed for %s: %v", userID, err)
		history = nil
	}

	prompt := ComposePrompt(message, memories, history, ComposerConfig{
		RecentConversations:     e.cfg.RecentConversations,
		MessagesPerConversation: e.cfg.MessagesPerConversation,
		MaxMessageChars:         e.cfg.MaxMessageChars,
	})

	response := e.responder.Respond(ctx, prompt, message, memories)
	now := time.Now().UTC()

	conversationID := e.persistExchange(ctx, userID, message, response, now)
	e.extractMemories(ctx, userID, message, len(memories) == 0)

	if e.notifier != nil {
		e.notifier.NotifyChatTurn(userID, conversationID)
	}

	used := make([]string, len(memories))
	for i, mem := range memories {
		used[i] = mem.Content
	}

	return types.ChatResult{
		Response:       response,
		ConversationID: conversationID,
		MemoryUsed:     used,
		Timestamp:      now,
	}
}

// persistExchange stores the user/assistant pair. Failures are logged and
// mapped to sentinel ids so the turn still completes.
func (e *ChatEngine) persistExchange(ctx context.Context, userID, message, response string, now time.Time) string {
	messages := []types.Message{
		{Role: types.RoleUser, Content: message, Timestamp: now},
		{Role: types.RoleAssistant, Content: response, Timestamp: now.Add(time.Microsecond)},
	}

	conversationID, err := e.store.PutConversation(ctx, userID, messages)
	if err == nil {
		return conversationID
	}
	if errors.Is(err, storage.ErrInvalidInput) {
		log.Printf("engine: nothing to persist for %s: %v", userID, err)
		return ConversationIDEmpty
	}
	log.Printf("engine: failed to persist exchange for %s: %v", userID, err)
	return fmt.Sprintf("%s_%d", ConversationIDError, now.Unix())
}

// extractMemories derives memories from the user's message, best-effort. The
// phrase rules run first; when none fires, the raw message is stored for
// users with no memories yet or when they explicitly ask to remember.
func (e *ChatEngine) extractMemories(ctx context.Context, userID, message string, hasNoMemories bool) {
	if candidate, ok := extractor.Extract(message); ok {
		e.putExtracted(ctx, userID, candidate.Content, storage.PutMemoryOptions{
			Category:   candidate.Category,
			Importance: candidate.Importance,
			Metadata:   map[string]interface{}{types.MetadataKeyType: types.MemoryTypeExtracted},
		})
		return
	}

	if hasNoMemories || strings.Contains(strings.ToLower(message), "remember") {
		e.putExtracted(ctx, userID, message, storage.PutMemoryOptions{
			Category: types.CategoryGeneral,
			Metadata: map[string]interface{}{types.MetadataKeyType: types.MemoryTypeExtracted},
		})
	}
}

func (e *ChatEngine) putExtracted(ctx context.Context, userID, content string, opts storage.PutMemoryOptions) {
	id, err := e.store.PutMemory(ctx, userID, content, opts)
	if err != nil {
		log.Printf("engine: memory extraction write failed for %s: %v", userID, err)
		return
	}
	if id != "" && e.notifier != nil {
		e.notifier.NotifyMemoryCreated(userID, content)
	}
}
