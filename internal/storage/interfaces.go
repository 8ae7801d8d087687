// Package storage provides composable storage interfaces for the recall
// backend.
//
// The layer is split into small, focused interfaces (memories, conversations,
// relevance search) that a backend implements independently and composes into
// the full Store. Two backends exist: sqlite (default, zero-dependency
// operation) and postgres (with an optional embedding-based search ranker).
package storage

import (
	"context"
	"time"

	"github.com/recallhq/recall/pkg/types"
)

// MemoryStore provides durable storage of per-user memory records.
//
// There are deliberately no update or delete operations: memories are
// append-only and the only mutation the core performs is the last_accessed
// touch applied through TouchMemories when a search returns them.
type MemoryStore interface {
	// PutMemory persists a new memory for the user and returns its id.
	// Empty or whitespace-only content is a silent no-op: the returned id
	// is empty and no error is reported.
	PutMemory(ctx context.Context, userID, content string, opts PutMemoryOptions) (string, error)

	// RecentMemories returns up to limit memories for the user, ordered by
	// importance descending then last_accessed descending.
	RecentMemories(ctx context.Context, userID string, limit int) ([]types.Memory, error)

	// ListMemories returns all memories for the user, for inspection and
	// statistics. Ordered by created_at descending.
	ListMemories(ctx context.Context, userID string) ([]types.Memory, error)

	// TouchMemories sets last_accessed to at for every given memory id.
	// Unknown ids are ignored.
	TouchMemories(ctx context.Context, ids []string, at time.Time) error
}

// ConversationStore provides durable storage of conversation sessions and
// their ordered message turns.
type ConversationStore interface {
	// PutConversation writes a new conversation and its messages as one
	// atomic unit and returns the conversation id. The title is derived
	// from the first message. Messages with blank content are dropped;
	// an entirely blank batch is rejected with ErrInvalidInput.
	PutConversation(ctx context.Context, userID string, messages []types.Message) (string, error)

	// History returns up to limit conversations for the user, most recently
	// updated first, each populated with its messages oldest first.
	History(ctx context.Context, userID string, limit int) ([]types.Conversation, error)
}

// SearchProvider ranks stored memories by relevance to a query.
//
// The reference implementation is a keyword-overlap heuristic: query words
// longer than two characters are matched case-insensitively as substrings
// against memory content and keywords, any hit qualifies, and qualifying
// memories are ordered by importance then recency of access. A backend may
// substitute a semantic ranker, but every implementation must preserve the
// fallback rule: when the query yields no usable tokens or no matches, the
// RecentMemories ordering is returned instead, so the result is non-empty
// whenever the user has at least one memory.
//
// Returned memories have their last_accessed timestamp touched to now
// (read with side effect).
type SearchProvider interface {
	SearchMemories(ctx context.Context, userID, query string, limit int) ([]types.Memory, error)
}

// Store is the full storage capability consumed by the chat engine.
type Store interface {
	MemoryStore
	ConversationStore
	SearchProvider

	// Close releases any resources held by the store.
	Close() error
}
