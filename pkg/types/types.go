// Package types defines the core data model shared by the storage layer,
// the chat engine, and the HTTP handlers.
package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Memory categories. Categories are advisory: the storage layer accepts any
// string, but the extractor and the manual-put path only produce these four.
const (
	CategoryGeneral     = "general"
	CategoryPersonal    = "personal"
	CategoryPreferences = "preferences"
	CategoryFacts       = "facts"
)

// Message roles within a conversation.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Metadata convention: the "type" key records how a memory was created.
const (
	MetadataKeyType     = "type"
	MemoryTypeManual    = "manual"
	MemoryTypeExtracted = "extracted"
)

// DefaultImportance is used when a caller stores a memory without an
// explicit importance score.
const DefaultImportance = 0.5

// maxTitleLen bounds the derived conversation title length.
const maxTitleLen = 50

// Memory is a short unit of remembered fact or preference, owned by a user.
// Memories are append-only: the core never mutates them after creation except
// for the last_accessed touch applied when a search returns them.
type Memory struct {
	ID           string                 `json:"id"`
	UserID       string                 `json:"user_id"`
	Content      string                 `json:"content"`
	Category     string                 `json:"category"`           // general, personal, preferences, facts
	Importance   float64                `json:"importance"`         // 0.0–1.0, higher sorts first
	Keywords     string                 `json:"keywords,omitempty"` // auxiliary free-text match tags
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	LastAccessed time.Time              `json:"last_accessed"`
}

// Conversation is one chat session. A conversation is created once per stored
// turn pair and never mutated afterwards except for updated_at.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is one turn within a conversation. Messages are written only as
// part of an atomic conversation batch and cannot outlive their conversation.
type Message struct {
	ID             string    `json:"id,omitempty"`
	ConversationID string    `json:"conversation_id,omitempty"`
	Role           string    `json:"role"` // user or assistant
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
}

// ChatResult is the outcome of one handled user turn.
type ChatResult struct {
	Response       string    `json:"response"`
	ConversationID string    `json:"conversation_id"`
	MemoryUsed     []string  `json:"memory_used"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewMemoryID returns a fresh globally-unique memory identifier.
func NewMemoryID() string { return "mem_" + uuid.NewString() }

// NewConversationID returns a fresh globally-unique conversation identifier.
func NewConversationID() string { return "conv_" + uuid.NewString() }

// NewMessageID returns a fresh globally-unique message identifier.
func NewMessageID() string { return "msg_" + uuid.NewString() }

// DeriveTitle builds a conversation title from the leading text of the first
// message, truncated to 50 characters with an ellipsis marker when truncated.
func DeriveTitle(firstMessage string) string {
	title := strings.TrimSpace(firstMessage)
	if title == "" {
		return "New conversation"
	}
	runes := []rune(title)
	if len(runes) <= maxTitleLen {
		return title
	}
	return string(runes[:maxTitleLen]) + "..."
}

// ValidRole reports whether role is one of the two accepted message roles.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAssistant
}
