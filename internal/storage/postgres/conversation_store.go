package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/recallhq/recall/internal/storage"
	"github.com/recallhq/recall/pkg/types"
)

// PutConversation writes a conversation row and its message rows in one
// transaction; a conversation row can never exist without its messages.
func (s *Store) PutConversation(ctx context.Context, userID string, messages []types.Message) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: user id is required", storage.ErrInvalidInput)
	}

	kept := make([]types.Message, 0, len(messages))
	for _, m := range messages {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		kept = append(kept, m)
	}
	if len(kept) == 0 {
		return "", fmt.Errorf("%w: conversation requires at least one non-empty message", storage.ErrInvalidInput)
	}

	convID := types.NewConversationID()
	now := time.Now().UTC()
	title := types.DeriveTitle(kept[0].Content)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO conversations (id, user_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, convID, userID, title, now, now)
	if err != nil {
		return "", fmt.Errorf("postgres: failed to insert conversation: %w", err)
	}

	for i, m := range kept {
		if !types.ValidRole(m.Role) {
			return "", fmt.Errorf("%w: unknown message role %q", storage.ErrInvalidInput, m.Role)
		}
		ts := m.Timestamp
		if ts.IsZero() {
			ts = now.Add(time.Duration(i) * time.Microsecond)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO messages (id, conversation_id, role, content, timestamp)
			VALUES ($1, $2, $3, $4, $5)
		`, types.NewMessageID(), convID, m.Role, m.Content, ts.UTC())
		if err != nil {
			return "", fmt.Errorf("postgres: failed to insert message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("postgres: failed to commit conversation: %w", err)
	}

	return convID, nil
}

// History returns up to limit conversations for the user, most recently
// updated first, each populated with its messages oldest first.
func (s *Store) History(ctx context.Context, userID string, limit int) ([]types.Conversation, error) {
	if limit < 1 {
		limit = 5
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, created_at, updated_at
		FROM conversations
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query conversations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var conversations []types.Conversation
	for rows.Next() {
		var conv types.Conversation
		if err := rows.Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan conversation row: %w", err)
		}
		conversations = append(conversations, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows error: %w", err)
	}

	for i := range conversations {
		msgs, err := s.conversationMessages(ctx, conversations[i].ID)
		if err != nil {
			return nil, err
		}
		conversations[i].Messages = msgs
	}

	return conversations, nil
}

func (s *Store) conversationMessages(ctx context.Context, conversationID string) ([]types.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, role, content, timestamp
		FROM messages
		WHERE conversation_id = $1
		ORDER BY timestamp ASC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var messages []types.Message
	for rows.Next() {
		var m types.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("postgres: scan message row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows error: %w", err)
	}

	return messages, nil
}
