package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/recallhq/recall/internal/storage"
	"github.com/recallhq/recall/pkg/types"
)

// memoryColumns is the SELECT column order shared by every memory scan site.
const memoryColumns = `id, user_id, content, category, importance, keywords, metadata, created_at, last_accessed`

// PutMemory persists a new memory record. Blank content is a silent no-op:
// the returned id is empty and no error is reported, so callers never have
// to guard their writes.
func (s *Store) PutMemory(ctx context.Context, userID, content string, opts storage.PutMemoryOptions) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: user id is required", storage.ErrInvalidInput)
	}
	if strings.TrimSpace(content) == "" {
		return "", nil
	}

	opts.Normalize()

	var metadataJSON []byte
	if opts.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(opts.Metadata)
		if err != nil {
			return "", fmt.Errorf("sqlite: failed to marshal metadata: %w", err)
		}
	}

	id := types.NewMemoryID()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memories (id, user_id, content, category, importance, keywords, metadata, created_at, last_accessed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, userID, content, opts.Category, opts.Importance, nullString(opts.Keywords), nullBytes(metadataJSON), now, now)
	if err != nil {
		return "", fmt.Errorf("sqlite: failed to store memory: %w", err)
	}

	return id, nil
}

// RecentMemories returns up to limit memories ordered by importance then by
// most recent access.
func (s *Store) RecentMemories(ctx context.Context, userID string, limit int) ([]types.Memory, error) {
	if limit < 1 {
		limit = 5
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+memoryColumns+`
		FROM memories
		WHERE user_id = ?
		ORDER BY importance DESC, last_accessed DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to query recent memories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanMemories(rows)
}

// ListMemories returns every memory for the user, newest first.
func (s *Store) ListMemories(ctx context.Context, userID string) ([]types.Memory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+memoryColumns+`
		FROM memories
		WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list memories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanMemories(rows)
}

// TouchMemories sets last_accessed for the given memory ids. Unknown ids are
// ignored.
func (s *Store) TouchMemories(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, at.UTC())
	for _, id := range ids {
		args = append(args, id)
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE memories SET last_accessed = ? WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("sqlite: failed to touch memories: %w", err)
	}
	return nil
}

// scanMemories reads all rows into a []types.Memory. The SELECT column order
// must match memoryColumns.
func scanMemories(rows *sql.Rows) ([]types.Memory, error) {
	var memories []types.Memory

	for rows.Next() {
		var mem types.Memory
		var keywords, metadataJSON sql.NullString

		if err := rows.Scan(
			&mem.ID, &mem.UserID, &mem.Content, &mem.Category, &mem.Importance,
			&keywords, &metadataJSON, &mem.CreatedAt, &mem.LastAccessed,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scan memory row: %w", err)
		}

		if keywords.Valid {
			mem.Keywords = keywords.String
		}
		if metadataJSON.Valid && metadataJSON.String != "" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &mem.Metadata); err != nil {
				return nil, fmt.Errorf("sqlite: unmarshal metadata: %w", err)
			}
		}

		memories = append(memories, mem)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: rows error: %w", err)
	}

	return memories, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
