package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	pgvector "github.com/pgvector/pgvector-go"

	"github.com/recallhq/recall/internal/storage"
	"github.com/recallhq/recall/pkg/types"
)

const memoryColumns = `id, user_id, content, category, importance, keywords, metadata, created_at, last_accessed`

// PutMemory persists a new memory record. Blank content is a silent no-op.
// When an embedder is configured and pgvector is available, an embedding is
// generated best-effort: an embedding failure never fails the write, it only
// leaves the memory out of semantic ranking.
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
			return "", fmt.Errorf("postgres: failed to marshal metadata: %w", err)
		}
	}

	id := types.NewMemoryID()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memories (id, user_id, content, category, importance, keywords, metadata, created_at, last_accessed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, id, userID, content, opts.Category, opts.Importance, nullString(opts.Keywords), nullBytes(metadataJSON), now, now)
	if err != nil {
		return "", fmt.Errorf("postgres: failed to store memory: %w", err)
	}

	if s.embedder != nil && s.pgvectorAvailable {
		if err := s.storeEmbedding(ctx, id, content); err != nil {
			log.Printf("postgres: best-effort embedding for %s failed: %v", id, err)
		}
	}

	return id, nil
}

// storeEmbedding generates and attaches an embedding to an existing memory.
func (s *Store) storeEmbedding(ctx context.Context, memoryID, content string) error {
	vec, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE memories SET embedding = $1 WHERE id = $2`, pgvector.NewVector(vec), memoryID)
	if err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}
	return nil
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
		WHERE user_id = $1
		ORDER BY importance DESC, last_accessed DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query recent memories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanMemories(rows)
}

// ListMemories returns every memory for the user, newest first.
func (s *Store) ListMemories(ctx context.Context, userID string) ([]types.Memory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+memoryColumns+`
		FROM memories
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list memories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanMemories(rows)
}

// TouchMemories sets last_accessed for the given memory ids.
func (s *Store) TouchMemories(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, at.UTC())
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE memories SET last_accessed = $1 WHERE id IN (`+strings.Join(placeholders, ", ")+`)`, args...)
	if err != nil {
		return fmt.Errorf("postgres: failed to touch memories: %w", err)
	}
	return nil
}

func scanMemories(rows *sql.Rows) ([]types.Memory, error) {
	var memories []types.Memory

	for rows.Next() {
		var mem types.Memory
		var keywords, metadataJSON sql.NullString

		if err := rows.Scan(
			&mem.ID, &mem.UserID, &mem.Content, &mem.Category, &mem.Importance,
			&keywords, &metadataJSON, &mem.CreatedAt, &mem.LastAccessed,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan memory row: %w", err)
		}

		if keywords.Valid {
			mem.Keywords = keywords.String
		}
		if metadataJSON.Valid && metadataJSON.String != "" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &mem.Metadata); err != nil {
				return nil, fmt.Errorf("postgres: unmarshal metadata: %w", err)
			}
		}

		memories = append(memories, mem)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows error: %w", err)
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
