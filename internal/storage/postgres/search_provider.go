package postgres

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	pgvector "github.com/pgvector/pgvector-go"

	"github.com/recallhq/recall/internal/storage"
	"github.com/recallhq/recall/pkg/types"
)

var _ storage.SearchProvider = (*Store)(nil)

// SearchMemories returns the user's memories most relevant to the query.
//
// When an embedder is configured and the pgvector extension is available the
// query is embedded and memories are ranked by cosine distance. Any failure on
// that path, or zero hits, degrades to the keyword path rather than erroring.
// The keyword path matches query tokens (length > 2) case-insensitively as
// substrings against content and keywords, ordered by importance then recency
// of access. Either way, zero hits fall back to RecentMemories and matched
// memories get their last_accessed touched.
func (s *Store) SearchMemories(ctx context.Context, userID, query string, limit int) ([]types.Memory, error) {
	if limit < 1 {
		limit = 5
	}

	if s.embedder != nil && s.pgvectorAvailable {
		memories, err := s.semanticSearch(ctx, userID, query, limit)
		if err != nil {
			log.Printf("postgres: semantic search failed, using keyword search: %v", err)
		} else if len(memories) > 0 {
			return s.touchResults(ctx, memories)
		}
	}

	tokens := storage.QueryTokens(query)
	if len(tokens) == 0 {
		return s.RecentMemories(ctx, userID, limit)
	}

	var clauses []string
	args := []interface{}{userID}
	for _, tok := range tokens {
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			"(position($%d in lower(content)) > 0 OR position($%d in lower(coalesce(keywords, ''))) > 0)",
			n+1, n+2))
		args = append(args, tok, tok)
	}
	args = append(args, limit)

	querySQL := `
		SELECT ` + memoryColumns + `
		FROM memories
		WHERE user_id = $1 AND (` + strings.Join(clauses, " OR ") + `)
		ORDER BY importance DESC, last_accessed DESC
		LIMIT $` + fmt.Sprint(len(args))

	rows, err := s.db.QueryContext(ctx, querySQL, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to search memories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	memories, err := scanMemories(rows)
	if err != nil {
		return nil, err
	}

	if len(memories) == 0 {
		return s.RecentMemories(ctx, userID, limit)
	}

	return s.touchResults(ctx, memories)
}

func (s *Store) semanticSearch(ctx context.Context, userID, query string, limit int) ([]types.Memory, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+memoryColumns+`
		FROM memories
		WHERE user_id = $1 AND embedding IS NOT NULL
		ORDER BY embedding <=> $2
		LIMIT $3
	`, userID, pgvector.NewVector(vec), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query by embedding: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanMemories(rows)
}

func (s *Store) touchResults(ctx context.Context, memories []types.Memory) ([]types.Memory, error) {
	now := time.Now().UTC()
	ids := make([]string, len(memories))
	for i := range memories {
		ids[i] = memories[i].ID
		memories[i].LastAccessed = now
	}
	if err := s.TouchMemories(ctx, ids, now); err != nil {
		return nil, err
	}
	return memories, nil
}
