package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/recallhq/recall/internal/storage"
	"github.com/recallhq/recall/pkg/types"
)

// Ensure *Store implements storage.SearchProvider at compile time.
var _ storage.SearchProvider = (*Store)(nil)

// SearchMemories performs keyword-overlap search over the user's memories.
//
// Each query token (length > 2) is matched case-insensitively as a substring
// against memory content and keywords; a memory qualifies when any token hits
// either field. Qualifying memories are ordered by importance descending then
// last_accessed descending and capped at limit.
//
// When the query yields no usable tokens, or no memory qualifies, the method
// falls back to RecentMemories so the result is non-empty whenever the user
// has at least one memory. Matched memories get their last_accessed touched
// to the current time.
func (s *Store) SearchMemories(ctx context.Context, userID, query string, limit int) ([]types.Memory, error) {
	if limit < 1 {
		limit = 5
	}

	tokens := storage.QueryTokens(query)
	if len(tokens) == 0 {
		return s.RecentMemories(ctx, userID, limit)
	}

	// One (content OR keywords) clause per token, OR'd together.
	var clauses []string
	args := []interface{}{userID}
	for _, tok := range tokens {
		clauses = append(clauses,
			"(instr(lower(content), ?) > 0 OR instr(lower(coalesce(keywords, '')), ?) > 0)")
		args = append(args, tok, tok)
	}
	args = append(args, limit)

	querySQL := `
		SELECT ` + memoryColumns + `
		FROM memories
		WHERE user_id = ? AND (` + strings.Join(clauses, " OR ") + `)
		ORDER BY importance DESC, last_accessed DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, querySQL, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to search memories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	memories, err := scanMemories(rows)
	if err != nil {
		return nil, err
	}

	if len(memories) == 0 {
		return s.RecentMemories(ctx, userID, limit)
	}

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
