package storage

import (
	"errors"
	"strings"

	"github.com/recallhq/recall/pkg/types"
)

var (
	// ErrNotFound indicates that the requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// minTokenLen is the stopword-length filter for search queries: query words
// this short or shorter carry no discriminative value and are dropped.
const minTokenLen = 2

// PutMemoryOptions carries the optional annotations for a memory write.
// The zero value is valid: category defaults to "general" and importance to
// types.DefaultImportance.
type PutMemoryOptions struct {
	// Category is one of the types.Category* constants (default: general).
	Category string

	// Importance is the ranking weight in [0.0, 1.0]. The zero value means
	// "unspecified" and is replaced with types.DefaultImportance; values
	// outside the range are clamped.
	Importance float64

	// Keywords is optional free-text match tags, consulted by keyword search
	// in addition to the content itself.
	Keywords string

	// Metadata is an open annotation map, opaque to the core except for the
	// types.MetadataKeyType convention.
	Metadata map[string]interface{}
}

// Normalize applies defaults and clamps importance into [0.0, 1.0].
func (o *PutMemoryOptions) Normalize() {
	if o.Category == "" {
		o.Category = types.CategoryGeneral
	}
	if o.Importance == 0 {
		o.Importance = types.DefaultImportance
	}
	if o.Importance < 0 {
		o.Importance = 0
	}
	if o.Importance > 1 {
		o.Importance = 1
	}
}

// QueryTokens splits a search query into lowercased words longer than two
// characters. This is a length filter, not a stopword list: it happens to
// drop most English function words ("a", "is", "my") without maintaining
// a dictionary. An empty result means the caller should fall back to the
// recency/importance ordering.
func QueryTokens(query string) []string {
	var tokens []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if len(w) > minTokenLen {
			tokens = append(tokens, w)
		}
	}
	return tokens
}
