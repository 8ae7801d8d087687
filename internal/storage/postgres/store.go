// Package postgres implements the storage interfaces on PostgreSQL via
// lib/pq. When the pgvector extension is present and an embedder is
// configured, relevance search ranks by embedding cosine distance instead of
// keyword overlap; both paths honor the same recency/importance fallback.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/recallhq/recall/internal/storage"
)

// defaultEmbeddingDim matches nomic-embed-text, the default embedding model.
const defaultEmbeddingDim = 768

// Embedder generates a vector embedding for a text. It is satisfied by the
// llm package's embedding clients; the storage layer only needs this one
// method.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Options configures optional store behavior.
type Options struct {
	// Embedder enables semantic ranking in SearchMemories. May be nil, in
	// which case the keyword path is always used.
	Embedder Embedder

	// EmbeddingDim is the dimension of the vector column (default: 768).
	// Must match the configured embedding model.
	EmbeddingDim int
}

// Store implements storage.Store using PostgreSQL.
type Store struct {
	db                *sql.DB
	embedder          Embedder
	pgvectorAvailable bool // true when the pgvector extension is present
}

// Compile-time assertion.
var _ storage.Store = (*Store)(nil)

// New opens a PostgreSQL connection with the given DSN and creates the schema
// if missing. pgvector is enabled opportunistically: when the extension
// cannot be installed the store degrades to keyword-only search rather than
// failing.
func New(dsn string, opts Options) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: failed to connect: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: failed to create schema: %w", err)
	}

	dim := opts.EmbeddingDim
	if dim <= 0 {
		dim = defaultEmbeddingDim
	}

	store := &Store{db: db, embedder: opts.Embedder}

	if _, err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		log.Printf("postgres: pgvector unavailable, semantic search disabled: %v", err)
		return store, nil
	}
	if _, err := db.Exec(fmt.Sprintf(
		"ALTER TABLE memories ADD COLUMN IF NOT EXISTS embedding vector(%d)", dim)); err != nil {
		log.Printf("postgres: failed to add embedding column, semantic search disabled: %v", err)
		return store, nil
	}
	store.pgvectorAvailable = true

	return store, nil
}

// GetDB exposes the underlying database handle for stats queries.
func (s *Store) GetDB() *sql.DB {
	return s.db
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
