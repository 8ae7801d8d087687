package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/recallhq/recall/internal/storage"
	"github.com/recallhq/recall/pkg/types"
)

// newTestStore creates an in-memory SQLite store for testing.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPutMemoryRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.PutMemory(ctx, "u1", "User prefers dark roast coffee", storage.PutMemoryOptions{
		Category:   types.CategoryPreferences,
		Importance: 0.7,
		Keywords:   "coffee roast",
		Metadata:   map[string]interface{}{types.MetadataKeyType: types.MemoryTypeManual},
	})
	if err != nil {
		t.Fatalf("PutMemory() failed: %v", err)
	}
	if id == "" {
		t.Fatal("PutMemory() returned empty id for non-empty content")
	}

	memories, err := store.ListMemories(ctx, "u1")
	if err != nil {
		t.Fatalf("ListMemories() failed: %v", err)
	}
	if len(memories) != 1 {
		t.Fatalf("ListMemories() returned %d memories, want 1", len(memories))
	}

	got := memories[0]
	if got.ID != id {
		t.Errorf("ID: got %q, want %q", got.ID, id)
	}
	if got.Content != "User prefers dark roast coffee" {
		t.Errorf("Content: got %q", got.Content)
	}
	if got.Category != types.CategoryPreferences {
		t.Errorf("Category: got %q, want %q", got.Category, types.CategoryPreferences)
	}
	if got.Importance != 0.7 {
		t.Errorf("Importance: got %v, want 0.7", got.Importance)
	}
	if got.Keywords != "coffee roast" {
		t.Errorf("Keywords: got %q", got.Keywords)
	}
	if mt, _ := got.Metadata[types.MetadataKeyType].(string); mt != types.MemoryTypeManual {
		t.Errorf("Metadata[type]: got %v, want %q", got.Metadata[types.MetadataKeyType], types.MemoryTypeManual)
	}
	if got.CreatedAt.IsZero() || got.LastAccessed.IsZero() {
		t.Error("timestamps must be set on creation")
	}
}

func TestPutMemoryBlankContentIsNoOp(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, content := range []string{"", "   ", "\t\n"} {
		id, err := store.PutMemory(ctx, "u1", content, storage.PutMemoryOptions{})
		if err != nil {
			t.Fatalf("PutMemory(%q) returned error: %v", content, err)
		}
		if id != "" {
			t.Errorf("PutMemory(%q) returned id %q, want empty", content, id)
		}
	}

	memories, err := store.ListMemories(ctx, "u1")
	if err != nil {
		t.Fatalf("ListMemories() failed: %v", err)
	}
	if len(memories) != 0 {
		t.Errorf("blank writes must not persist anything, got %d memories", len(memories))
	}
}

func TestPutMemoryDefaults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.PutMemory(ctx, "u1", "plain note", storage.PutMemoryOptions{}); err != nil {
		t.Fatalf("PutMemory() failed: %v", err)
	}

	memories, err := store.ListMemories(ctx, "u1")
	if err != nil {
		t.Fatalf("ListMemories() failed: %v", err)
	}
	if memories[0].Category != types.CategoryGeneral {
		t.Errorf("default category: got %q, want %q", memories[0].Category, types.CategoryGeneral)
	}
	if memories[0].Importance != types.DefaultImportance {
		t.Errorf("default importance: got %v, want %v", memories[0].Importance, types.DefaultImportance)
	}
}

func TestRecentMemoriesOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Three memories with distinct importances, inserted out of order.
	for _, m := range []struct {
		content    string
		importance float64
	}{
		{"medium importance", 0.5},
		{"highest importance", 0.9},
		{"lowest importance", 0.2},
	} {
		if _, err := store.PutMemory(ctx, "u1", m.content, storage.PutMemoryOptions{Importance: m.importance}); err != nil {
			t.Fatalf("PutMemory() failed: %v", err)
		}
	}

	memories, err := store.RecentMemories(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("RecentMemories() failed: %v", err)
	}

	want := []string{"highest importance", "medium importance", "lowest importance"}
	if len(memories) != len(want) {
		t.Fatalf("got %d memories, want %d", len(memories), len(want))
	}
	for i, w := range want {
		if memories[i].Content != w {
			t.Errorf("position %d: got %q, want %q", i, memories[i].Content, w)
		}
	}
}

func TestRecentMemoriesTieBreakOnLastAccessed(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	idOld, err := store.PutMemory(ctx, "u1", "first note", storage.PutMemoryOptions{Importance: 0.5})
	if err != nil {
		t.Fatalf("PutMemory() failed: %v", err)
	}
	if _, err := store.PutMemory(ctx, "u1", "second note", storage.PutMemoryOptions{Importance: 0.5}); err != nil {
		t.Fatalf("PutMemory() failed: %v", err)
	}

	// Touching the older memory makes it win the last_accessed tie break.
	if err := store.TouchMemories(ctx, []string{idOld}, time.Now().UTC().Add(time.Hour)); err != nil {
		t.Fatalf("TouchMemories() failed: %v", err)
	}

	memories, err := store.RecentMemories(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("RecentMemories() failed: %v", err)
	}
	if memories[0].Content != "first note" {
		t.Errorf("touched memory must sort first, got %q", memories[0].Content)
	}
}

func TestMemoriesArePartitionedByUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.PutMemory(ctx, "u1", "belongs to u1", storage.PutMemoryOptions{}); err != nil {
		t.Fatalf("PutMemory() failed: %v", err)
	}
	if _, err := store.PutMemory(ctx, "u2", "belongs to u2", storage.PutMemoryOptions{}); err != nil {
		t.Fatalf("PutMemory() failed: %v", err)
	}

	memories, err := store.ListMemories(ctx, "u1")
	if err != nil {
		t.Fatalf("ListMemories() failed: %v", err)
	}
	if len(memories) != 1 || memories[0].Content != "belongs to u1" {
		t.Errorf("user partition violated: %+v", memories)
	}
}
