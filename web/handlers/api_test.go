package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallhq/recall/internal/engine"
	"github.com/recallhq/recall/internal/storage"
	"github.com/recallhq/recall/pkg/types"
)

// fakeStore is an in-memory storage.Store for handler tests.
type fakeStore struct {
	memories      map[string][]types.Memory
	conversations map[string][]types.Conversation
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		memories:      make(map[string][]types.Memory),
		conversations: make(map[string][]types.Conversation),
	}
}

func (s *fakeStore) PutMemory(ctx context.Context, userID, content string, opts storage.PutMemoryOptions) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", nil
	}
	opts.Normalize()
	now := time.Now().UTC()
	mem := types.Memory{
		ID:           types.NewMemoryID(),
		UserID:       userID,
		Content:      content,
		Category:     opts.Category,
		Importance:   opts.Importance,
		Keywords:     opts.Keywords,
		Metadata:     opts.Metadata,
		CreatedAt:    now,
		LastAccessed: now,
	}
	s.memories[userID] = append(s.memories[userID], mem)
	return mem.ID, nil
}

func (s *fakeStore) RecentMemories(ctx context.Context, userID string, limit int) ([]types.Memory, error) {
	all := append([]types.Memory(nil), s.memories[userID]...)
	sort.SliceStable(all, func(i, j int) bool { return all[i].Importance > all[j].Importance })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *fakeStore) ListMemories(ctx context.Context, userID string) ([]types.Memory, error) {
	return append([]types.Memory(nil), s.memories[userID]...), nil
}

func (s *fakeStore) TouchMemories(ctx context.Context, ids []string, at time.Time) error {
	return nil
}

func (s *fakeStore) SearchMemories(ctx context.Context, userID, query string, limit int) ([]types.Memory, error) {
	return s.RecentMemories(ctx, userID, limit)
}

func (s *fakeStore) PutConversation(ctx context.Context, userID string, messages []types.Message) (string, error) {
	conv := types.Conversation{
		ID:       types.NewConversationID(),
		UserID:   userID,
		Title:    types.DeriveTitle(messages[0].Content),
		Messages: messages,
	}
	s.conversations[userID] = append(s.conversations[userID], conv)
	return conv.ID, nil
}

func (s *fakeStore) History(ctx context.Context, userID string, limit int) ([]types.Conversation, error) {
	all := s.conversations[userID]
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return append([]types.Conversation(nil), all...), nil
}

func (s *fakeStore) Close() error { return nil }

var _ storage.Store = (*fakeStore)(nil)

func newTestHandlers(store storage.Store) *APIHandlers {
	eng := engine.New(store, engine.NewResponder(nil, time.Second), nil, engine.Config{})
	return NewAPIHandlers(eng, store, nil, 5)
}

func TestChatEndpoint(t *testing.T) {
	store := newFakeStore()
	h := newTestHandlers(store)

	body, _ := json.Marshal(ChatRequest{Message: "My name is Sam", UserID: "u1"})
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Chat(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result types.ChatResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.NotEmpty(t, result.Response)
	assert.True(t, strings.HasPrefix(result.ConversationID, "conv_"))
	assert.NotNil(t, result.MemoryUsed)
	assert.False(t, result.Timestamp.IsZero())

	// The exchange was persisted.
	assert.Len(t, store.conversations["u1"], 1)
}

func TestChatEndpointDefaultsUserID(t *testing.T) {
	store := newFakeStore()
	h := newTestHandlers(store)

	body, _ := json.Marshal(ChatRequest{Message: "hello"})
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Chat(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, store.conversations[DefaultUserID], 1)
}

func TestChatEndpointRejectsBlankMessage(t *testing.T) {
	h := newTestHandlers(newFakeStore())

	body, _ := json.Marshal(ChatRequest{Message: "   "})
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Chat(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatEndpointRejectsBadJSON(t *testing.T) {
	h := newTestHandlers(newFakeStore())

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{nope"))
	rec := httptest.NewRecorder()

	h.Chat(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryEndpoint(t *testing.T) {
	store := newFakeStore()
	h := newTestHandlers(store)

	_, err := store.PutConversation(context.Background(), "u1", []types.Message{
		{Role: types.RoleUser, Content: "Hi"},
		{Role: types.RoleAssistant, Content: "Hello!"},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/history?user_id=u1", nil)
	rec := httptest.NewRecorder()

	h.History(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Conversations, 1)
	assert.Equal(t, "Hi", resp.Conversations[0].Title)
}

func TestHistoryEndpointEmptyUser(t *testing.T) {
	h := newTestHandlers(newFakeStore())

	req := httptest.NewRequest(http.MethodGet, "/api/history?user_id=nobody", nil)
	rec := httptest.NewRecorder()

	h.History(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Total)
	assert.NotNil(t, resp.Conversations)
}

func TestCreateAndListMemories(t *testing.T) {
	store := newFakeStore()
	h := newTestHandlers(store)

	body, _ := json.Marshal(CreateMemoryRequest{
		UserID:     "u1",
		Content:    "User's name is Sam",
		Category:   types.CategoryPersonal,
		Importance: 0.9,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/memories", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.CreateMemory(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var created CreateMemoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.True(t, strings.HasPrefix(created.ID, "mem_"))

	req = httptest.NewRequest(http.MethodGet, "/api/memories?user_id=u1", nil)
	rec = httptest.NewRecorder()

	h.ListMemories(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var listed MemoriesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Equal(t, 1, listed.Total)
	assert.Equal(t, "User's name is Sam", listed.Memories[0].Content)
	assert.Equal(t, types.MemoryTypeManual, listed.Memories[0].Metadata[types.MetadataKeyType])
}

func TestCreateMemoryRejectsBlankContent(t *testing.T) {
	h := newTestHandlers(newFakeStore())

	body, _ := json.Marshal(CreateMemoryRequest{UserID: "u1", Content: "  "})
	req := httptest.NewRequest(http.MethodPost, "/api/memories", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.CreateMemory(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsWithoutDB(t *testing.T) {
	h := newTestHandlers(newFakeStore())

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()

	h.GetStats(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var stats StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 0, stats.Memories)
}

func TestHealth(t *testing.T) {
	h := newTestHandlers(newFakeStore())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	h.Health(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
