// Package handlers provides the HTTP handlers and middleware for the Recall
// REST API.
package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/recallhq/recall/internal/engine"
	"github.com/recallhq/recall/internal/storage"
	"github.com/recallhq/recall/pkg/types"
)

// APIHandlers contains the HTTP handlers for the REST API.
type APIHandlers struct {
	engine       *engine.ChatEngine
	store        storage.Store
	db           *sql.DB // optional, enables /api/stats counts
	historyLimit int
}

// NewAPIHandlers creates an APIHandlers instance. db may be nil; /api/stats
// then reports zero counts.
func NewAPIHandlers(eng *engine.ChatEngine, store storage.Store, db *sql.DB, historyLimit int) *APIHandlers {
	if historyLimit < 1 {
		historyLimit = 5
	}
	return &APIHandlers{
		engine:       eng,
		store:        store,
		db:           db,
		historyLimit: historyLimit,
	}
}

// Chat handles POST /api/chat. The engine never fails a turn, so the only
// error responses here are for malformed requests.
func (h *APIHandlers) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "message is required", nil)
		return
	}
	if req.UserID == "" {
		req.UserID = DefaultUserID
	}

	result := h.engine.HandleMessage(r.Context(), req.UserID, req.Message)
	respondJSON(w, http.StatusOK, result)
}

// History handles GET /api/history.
func (h *APIHandlers) History(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = DefaultUserID
	}
	limit := parseInt(r.URL.Query().Get("limit"), h.historyLimit)

	conversations, err := h.store.History(r.Context(), userID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load history", err)
		return
	}
	if conversations == nil {
		conversations = []types.Conversation{}
	}

	respondJSON(w, http.StatusOK, HistoryResponse{
		Conversations: conversations,
		Total:         len(conversations),
	})
}

// ListMemories handles GET /api/memories.
func (h *APIHandlers) ListMemories(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = DefaultUserID
	}

	memories, err := h.store.ListMemories(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list memories", err)
		return
	}
	if memories == nil {
		memories = []types.Memory{}
	}

	respondJSON(w, http.StatusOK, MemoriesResponse{
		Memories: memories,
		Total:    len(memories),
	})
}

// CreateMemory handles POST /api/memories, the manual put path.
func (h *APIHandlers) CreateMemory(w http.ResponseWriter, r *http.Request) {
	var req CreateMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		respondError(w, http.StatusBadRequest, "content is required", nil)
		return
	}
	if req.UserID == "" {
		req.UserID = DefaultUserID
	}

	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	if _, ok := metadata[types.MetadataKeyType]; !ok {
		metadata[types.MetadataKeyType] = types.MemoryTypeManual
	}

	id, err := h.store.PutMemory(r.Context(), req.UserID, req.Content, storage.PutMemoryOptions{
		Category:   req.Category,
		Importance: req.Importance,
		Keywords:   req.Keywords,
		Metadata:   metadata,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to store memory", err)
		return
	}

	respondJSON(w, http.StatusCreated, CreateMemoryResponse{
		ID:      id,
		Message: "memory stored",
	})
}

// GetStats handles GET /api/stats.
func (h *APIHandlers) GetStats(w http.ResponseWriter, r *http.Request) {
	var stats StatsResponse
	if h.db != nil {
		stats.Memories = h.countRows("memories")
		stats.Conversations = h.countRows("conversations")
		stats.Messages = h.countRows("messages")
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *APIHandlers) countRows(table string) int {
	var count int
	if err := h.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
		return 0
	}
	return count
}

// Health handles GET /health.
func (h *APIHandlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
