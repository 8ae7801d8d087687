package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/recallhq/recall/pkg/types"
)

// DefaultUserID is used when a request does not name a user.
const DefaultUserID = "default_user"

// ErrorResponse is the standard error response format for the API.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ChatRequest is the request body for POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

// CreateMemoryRequest is the request body for POST /api/memories.
type CreateMemoryRequest struct {
	UserID     string                 `json:"user_id"`
	Content    string                 `json:"content"`
	Category   string                 `json:"category,omitempty"`
	Importance float64                `json:"importance,omitempty"`
	Keywords   string                 `json:"keywords,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// CreateMemoryResponse is the response body for POST /api/memories.
type CreateMemoryResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// MemoriesResponse is the response body for GET /api/memories.
type MemoriesResponse struct {
	Memories []types.Memory `json:"memories"`
	Total    int            `json:"total"`
}

// HistoryResponse is the response body for GET /api/history.
type HistoryResponse struct {
	Conversations []types.Conversation `json:"conversations"`
	Total         int                  `json:"total"`
}

// StatsResponse is the response body for GET /api/stats.
type StatsResponse struct {
	Memories      int    `json:"memories"`
	Conversations int    `json:"conversations"`
	Messages      int    `json:"messages"`
	ModelState    string `json:"model_state,omitempty"` // circuit breaker state
}

// parseInt parses an integer from a string, returning defaultValue if parsing
// fails.
func parseInt(s string, defaultValue int) int {
	if s == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return val
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers already sent; log and move on.
		log.Printf("failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response with the given status code.
func respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	errResp := ErrorResponse{
		Error: message,
		Code:  http.StatusText(statusCode),
	}
	if err != nil {
		errResp.Details = map[string]interface{}{"error": err.Error()}
	}
	respondJSON(w, statusCode, errResp)
}
