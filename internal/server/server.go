// Package server provides HTTP server initialization and lifecycle management
// for the Recall API.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/recallhq/recall/internal/config"
	"github.com/recallhq/recall/internal/engine"
	"github.com/recallhq/recall/internal/storage"
	"github.com/recallhq/recall/web/handlers"
)

// dbGetter is satisfied by stores that expose their database handle.
type dbGetter interface {
	GetDB() *sql.DB
}

// securityHeadersMiddleware adds security headers to all responses.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware allows browser clients on other origins to call the API.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Start wires the handlers, starts the HTTP server and returns the actual
// listen address (useful for tests with port 0) and the websocket hub. The
// server shuts down gracefully when ctx is cancelled.
func Start(ctx context.Context, cfg *config.Config, store storage.Store, eng *engine.ChatEngine, wsHub *handlers.WebSocketHub) (string, error) {
	mux := http.NewServeMux()

	var db *sql.DB
	if dbStore, ok := store.(dbGetter); ok {
		db = dbStore.GetDB()
	}

	apiHandlers := handlers.NewAPIHandlers(eng, store, db, cfg.Chat.HistoryLimit)
	rateLimiter := handlers.NewRateLimiter(cfg.Security.RatePerSecond, cfg.Security.RateBurst)

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		apiHandlers.Chat(w, r)
	})
	apiMux.HandleFunc("/api/history", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		apiHandlers.History(w, r)
	})
	apiMux.HandleFunc("/api/memories", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			apiHandlers.ListMemories(w, r)
		case http.MethodPost:
			apiHandlers.CreateMemory(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/stats", apiHandlers.GetStats)

	// API routes require auth in production mode.
	mux.Handle("/api/", handlers.RequireAuth(apiMux, cfg))

	// Health endpoint stays open for monitoring.
	mux.HandleFunc("/health", apiHandlers.Health)

	// WebSocket endpoint; origin validation handles access control.
	mux.Handle("/ws", wsHub)

	handler := handlers.RateLimitMiddleware(mux, rateLimiter)
	handler = corsMiddleware(handler)
	handler = securityHeadersMiddleware(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("server: failed to listen on %s: %w", addr, err)
	}
	actualAddr := listener.Addr().String()

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown error: %v", err)
		}
		wsHub.Stop()
	}()

	return actualAddr, nil
}
