package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaComplete(t *testing.T) {
	var gotReq ollamaGenerateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "hello there", Done: true})
	}))
	defer server.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: server.URL, Model: "llama3.2"})

	got, err := client.Complete(context.Background(), "say hello")
	if err != nil {
		t.Fatalf("Complete() failed: %v", err)
	}
	if got != "hello there" {
		t.Errorf("Complete() = %q, want %q", got, "hello there")
	}
	if gotReq.Stream {
		t.Error("streaming must be disabled")
	}
	if gotReq.Options.Temperature != 0.7 || gotReq.Options.TopP != 0.8 || gotReq.Options.NumPredict != 500 {
		t.Errorf("default sampling params not applied: %+v", gotReq.Options)
	}
}

func TestOllamaCompleteServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: server.URL})

	if _, err := client.Complete(context.Background(), "hi"); err == nil {
		t.Fatal("Complete() must fail on non-200 response")
	}
}

func TestOllamaEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: [][]float32{{0.1, 0.2, 0.3}}})
	}))
	defer server.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: server.URL})

	vec, err := client.Embed(context.Background(), "some text")
	if err != nil {
		t.Fatalf("Embed() failed: %v", err)
	}
	if len(vec) != 3 {
		t.Errorf("Embed() returned %d dims, want 3", len(vec))
	}
}

func TestOllamaEmbedEmptyVector(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaEmbedResponse{})
	}))
	defer server.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: server.URL})

	if _, err := client.Embed(context.Background(), "some text"); err == nil {
		t.Fatal("Embed() must fail on empty embedding response")
	}
}

func TestGenerationParamsNormalize(t *testing.T) {
	var p GenerationParams
	p.Normalize()
	if p.Temperature != 0.7 || p.TopP != 0.8 || p.MaxOutputTokens != 500 {
		t.Errorf("Normalize() defaults wrong: %+v", p)
	}

	custom := GenerationParams{Temperature: 0.2, TopP: 0.9, MaxOutputTokens: 100}
	custom.Normalize()
	if custom.Temperature != 0.2 || custom.TopP != 0.9 || custom.MaxOutputTokens != 100 {
		t.Errorf("Normalize() must keep explicit values: %+v", custom)
	}
}
