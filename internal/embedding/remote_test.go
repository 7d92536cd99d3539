package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAIEmbedder_Embed(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "text-embedding-3-small" {
			t.Errorf("model = %q", req.Model)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req.Model,
			"data": []map[string]any{
				{"object": "embedding", "index": 0, "embedding": []float32{0.1, 0.2, 0.3}},
			},
			"usage": map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
	defer server.Close()

	e := NewOpenAIEmbedder("sk-test", server.URL, "")
	v, err := e.Embed(context.Background(), "hola")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(v) != 3 {
		t.Errorf("expected 3 dims, got %d", len(v))
	}
}

func TestOpenAIEmbedder_EmptyTextSkipsRequest(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty text")
	}))
	defer server.Close()

	e := NewOpenAIEmbedder("sk-test", server.URL, "")
	v, err := e.Embed(context.Background(), "  ")
	if err != nil || v != nil {
		t.Errorf("Embed(empty) = %v, %v", v, err)
	}
}

func TestOpenAIEmbedder_ServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	e := NewOpenAIEmbedder("sk-test", server.URL, "")
	if _, err := e.Embed(context.Background(), "hola"); err == nil {
		t.Error("should error on 500")
	}
}

func TestOllamaEmbedder_Embed(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"embedding": []float32{0.5, 0.5},
		})
	}))
	defer server.Close()

	e := NewOllamaEmbedder(server.URL, "test-model")
	v, err := e.Embed(context.Background(), "hola")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(v) != 2 {
		t.Errorf("expected 2 dims, got %d", len(v))
	}
}

func TestOllamaEmbedder_Errors(t *testing.T) {
	t.Parallel()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()
	if _, err := NewOllamaEmbedder(failing.URL, "m").Embed(context.Background(), "hola"); err == nil {
		t.Error("should error on 500")
	}

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embedding":[]}`))
	}))
	defer empty.Close()
	if _, err := NewOllamaEmbedder(empty.URL, "m").Embed(context.Background(), "hola"); err == nil {
		t.Error("should error on empty embedding")
	}
}

func TestOllamaEmbedder_DefaultValues(t *testing.T) {
	t.Parallel()

	e := NewOllamaEmbedder("", "")
	if e.baseURL != "http://localhost:11434" {
		t.Error("should default to localhost")
	}
	if e.model != "nomic-embed-text" {
		t.Error("should default to nomic-embed-text")
	}
}
