// Package embedding turns text into comparable vectors.
//
// An Embedder is built once at startup and shared by every session; all
// implementations are safe for concurrent use.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Vector is a float32 embedding vector.
type Vector = []float32

// ErrEmptyResponse is returned when a remote provider answers without a vector.
var ErrEmptyResponse = errors.New("embedding: provider returned no vector")

// Embedder generates embedding vectors and compares them.
type Embedder interface {
	// Embed returns the vector for text. Empty text yields a zero vector.
	Embed(ctx context.Context, text string) (Vector, error)

	// Similarity returns a symmetric score in [0,1].
	Similarity(a, b Vector) float64
}

// Provider names accepted by New.
const (
	ProviderLocal  = "local"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Config selects and tunes an embedding backend.
type Config struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Dims     int
	Timeout  time.Duration
}

// Validate checks that cfg names a known provider and carries what it needs.
// Provider names are case-insensitive. The openai provider needs an API key,
// unless BaseURL points at a compatible server.
func (c Config) Validate() error {
	switch strings.ToLower(c.Provider) {
	case "", ProviderLocal, ProviderOllama:
	case ProviderOpenAI:
		if c.APIKey == "" && c.BaseURL == "" {
			return errors.New("embedding: openai provider requires an api key or a base url")
		}
	default:
		return fmt.Errorf("embedding: unknown provider %q", c.Provider)
	}
	if c.Dims < 0 {
		return fmt.Errorf("embedding: dims must not be negative, got %d", c.Dims)
	}
	return nil
}

// New builds the embedder named by cfg.Provider.
func New(cfg Config, logger *zap.Logger) (Embedder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var e Embedder
	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		e = NewOpenAIEmbedder(cfg.APIKey, cfg.BaseURL, cfg.Model)
	case ProviderOllama:
		e = NewOllamaEmbedder(cfg.BaseURL, cfg.Model)
	default:
		e = NewLocalEmbedder(cfg.Dims)
	}

	logger.Info("Embedding provider ready",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model),
		zap.Duration("timeout", cfg.Timeout))

	if cfg.Timeout > 0 {
		e = &timeoutEmbedder{next: e, timeout: cfg.Timeout}
	}
	return e, nil
}

// Probe embeds a fixed text to prove the provider is usable. A provider that
// returns only zero vectors is treated as broken.
func Probe(ctx context.Context, e Embedder) error {
	v, err := e.Embed(ctx, "hola")
	if err != nil {
		return fmt.Errorf("probing embedder: %w", err)
	}
	if isZero(v) {
		return fmt.Errorf("probing embedder: %w", ErrEmptyResponse)
	}
	return nil
}

// CosineSimilarity computes the cosine of a and b clamped to [0,1]. Mismatched
// or degenerate vectors score 0.
func CosineSimilarity(a, b Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	switch {
	case sim <= 0:
		return 0
	case sim >= 1-1e-9:
		return 1
	}
	return sim
}

func isZero(v Vector) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// timeoutEmbedder bounds every Embed call with a deadline.
type timeoutEmbedder struct {
	next    Embedder
	timeout time.Duration
}

func (t *timeoutEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Embed(ctx, text)
}

func (t *timeoutEmbedder) Similarity(a, b Vector) float64 {
	return t.next.Similarity(a, b)
}
