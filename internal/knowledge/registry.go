package knowledge

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/xaenox/bizchat/internal/embedding"
	"github.com/xaenox/bizchat/internal/storage"
	"go.uber.org/zap"
)

// Registry owns the process-level knowledge base and rebuilds it on demand.
type Registry struct {
	source   storage.CatalogSource
	embedder embedding.Embedder
	logger   *zap.Logger
	current  atomic.Pointer[Base]
}

// NewRegistry builds the initial Base. Only an embedding failure is returned;
// an unreadable catalog yields an empty Base.
func NewRegistry(ctx context.Context, source storage.CatalogSource, embedder embedding.Embedder, logger *zap.Logger) (*Registry, error) {
	r := &Registry{
		source:   source,
		embedder: embedder,
		logger:   logger,
	}
	if err := r.Reload(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Current returns the latest compiled Base.
func (r *Registry) Current() *Base {
	if b := r.current.Load(); b != nil {
		return b
	}
	return Empty()
}

// Build loads and compiles a fresh Base without publishing it.
func (r *Registry) Build(ctx context.Context) (*Base, error) {
	start := time.Now()
	intents := Load(ctx, r.source, r.logger)
	b, err := Compile(ctx, intents, r.embedder)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("Knowledge base compiled",
		zap.Int("intents", b.Len()),
		zap.Duration("elapsed", time.Since(start)))
	return b, nil
}

// Reload rebuilds the Base and publishes it. On failure the previous Base
// stays in place.
func (r *Registry) Reload(ctx context.Context) error {
	b, err := r.Build(ctx)
	if err != nil {
		r.logger.Error("Failed to compile knowledge base", zap.Error(err))
		return err
	}
	r.current.Store(b)
	if _, ok := b.Fallback(); !ok && b.Len() > 0 {
		r.logger.Warn("Knowledge base has no fallback intent",
			zap.String("tag", "fallback"))
	}
	return nil
}
