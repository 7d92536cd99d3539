package storage

import (
	"context"
	"errors"

	"github.com/xaenox/bizchat/internal/models"
)

// ErrNotFound is returned when a catalog source does not exist.
var ErrNotFound = errors.New("storage: catalog not found")

// CatalogSource provides the raw intent catalog.
type CatalogSource interface {
	LoadIntents(ctx context.Context) ([]models.Intent, error)
	// Describe names the source in logs.
	Describe() string
	Close() error
}

// CatalogWriter is implemented by sources that can be seeded with a catalog.
type CatalogWriter interface {
	ReplaceIntents(ctx context.Context, intents []models.Intent) error
}
