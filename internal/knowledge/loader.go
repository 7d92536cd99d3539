package knowledge

import (
	"context"

	"github.com/xaenox/bizchat/internal/models"
	"github.com/xaenox/bizchat/internal/storage"
	"go.uber.org/zap"
)

// Load reads the catalog from src. A missing or corrupt source degrades to an
// empty catalog; the condition is logged, never returned.
func Load(ctx context.Context, src storage.CatalogSource, logger *zap.Logger) []models.Intent {
	raw, err := src.LoadIntents(ctx)
	if err != nil {
		logger.Warn("Failed to load knowledge base, continuing with an empty catalog",
			zap.Error(err),
			zap.String("source", src.Describe()))
		return nil
	}

	intents := make([]models.Intent, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i, in := range raw {
		if in.Tag == "" {
			logger.Warn("Skipping intent without tag", zap.Int("index", i))
			continue
		}
		if _, dup := seen[in.Tag]; dup {
			logger.Warn("Skipping duplicate intent tag", zap.String("tag", in.Tag), zap.Int("index", i))
			continue
		}
		seen[in.Tag] = struct{}{}
		intents = append(intents, in)
	}

	if len(intents) == 0 {
		logger.Warn("Knowledge base is empty", zap.String("source", src.Describe()))
		return intents
	}

	logger.Info("Knowledge base loaded",
		zap.String("source", src.Describe()),
		zap.Int("intents", len(intents)))
	return intents
}
