package classifier

import (
	"github.com/xaenox/bizchat/internal/embedding"
	"github.com/xaenox/bizchat/internal/knowledge"
	"github.com/xaenox/bizchat/internal/models"
	"go.uber.org/zap"
)

// DefaultThreshold is the minimum similarity an intent must exceed.
const DefaultThreshold = 0.5

// Match is the outcome of classifying one input.
type Match struct {
	Intent   models.Intent
	Score    float64 // best similarity observed, even when it was rejected
	BestTag  string  // tag that produced Score
	Fallback bool    // Intent is the fallback intent chosen after rejection
	found    bool
}

// Found reports whether an intent (possibly the fallback) was selected.
func (m Match) Found() bool {
	return m.found
}

// Matcher resolves an embedded input to the closest intent of a knowledge base.
//
// Every pattern of every intent is scored, which is fine for catalogs of a few
// hundred patterns; larger catalogs would need an ANN index here first.
type Matcher struct {
	embedder  embedding.Embedder
	threshold float64
	logger    *zap.Logger
}

func NewMatcher(embedder embedding.Embedder, threshold float64, logger *zap.Logger) *Matcher {
	return &Matcher{
		embedder:  embedder,
		threshold: threshold,
		logger:    logger,
	}
}

// Match scores input against every precomputed pattern vector. The best
// intent must score strictly above the threshold; otherwise the fallback
// intent is returned, or no match when the catalog has none.
func (m *Matcher) Match(input embedding.Vector, kb *knowledge.Base) Match {
	return selectIntent(kb, m.threshold, m.logger, func(intent, pattern int) float64 {
		return m.embedder.Similarity(input, kb.Vectors(intent)[pattern])
	})
}

// selectIntent runs the scan shared by the classifiers. score is called for
// each (intent, pattern) pair in catalog order; the first strictly better score
// wins, so ties keep the earlier intent.
func selectIntent(kb *knowledge.Base, threshold float64, logger *zap.Logger, score func(intent, pattern int) float64) Match {
	best := 0.0
	bestIdx := -1

	for i := 0; i < kb.Len(); i++ {
		for j := range kb.Intent(i).Patterns {
			if s := score(i, j); s > best {
				best = s
				bestIdx = i
			}
		}
	}

	result := Match{Score: best}
	if bestIdx >= 0 {
		result.BestTag = kb.Intent(bestIdx).Tag
	}

	if bestIdx >= 0 && best > threshold {
		result.Intent = kb.Intent(bestIdx)
		result.found = true
		return result
	}

	fallback, ok := kb.Fallback()
	logger.Debug("No intent above threshold",
		zap.Float64("best_score", best),
		zap.String("best_tag", result.BestTag),
		zap.Float64("threshold", threshold),
		zap.Bool("fallback", ok))
	if !ok {
		return result
	}

	result.Intent = fallback
	result.Fallback = true
	result.found = true
	return result
}
