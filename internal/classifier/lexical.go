package classifier

import (
	"github.com/xaenox/bizchat/internal/knowledge"
	"github.com/xaenox/bizchat/internal/nlp"
	"go.uber.org/zap"
)

// Lexical matches raw text by word overlap. It needs no embedder, so the bot
// falls back to it when the embedding provider is failing.
type Lexical struct {
	threshold float64
	logger    *zap.Logger
}

func NewLexical(threshold float64, logger *zap.Logger) *Lexical {
	return &Lexical{
		threshold: threshold,
		logger:    logger,
	}
}

// Match scores text against the raw patterns by Jaccard similarity of their
// word sets, with the same threshold and fallback policy as Matcher.
func (c *Lexical) Match(text string, kb *knowledge.Base) Match {
	input := wordSet(nlp.Tokens(text))

	return selectIntent(kb, c.threshold, c.logger, func(intent, pattern int) float64 {
		return jaccard(input, wordSet(nlp.Tokens(kb.Intent(intent).Patterns[pattern])))
	})
}

func wordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for w := range a {
		if _, ok := b[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(a)+len(b)-shared)
}
