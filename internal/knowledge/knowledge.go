// Package knowledge compiles the raw intent catalog into an immutable,
// pre-embedded knowledge base.
//
// Construction is two-phase: storage sources produce plain models.Intent
// records, and Compile derives the pattern vectors into a separate Base value.
// A Base never changes after Compile returns, so it can be shared by any number
// of sessions without locking.
package knowledge

import (
	"context"
	"fmt"
	"slices"

	"github.com/xaenox/bizchat/internal/embedding"
	"github.com/xaenox/bizchat/internal/models"
	"github.com/xaenox/bizchat/internal/nlp"
)

// Base is a compiled intent catalog. Intent order is match priority.
type Base struct {
	intents  []models.Intent
	vectors  [][]embedding.Vector // vectors[i][j] embeds intents[i].Patterns[j]
	fallback int
}

// Empty returns a Base with no intents.
func Empty() *Base {
	return &Base{fallback: -1}
}

// Compile normalizes and embeds every pattern once.
func Compile(ctx context.Context, intents []models.Intent, e embedding.Embedder) (*Base, error) {
	b := &Base{
		intents:  make([]models.Intent, len(intents)),
		vectors:  make([][]embedding.Vector, len(intents)),
		fallback: -1,
	}

	for i, in := range intents {
		b.intents[i] = models.Intent{
			Tag:       in.Tag,
			Patterns:  slices.Clone(in.Patterns),
			Responses: slices.Clone(in.Responses),
		}
		if b.fallback < 0 && in.IsFallback() {
			b.fallback = i
		}

		vecs := make([]embedding.Vector, len(in.Patterns))
		for j, pattern := range in.Patterns {
			v, err := e.Embed(ctx, nlp.Normalize(pattern))
			if err != nil {
				return nil, fmt.Errorf("embedding pattern %q of intent %q: %w", pattern, in.Tag, err)
			}
			vecs[j] = v
		}
		b.vectors[i] = vecs
	}

	return b, nil
}

// Len returns the number of intents.
func (b *Base) Len() int {
	return len(b.intents)
}

// Intent returns the i-th intent. The returned slices must not be modified.
func (b *Base) Intent(i int) models.Intent {
	return b.intents[i]
}

// Vectors returns the precomputed pattern vectors of the i-th intent.
func (b *Base) Vectors(i int) []embedding.Vector {
	return b.vectors[i]
}

// Fallback returns the intent tagged "fallback", if the catalog has one.
func (b *Base) Fallback() (models.Intent, bool) {
	if b.fallback < 0 {
		return models.Intent{}, false
	}
	return b.intents[b.fallback], true
}

// Tags lists the intent tags in catalog order.
func (b *Base) Tags() []string {
	tags := make([]string, len(b.intents))
	for i, in := range b.intents {
		tags[i] = in.Tag
	}
	return tags
}
