package embedding

import (
	"context"
	"hash/fnv"

	"github.com/xaenox/bizchat/internal/nlp"
)

const defaultLocalDims = 512

// trigramWeight scales character trigrams against whole words, so that a
// shared word dominates but spelling variants still land close together.
const trigramWeight = 0.5

// LocalEmbedder is an offline embedder that hashes words and character
// trigrams into a fixed number of buckets.
type LocalEmbedder struct {
	dims int
}

// NewLocalEmbedder creates a hashing embedder with the given dimensionality.
func NewLocalEmbedder(dims int) *LocalEmbedder {
	if dims <= 0 {
		dims = defaultLocalDims
	}
	return &LocalEmbedder{dims: dims}
}

// Embed implements Embedder.
func (e *LocalEmbedder) Embed(_ context.Context, text string) (Vector, error) {
	v := make(Vector, e.dims)
	for _, tok := range nlp.Tokens(text) {
		v[e.bucket(tok)]++

		padded := []rune("#" + tok + "#")
		for i := 0; i+3 <= len(padded); i++ {
			v[e.bucket(string(padded[i:i+3]))] += trigramWeight
		}
	}
	return v, nil
}

// Similarity implements Embedder.
func (e *LocalEmbedder) Similarity(a, b Vector) float64 {
	return CosineSimilarity(a, b)
}

// Dims returns the vector size.
func (e *LocalEmbedder) Dims() int { return e.dims }

func (e *LocalEmbedder) bucket(feature string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(feature))
	return int(h.Sum32() % uint32(e.dims))
}
