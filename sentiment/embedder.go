package sentiment

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

const embeddingDimensions = 64

// HashingEmbedder derives a deterministic fixed-dimension vector from text
// via feature hashing: each token is hashed into a bucket and contributes
// +1/-1 depending on a second hash bit, then the vector is L2-normalised.
// It needs no network call or model weights, so the semantic cache works
// the same in tests as in production without a live embeddings API.
type HashingEmbedder struct{}

func NewHashingEmbedder() *HashingEmbedder {
	return &HashingEmbedder{}
}

func (e *HashingEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	vec := make([]float64, embeddingDimensions)

	for _, token := range strings.Fields(strings.ToLower(text)) {
		h1 := fnv.New32a()
		h1.Write([]byte(token))
		bucket := int(h1.Sum32() % uint32(embeddingDimensions))

		h2 := fnv.New32a()
		h2.Write([]byte(token + "#sign"))
		sign := 1.0
		if h2.Sum32()%2 == 0 {
			sign = -1.0
		}
		vec[bucket] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec, nil
	}
	normSqrt := math.Sqrt(norm)
	for i := range vec {
		vec[i] /= normSqrt
	}
	return vec, nil
}
