package embedding

import (
	"context"
	"fmt"

	"github.com/hyperjump/icebreaker/pkg/utils"
)

// HashEmbedder is a deterministic bag-of-words embedder. Each lowercased term is
// hashed into one of the vector's buckets with a hashed sign, and the result is
// L2-normalized, so texts sharing vocabulary have positive cosine similarity.
// Text with no terms embeds to the zero vector. It needs no network access and
// backs offline runs and tests.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder returns an embedder that produces deterministic embeddings of the given dimensions.
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Name returns "hash-<dimensions>".
func (e *HashEmbedder) Name() string {
	return fmt.Sprintf("hash-%d", e.dimensions)
}

// Embed returns the hashed term vector of text.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	emb := make([]float32, e.dimensions)
	for _, term := range Terms(text) {
		h := HashString(term)
		bucket := int(h % uint32(e.dimensions))
		if h&(1<<31) != 0 {
			emb[bucket]--
		} else {
			emb[bucket]++
		}
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, e, texts)
}

// Dimensions returns the embedding dimension.
func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

// MaxInputTokens returns 0; any input length is accepted.
func (e *HashEmbedder) MaxInputTokens() int {
	return 0
}

// Close is a no-op for HashEmbedder.
func (e *HashEmbedder) Close() error {
	return nil
}
