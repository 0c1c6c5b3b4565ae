// Package embedding maps text to fixed-dimension vectors through Gemini, OpenAI,
// ONNX, or a local hashing model, with caching and retry decorators.
package embedding

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnavailable marks transient failures: the provider could not be reached
	// or refused the call for now. Retried by RetryingEmbedder.
	ErrUnavailable = errors.New("embedding provider unavailable")
	// ErrEmptyEmbedding means the provider answered without a vector.
	ErrEmptyEmbedding = errors.New("embedding provider returned an empty vector")
	// ErrDimensionMismatch means a vector did not have the expected length.
	ErrDimensionMismatch = errors.New("embedding has unexpected dimensions")
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	// Name identifies the embedding model. Indices and queries must agree on it.
	Name() string
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions returns the vector length, or 0 when it is only known after the first call.
	Dimensions() int
	// MaxInputTokens returns the longest input the model accepts, or 0 when unbounded.
	MaxInputTokens() int
	Close() error
}

// unavailable wraps a provider transport error as ErrUnavailable.
func unavailable(provider string, err error) error {
	return fmt.Errorf("%s: %w: %w", provider, ErrUnavailable, err)
}

// embedEach embeds texts one by one, stopping at the first error.
func embedEach(ctx context.Context, e Embedder, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}
