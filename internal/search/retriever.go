// Package search retrieves the nodes of an index most relevant to a query.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hyperjump/icebreaker/internal/embedding"
	"github.com/hyperjump/icebreaker/internal/models"
	"github.com/hyperjump/icebreaker/internal/vector"
	"github.com/hyperjump/icebreaker/pkg/utils"
	"go.uber.org/zap"
)

// DefaultTopK is used when neither the call nor the retriever sets k.
const DefaultTopK = 3

var (
	// ErrModelMismatch is returned when the query embedder differs from the one that built the index.
	ErrModelMismatch = errors.New("query embedding model does not match index model")
	// ErrNoIndex is returned when Retrieve is called without an index.
	ErrNoIndex = errors.New("no index")
)

// Retriever embeds queries and ranks index nodes by cosine similarity.
// It holds no per-query state and is safe for concurrent use.
type Retriever struct {
	embedder        embedding.Embedder
	defaultTopK     int
	timeout         time.Duration
	lexicalFallback bool
	logger          *zap.Logger
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithDefaultTopK sets k for calls that pass k <= 0.
func WithDefaultTopK(k int) RetrieverOption {
	return func(r *Retriever) {
		if k > 0 {
			r.defaultTopK = k
		}
	}
}

// WithTimeout bounds the query embedding call. Zero means no timeout.
func WithTimeout(d time.Duration) RetrieverOption {
	return func(r *Retriever) { r.timeout = d }
}

// WithLexicalFallback enables or disables keyword ranking when the query
// cannot be embedded or embeds to the zero vector. Enabled by default.
func WithLexicalFallback(enabled bool) RetrieverOption {
	return func(r *Retriever) { r.lexicalFallback = enabled }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) RetrieverOption {
	return func(r *Retriever) { r.logger = utils.OrNop(l) }
}

// NewRetriever creates a retriever that embeds queries with embedder.
func NewRetriever(embedder embedding.Embedder, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		embedder:        embedder,
		defaultTopK:     DefaultTopK,
		lexicalFallback: true,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Model returns the name of the embedding model used for queries.
func (r *Retriever) Model() string { return r.embedder.Name() }

// Retrieve returns the min(topK, index.Size()) nodes most similar to query,
// best first. Ties keep insertion order. topK <= 0 selects the default.
func (r *Retriever) Retrieve(ctx context.Context, index *vector.Index, query string, topK int) ([]*models.RankedNode, error) {
	if index == nil {
		return nil, ErrNoIndex
	}
	if name := r.embedder.Name(); name != index.Model() {
		return nil, fmt.Errorf("%w: query uses %q, index built with %q", ErrModelMismatch, name, index.Model())
	}
	if topK <= 0 {
		topK = r.defaultTopK
	}
	query = NormalizeQuery(query)

	embedCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		embedCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	vec, err := r.embedder.Embed(embedCtx, query)
	if err != nil {
		if r.lexicalFallback && ctx.Err() == nil && errors.Is(err, embedding.ErrUnavailable) {
			r.logger.Warn("query embedding unavailable, using keyword ranking",
				zap.String("index_id", index.ID()),
				zap.Error(err))
			return index.SearchKeyword(ctx, query, topK)
		}
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if r.lexicalFallback && utils.IsZeroVector(vec) {
		r.logger.Debug("query embedded to zero vector, using keyword ranking",
			zap.String("index_id", index.ID()))
		return index.SearchKeyword(ctx, query, topK)
	}
	results, err := index.Search(vec, topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	return results, nil
}
