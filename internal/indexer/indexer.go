package indexer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/icebreaker/internal/embedding"
	"github.com/hyperjump/icebreaker/internal/models"
	"github.com/hyperjump/icebreaker/internal/vector"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// IndexBuildError is returned when no node could be embedded. Err is the
// failure of the first node and wraps embedding.ErrUnavailable when the
// provider could not be reached, or embedding.ErrEmptyEmbedding /
// embedding.ErrDimensionMismatch when it returned unusable vectors.
type IndexBuildError struct {
	Nodes int
	Err   error
}

func (e *IndexBuildError) Error() string {
	return fmt.Sprintf("index build failed: none of %d nodes embedded: %v", e.Nodes, e.Err)
}

func (e *IndexBuildError) Unwrap() error { return e.Err }

// Indexer embeds nodes and assembles them into a vector.Index.
type Indexer struct {
	embedder    embedding.Embedder
	concurrency int
	timeout     time.Duration
	logger      *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for per-node failures and verification warnings.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) {
		if l != nil {
			idx.logger = l
		}
	}
}

// WithConcurrency bounds the number of embedding calls in flight.
func WithConcurrency(n int) IndexerOption {
	return func(idx *Indexer) {
		if n > 0 {
			idx.concurrency = n
		}
	}
}

// WithTimeout bounds each embedding call. Zero means no per-call timeout.
func WithTimeout(d time.Duration) IndexerOption {
	return func(idx *Indexer) { idx.timeout = d }
}

// NewIndexer creates an indexer that embeds with embedder.
func NewIndexer(embedder embedding.Embedder, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		embedder:    embedder,
		concurrency: 4,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// BuildIndex embeds every node once and returns the index. A node that fails
// to embed stays in the index without a vector; the build fails only when
// every node does. Nodes without text are not sent to the provider.
// The index carries the embedder's name so queries can be checked against it.
func (idx *Indexer) BuildIndex(ctx context.Context, namespace string, nodes []*models.Node) (*vector.Index, error) {
	texts := 0
	for _, n := range nodes {
		if n != nil && strings.TrimSpace(n.Text) != "" {
			texts++
		}
	}
	if texts == 0 {
		return nil, &EmptyProfileError{}
	}

	vectors := make([][]float32, len(nodes))
	errs := make([]error, len(nodes))
	var g errgroup.Group
	g.SetLimit(idx.concurrency)
	for i, n := range nodes {
		if n == nil || strings.TrimSpace(n.Text) == "" {
			errs[i] = fmt.Errorf("node has no text")
			continue
		}
		g.Go(func() error {
			callCtx := ctx
			if idx.timeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(ctx, idx.timeout)
				defer cancel()
			}
			vectors[i], errs[i] = idx.embedder.Embed(callCtx, n.Text)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dims := idx.embedder.Dimensions()
	if dims <= 0 {
		for i, v := range vectors {
			if errs[i] == nil && len(v) > 0 {
				dims = len(v)
				break
			}
		}
	}

	embedded := make([]models.EmbeddedNode, 0, len(nodes))
	var firstErr error
	failed := 0
	for i, n := range nodes {
		if n == nil {
			continue
		}
		err := errs[i]
		if err == nil {
			switch {
			case len(vectors[i]) == 0:
				err = embedding.ErrEmptyEmbedding
			case len(vectors[i]) != dims:
				err = fmt.Errorf("%w: got %d, expected %d", embedding.ErrDimensionMismatch, len(vectors[i]), dims)
			}
		}
		en := models.EmbeddedNode{Node: n}
		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
			idx.logger.Warn("node embedding failed",
				zap.String("node_id", n.ID),
				zap.String("source_field", n.Metadata.SourceField),
				zap.Error(err))
		} else {
			en.Embedding = vectors[i]
		}
		embedded = append(embedded, en)
	}
	if failed == len(embedded) {
		return nil, &IndexBuildError{Nodes: len(embedded), Err: firstErr}
	}

	index, err := vector.New(ctx, namespace, idx.embedder.Name(), dims, embedded)
	if err != nil {
		if errors.Is(err, vector.ErrNoEmbeddings) {
			return nil, &IndexBuildError{Nodes: len(embedded), Err: err}
		}
		return nil, fmt.Errorf("failed to build vector index: %w", err)
	}
	if !Verify(index) {
		idx.logger.Warn("index built with deficient embeddings",
			zap.String("index_id", index.ID()),
			zap.Int("nodes", index.Size()),
			zap.Int("deficient", index.Deficient()))
	}
	idx.logger.Debug("index built",
		zap.String("index_id", index.ID()),
		zap.String("model", index.Model()),
		zap.Int("nodes", index.Size()),
		zap.Int("dimensions", index.Dimensions()))
	return index, nil
}

// Verify reports whether every node in index has a non-empty embedding of the
// index's dimensionality.
func Verify(index *vector.Index) bool {
	return index != nil && index.Size() > 0 && index.Deficient() == 0
}
