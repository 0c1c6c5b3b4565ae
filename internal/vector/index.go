// Package vector provides the immutable in-memory index built for one profile,
// with brute-force cosine search and a keyword fallback.
package vector

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/icebreaker/internal/keyword"
	"github.com/hyperjump/icebreaker/internal/models"
)

var (
	// ErrNoEmbeddings is returned when none of the nodes has a usable embedding.
	ErrNoEmbeddings = errors.New("index has no usable embeddings")
	// ErrDimensionMismatch is returned when a query vector has the wrong length.
	ErrDimensionMismatch = errors.New("query dimension mismatch")
)

// Index is a read-only collection of embedded nodes. Every method is safe for
// concurrent use; nothing mutates the index after New returns.
type Index struct {
	id         string
	model      string
	dimensions int
	nodes      []models.EmbeddedNode
	valid      []bool
	positions  map[string]int
	keyword    keyword.KeywordIndex
}

// New builds an index over nodes in the given order. Nodes and embeddings are
// copied. An embedding is usable when its length equals dimensions; at least
// one node must have one. The node text is also indexed for keyword search.
func New(ctx context.Context, id, model string, dimensions int, nodes []models.EmbeddedNode) (*Index, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	idx := &Index{
		id:         id,
		model:      model,
		dimensions: dimensions,
		nodes:      make([]models.EmbeddedNode, len(nodes)),
		valid:      make([]bool, len(nodes)),
		positions:  make(map[string]int, len(nodes)),
	}
	usable := 0
	for i, en := range nodes {
		if en.Node == nil {
			return nil, fmt.Errorf("node %d is nil", i)
		}
		if _, dup := idx.positions[en.Node.ID]; dup {
			return nil, fmt.Errorf("duplicate node id %q", en.Node.ID)
		}
		n := *en.Node
		idx.nodes[i].Node = &n
		if len(en.Embedding) == dimensions {
			vec := make([]float32, dimensions)
			copy(vec, en.Embedding)
			idx.nodes[i].Embedding = vec
			idx.valid[i] = true
			usable++
		}
		idx.positions[n.ID] = i
	}
	if usable == 0 {
		return nil, ErrNoEmbeddings
	}

	kw, err := keyword.NewBleveIndex()
	if err != nil {
		return nil, fmt.Errorf("keyword index: %w", err)
	}
	for _, en := range idx.nodes {
		if err := kw.Index(ctx, en.Node); err != nil {
			_ = kw.Close()
			return nil, fmt.Errorf("keyword index node %s: %w", en.Node.ID, err)
		}
	}
	idx.keyword = kw
	return idx, nil
}

// ID returns the index identifier (the namespace of its node IDs).
func (x *Index) ID() string { return x.id }

// Model returns the name of the embedding model that produced the vectors.
func (x *Index) Model() string { return x.model }

// Dimensions returns the expected vector length.
func (x *Index) Dimensions() int { return x.dimensions }

// Size returns the number of nodes, embedded or not.
func (x *Index) Size() int { return len(x.nodes) }

// Node returns the node at position i in insertion order.
func (x *Index) Node(i int) *models.Node { return x.nodes[i].Node }

// Nodes returns the nodes in insertion order.
func (x *Index) Nodes() []*models.Node {
	out := make([]*models.Node, len(x.nodes))
	for i, en := range x.nodes {
		out[i] = en.Node
	}
	return out
}

// Embedding returns the stored vector for the node at position i, or nil when it has none.
func (x *Index) Embedding(i int) []float32 { return x.nodes[i].Embedding }

// Deficient returns the number of nodes without a usable embedding.
func (x *Index) Deficient() int {
	n := 0
	for _, ok := range x.valid {
		if !ok {
			n++
		}
	}
	return n
}

// Close releases the keyword index.
func (x *Index) Close() error {
	if x.keyword == nil {
		return nil
	}
	return x.keyword.Close()
}
