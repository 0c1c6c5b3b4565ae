package vector

import (
	"context"
	"fmt"
	"sort"

	"github.com/hyperjump/icebreaker/internal/keyword"
	"github.com/hyperjump/icebreaker/internal/models"
)

type scored struct {
	pos   int
	score float64
	ok    bool
}

// Search ranks every node by cosine similarity to query and returns the best
// min(k, Size()) of them. Equal scores keep insertion order. Nodes without a
// usable embedding rank after all embedded nodes, in insertion order.
func (x *Index) Search(query []float32, k int) ([]*models.RankedNode, error) {
	if len(query) != x.dimensions {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(query), x.dimensions)
	}
	if k <= 0 {
		return nil, nil
	}
	scores := make([]scored, len(x.nodes))
	for i, en := range x.nodes {
		scores[i] = scored{pos: i, ok: x.valid[i]}
		if x.valid[i] {
			scores[i].score = Cosine(query, en.Embedding)
		}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].ok != scores[j].ok {
			return scores[i].ok
		}
		return scores[i].ok && scores[i].score > scores[j].score
	})
	if k > len(scores) {
		k = len(scores)
	}
	out := make([]*models.RankedNode, k)
	for i := 0; i < k; i++ {
		out[i] = &models.RankedNode{
			Node:  x.nodes[scores[i].pos].Node,
			Score: scores[i].score,
			Rank:  i + 1,
		}
	}
	return out, nil
}

// SearchKeyword ranks nodes by BM25 match against query text. Matching nodes
// come first by score, equal scores in insertion order; the rest follow in
// insertion order so the result always has min(k, Size()) entries.
// Every result is marked Lexical.
func (x *Index) SearchKeyword(ctx context.Context, query string, k int) ([]*models.RankedNode, error) {
	if k <= 0 {
		return nil, nil
	}
	hits, err := x.keyword.Search(ctx, query, len(x.nodes), &keyword.SearchOptions{FieldBoost: 2, PhraseBoost: 1.5})
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	matched := make([]scored, 0, len(hits))
	seen := make(map[int]bool, len(hits))
	for _, h := range hits {
		pos, ok := x.positions[h.ID]
		if !ok || seen[pos] {
			continue
		}
		seen[pos] = true
		matched = append(matched, scored{pos: pos, score: h.Score, ok: true})
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].score != matched[j].score {
			return matched[i].score > matched[j].score
		}
		return matched[i].pos < matched[j].pos
	})
	for i := range x.nodes {
		if !seen[i] {
			matched = append(matched, scored{pos: i})
		}
	}
	if k > len(matched) {
		k = len(matched)
	}
	out := make([]*models.RankedNode, k)
	for i := 0; i < k; i++ {
		out[i] = &models.RankedNode{
			Node:    x.nodes[matched[i].pos].Node,
			Score:   matched[i].score,
			Rank:    i + 1,
			Lexical: true,
		}
	}
	return out, nil
}
