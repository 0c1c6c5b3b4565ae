// Package keyword provides keyword (BM25) search over profile nodes.
package keyword

import (
	"context"

	"github.com/hyperjump/icebreaker/internal/models"
)

// SearchOptions optional parameters for keyword search. Nil means use defaults.
type SearchOptions struct {
	// FieldBoost multiplies the score contribution from matches in the source field name
	// (e.g. "education"). Values > 1 favour nodes whose field the query names. Use 1.0 for no boost.
	FieldBoost float64
	// PhraseBoost multiplies the score when query terms appear close together (phrase match).
	// Values > 1 boost nodes with adjacent query terms (e.g. 1.5). Use 1.0 for no boost.
	PhraseBoost float64
	// FuzzyEnabled enables fuzzy matching for typo tolerance.
	FuzzyEnabled bool
	// Fuzziness is the maximum Levenshtein edit distance for fuzzy matching (1 or 2).
	// Default is 2 when FuzzyEnabled is true.
	Fuzziness int
}

// KeywordIndex defines keyword search operations.
type KeywordIndex interface {
	Index(ctx context.Context, node *models.Node) error
	Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*KeywordResult, error)
	// DocCount returns the total number of nodes in the index.
	DocCount() (uint64, error)
	Close() error
}

// KeywordResult is a single keyword search hit (ID is the node ID).
type KeywordResult struct {
	ID    string
	Score float64
}
