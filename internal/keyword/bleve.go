package keyword

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/hyperjump/icebreaker/internal/models"
)

// BleveIndex implements KeywordIndex using an in-memory Bleve index.
type BleveIndex struct {
	index bleve.Index
}

// nodeDocument is the indexed form of a node.
type nodeDocument struct {
	Content string `json:"content"`
	Field   string `json:"field"`
}

// NewBleveIndex creates an empty in-memory Bleve index. Nothing is written to disk.
func NewBleveIndex() (*BleveIndex, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer: lowercase and tokenize, no stemming, so "go" matches "Go" exactly.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	docMapping.AddFieldMappingsAt("field", textFieldMapping)
	im.AddDocumentMapping("node", docMapping)
	im.DefaultType = "node"
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// Index adds a node under its ID.
func (b *BleveIndex) Index(ctx context.Context, node *models.Node) error {
	if node == nil {
		return fmt.Errorf("nil node")
	}
	return b.index.Index(node.ID, &nodeDocument{
		Content: node.Text,
		Field:   node.Metadata.SourceField,
	})
}

// Search runs a match query and returns up to limit results, best first.
// When opts is nil or both boosts are <= 1, a single match over all fields is used.
// Otherwise field and content queries run separately and are merged with additive
// scoring, a term coverage penalty, and a phrase proximity boost.
// Equal scores are ordered by node ID.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*KeywordResult, error) {
	if limit <= 0 || strings.TrimSpace(query) == "" {
		return nil, nil
	}
	fieldBoost := 1.0
	phraseBoost := 1.0
	fuzzyEnabled := false
	fuzziness := 2
	if opts != nil {
		if opts.FieldBoost > 0 {
			fieldBoost = opts.FieldBoost
		}
		if opts.PhraseBoost > 0 {
			phraseBoost = opts.PhraseBoost
		}
		fuzzyEnabled = opts.FuzzyEnabled
		if opts.Fuzziness > 0 {
			fuzziness = opts.Fuzziness
		}
	}

	if fieldBoost <= 1.0 && phraseBoost <= 1.0 {
		return b.searchSingle(ctx, query, limit, fuzzyEnabled, fuzziness)
	}
	return b.searchWithBoosts(ctx, query, limit, fieldBoost, phraseBoost, fuzzyEnabled, fuzziness)
}

func (b *BleveIndex) searchSingle(ctx context.Context, query string, limit int, fuzzyEnabled bool, fuzziness int) ([]*KeywordResult, error) {
	var q blevequery.Query
	if fuzzyEnabled {
		q = buildFuzzyQuery(query, fuzziness, "")
	} else {
		q = bleve.NewMatchQuery(query)
	}
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	scores := make(map[string]float64, len(results.Hits))
	for _, hit := range results.Hits {
		scores[hit.ID] = hit.Score
	}
	return topResults(scores, limit), nil
}

func (b *BleveIndex) searchWithBoosts(ctx context.Context, query string, limit int, fieldBoost, phraseBoost float64, fuzzyEnabled bool, fuzziness int) ([]*KeywordResult, error) {
	reqSize := limit * 2
	if reqSize < 50 {
		reqSize = 50
	}
	terms := tokenizeQuery(query)
	numTerms := len(terms)

	var fieldQuery, contentQuery blevequery.Query
	if fuzzyEnabled {
		fieldQuery = buildFuzzyQuery(query, fuzziness, "field")
		contentQuery = buildFuzzyQuery(query, fuzziness, "content")
	} else {
		fq := bleve.NewMatchQuery(query)
		fq.SetField("field")
		fieldQuery = fq
		cq := bleve.NewMatchQuery(query)
		cq.SetField("content")
		contentQuery = cq
	}
	fieldHits, err := b.hitScores(ctx, fieldQuery, reqSize)
	if err != nil {
		return nil, fmt.Errorf("Bleve field search failed: %w", err)
	}
	contentHits, err := b.hitScores(ctx, contentQuery, reqSize)
	if err != nil {
		return nil, fmt.Errorf("Bleve content search failed: %w", err)
	}

	termCoverage := make(map[string]int)
	if numTerms > 1 {
		termCoverage = b.calculateTermCoverage(ctx, terms, reqSize, fuzzyEnabled, fuzziness)
	}
	phraseMatches := make(map[string]float64)
	if phraseBoost > 1.0 && numTerms > 1 {
		pq := bleve.NewMatchPhraseQuery(query)
		pq.SetField("content")
		if phraseMatches, err = b.hitScores(ctx, pq, reqSize); err != nil {
			phraseMatches = map[string]float64{}
		}
	}

	scores := make(map[string]float64)
	for id, s := range fieldHits {
		scores[id] += s * fieldBoost
	}
	for id, s := range contentHits {
		scores[id] += s
	}
	for id, base := range scores {
		// (matched/total)^2 so nodes matching every term outrank partial matches.
		coverageMultiplier := 1.0
		if numTerms > 1 {
			matched := termCoverage[id]
			if matched == 0 {
				matched = 1
			}
			coverage := float64(matched) / float64(numTerms)
			coverageMultiplier = coverage * coverage
		}
		phraseMultiplier := 1.0
		if _, ok := phraseMatches[id]; ok {
			phraseMultiplier = phraseBoost
		}
		scores[id] = base * coverageMultiplier * phraseMultiplier
	}
	return topResults(scores, limit), nil
}

func (b *BleveIndex) hitScores(ctx context.Context, q blevequery.Query, size int) (map[string]float64, error) {
	req := bleve.NewSearchRequest(q)
	req.Size = size
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(results.Hits))
	for _, hit := range results.Hits {
		out[hit.ID] = hit.Score
	}
	return out, nil
}

// calculateTermCoverage counts how many query terms each node matches.
func (b *BleveIndex) calculateTermCoverage(ctx context.Context, terms []string, reqSize int, fuzzyEnabled bool, fuzziness int) map[string]int {
	coverage := make(map[string]int)
	for _, term := range terms {
		var q blevequery.Query
		if fuzzyEnabled {
			fq := bleve.NewFuzzyQuery(term)
			fq.SetFuzziness(fuzziness)
			q = fq
		} else {
			q = bleve.NewMatchQuery(term)
		}
		hits, err := b.hitScores(ctx, q, reqSize)
		if err != nil {
			continue
		}
		for id := range hits {
			coverage[id]++
		}
	}
	return coverage
}

func topResults(scores map[string]float64, limit int) []*KeywordResult {
	out := make([]*KeywordResult, 0, len(scores))
	for id, score := range scores {
		out = append(out, &KeywordResult{ID: id, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// tokenizeQuery splits query into lowercase terms.
func tokenizeQuery(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// buildFuzzyQuery creates a disjunction of FuzzyQueries for each term in the query.
// If field is empty, searches all fields; otherwise restricts to the specified field.
func buildFuzzyQuery(queryStr string, fuzziness int, field string) blevequery.Query {
	terms := tokenizeQuery(queryStr)
	if len(terms) == 0 {
		mq := bleve.NewMatchQuery(queryStr)
		if field != "" {
			mq.SetField(field)
		}
		return mq
	}
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		if field != "" {
			fq.SetField(field)
		}
		queries = append(queries, fq)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// DocCount returns the total number of nodes in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
