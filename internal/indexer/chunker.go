// Package indexer turns a profile into nodes and builds the vector index for them.
package indexer

import (
	"fmt"
	"strings"

	"github.com/hyperjump/icebreaker/internal/models"
)

// EmptyProfileError is returned when a profile has no indexable text.
type EmptyProfileError struct {
	ProfileName string
}

func (e *EmptyProfileError) Error() string {
	if e.ProfileName != "" {
		return fmt.Sprintf("profile %q has no indexable content", e.ProfileName)
	}
	return "profile has no indexable content"
}

// Chunker splits serialized profile fields into overlapping word-based chunks.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given size and overlap (in words).
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Chunk serializes the profile and splits each field group into nodes. A group
// that fits in chunkSize words becomes one node; a longer group becomes windows
// of chunkSize words advancing by chunkSize-chunkOverlap, the last ending at the
// group's final word. Windows never span two groups.
// Node IDs are "<namespace>:<seq>" with seq counting from 0 across the profile.
func (c *Chunker) Chunk(namespace string, profile *models.ProfileRecord) ([]*models.Node, error) {
	p := profile.Clean()
	if p == nil {
		return nil, &EmptyProfileError{}
	}
	groups := serializeProfile(p)
	if len(groups) == 0 {
		return nil, &EmptyProfileError{ProfileName: p.FullName}
	}
	nodes := make([]*models.Node, 0, len(groups))
	for _, g := range groups {
		for chunkIndex, text := range c.split(g.text) {
			nodes = append(nodes, &models.Node{
				ID:   fmt.Sprintf("%s:%d", namespace, len(nodes)),
				Text: text,
				Metadata: models.NodeMetadata{
					SourceField: g.field,
					ProfileName: p.FullName,
				},
				ChunkIndex: chunkIndex,
			})
		}
	}
	return nodes, nil
}

// split returns the word windows of text.
func (c *Chunker) split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	size := c.chunkSize
	if size <= 0 || len(words) <= size {
		return []string{strings.Join(words, " ")}
	}
	step := size - c.chunkOverlap
	if step <= 0 {
		step = 1
	}
	var chunks []string
	for i := 0; i < len(words); i += step {
		end := i + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
		if end >= len(words) {
			break
		}
	}
	return chunks
}
