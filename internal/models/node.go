package models

// NodeMetadata records where a node's text came from.
type NodeMetadata struct {
	SourceField string `json:"source_field"`
	ProfileName string `json:"profile_name,omitempty"`
}

// Node is a chunked, independently retrievable unit of profile text.
type Node struct {
	ID         string       `json:"id"`
	Text       string       `json:"text"`
	Metadata   NodeMetadata `json:"metadata"`
	ChunkIndex int          `json:"chunk_index"` // position within its source field
}

// EmbeddedNode is a Node paired with its embedding. Embedding is nil when the
// provider failed for this node.
type EmbeddedNode struct {
	Node      *Node     `json:"node"`
	Embedding []float32 `json:"-"`
}

// RankedNode is a retrieval hit.
type RankedNode struct {
	Node  *Node   `json:"node"`
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
	// Lexical is set when the hit came from the keyword fallback rather than vector similarity.
	Lexical bool `json:"lexical,omitempty"`
}
