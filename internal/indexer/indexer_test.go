package indexer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperjump/icebreaker/internal/embedding"
	"github.com/hyperjump/icebreaker/internal/models"
	"go.uber.org/zap"
)

// scriptedEmbedder wraps HashEmbedder and fails or distorts texts containing a marker.
type scriptedEmbedder struct {
	*embedding.HashEmbedder
	failOn string
	err    error
	short  string
	calls  atomic.Int32
}

func (s *scriptedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.calls.Add(1)
	if s.failOn != "" && strings.Contains(text, s.failOn) {
		return nil, s.err
	}
	v, err := s.HashEmbedder.Embed(ctx, text)
	if s.short != "" && strings.Contains(text, s.short) {
		return v[:len(v)-1], err
	}
	return v, err
}

func testNodes(texts ...string) []*models.Node {
	nodes := make([]*models.Node, len(texts))
	for i, t := range texts {
		nodes[i] = &models.Node{ID: fmt.Sprintf("ns:%d", i), Text: t, Metadata: models.NodeMetadata{SourceField: "summary"}}
	}
	return nodes
}

func TestBuildIndex_AllEmbedded(t *testing.T) {
	emb := embedding.NewHashEmbedder(16)
	idx := NewIndexer(emb, WithConcurrency(2), WithTimeout(time.Second), WithLogger(zap.NewNop()))
	index, err := idx.BuildIndex(context.Background(), "ns", testNodes("alpha", "beta", "gamma"))
	if err != nil {
		t.Fatal(err)
	}
	defer index.Close()
	if index.Size() != 3 || index.Model() != "hash-16" || index.Dimensions() != 16 {
		t.Errorf("size=%d model=%s dims=%d", index.Size(), index.Model(), index.Dimensions())
	}
	if !Verify(index) {
		t.Error("Verify should pass when every node is embedded")
	}
	for i, n := range index.Nodes() {
		if n.ID != fmt.Sprintf("ns:%d", i) {
			t.Errorf("node %d out of order: %s", i, n.ID)
		}
	}
}

func TestBuildIndex_PartialFailure(t *testing.T) {
	emb := &scriptedEmbedder{HashEmbedder: embedding.NewHashEmbedder(8), failOn: "beta", err: fmt.Errorf("boom: %w", embedding.ErrUnavailable)}
	index, err := NewIndexer(emb).BuildIndex(context.Background(), "ns", testNodes("alpha", "beta"))
	if err != nil {
		t.Fatalf("partial failure should still build: %v", err)
	}
	defer index.Close()
	if Verify(index) {
		t.Error("Verify should fail with a missing embedding")
	}
	if index.Deficient() != 1 || index.Size() != 2 {
		t.Errorf("deficient=%d size=%d", index.Deficient(), index.Size())
	}
}

func TestBuildIndex_WrongDimensionIsDeficient(t *testing.T) {
	emb := &scriptedEmbedder{HashEmbedder: embedding.NewHashEmbedder(8), short: "beta"}
	index, err := NewIndexer(emb).BuildIndex(context.Background(), "ns", testNodes("alpha", "beta"))
	if err != nil {
		t.Fatal(err)
	}
	defer index.Close()
	if Verify(index) || index.Deficient() != 1 {
		t.Errorf("short vector should be deficient, got %d", index.Deficient())
	}
}

func TestBuildIndex_AllFail(t *testing.T) {
	tests := []struct {
		name string
		emb  *scriptedEmbedder
		want error
	}{
		{"unreachable", &scriptedEmbedder{HashEmbedder: embedding.NewHashEmbedder(8), failOn: " ", err: fmt.Errorf("dial: %w", embedding.ErrUnavailable)}, embedding.ErrUnavailable},
		{"bad data", &scriptedEmbedder{HashEmbedder: embedding.NewHashEmbedder(8), short: " "}, embedding.ErrDimensionMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewIndexer(tt.emb).BuildIndex(context.Background(), "ns", testNodes("a b", "c d"))
			var buildErr *IndexBuildError
			if !errors.As(err, &buildErr) {
				t.Fatalf("err = %v, want *IndexBuildError", err)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want wrapped %v", err, tt.want)
			}
			if buildErr.Nodes != 2 {
				t.Errorf("Nodes = %d", buildErr.Nodes)
			}
		})
	}
}

func TestBuildIndex_BlankNodesNotEmbedded(t *testing.T) {
	emb := &scriptedEmbedder{HashEmbedder: embedding.NewHashEmbedder(8)}
	index, err := NewIndexer(emb).BuildIndex(context.Background(), "ns", testNodes("alpha", "   "))
	if err != nil {
		t.Fatal(err)
	}
	defer index.Close()
	if emb.calls.Load() != 1 {
		t.Errorf("provider calls = %d, want 1", emb.calls.Load())
	}
	if index.Deficient() != 1 {
		t.Errorf("blank node should be deficient")
	}

	_, err = NewIndexer(emb).BuildIndex(context.Background(), "ns", testNodes(" "))
	var emptyErr *EmptyProfileError
	if !errors.As(err, &emptyErr) {
		t.Errorf("err = %v, want *EmptyProfileError", err)
	}
}

func TestBuildIndex_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewIndexer(embedding.NewHashEmbedder(8)).BuildIndex(ctx, "ns", testNodes("alpha"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestVerify_Nil(t *testing.T) {
	if Verify(nil) {
		t.Error("nil index should not verify")
	}
}
