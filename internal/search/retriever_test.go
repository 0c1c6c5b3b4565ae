package search

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/hyperjump/icebreaker/internal/embedding"
	"github.com/hyperjump/icebreaker/internal/models"
	"github.com/hyperjump/icebreaker/internal/vector"
)

func buildIndex(t *testing.T, emb embedding.Embedder, texts ...string) *vector.Index {
	t.Helper()
	ctx := context.Background()
	nodes := make([]models.EmbeddedNode, len(texts))
	for i, text := range texts {
		v, err := emb.Embed(ctx, text)
		if err != nil {
			t.Fatal(err)
		}
		nodes[i] = models.EmbeddedNode{
			Node:      &models.Node{ID: fmt.Sprintf("ns:%d", i), Text: text},
			Embedding: v,
		}
	}
	idx, err := vector.New(ctx, "ns", emb.Name(), emb.Dimensions(), nodes)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func nodeIDs(results []*models.RankedNode) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Node.ID
	}
	return out
}

var profileTexts = []string{
	"Jane studied chemistry at Oxford.",
	"Jane works as Senior Engineer at Acme since 2020, current role.",
	"Jane's skills include: Go, Kubernetes.",
	"Jane enjoys climbing and photography.",
}

func TestRetriever_CurrentRole(t *testing.T) {
	emb := embedding.NewHashEmbedder(1024)
	idx := buildIndex(t, emb, profileTexts...)
	r := NewRetriever(emb)
	results, err := r.Retrieve(context.Background(), idx, "What is this person's current role?", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 || results[0].Node.ID != "ns:1" {
		t.Fatalf("top result = %v, want ns:1", nodeIDs(results))
	}
	if results[0].Lexical {
		t.Error("vector result should not be marked lexical")
	}
}

func TestRetriever_Deterministic(t *testing.T) {
	emb := embedding.NewHashEmbedder(64)
	idx := buildIndex(t, emb, profileTexts...)
	r := NewRetriever(emb)
	ctx := context.Background()
	first, err := r.Retrieve(ctx, idx, "skills Go", 4)
	if err != nil {
		t.Fatal(err)
	}
	want := nodeIDs(first)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := r.Retrieve(ctx, idx, "skills Go", 4)
			if err != nil {
				errs <- err
				return
			}
			if !reflect.DeepEqual(nodeIDs(got), want) {
				errs <- fmt.Errorf("order %v, want %v", nodeIDs(got), want)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestRetriever_TopKBound(t *testing.T) {
	emb := embedding.NewHashEmbedder(32)
	idx := buildIndex(t, emb, profileTexts[:2]...)
	r := NewRetriever(emb, WithDefaultTopK(1))
	ctx := context.Background()
	for k, want := range map[int]int{0: 1, 1: 1, 2: 2, 5: 2} {
		got, err := r.Retrieve(ctx, idx, "engineer", k)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != want {
			t.Errorf("k=%d: got %d results, want %d", k, len(got), want)
		}
	}
}

func TestRetriever_ModelMismatch(t *testing.T) {
	idx := buildIndex(t, embedding.NewHashEmbedder(32), profileTexts...)
	r := NewRetriever(embedding.NewHashEmbedder(16))
	if _, err := r.Retrieve(context.Background(), idx, "engineer", 3); !errors.Is(err, ErrModelMismatch) {
		t.Errorf("err = %v, want ErrModelMismatch", err)
	}
	if _, err := r.Retrieve(context.Background(), nil, "engineer", 3); !errors.Is(err, ErrNoIndex) {
		t.Errorf("err = %v, want ErrNoIndex", err)
	}
}

func TestRetriever_ZeroVectorFallsBackToKeywords(t *testing.T) {
	emb := embedding.NewHashEmbedder(32)
	idx := buildIndex(t, emb, profileTexts...)
	r := NewRetriever(emb)
	results, err := r.Retrieve(context.Background(), idx, "?!", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || !results[0].Lexical {
		t.Errorf("expected 2 lexical results, got %+v", results)
	}
	if results[0].Node.ID != "ns:0" {
		t.Errorf("no keyword match should keep insertion order, got %v", nodeIDs(results))
	}
}

type downEmbedder struct{ *embedding.HashEmbedder }

func (d downEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, fmt.Errorf("dial tcp: %w", embedding.ErrUnavailable)
}

func TestRetriever_UnavailableFallsBackToKeywords(t *testing.T) {
	hash := embedding.NewHashEmbedder(32)
	idx := buildIndex(t, hash, profileTexts...)
	down := downEmbedder{hash}

	results, err := NewRetriever(down).Retrieve(context.Background(), idx, "Kubernetes", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Node.ID != "ns:2" || !results[0].Lexical {
		t.Errorf("results = %+v", results)
	}

	_, err = NewRetriever(down, WithLexicalFallback(false)).Retrieve(context.Background(), idx, "Kubernetes", 1)
	if !errors.Is(err, embedding.ErrUnavailable) {
		t.Errorf("without fallback err = %v", err)
	}
}

func TestNormalizeQuery(t *testing.T) {
	if got := NormalizeQuery("  what\n is   this? "); got != "what is this?" {
		t.Errorf("NormalizeQuery = %q", got)
	}
}
