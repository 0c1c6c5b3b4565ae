package embedding

import (
	"context"
	"testing"

	"github.com/hyperjump/icebreaker/pkg/utils"
)

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := NewHashEmbedder(64)
	ctx := context.Background()
	a, err := e.Embed(ctx, "Senior Engineer at Acme")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := e.Embed(ctx, "senior engineer, at ACME")
	if len(a) != 64 {
		t.Fatalf("len = %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embedding differs at %d: case and punctuation should not matter", i)
		}
	}
}

func TestHashEmbedder_SharedVocabularyIsCloser(t *testing.T) {
	e := NewHashEmbedder(256)
	ctx := context.Background()
	q, _ := e.Embed(ctx, "current role engineer")
	near, _ := e.Embed(ctx, "Senior Engineer at Acme, current role")
	far, _ := e.Embed(ctx, "Studied biology at a university")
	if dot(q, near) <= dot(q, far) {
		t.Errorf("expected shared terms to score higher: near=%f far=%f", dot(q, near), dot(q, far))
	}
}

func TestHashEmbedder_EmptyTextIsZero(t *testing.T) {
	e := NewHashEmbedder(8)
	v, err := e.Embed(context.Background(), "  ?! ")
	if err != nil {
		t.Fatal(err)
	}
	if !utils.IsZeroVector(v) {
		t.Errorf("expected zero vector, got %v", v)
	}
}

func TestHashEmbedder_Metadata(t *testing.T) {
	e := NewHashEmbedder(0)
	if e.Dimensions() != 384 {
		t.Errorf("default dimensions = %d", e.Dimensions())
	}
	if e.Name() != "hash-384" {
		t.Errorf("Name = %q", e.Name())
	}
	out, err := e.EmbedBatch(context.Background(), []string{"a", "b"})
	if err != nil || len(out) != 2 {
		t.Fatalf("EmbedBatch = %v, %v", out, err)
	}
}

func TestHashEmbedder_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewHashEmbedder(8).Embed(ctx, "x"); err == nil {
		t.Error("expected error on canceled context")
	}
}
