package engine

import (
	"context"
	"testing"
)

func BenchmarkIngest(b *testing.B) {
	e := newTestEngine(b)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Ingest(ctx, globex()); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAsk(b *testing.B) {
	e := newTestEngine(b)
	ctx := context.Background()
	res, err := e.Ingest(ctx, acme())
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = e.Ask(ctx, res.SessionID, "What is this person's current role?")
	}
}
