package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/hyperjump/icebreaker/internal/models"
)

func TestSQLiteStore_Sessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "transcript.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	rec := &models.SessionRecord{ID: "s1", ProfileName: "Jane Doe", Model: "gemini-2.5-flash", Nodes: 7}
	if err := store.RecordSession(ctx, rec); err != nil {
		t.Fatal(err)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	got, err := store.GetSession(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if got.ProfileName != "Jane Doe" || got.Model != "gemini-2.5-flash" || got.Nodes != 7 {
		t.Errorf("got %+v", got)
	}

	if _, err := store.GetSession(ctx, "missing"); !errors.Is(err, ErrSessionNotRecorded) {
		t.Errorf("err = %v, want ErrSessionNotRecorded", err)
	}
	if err := store.RecordSession(ctx, &models.SessionRecord{ID: "s1", Model: "m"}); err == nil {
		t.Error("duplicate session id should fail")
	}

	n, err := store.CountSessions(ctx)
	if err != nil || n != 1 {
		t.Errorf("CountSessions: %v, %d", err, n)
	}
	if size, err := store.DiskUsage(); err != nil || size == 0 {
		t.Errorf("DiskUsage: %v, %d", err, size)
	}
}

func TestSQLiteStore_Turns(t *testing.T) {
	store, err := NewSQLiteStore(MemoryPath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	_ = store.RecordSession(ctx, &models.SessionRecord{ID: "a", Model: "m"})
	_ = store.RecordSession(ctx, &models.SessionRecord{ID: "b", Model: "m"})

	summary := &models.Turn{SessionID: "a", Kind: "summary", Answer: "1. fact", Outcome: "ok"}
	if err := store.RecordTurn(ctx, summary); err != nil {
		t.Fatal(err)
	}
	if summary.ID == 0 {
		t.Error("turn ID should be set")
	}
	for i := range 3 {
		turn := &models.Turn{SessionID: "a", Kind: "answer", Question: fmt.Sprintf("q%d", i), Answer: "x", Outcome: "ok"}
		if err := store.RecordTurn(ctx, turn); err != nil {
			t.Fatal(err)
		}
	}
	_ = store.RecordTurn(ctx, &models.Turn{SessionID: "b", Kind: "answer", Question: "other", Answer: "y", Outcome: "failed"})

	turns, err := store.ListTurns(ctx, "a", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 4 {
		t.Fatalf("expected 4 turns, got %d", len(turns))
	}
	if turns[0].Kind != "summary" || turns[0].Question != "" || turns[3].Question != "q2" {
		t.Errorf("turns out of order: %+v", turns)
	}

	page, _ := store.ListTurns(ctx, "a", 1, 2)
	if len(page) != 2 || page[0].Question != "q0" || page[1].Question != "q1" {
		t.Errorf("page = %+v", page)
	}

	none, err := store.ListTurns(ctx, "unknown", 0, 10)
	if err != nil || len(none) != 0 {
		t.Errorf("unknown session: %v, %d turns", err, len(none))
	}

	n, _ := store.CountTurns(ctx)
	if n != 5 {
		t.Errorf("CountTurns = %d, want 5", n)
	}
	if size, _ := store.DiskUsage(); size != 0 {
		t.Errorf("in-memory DiskUsage = %d", size)
	}
}

func TestNop(t *testing.T) {
	var tr Transcript = Nop{}
	ctx := context.Background()
	if err := tr.RecordTurn(ctx, &models.Turn{SessionID: "a"}); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.GetSession(ctx, "a"); !errors.Is(err, ErrSessionNotRecorded) {
		t.Errorf("err = %v", err)
	}
	if turns, _ := tr.ListTurns(ctx, "a", 0, 0); len(turns) != 0 {
		t.Errorf("Nop returned turns")
	}
}
