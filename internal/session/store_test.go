package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/hyperjump/icebreaker/internal/vector"
)

func TestStore_CreateGet(t *testing.T) {
	s := NewStore()
	index := &vector.Index{}
	id := s.Create(index, Options{Model: "gemini-2.5-flash", ProfileName: "Jane"})

	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("id %q is not a uuid: %v", id, err)
	}
	sess, err := s.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	if sess.Index != index || sess.Model != "gemini-2.5-flash" || sess.ProfileName != "Jane" {
		t.Errorf("session = %+v", sess)
	}
	if sess.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestStore_NotFoundDistinctFromEmpty(t *testing.T) {
	s := NewStore()
	if _, err := s.Get("never-created"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
	if _, err := s.Get(""); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("empty id: err = %v", err)
	}

	id := s.Create(&vector.Index{}, Options{})
	sess, err := s.Get(id)
	if err != nil {
		t.Fatalf("session with empty index should be found: %v", err)
	}
	if sess.Index.Size() != 0 {
		t.Errorf("size = %d", sess.Index.Size())
	}
}

func TestStore_ConcurrentCreateGet(t *testing.T) {
	s := NewStore()
	const n = 50
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids[i] = s.Create(&vector.Index{}, Options{ProfileName: fmt.Sprint(i)})
			if _, err := s.Get(ids[i]); err != nil {
				t.Errorf("get after create: %v", err)
			}
		}()
	}
	wg.Wait()

	if s.Len() != n {
		t.Fatalf("Len = %d, want %d", s.Len(), n)
	}
	seen := make(map[string]bool, n)
	for i, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
		sess, _ := s.Get(id)
		if sess.ProfileName != fmt.Sprint(i) {
			t.Errorf("session %s has profile %q, want %d", id, sess.ProfileName, i)
		}
	}
	if got := s.IDs(); len(got) != n || got[0] > got[n-1] {
		t.Errorf("IDs not sorted or incomplete: %d", len(got))
	}
}
