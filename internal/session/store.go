// Package session binds opaque session ids to the index built for one profile.
package session

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/icebreaker/internal/vector"
)

// ErrSessionNotFound is returned by Get for an id that was never created.
var ErrSessionNotFound = errors.New("session not found")

// Session is one ingested profile. It is never modified after Create.
type Session struct {
	ID          string
	Index       *vector.Index
	Model       string // generation model bound at ingest
	ProfileName string
	CreatedAt   time.Time
}

// Options carries the per-session values recorded at creation.
type Options struct {
	Model       string
	ProfileName string
}

// Store holds sessions for the life of the process. Entries are never evicted.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Create stores index under a fresh random id and returns it. The index must be
// fully built: the session is visible to Get as soon as Create returns.
func (s *Store) Create(index *vector.Index, opts Options) string {
	sess := &Session{
		ID:          uuid.NewString(),
		Index:       index,
		Model:       opts.Model,
		ProfileName: opts.ProfileName,
		CreatedAt:   s.now(),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess.ID
}

// Get returns the session for id, or ErrSessionNotFound. A session whose index
// has no nodes is still found.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Len returns the number of sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// IDs returns all session ids, sorted.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
