package api

import (
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/james-see/beatline/pkg/model"
)

// ErrNotFound is returned for an id the store does not hold
var ErrNotFound = errors.New("composition not found")

// Store keeps compositions in memory, keyed by a random id. Access to a
// single composition is serialized; different compositions proceed in
// parallel.
type Store struct {
	mu    sync.RWMutex
	songs map[uuid.UUID]*entry
}

type entry struct {
	mu sync.Mutex
	c  *model.Composition
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{songs: make(map[uuid.UUID]*entry)}
}

// Add stores c under a new id
func (s *Store) Add(c *model.Composition) uuid.UUID {
	id := uuid.New()
	s.mu.Lock()
	s.songs[id] = &entry{c: c}
	s.mu.Unlock()
	return id
}

// Delete drops the composition with id
func (s *Store) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.songs[id]; !ok {
		return ErrNotFound
	}
	delete(s.songs, id)
	return nil
}

// IDs lists every stored id in a stable order
func (s *Store) IDs() []uuid.UUID {
	s.mu.RLock()
	ids := make([]uuid.UUID, 0, len(s.songs))
	for id := range s.songs {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return strings.Compare(a.String(), b.String())
	})
	return ids
}

// With runs fn while holding the composition with id
func (s *Store) With(id uuid.UUID, fn func(*model.Composition) error) error {
	s.mu.RLock()
	e, ok := s.songs[id]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.c)
}
