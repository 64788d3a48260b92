package memory

import (
	"context"
	"sync"

	"kabraji/internal/domain"
)

// Store is a Gateway that keeps the saved snapshot in process memory.
type Store struct {
	mu       sync.RWMutex
	snapshot domain.Snapshot
	saves    int
}

func New() *Store {
	return &Store{}
}

// NewWithSnapshot returns a store that loads the given state.
func NewWithSnapshot(snapshot domain.Snapshot) *Store {
	return &Store{snapshot: snapshot.Clone()}
}

func (s *Store) Load(_ context.Context) (domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshot.Clone(), nil
}

func (s *Store) Save(_ context.Context, snapshot domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = snapshot.Clone()
	s.saves++
	return nil
}

// Saves reports how many times Save has been called.
func (s *Store) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.saves
}
