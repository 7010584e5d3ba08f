// Package memory provides an in-memory DefinitionStore, the default store for
// tooling and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/cicerone-chat/cicerone/pkg/domain"
)

// Store implements ports.DefinitionStore with a mutex-guarded map.
type Store struct {
	mu   sync.RWMutex
	defs map[string]*domain.Definition
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{defs: make(map[string]*domain.Definition)}
}

// Save stores the definition by ID.
func (s *Store) Save(ctx context.Context, def *domain.Definition) error {
	if def == nil || def.ID == "" {
		return fmt.Errorf("definition has no id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defs[def.ID] = def
	return nil
}

// Load retrieves a definition by ID.
func (s *Store) Load(ctx context.Context, id string) (*domain.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.defs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDefinitionNotFound, id)
	}
	return def, nil
}

// Delete removes a definition; unknown IDs are a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.defs, id)
	return nil
}

// List returns the stored definition IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.defs))
	for id := range s.defs {
		ids = append(ids, id)
	}
	return ids, nil
}
