package listing

import (
	"context"
	"sync"

	"github.com/fjod/go_market/internal/domain"
)

// MemoryStore implements Store with in-memory storage. The real catalog
// is owned by another service; this store is seeded at startup (or by
// tests) with the listings this process needs to resolve.
type MemoryStore struct {
	mu       sync.RWMutex
	listings map[string]*domain.Listing
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		listings: make(map[string]*domain.Listing),
	}
}

// Seed adds or replaces listings in the store.
func (s *MemoryStore) Seed(listings ...*domain.Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range listings {
		cp := *l
		s.listings[l.ID] = &cp
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*domain.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, exists := s.listings[id]
	if !exists {
		return nil, ErrListingNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *MemoryStore) GetMany(_ context.Context, ids []string) (map[string]*domain.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*domain.Listing, len(ids))
	for _, id := range ids {
		if l, exists := s.listings[id]; exists {
			cp := *l
			result[id] = &cp
		}
	}
	return result, nil
}
