package rwa

import (
	"context"
	"sort"
	"sync"
)

// Store persists the rwas collection.
type Store interface {
	Upsert(ctx context.Context, a Asset) error
	List(ctx context.Context) ([]Asset, error)
}

// MemoryStore keeps assets in memory, for tests and database-less runs.
type MemoryStore struct {
	mu     sync.RWMutex
	assets map[string]Asset
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{assets: map[string]Asset{}}
}

func (s *MemoryStore) Upsert(ctx context.Context, a Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[a.ID] = a
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Asset, 0, len(s.assets))
	for _, a := range s.assets {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
