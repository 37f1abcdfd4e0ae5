package teams

import (
	"context"
	"sort"
	"sync"
)

// Store persists the teams collection.
type Store interface {
	Upsert(ctx context.Context, t Team) error
	List(ctx context.Context) ([]Team, error)
}

// MemoryStore keeps teams in memory, for tests and database-less runs.
type MemoryStore struct {
	mu    sync.RWMutex
	teams map[string]Team
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{teams: map[string]Team{}}
}

func (s *MemoryStore) Upsert(ctx context.Context, t Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams[t.ID] = t
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Team, 0, len(s.teams))
	for _, t := range s.teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
