package telemetry

import (
	"context"
	"sort"
	"sync"
)

// Store persists telemetry batches.
type Store interface {
	InsertBatch(ctx context.Context, b Batch) error
	ListBatches(ctx context.Context, limit int) ([]Batch, error)
}

// MemoryStore keeps batches in memory. Used in tests and when the service
// runs without a database.
type MemoryStore struct {
	mu      sync.RWMutex
	batches []Batch
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) InsertBatch(ctx context.Context, b Batch) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, b)
	return nil
}

func (s *MemoryStore) ListBatches(ctx context.Context, limit int) ([]Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Batch, len(s.batches))
	copy(out, s.batches)
	sort.Slice(out, func(i, j int) bool {
		return out[i].RecordedAt.After(out[j].RecordedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
