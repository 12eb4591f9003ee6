package repository

import (
	"context"
	"sync"
)

// MemoryConsumedStore is the in-process idempotence guard. It remembers
// every signal ID handed to the executor for the lifetime of the process.
type MemoryConsumedStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryConsumedStore() *MemoryConsumedStore {
	return &MemoryConsumedStore{seen: make(map[string]struct{})}
}

func (s *MemoryConsumedStore) MarkConsumed(_ context.Context, signalID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[signalID]; ok {
		return false, nil
	}
	s.seen[signalID] = struct{}{}
	return true, nil
}
