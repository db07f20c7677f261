package timeline

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps events in memory for tests.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(ctx context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *MemoryStore) ListByCase(ctx context.Context, caseID uuid.UUID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, event := range s.events {
		if event.CaseID != nil && *event.CaseID == caseID {
			out = append(out, event)
		}
	}
	return out, nil
}

// All returns every recorded event in append order.
func (s *MemoryStore) All() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
