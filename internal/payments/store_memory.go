package payments

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is the in-memory Store used in tests.
type MemoryStore struct {
	mu           sync.RWMutex
	transactions map[uuid.UUID]*Transaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{transactions: make(map[uuid.UUID]*Transaction)}
}

func copyTransaction(tx *Transaction) *Transaction {
	copied := *tx
	if tx.CallbackData != nil {
		copied.CallbackData = maps.Clone(tx.CallbackData)
	}
	return &copied
}

func (s *MemoryStore) Create(ctx context.Context, tx *Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[tx.ID]; ok {
		return ErrDuplicate
	}
	s.transactions[tx.ID] = copyTransaction(tx)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.transactions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyTransaction(tx), nil
}

func (s *MemoryStore) Update(ctx context.Context, tx *Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[tx.ID]; !ok {
		return ErrNotFound
	}
	s.transactions[tx.ID] = copyTransaction(tx)
	return nil
}

func (s *MemoryStore) ListByCase(ctx context.Context, caseID uuid.UUID) ([]*Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Transaction
	for _, tx := range s.transactions {
		if tx.CaseID == caseID {
			out = append(out, copyTransaction(tx))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) FailPendingOlderThan(ctx context.Context, cutoff, failedAt time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	failed := 0
	for _, tx := range s.transactions {
		if tx.Status != StatusPending || !tx.CreatedAt.Before(cutoff) {
			continue
		}
		tx.Status = StatusFailed
		tx.UpdatedAt = failedAt
		failed++
	}
	return failed, nil
}
