package judiciary

import (
	"context"
	"sync"

	"github.com/google/uuid"

	casestore "casefile/internal/cases/store"
)

// MemoryVerdictStore is the in-memory VerdictStore used in tests.
type MemoryVerdictStore struct {
	mu       sync.RWMutex
	verdicts map[uuid.UUID]*CaseVerdict // keyed by case ID
}

func NewMemoryVerdictStore() *MemoryVerdictStore {
	return &MemoryVerdictStore{verdicts: make(map[uuid.UUID]*CaseVerdict)}
}

// JoinCaseTx registers verdict writes for rollback with the case
// transaction; outside a joinable transaction the store is returned as-is.
func (s *MemoryVerdictStore) JoinCaseTx(tx casestore.Store) VerdictStore {
	if notifier, ok := tx.(casestore.TxRollbackNotifier); ok {
		return &memoryTxVerdictStore{MemoryVerdictStore: s, tx: notifier}
	}
	return s
}

func (s *MemoryVerdictStore) Create(ctx context.Context, v *CaseVerdict) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.verdicts[v.CaseID]; exists {
		return ErrDuplicate
	}
	copied := *v
	s.verdicts[v.CaseID] = &copied
	return nil
}

func (s *MemoryVerdictStore) GetByCase(ctx context.Context, caseID uuid.UUID) (*CaseVerdict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.verdicts[caseID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *v
	return &copied, nil
}

func (s *MemoryVerdictStore) remove(caseID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.verdicts, caseID)
}

// memoryTxVerdictStore undoes its writes when the joined case transaction
// rolls back.
type memoryTxVerdictStore struct {
	*MemoryVerdictStore
	tx casestore.TxRollbackNotifier
}

func (s *memoryTxVerdictStore) Create(ctx context.Context, v *CaseVerdict) error {
	if err := s.MemoryVerdictStore.Create(ctx, v); err != nil {
		return err
	}
	caseID := v.CaseID
	s.tx.OnRollback(func() { s.remove(caseID) })
	return nil
}
