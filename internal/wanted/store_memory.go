package wanted

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	casestore "casefile/internal/cases/store"
)

// MemoryStore is the in-memory Store used in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[uuid.UUID]*Entry)}
}

// JoinCaseTx registers entry writes for rollback with the case transaction;
// outside a joinable transaction the store is returned as-is.
func (s *MemoryStore) JoinCaseTx(tx casestore.Store) Store {
	if notifier, ok := tx.(casestore.TxRollbackNotifier); ok {
		return &memoryTxStore{MemoryStore: s, tx: notifier}
	}
	return s
}

func (s *MemoryStore) remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

// memoryTxStore undoes its writes when the joined case transaction rolls
// back.
type memoryTxStore struct {
	*MemoryStore
	tx casestore.TxRollbackNotifier
}

func (s *memoryTxStore) Create(ctx context.Context, entry *Entry) error {
	if err := s.MemoryStore.Create(ctx, entry); err != nil {
		return err
	}
	id := entry.ID
	s.tx.OnRollback(func() { s.remove(id) })
	return nil
}

func (s *MemoryStore) Create(ctx context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.entries {
		if existing.CaseID == entry.CaseID && existing.ParticipantID == entry.ParticipantID {
			return ErrDuplicate
		}
	}
	copied := *entry
	s.entries[entry.ID] = &copied
	return nil
}

func (s *MemoryStore) GetByCaseParticipant(ctx context.Context, caseID, participantID uuid.UUID) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.entries {
		if entry.CaseID == caseID && entry.ParticipantID == participantID {
			copied := *entry
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) List(ctx context.Context, status Status) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Entry
	for _, entry := range s.entries {
		if status != "" && entry.Status != status {
			continue
		}
		copied := *entry
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MarkedAt.Before(out[j].MarkedAt) })
	return out, nil
}

func (s *MemoryStore) PromoteOlderThan(ctx context.Context, cutoff, promotedAt time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	promoted := 0
	for _, entry := range s.entries {
		if entry.Status != StatusWanted || entry.MarkedAt.After(cutoff) {
			continue
		}
		entry.Status = StatusMostWanted
		stamped := promotedAt
		entry.PromotedAt = &stamped
		promoted++
	}
	return promoted, nil
}
