package rewards

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is the in-memory Store used in tests.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots []*Snapshot
	tips      map[uuid.UUID]*Tip
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tips: make(map[uuid.UUID]*Tip)}
}

func (s *MemoryStore) AppendSnapshot(ctx context.Context, snapshot *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *snapshot
	s.snapshots = append(s.snapshots, &copied)
	return nil
}

func (s *MemoryStore) ListSnapshots(ctx context.Context, nationalID string) ([]*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Snapshot
	for _, snapshot := range s.snapshots {
		if nationalID != "" && snapshot.NationalID != nationalID {
			continue
		}
		copied := *snapshot
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ComputedAt.After(out[j].ComputedAt) })
	return out, nil
}

func (s *MemoryStore) CreateTip(ctx context.Context, tip *Tip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *tip
	s.tips[tip.ID] = &copied
	return nil
}

func (s *MemoryStore) GetTip(ctx context.Context, id uuid.UUID) (*Tip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tip, ok := s.tips[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *tip
	return &copied, nil
}

func (s *MemoryStore) GetTipByClaimID(ctx context.Context, claimID string) (*Tip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, tip := range s.tips {
		if tip.RewardClaimID != "" && tip.RewardClaimID == claimID {
			copied := *tip
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateTip(ctx context.Context, tip *Tip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tips[tip.ID]; !ok {
		return ErrNotFound
	}
	copied := *tip
	s.tips[tip.ID] = &copied
	return nil
}

func (s *MemoryStore) ListTips(ctx context.Context, status TipStatus) ([]*Tip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Tip
	for _, tip := range s.tips {
		if status != "" && tip.Status != status {
			continue
		}
		copied := *tip
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
