package investigation

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is the in-memory Store used in tests.
type MemoryStore struct {
	mu             sync.RWMutex
	assessments    map[uuid.UUID]*SuspectAssessment
	scores         map[uuid.UUID][]*ScoreEntry
	arrests        map[uuid.UUID]*ArrestOrder
	interrogations map[uuid.UUID]*InterrogationOrder
	reasonings     map[uuid.UUID]*ReasoningSubmission
	approvals      map[uuid.UUID]*ReasoningApproval
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		assessments:    make(map[uuid.UUID]*SuspectAssessment),
		scores:         make(map[uuid.UUID][]*ScoreEntry),
		arrests:        make(map[uuid.UUID]*ArrestOrder),
		interrogations: make(map[uuid.UUID]*InterrogationOrder),
		reasonings:     make(map[uuid.UUID]*ReasoningSubmission),
		approvals:      make(map[uuid.UUID]*ReasoningApproval),
	}
}

func (s *MemoryStore) CreateAssessment(ctx context.Context, a *SuspectAssessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.assessments {
		if existing.CaseID == a.CaseID && existing.ParticipantID == a.ParticipantID {
			return ErrDuplicate
		}
	}
	copied := *a
	s.assessments[a.ID] = &copied
	return nil
}

func (s *MemoryStore) GetAssessment(ctx context.Context, id uuid.UUID) (*SuspectAssessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assessments[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (s *MemoryStore) ListAssessmentsByCase(ctx context.Context, caseID uuid.UUID) ([]*SuspectAssessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*SuspectAssessment
	for _, a := range s.assessments {
		if a.CaseID == caseID {
			copied := *a
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) AppendScore(ctx context.Context, entry *ScoreEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *entry
	s.scores[entry.AssessmentID] = append(s.scores[entry.AssessmentID], &copied)
	return nil
}

func (s *MemoryStore) ListScores(ctx context.Context, assessmentID uuid.UUID) ([]*ScoreEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.scores[assessmentID]
	out := make([]*ScoreEntry, 0, len(entries))
	for _, entry := range entries {
		copied := *entry
		out = append(out, &copied)
	}
	return out, nil
}

func (s *MemoryStore) CreateArrestOrder(ctx context.Context, order *ArrestOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *order
	s.arrests[order.ID] = &copied
	return nil
}

func (s *MemoryStore) GetArrestOrder(ctx context.Context, id uuid.UUID) (*ArrestOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.arrests[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (s *MemoryStore) UpdateArrestOrder(ctx context.Context, order *ArrestOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.arrests[order.ID]; !ok {
		return ErrNotFound
	}
	copied := *order
	s.arrests[order.ID] = &copied
	return nil
}

func (s *MemoryStore) ListArrestOrdersByCase(ctx context.Context, caseID uuid.UUID) ([]*ArrestOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*ArrestOrder
	for _, order := range s.arrests {
		if order.CaseID == caseID {
			copied := *order
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssuedAt.After(out[j].IssuedAt) })
	return out, nil
}

func (s *MemoryStore) CreateInterrogationOrder(ctx context.Context, order *InterrogationOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *order
	s.interrogations[order.ID] = &copied
	return nil
}

func (s *MemoryStore) GetInterrogationOrder(ctx context.Context, id uuid.UUID) (*InterrogationOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.interrogations[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (s *MemoryStore) UpdateInterrogationOrder(ctx context.Context, order *InterrogationOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.interrogations[order.ID]; !ok {
		return ErrNotFound
	}
	copied := *order
	s.interrogations[order.ID] = &copied
	return nil
}

func (s *MemoryStore) ListInterrogationOrdersByCase(ctx context.Context, caseID uuid.UUID) ([]*InterrogationOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*InterrogationOrder
	for _, order := range s.interrogations {
		if order.CaseID == caseID {
			copied := *order
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderedAt.After(out[j].OrderedAt) })
	return out, nil
}

func (s *MemoryStore) CreateReasoning(ctx context.Context, r *ReasoningSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *r
	s.reasonings[r.ID] = &copied
	return nil
}

func (s *MemoryStore) GetReasoning(ctx context.Context, id uuid.UUID) (*ReasoningSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reasonings[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (s *MemoryStore) UpdateReasoning(ctx context.Context, r *ReasoningSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reasonings[r.ID]; !ok {
		return ErrNotFound
	}
	copied := *r
	s.reasonings[r.ID] = &copied
	return nil
}

func (s *MemoryStore) CreateReasoningApproval(ctx context.Context, a *ReasoningApproval) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.approvals {
		if existing.ReasoningID == a.ReasoningID {
			return ErrDuplicate
		}
	}
	copied := *a
	s.approvals[a.ID] = &copied
	return nil
}
