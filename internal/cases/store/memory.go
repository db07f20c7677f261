package store

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"casefile/internal/cases/models"
)

// Memory is the in-memory Store used by service tests. InTx serializes
// transactions with a dedicated mutex so concurrent workflows observe the
// same exclusion guarantees the SQL store gets from row locks, and a
// failed callback restores the pre-transaction state.
type Memory struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	cases        map[uuid.UUID]*models.Case
	participants map[uuid.UUID]*models.CaseParticipant
	complaints   map[uuid.UUID]*models.Complaint
	counters     map[uuid.UUID]*models.ValidationCounter
	reviews      map[uuid.UUID][]*models.ComplaintReview
	sceneReports map[uuid.UUID]*models.SceneCaseReport // keyed by case ID
}

// NewMemory creates an empty in-memory case store.
func NewMemory() *Memory {
	return &Memory{
		cases:        make(map[uuid.UUID]*models.Case),
		participants: make(map[uuid.UUID]*models.CaseParticipant),
		complaints:   make(map[uuid.UUID]*models.Complaint),
		counters:     make(map[uuid.UUID]*models.ValidationCounter),
		reviews:      make(map[uuid.UUID][]*models.ComplaintReview),
		sceneReports: make(map[uuid.UUID]*models.SceneCaseReport),
	}
}

// memorySnapshot captures the store state at transaction start. Entries are
// never mutated in place, so cloning the maps is enough.
type memorySnapshot struct {
	cases        map[uuid.UUID]*models.Case
	participants map[uuid.UUID]*models.CaseParticipant
	complaints   map[uuid.UUID]*models.Complaint
	counters     map[uuid.UUID]*models.ValidationCounter
	reviews      map[uuid.UUID][]*models.ComplaintReview
	sceneReports map[uuid.UUID]*models.SceneCaseReport
}

// memoryTx is the Store handed to an InTx callback. Sibling stores joining
// the transaction register compensations through OnRollback.
type memoryTx struct {
	*Memory
	undos []func()
}

func (t *memoryTx) OnRollback(undo func()) { t.undos = append(t.undos, undo) }

func (s *Memory) InTx(ctx context.Context, fn func(Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snap := s.snapshot()
	tx := &memoryTx{Memory: s}
	if err := fn(tx); err != nil {
		s.restore(snap)
		for i := len(tx.undos) - 1; i >= 0; i-- {
			tx.undos[i]()
		}
		return err
	}
	return nil
}

func (s *Memory) snapshot() memorySnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return memorySnapshot{
		cases:        maps.Clone(s.cases),
		participants: maps.Clone(s.participants),
		complaints:   maps.Clone(s.complaints),
		counters:     maps.Clone(s.counters),
		reviews:      maps.Clone(s.reviews),
		sceneReports: maps.Clone(s.sceneReports),
	}
}

func (s *Memory) restore(snap memorySnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cases = snap.cases
	s.participants = snap.participants
	s.complaints = snap.complaints
	s.counters = snap.counters
	s.reviews = snap.reviews
	s.sceneReports = snap.sceneReports
}

func (s *Memory) CreateCase(ctx context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.cases {
		if existing.CaseNumber == c.CaseNumber {
			return ErrDuplicate
		}
	}
	copied := *c
	s.cases[c.ID] = &copied
	return nil
}

func (s *Memory) GetCase(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *Memory) GetCaseForUpdate(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	// Exclusion comes from the InTx mutex.
	return s.GetCase(ctx, id)
}

func (s *Memory) UpdateCase(ctx context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[c.ID]; !ok {
		return ErrNotFound
	}
	copied := *c
	s.cases[c.ID] = &copied
	return nil
}

func (s *Memory) ListCases(ctx context.Context, filter Filter) ([]*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Case
	for _, c := range s.cases {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.SourceType != "" && c.SourceType != filter.SourceType {
			continue
		}
		if filter.Level != "" && c.Level != filter.Level {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(c.Title), needle) &&
				!strings.Contains(strings.ToLower(c.Summary), needle) &&
				!strings.Contains(strings.ToLower(c.CaseNumber), needle) {
				continue
			}
		}
		copied := *c
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Memory) CreateParticipant(ctx context.Context, p *models.CaseParticipant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.participants {
		if existing.CaseID != p.CaseID || existing.RoleInCase != p.RoleInCase {
			continue
		}
		if p.UserID != nil && existing.UserID != nil && *existing.UserID == *p.UserID {
			return ErrDuplicate
		}
		if p.UserID == nil && existing.UserID == nil &&
			p.NationalID != "" && existing.NationalID == p.NationalID {
			return ErrDuplicate
		}
	}
	copied := *p
	s.participants[p.ID] = &copied
	return nil
}

func (s *Memory) GetParticipant(ctx context.Context, id uuid.UUID) (*models.CaseParticipant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.participants[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (s *Memory) ListParticipants(ctx context.Context, caseID uuid.UUID) ([]*models.CaseParticipant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.CaseParticipant
	for _, p := range s.participants {
		if p.CaseID == caseID {
			copied := *p
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Memory) CreateComplaint(ctx context.Context, c *models.Complaint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *c
	s.complaints[c.ID] = &copied
	return nil
}

func (s *Memory) GetComplaint(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.complaints[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *Memory) GetComplaintForUpdate(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	return s.GetComplaint(ctx, id)
}

func (s *Memory) UpdateComplaint(ctx context.Context, c *models.Complaint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.complaints[c.ID]; !ok {
		return ErrNotFound
	}
	copied := *c
	s.complaints[c.ID] = &copied
	return nil
}

func (s *Memory) ListComplaints(ctx context.Context, complainantID *uuid.UUID) ([]*models.Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Complaint
	for _, c := range s.complaints {
		if complainantID != nil {
			if c.ComplainantID == nil || *c.ComplainantID != *complainantID {
				continue
			}
		}
		copied := *c
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Memory) GetValidationCounter(ctx context.Context, complaintID uuid.UUID) (*models.ValidationCounter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counter, ok := s.counters[complaintID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *counter
	return &copied, nil
}

func (s *Memory) UpsertValidationCounter(ctx context.Context, counter *models.ValidationCounter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *counter
	copied.UpdatedAt = time.Now()
	s.counters[counter.ComplaintID] = &copied
	return nil
}

func (s *Memory) AppendReview(ctx context.Context, review *models.ComplaintReview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *review
	s.reviews[review.ComplaintID] = append(s.reviews[review.ComplaintID], &copied)
	return nil
}

func (s *Memory) ListReviews(ctx context.Context, complaintID uuid.UUID) ([]*models.ComplaintReview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reviews := s.reviews[complaintID]
	out := make([]*models.ComplaintReview, 0, len(reviews))
	for _, review := range reviews {
		copied := *review
		out = append(out, &copied)
	}
	return out, nil
}

func (s *Memory) CreateSceneReport(ctx context.Context, report *models.SceneCaseReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sceneReports[report.CaseID]; exists {
		return ErrDuplicate
	}
	copied := *report
	s.sceneReports[report.CaseID] = &copied
	return nil
}

func (s *Memory) GetSceneReportByCase(ctx context.Context, caseID uuid.UUID) (*models.SceneCaseReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.sceneReports[caseID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *report
	return &copied, nil
}

func (s *Memory) UpdateSceneReport(ctx context.Context, report *models.SceneCaseReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sceneReports[report.CaseID]; !ok {
		return ErrNotFound
	}
	copied := *report
	s.sceneReports[report.CaseID] = &copied
	return nil
}
