package investigation

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("investigation store: not found")
	ErrDuplicate = errors.New("investigation store: duplicate")
)

// Store persists assessments, orders and reasoning submissions.
type Store interface {
	CreateAssessment(ctx context.Context, a *SuspectAssessment) error
	GetAssessment(ctx context.Context, id uuid.UUID) (*SuspectAssessment, error)
	ListAssessmentsByCase(ctx context.Context, caseID uuid.UUID) ([]*SuspectAssessment, error)

	AppendScore(ctx context.Context, entry *ScoreEntry) error
	ListScores(ctx context.Context, assessmentID uuid.UUID) ([]*ScoreEntry, error)

	CreateArrestOrder(ctx context.Context, order *ArrestOrder) error
	GetArrestOrder(ctx context.Context, id uuid.UUID) (*ArrestOrder, error)
	UpdateArrestOrder(ctx context.Context, order *ArrestOrder) error
	ListArrestOrdersByCase(ctx context.Context, caseID uuid.UUID) ([]*ArrestOrder, error)

	CreateInterrogationOrder(ctx context.Context, order *InterrogationOrder) error
	GetInterrogationOrder(ctx context.Context, id uuid.UUID) (*InterrogationOrder, error)
	UpdateInterrogationOrder(ctx context.Context, order *InterrogationOrder) error
	ListInterrogationOrdersByCase(ctx context.Context, caseID uuid.UUID) ([]*InterrogationOrder, error)

	CreateReasoning(ctx context.Context, r *ReasoningSubmission) error
	GetReasoning(ctx context.Context, id uuid.UUID) (*ReasoningSubmission, error)
	UpdateReasoning(ctx context.Context, r *ReasoningSubmission) error
	CreateReasoningApproval(ctx context.Context, a *ReasoningApproval) error
}
