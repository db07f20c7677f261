package judiciary

import (
	"context"
	"errors"

	"github.com/google/uuid"

	casestore "casefile/internal/cases/store"
)

var (
	ErrNotFound  = errors.New("judiciary store: not found")
	ErrDuplicate = errors.New("judiciary store: duplicate")
)

// VerdictStore persists case verdicts, at most one per case.
type VerdictStore interface {
	Create(ctx context.Context, v *CaseVerdict) error
	GetByCase(ctx context.Context, caseID uuid.UUID) (*CaseVerdict, error)
	// JoinCaseTx returns a variant whose writes run inside the given case
	// transaction and roll back with it.
	JoinCaseTx(tx casestore.Store) VerdictStore
}
