package payments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("payments: not found")
	ErrDuplicate = errors.New("payments: duplicate")
)

// Store persists payment transactions.
type Store interface {
	Create(ctx context.Context, tx *Transaction) error
	Get(ctx context.Context, id uuid.UUID) (*Transaction, error)
	Update(ctx context.Context, tx *Transaction) error
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]*Transaction, error)

	// FailPendingOlderThan marks every pending transaction created before
	// cutoff as failed and returns how many were updated.
	FailPendingOlderThan(ctx context.Context, cutoff, failedAt time.Time) (int, error)
}
