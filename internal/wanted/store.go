package wanted

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	casestore "casefile/internal/cases/store"
)

var (
	ErrNotFound  = errors.New("wanted store: not found")
	ErrDuplicate = errors.New("wanted store: duplicate")
)

// Store persists wanted entries.
type Store interface {
	Create(ctx context.Context, entry *Entry) error
	// JoinCaseTx returns a variant whose writes run inside the given case
	// transaction and roll back with it.
	JoinCaseTx(tx casestore.Store) Store
	GetByCaseParticipant(ctx context.Context, caseID, participantID uuid.UUID) (*Entry, error)
	List(ctx context.Context, status Status) ([]*Entry, error)
	// PromoteOlderThan promotes every plain wanted entry marked at or
	// before the cutoff and returns how many rows changed. Idempotent.
	PromoteOlderThan(ctx context.Context, cutoff, promotedAt time.Time) (int, error)
}
