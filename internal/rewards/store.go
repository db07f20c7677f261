package rewards

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("rewards store: not found")
	ErrDuplicate = errors.New("rewards store: duplicate")
)

// Store persists reward snapshots and tips.
type Store interface {
	AppendSnapshot(ctx context.Context, snapshot *Snapshot) error
	ListSnapshots(ctx context.Context, nationalID string) ([]*Snapshot, error)

	CreateTip(ctx context.Context, tip *Tip) error
	GetTip(ctx context.Context, id uuid.UUID) (*Tip, error)
	GetTipByClaimID(ctx context.Context, claimID string) (*Tip, error)
	UpdateTip(ctx context.Context, tip *Tip) error
	ListTips(ctx context.Context, status TipStatus) ([]*Tip, error)
}
