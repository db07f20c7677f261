// Package rewards computes wanted-person reward rankings and runs the
// two-stage reward tip workflow.
package rewards

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RewardMultiplierRials converts a ranking score to a reward amount.
const RewardMultiplierRials = 20_000_000

// Snapshot is one persisted reward computation for a person. Snapshots
// append; the computation history is kept.
type Snapshot struct {
	ID                uuid.UUID
	NationalID        string
	FullName          string
	MaxDaysLj         int
	MaxCrimeLevelDi   int
	RankingScore      int
	RewardAmountRials int64
	ComputedAt        time.Time
}

// TipStatus is the reward tip workflow state.
type TipStatus string

const (
	TipPendingPolice    TipStatus = "pending_police"
	TipPendingDetective TipStatus = "pending_detective"
	TipApproved         TipStatus = "approved"
	TipRejected         TipStatus = "rejected"
)

// Tip is a citizen's reward tip. Approved tips carry a unique claim id.
type Tip struct {
	ID                    uuid.UUID
	CaseReference         string
	Subject               string
	Content               string
	SubmittedBy           uuid.UUID
	Status                TipStatus
	ReviewedByOfficer     *uuid.UUID
	ReviewedByOfficerAt   *time.Time
	ReviewedByDetective   *uuid.UUID
	ReviewedByDetectiveAt *time.Time
	RewardClaimID         string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// NewRewardClaimID generates a claim id a la "RWD-0123456789".
func NewRewardClaimID() string {
	hex := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "RWD-" + hex[:10]
}
