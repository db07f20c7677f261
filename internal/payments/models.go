package payments

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle of a payment transaction.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// MaxPendingAge is the default age after which a pending transaction is
// considered abandoned and reconciled to failed.
const MaxPendingAge = 7 * 24 * time.Hour

// Transaction is a bail or fine payment attempt for a suspect on a case.
// A transaction stays pending only while the gateway round-trip is in
// flight; it always ends up success or failed.
type Transaction struct {
	ID            uuid.UUID
	CaseID        uuid.UUID
	ParticipantID uuid.UUID
	AmountRials   int64
	GatewayName   string
	GatewayRef    string
	Status        Status
	CallbackData  map[string]string
	VerifiedAt    *time.Time
	CreatedBy     *uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
