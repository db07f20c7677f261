// Package investigation holds the suspect assessment ledger, arrest and
// interrogation orders, and the detective reasoning workflow.
package investigation

import (
	"time"

	"github.com/google/uuid"
)

// SuspectAssessment is the per-(case, suspect) container for score history.
type SuspectAssessment struct {
	ID            uuid.UUID
	CaseID        uuid.UUID
	ParticipantID uuid.UUID
	CreatedBy     uuid.UUID
	CreatedAt     time.Time
}

// ScoreEntry is one immutable score (1..10) from a detective or sergeant.
// History is append-only; the current score per role is the latest entry.
type ScoreEntry struct {
	ID           uuid.UUID
	AssessmentID uuid.UUID
	ScoredBy     uuid.UUID
	RoleKey      string
	Score        int
	CreatedAt    time.Time
}

// OrderStatus values for arrest and interrogation orders.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderExecuted  OrderStatus = "executed"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// ArrestOrder targets a suspect participant of a case.
type ArrestOrder struct {
	ID            uuid.UUID
	CaseID        uuid.UUID
	ParticipantID uuid.UUID
	IssuedBy      uuid.UUID
	Reason        string
	Status        OrderStatus
	IssuedAt      time.Time
}

// InterrogationOrder schedules a suspect for questioning.
type InterrogationOrder struct {
	ID            uuid.UUID
	CaseID        uuid.UUID
	ParticipantID uuid.UUID
	OrderedBy     uuid.UUID
	ScheduledAt   *time.Time
	Reason        string
	Status        OrderStatus
	OrderedAt     time.Time
}

// ReasoningStatus is the reasoning submission workflow state.
type ReasoningStatus string

const (
	ReasoningPending  ReasoningStatus = "pending"
	ReasoningApproved ReasoningStatus = "approved"
	ReasoningRejected ReasoningStatus = "rejected"
)

// ReasoningSubmission is a detective's written case reasoning awaiting a
// sergeant's sign-off.
type ReasoningSubmission struct {
	ID            uuid.UUID
	CaseReference string
	Title         string
	Narrative     string
	SubmittedBy   uuid.UUID
	Status        ReasoningStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ReasoningApproval records the one-shot decision on a submission.
type ReasoningApproval struct {
	ID            uuid.UUID
	ReasoningID   uuid.UUID
	DecidedBy     uuid.UUID
	Decision      ReasoningStatus
	Justification string
	DecidedAt     time.Time
}
