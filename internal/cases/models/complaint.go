package models

import (
	"time"

	"github.com/google/uuid"
)

// ComplaintStatus is the complaint intake workflow state.
type ComplaintStatus string

const (
	ComplaintSubmitted    ComplaintStatus = "submitted"
	ComplaintCadetReview  ComplaintStatus = "cadet_review"
	ComplaintValidated    ComplaintStatus = "validated"
	ComplaintRejected     ComplaintStatus = "rejected"
	ComplaintFinalInvalid ComplaintStatus = "final_invalid"
)

// MaxInvalidAttempts is the 3-strike budget: the third consecutive
// rejection terminally invalidates the complaint and its case.
const MaxInvalidAttempts = 3

// Complaint is the intake record. CaseID is linked only once validated.
type Complaint struct {
	ID              uuid.UUID
	ComplainantID   *uuid.UUID
	CaseID          *uuid.UUID
	Description     string
	Status          ComplaintStatus
	RejectionReason string
	ReviewedAt      *time.Time
	ValidatedAt     *time.Time
	InvalidatedAt   *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ValidationCounter tracks consecutive rejections per complaint.
// Capped at MaxInvalidAttempts and never decremented.
type ValidationCounter struct {
	ComplaintID         uuid.UUID
	InvalidAttemptCount int
	LastRejectionReason string
	UpdatedAt           time.Time
}

// ReviewDecision is a cadet's verdict on one review pass.
type ReviewDecision string

const (
	DecisionApproved ReviewDecision = "approved"
	DecisionRejected ReviewDecision = "rejected"
)

// ComplaintReview is an immutable append record of each cadet decision.
// A rejected review always carries a non-blank reason.
type ComplaintReview struct {
	ID              uuid.UUID
	ComplaintID     uuid.UUID
	ReviewerID      uuid.UUID
	Decision        ReviewDecision
	RejectionReason string
	ReviewedAt      time.Time
}
