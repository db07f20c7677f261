package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the case workflow state.
type Status string

const (
	StatusSubmitted           Status = "submitted"
	StatusUnderReview         Status = "under_review"
	StatusActiveInvestigation Status = "active_investigation"
	StatusSuspectAssessment   Status = "suspect_assessment"
	StatusReferralReady       Status = "referral_ready"
	StatusInTrial             Status = "in_trial"
	StatusClosed              Status = "closed"
	StatusFinalInvalid        Status = "final_invalid"
)

// Level is the crime severity band.
type Level string

const (
	Level1        Level = "1"
	Level2        Level = "2"
	Level3        Level = "3"
	LevelCritical Level = "critical"
)

// ValidLevel reports whether value is a known level.
func ValidLevel(value Level) bool {
	switch value {
	case Level1, Level2, Level3, LevelCritical:
		return true
	}
	return false
}

// SourceType distinguishes how the case entered the system.
type SourceType string

const (
	SourceComplaint   SourceType = "complaint"
	SourceSceneReport SourceType = "scene_report"
)

// Priority drives queue ordering; derived from level unless explicitly set.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// PriorityForLevel maps a level to its default priority.
func PriorityForLevel(level Level) Priority {
	switch level {
	case LevelCritical:
		return PriorityUrgent
	case Level1:
		return PriorityHigh
	case Level2:
		return PriorityMedium
	case Level3:
		return PriorityLow
	}
	return PriorityMedium
}

// Case is the root workflow entity.
type Case struct {
	ID         uuid.UUID
	CaseNumber string
	Title      string
	Summary    string
	Level      Level
	SourceType SourceType
	Status     Status
	Priority   Priority

	AssignedTo      *uuid.UUID
	AssignedBy      *uuid.UUID
	AssignedRoleKey string
	AssignedAt      *time.Time

	CreatedBy *uuid.UUID

	// One nullable timestamp per status ever entered; each set exactly
	// once, on the first transition into that status.
	SubmittedAt              *time.Time
	UnderReviewAt            *time.Time
	InvestigationStartedAt   *time.Time
	SuspectAssessedAt        *time.Time
	ReferralReadyAt          *time.Time
	TrialStartedAt           *time.Time
	ClosedAt                 *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCaseNumber generates a unique case number a la "CASE-0123456789AB".
func NewCaseNumber() string {
	hex := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "CASE-" + hex[:12]
}

// statusTimestamp returns the pointer to the case's lifecycle timestamp for
// a status, or nil for statuses without one (final_invalid has none).
func (c *Case) statusTimestamp(status Status) **time.Time {
	switch status {
	case StatusSubmitted:
		return &c.SubmittedAt
	case StatusUnderReview:
		return &c.UnderReviewAt
	case StatusActiveInvestigation:
		return &c.InvestigationStartedAt
	case StatusSuspectAssessment:
		return &c.SuspectAssessedAt
	case StatusReferralReady:
		return &c.ReferralReadyAt
	case StatusInTrial:
		return &c.TrialStartedAt
	case StatusClosed:
		return &c.ClosedAt
	}
	return nil
}

// ApplyStatusTransition moves the case to newStatus and stamps the matching
// lifecycle timestamp if it was never set. Already-set timestamps are never
// overwritten. Every write path goes through here; nothing is hidden in
// persistence hooks.
func (c *Case) ApplyStatusTransition(newStatus Status, now time.Time) {
	c.Status = newStatus
	if ts := c.statusTimestamp(newStatus); ts != nil && *ts == nil {
		stamped := now
		*ts = &stamped
	}
	c.UpdatedAt = now
}

// ApplyDefaults fills priority from level and normalizes the assignment
// group: assigned_at follows assigned_to.
func (c *Case) ApplyDefaults(now time.Time) {
	if c.Priority == "" {
		c.Priority = PriorityForLevel(c.Level)
	}
	if c.AssignedTo != nil && c.AssignedAt == nil {
		stamped := now
		c.AssignedAt = &stamped
	}
	if c.AssignedTo == nil {
		c.AssignedAt = nil
	}
}

// Unassign clears the assignment group as a unit.
func (c *Case) Unassign() {
	c.AssignedTo = nil
	c.AssignedBy = nil
	c.AssignedRoleKey = ""
	c.AssignedAt = nil
}

// IsTerminal reports whether the case can never transition again.
func (c *Case) IsTerminal() bool {
	return c.Status == StatusClosed || c.Status == StatusFinalInvalid
}
