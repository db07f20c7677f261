package models

import (
	"time"

	"github.com/google/uuid"
)

// SceneCaseReport is the one-to-one companion of a scene-sourced case.
// SuperiorApprovedBy and SuperiorApprovedAt are set together or neither.
type SceneCaseReport struct {
	ID                 uuid.UUID
	CaseID             uuid.UUID
	ReportedBy         uuid.UUID
	SceneOccurredAt    time.Time
	SuperiorApprovedBy *uuid.UUID
	SuperiorApprovedAt *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsApproved reports whether a superior has already signed off.
func (r *SceneCaseReport) IsApproved() bool {
	return r.SuperiorApprovedBy != nil
}
