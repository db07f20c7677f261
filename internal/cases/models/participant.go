package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	derrors "casefile/pkg/domain-errors"
)

// RoleInCase is the function a participant plays within one case.
type RoleInCase string

const (
	RoleComplainant   RoleInCase = "complainant"
	RoleWitness       RoleInCase = "witness"
	RoleSuspect       RoleInCase = "suspect"
	RoleJudge         RoleInCase = "judge"
	RoleCadet         RoleInCase = "cadet"
	RolePoliceOfficer RoleInCase = "police_officer"
	RoleDetective     RoleInCase = "detective"
	RoleSergeant      RoleInCase = "sergeant"
	RoleCaptain       RoleInCase = "captain"
	RoleChief         RoleInCase = "chief"
)

// ParticipantKind separates sworn personnel from civilians.
type ParticipantKind string

const (
	KindPersonnel ParticipantKind = "personnel"
	KindCivilian  ParticipantKind = "civilian"
)

// CaseParticipant attaches a person to a case. Either UserID is set or
// FullName is non-blank. Uniqueness is per (case, role, user) for linked
// users and per (case, role, national_id) for unlinked people.
type CaseParticipant struct {
	ID              uuid.UUID
	CaseID          uuid.UUID
	UserID          *uuid.UUID
	ParticipantKind ParticipantKind
	RoleInCase      RoleInCase
	FullName        string
	Phone           string
	NationalID      string
	Notes           string
	AddedBy         *uuid.UUID
	CreatedAt       time.Time
}

// Validate mirrors the storage constraints so callers fail before writing.
func (p *CaseParticipant) Validate() error {
	if p.CaseID == uuid.Nil {
		return derrors.New(derrors.CodeValidation, "participant requires a case")
	}
	if p.UserID == nil && strings.TrimSpace(p.FullName) == "" {
		return derrors.New(derrors.CodeValidation, "either user or full_name must be provided")
	}
	switch p.ParticipantKind {
	case KindPersonnel, KindCivilian:
	default:
		return derrors.New(derrors.CodeValidation, "unknown participant kind")
	}
	return nil
}
