// Package judiciary assembles referral packages for trial and records
// verdicts. Verdict recording is the canonical path that closes a case.
package judiciary

import (
	"time"

	"github.com/google/uuid"

	casemodels "casefile/internal/cases/models"
)

// Verdict outcomes.
type Verdict string

const (
	VerdictGuilty    Verdict = "guilty"
	VerdictNotGuilty Verdict = "not_guilty"
)

// CaseVerdict is the judge's one-shot trial outcome for a case.
type CaseVerdict struct {
	ID                    uuid.UUID
	CaseID                uuid.UUID
	JudgeID               uuid.UUID
	Verdict               Verdict
	PunishmentTitle       string
	PunishmentDescription string
	RecordedAt            time.Time
}

// EvidenceItem is the read-only view of one registered piece of evidence,
// as supplied by the evidence lister collaborator.
type EvidenceItem struct {
	ID           uuid.UUID
	Title        string
	Description  string
	EvidenceType string
	RegisteredAt time.Time
}

// ReferralPackage is the read-only bundle handed to the judiciary when a
// case is ready for trial.
type ReferralPackage struct {
	Case         *casemodels.Case
	Participants []*casemodels.CaseParticipant
	Evidence     []EvidenceItem
}
