package httptransport

import (
	"time"

	"github.com/google/uuid"

	casemodels "casefile/internal/cases/models"
	"casefile/internal/investigation"
	"casefile/internal/judiciary"
	"casefile/internal/payments"
	"casefile/internal/rewards"
	"casefile/internal/wanted"
)

// Response DTOs. Domain models stay transport-agnostic; the mapping here is
// the only place that knows the wire field names.

type caseResponse struct {
	ID              uuid.UUID  `json:"id"`
	CaseNumber      string     `json:"case_number"`
	Title           string     `json:"title"`
	Summary         string     `json:"summary"`
	Level           string     `json:"level"`
	SourceType      string     `json:"source_type"`
	Status          string     `json:"status"`
	Priority        string     `json:"priority"`
	AssignedRoleKey string     `json:"assigned_role_key,omitempty"`
	AssignedTo      *uuid.UUID `json:"assigned_to,omitempty"`

	SubmittedAt            *time.Time `json:"submitted_at,omitempty"`
	UnderReviewAt          *time.Time `json:"under_review_at,omitempty"`
	InvestigationStartedAt *time.Time `json:"investigation_started_at,omitempty"`
	SuspectAssessedAt      *time.Time `json:"suspect_assessed_at,omitempty"`
	ReferralReadyAt        *time.Time `json:"referral_ready_at,omitempty"`
	TrialStartedAt         *time.Time `json:"trial_started_at,omitempty"`
	ClosedAt               *time.Time `json:"closed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toCaseResponse(c *casemodels.Case) caseResponse {
	return caseResponse{
		ID:              c.ID,
		CaseNumber:      c.CaseNumber,
		Title:           c.Title,
		Summary:         c.Summary,
		Level:           string(c.Level),
		SourceType:      string(c.SourceType),
		Status:          string(c.Status),
		Priority:        string(c.Priority),
		AssignedRoleKey: c.AssignedRoleKey,
		AssignedTo:      c.AssignedTo,

		SubmittedAt:            c.SubmittedAt,
		UnderReviewAt:          c.UnderReviewAt,
		InvestigationStartedAt: c.InvestigationStartedAt,
		SuspectAssessedAt:      c.SuspectAssessedAt,
		ReferralReadyAt:        c.ReferralReadyAt,
		TrialStartedAt:         c.TrialStartedAt,
		ClosedAt:               c.ClosedAt,

		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toCaseResponses(cases []*casemodels.Case) []caseResponse {
	out := make([]caseResponse, 0, len(cases))
	for _, c := range cases {
		out = append(out, toCaseResponse(c))
	}
	return out
}

type participantResponse struct {
	ID              uuid.UUID  `json:"id"`
	CaseID          uuid.UUID  `json:"case_id"`
	UserID          *uuid.UUID `json:"user_id,omitempty"`
	ParticipantKind string     `json:"participant_kind"`
	RoleInCase      string     `json:"role_in_case"`
	FullName        string     `json:"full_name"`
	Phone           string     `json:"phone,omitempty"`
	NationalID      string     `json:"national_id,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toParticipantResponse(p *casemodels.CaseParticipant) participantResponse {
	return participantResponse{
		ID:              p.ID,
		CaseID:          p.CaseID,
		UserID:          p.UserID,
		ParticipantKind: string(p.ParticipantKind),
		RoleInCase:      string(p.RoleInCase),
		FullName:        p.FullName,
		Phone:           p.Phone,
		NationalID:      p.NationalID,
		Notes:           p.Notes,
		CreatedAt:       p.CreatedAt,
	}
}

func toParticipantResponses(ps []*casemodels.CaseParticipant) []participantResponse {
	out := make([]participantResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, toParticipantResponse(p))
	}
	return out
}

type complaintResponse struct {
	ID              uuid.UUID  `json:"id"`
	ComplainantID   *uuid.UUID `json:"complainant_id,omitempty"`
	CaseID          *uuid.UUID `json:"case_id,omitempty"`
	Description     string     `json:"description"`
	Status          string     `json:"status"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	ValidatedAt     *time.Time `json:"validated_at,omitempty"`
	InvalidatedAt   *time.Time `json:"invalidated_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func toComplaintResponse(c *casemodels.Complaint) complaintResponse {
	return complaintResponse{
		ID:              c.ID,
		ComplainantID:   c.ComplainantID,
		CaseID:          c.CaseID,
		Description:     c.Description,
		Status:          string(c.Status),
		RejectionReason: c.RejectionReason,
		ReviewedAt:      c.ReviewedAt,
		ValidatedAt:     c.ValidatedAt,
		InvalidatedAt:   c.InvalidatedAt,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

type assessmentResponse struct {
	ID            uuid.UUID `json:"id"`
	CaseID        uuid.UUID `json:"case_id"`
	ParticipantID uuid.UUID `json:"participant_id"`
	CreatedBy     uuid.UUID `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

func toAssessmentResponse(a *investigation.SuspectAssessment) assessmentResponse {
	return assessmentResponse{
		ID:            a.ID,
		CaseID:        a.CaseID,
		ParticipantID: a.ParticipantID,
		CreatedBy:     a.CreatedBy,
		CreatedAt:     a.CreatedAt,
	}
}

type scoreResponse struct {
	ID           uuid.UUID `json:"id"`
	AssessmentID uuid.UUID `json:"assessment_id"`
	ScoredBy     uuid.UUID `json:"scored_by"`
	RoleKey      string    `json:"role_key"`
	Score        int       `json:"score"`
	CreatedAt    time.Time `json:"created_at"`
}

func toScoreResponse(e *investigation.ScoreEntry) scoreResponse {
	return scoreResponse{
		ID:           e.ID,
		AssessmentID: e.AssessmentID,
		ScoredBy:     e.ScoredBy,
		RoleKey:      e.RoleKey,
		Score:        e.Score,
		CreatedAt:    e.CreatedAt,
	}
}

type arrestOrderResponse struct {
	ID            uuid.UUID `json:"id"`
	CaseID        uuid.UUID `json:"case_id"`
	ParticipantID uuid.UUID `json:"participant_id"`
	IssuedBy      uuid.UUID `json:"issued_by"`
	Reason        string    `json:"reason"`
	Status        string    `json:"status"`
	IssuedAt      time.Time `json:"issued_at"`
}

func toArrestOrderResponse(o *investigation.ArrestOrder) arrestOrderResponse {
	return arrestOrderResponse{
		ID:            o.ID,
		CaseID:        o.CaseID,
		ParticipantID: o.ParticipantID,
		IssuedBy:      o.IssuedBy,
		Reason:        o.Reason,
		Status:        string(o.Status),
		IssuedAt:      o.IssuedAt,
	}
}

type interrogationOrderResponse struct {
	ID            uuid.UUID  `json:"id"`
	CaseID        uuid.UUID  `json:"case_id"`
	ParticipantID uuid.UUID  `json:"participant_id"`
	OrderedBy     uuid.UUID  `json:"ordered_by"`
	ScheduledAt   *time.Time `json:"scheduled_at,omitempty"`
	Reason        string     `json:"reason"`
	Status        string     `json:"status"`
	OrderedAt     time.Time  `json:"ordered_at"`
}

func toInterrogationOrderResponse(o *investigation.InterrogationOrder) interrogationOrderResponse {
	return interrogationOrderResponse{
		ID:            o.ID,
		CaseID:        o.CaseID,
		ParticipantID: o.ParticipantID,
		OrderedBy:     o.OrderedBy,
		ScheduledAt:   o.ScheduledAt,
		Reason:        o.Reason,
		Status:        string(o.Status),
		OrderedAt:     o.OrderedAt,
	}
}

type reasoningResponse struct {
	ID            uuid.UUID `json:"id"`
	CaseReference string    `json:"case_reference"`
	Title         string    `json:"title"`
	Narrative     string    `json:"narrative"`
	SubmittedBy   uuid.UUID `json:"submitted_by"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toReasoningResponse(r *investigation.ReasoningSubmission) reasoningResponse {
	return reasoningResponse{
		ID:            r.ID,
		CaseReference: r.CaseReference,
		Title:         r.Title,
		Narrative:     r.Narrative,
		SubmittedBy:   r.SubmittedBy,
		Status:        string(r.Status),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type verdictResponse struct {
	ID                    uuid.UUID `json:"id"`
	CaseID                uuid.UUID `json:"case_id"`
	JudgeID               uuid.UUID `json:"judge_id"`
	Verdict               string    `json:"verdict"`
	PunishmentTitle       string    `json:"punishment_title,omitempty"`
	PunishmentDescription string    `json:"punishment_description,omitempty"`
	RecordedAt            time.Time `json:"recorded_at"`
}

func toVerdictResponse(v *judiciary.CaseVerdict) verdictResponse {
	return verdictResponse{
		ID:                    v.ID,
		CaseID:                v.CaseID,
		JudgeID:               v.JudgeID,
		Verdict:               string(v.Verdict),
		PunishmentTitle:       v.PunishmentTitle,
		PunishmentDescription: v.PunishmentDescription,
		RecordedAt:            v.RecordedAt,
	}
}

type evidenceResponse struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	EvidenceType string    `json:"evidence_type"`
	RegisteredAt time.Time `json:"registered_at"`
}

type referralPackageResponse struct {
	Case         caseResponse          `json:"case"`
	Participants []participantResponse `json:"participants"`
	Evidence     []evidenceResponse    `json:"evidence"`
}

func toReferralPackageResponse(pkg *judiciary.ReferralPackage) referralPackageResponse {
	evidence := make([]evidenceResponse, 0, len(pkg.Evidence))
	for _, item := range pkg.Evidence {
		evidence = append(evidence, evidenceResponse{
			ID:           item.ID,
			Title:        item.Title,
			Description:  item.Description,
			EvidenceType: item.EvidenceType,
			RegisteredAt: item.RegisteredAt,
		})
	}
	return referralPackageResponse{
		Case:         toCaseResponse(pkg.Case),
		Participants: toParticipantResponses(pkg.Participants),
		Evidence:     evidence,
	}
}

type snapshotResponse struct {
	ID                uuid.UUID `json:"id"`
	NationalID        string    `json:"national_id"`
	FullName          string    `json:"full_name"`
	MaxDaysLj         int       `json:"max_days_lj"`
	MaxCrimeLevelDi   int       `json:"max_crime_level_di"`
	RankingScore      int       `json:"ranking_score"`
	RewardAmountRials int64     `json:"reward_amount_rials"`
	ComputedAt        time.Time `json:"computed_at"`
}

func toSnapshotResponse(s *rewards.Snapshot) snapshotResponse {
	return snapshotResponse{
		ID:                s.ID,
		NationalID:        s.NationalID,
		FullName:          s.FullName,
		MaxDaysLj:         s.MaxDaysLj,
		MaxCrimeLevelDi:   s.MaxCrimeLevelDi,
		RankingScore:      s.RankingScore,
		RewardAmountRials: s.RewardAmountRials,
		ComputedAt:        s.ComputedAt,
	}
}

type tipResponse struct {
	ID            uuid.UUID `json:"id"`
	CaseReference string    `json:"case_reference,omitempty"`
	Subject       string    `json:"subject,omitempty"`
	Content       string    `json:"content"`
	Status        string    `json:"status"`
	RewardClaimID string    `json:"reward_claim_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toTipResponse(t *rewards.Tip) tipResponse {
	return tipResponse{
		ID:            t.ID,
		CaseReference: t.CaseReference,
		Subject:       t.Subject,
		Content:       t.Content,
		Status:        string(t.Status),
		RewardClaimID: t.RewardClaimID,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

type wantedEntryResponse struct {
	ID            uuid.UUID  `json:"id"`
	CaseID        uuid.UUID  `json:"case_id"`
	ParticipantID uuid.UUID  `json:"participant_id"`
	FullName      string     `json:"full_name"`
	Status        string     `json:"status"`
	MarkedAt      time.Time  `json:"marked_at"`
	PromotedAt    *time.Time `json:"promoted_at,omitempty"`
}

func toWantedEntryResponse(e *wanted.Entry) wantedEntryResponse {
	return wantedEntryResponse{
		ID:            e.ID,
		CaseID:        e.CaseID,
		ParticipantID: e.ParticipantID,
		FullName:      e.FullName,
		Status:        string(e.Status),
		MarkedAt:      e.MarkedAt,
		PromotedAt:    e.PromotedAt,
	}
}

type transactionResponse struct {
	ID            uuid.UUID  `json:"id"`
	CaseID        uuid.UUID  `json:"case_id"`
	ParticipantID uuid.UUID  `json:"participant_id"`
	AmountRials   int64      `json:"amount_rials"`
	GatewayName   string     `json:"gateway_name"`
	GatewayRef    string     `json:"gateway_ref,omitempty"`
	Status        string     `json:"status"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func toTransactionResponse(t *payments.Transaction) transactionResponse {
	return transactionResponse{
		ID:            t.ID,
		CaseID:        t.CaseID,
		ParticipantID: t.ParticipantID,
		AmountRials:   t.AmountRials,
		GatewayName:   t.GatewayName,
		GatewayRef:    t.GatewayRef,
		Status:        string(t.Status),
		VerifiedAt:    t.VerifiedAt,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}
