package rewards

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"casefile/internal/access"
	"casefile/internal/identity"
	"casefile/internal/timeline"
	derrors "casefile/pkg/domain-errors"
)

// officerReviewKeys is the officer family allowed to perform first review.
var officerReviewKeys = []string{
	access.RoleKeyPoliceOfficer,
	access.RoleKeyPatrolOfficer,
	access.RoleKeyOfficer,
}

// SubmitTip files a reward tip. Any authenticated user may submit.
func (s *Service) SubmitTip(ctx context.Context, actor *identity.User, caseReference, subject, content string) (*Tip, error) {
	if !actor.IsAuthenticated() {
		return nil, derrors.New(derrors.CodeUnauthorized, "authentication required")
	}
	if strings.TrimSpace(content) == "" {
		return nil, derrors.New(derrors.CodeValidation, "content must not be blank")
	}
	now := time.Now().UTC()
	tip := &Tip{
		ID:            uuid.New(),
		CaseReference: caseReference,
		Subject:       subject,
		Content:       content,
		SubmittedBy:   actor.ID,
		Status:        TipPendingPolice,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateTip(ctx, tip); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to create tip")
	}
	return tip, nil
}

// ReviewTipAsOfficer is the first review stage. Approval forwards the tip
// to detective review; rejection is terminal.
func (s *Service) ReviewTipAsOfficer(ctx context.Context, actor *identity.User, tipID uuid.UUID, approve bool) (*Tip, error) {
	if err := s.authority.RequireAnyRoleKey(ctx, actor,
		"only police officers may perform the first review", officerReviewKeys...); err != nil {
		return nil, err
	}
	tip, err := s.getTip(ctx, tipID)
	if err != nil {
		return nil, err
	}
	if tip.Status != TipPendingPolice {
		return nil, derrors.Newf(derrors.CodeWorkflowPolicy, "tip is %s, not awaiting police review", tip.Status)
	}

	now := time.Now().UTC()
	tip.ReviewedByOfficer = &actor.ID
	tip.ReviewedByOfficerAt = &now
	if approve {
		tip.Status = TipPendingDetective
	} else {
		tip.Status = TipRejected
	}
	tip.UpdatedAt = now
	if err := s.store.UpdateTip(ctx, tip); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to update tip")
	}
	s.recordTipReview(ctx, tip, actor, "officer")
	return tip, nil
}

// ReviewTipAsDetective is the final review stage. Approval mints the
// unique claim id; rejection is terminal.
func (s *Service) ReviewTipAsDetective(ctx context.Context, actor *identity.User, tipID uuid.UUID, approve bool) (*Tip, error) {
	if err := s.authority.RequireAnyRoleKey(ctx, actor,
		"only detectives may perform the final review", access.RoleKeyDetective); err != nil {
		return nil, err
	}
	tip, err := s.getTip(ctx, tipID)
	if err != nil {
		return nil, err
	}
	if tip.Status != TipPendingDetective {
		return nil, derrors.Newf(derrors.CodeWorkflowPolicy, "tip is %s, not awaiting detective review", tip.Status)
	}

	now := time.Now().UTC()
	tip.ReviewedByDetective = &actor.ID
	tip.ReviewedByDetectiveAt = &now
	if approve {
		tip.Status = TipApproved
		tip.RewardClaimID = NewRewardClaimID()
	} else {
		tip.Status = TipRejected
	}
	tip.UpdatedAt = now
	if err := s.store.UpdateTip(ctx, tip); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to update tip")
	}
	s.recordTipReview(ctx, tip, actor, "detective")
	return tip, nil
}

// VerifyClaim matches an approved tip by claim id and the submitter's
// exact national_id. Restricted to the authorized police ranks.
func (s *Service) VerifyClaim(ctx context.Context, actor *identity.User, nationalID, claimID string) (*Tip, error) {
	if err := s.authority.RequireAnyRoleKey(ctx, actor,
		"only authorized police ranks may verify reward claims", access.PoliceRoleKeys...); err != nil {
		return nil, err
	}
	nationalID = strings.TrimSpace(nationalID)
	claimID = strings.TrimSpace(claimID)
	if nationalID == "" || claimID == "" {
		return nil, derrors.New(derrors.CodeValidation, "national_id and claim id are required")
	}
	tip, err := s.store.GetTipByClaimID(ctx, claimID)
	if err != nil {
		if err == ErrNotFound {
			return nil, derrors.New(derrors.CodeNotFound, "no matching claim")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to look up claim")
	}
	if tip.Status != TipApproved {
		return nil, derrors.New(derrors.CodeNotFound, "no matching claim")
	}
	if s.users == nil {
		return nil, derrors.New(derrors.CodeInternal, "claim verification is not configured")
	}
	submitter, err := s.users.Resolve(ctx, tip.SubmittedBy.String())
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to resolve submitter")
	}
	if submitter.NationalID == "" || submitter.NationalID != nationalID {
		return nil, derrors.New(derrors.CodeNotFound, "no matching claim")
	}
	return tip, nil
}

// ListTips returns tips, optionally filtered by status.
func (s *Service) ListTips(ctx context.Context, status TipStatus) ([]*Tip, error) {
	tips, err := s.store.ListTips(ctx, status)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to list tips")
	}
	return tips, nil
}

func (s *Service) getTip(ctx context.Context, id uuid.UUID) (*Tip, error) {
	tip, err := s.store.GetTip(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return nil, derrors.New(derrors.CodeNotFound, "tip not found")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to load tip")
	}
	return tip, nil
}

func (s *Service) recordTipReview(ctx context.Context, tip *Tip, actor *identity.User, stage string) {
	s.recorder.Record(ctx, timeline.NewEvent(timeline.KindTipReviewed, nil, &actor.ID, map[string]string{
		"tip_id": tip.ID.String(),
		"stage":  stage,
		"status": string(tip.Status),
	}))
}
