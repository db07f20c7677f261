package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"casefile/internal/access"
	"casefile/internal/cases/models"
	"casefile/internal/cases/store"
	"casefile/internal/identity"
	"casefile/internal/timeline"
	derrors "casefile/pkg/domain-errors"
)

// SubmitComplaint files a new complaint for the acting user.
func (s *Service) SubmitComplaint(ctx context.Context, actor *identity.User, description string) (*models.Complaint, error) {
	if !actor.IsAuthenticated() {
		return nil, derrors.New(derrors.CodeUnauthorized, "authentication required")
	}
	if strings.TrimSpace(description) == "" {
		return nil, derrors.New(derrors.CodeValidation, "description must not be blank")
	}
	now := time.Now().UTC()
	complaint := &models.Complaint{
		ID:            uuid.New(),
		ComplainantID: &actor.ID,
		Description:   description,
		Status:        models.ComplaintSubmitted,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateComplaint(ctx, complaint); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to create complaint")
	}
	s.recorder.Record(ctx, timeline.NewEvent(timeline.KindComplaintSubmitted, nil, &actor.ID, map[string]string{
		"complaint_id": complaint.ID.String(),
	}))
	return complaint, nil
}

// GetComplaint returns one complaint by id.
func (s *Service) GetComplaint(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	complaint, err := s.store.GetComplaint(ctx, id)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, derrors.New(derrors.CodeNotFound, "complaint not found")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to load complaint")
	}
	return complaint, nil
}

// ListComplaints returns every complaint for police-family callers and
// superusers, and only the caller's own complaints otherwise.
func (s *Service) ListComplaints(ctx context.Context, actor *identity.User) ([]*models.Complaint, error) {
	if !actor.IsAuthenticated() {
		return nil, derrors.New(derrors.CodeUnauthorized, "authentication required")
	}
	seesAll, err := s.authority.HasAnyRoleKey(ctx, actor, append([]string{access.RoleKeyCadet}, access.PoliceRoleKeys...)...)
	if err != nil {
		return nil, err
	}
	var filter *uuid.UUID
	if !seesAll {
		filter = &actor.ID
	}
	complaints, err := s.store.ListComplaints(ctx, filter)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to list complaints")
	}
	return complaints, nil
}

// ReviewComplaint applies a cadet's decision to a complaint. Rejections
// consume the complaint's 3-strike budget; the third one terminally
// invalidates the complaint and forces any linked case to final_invalid.
func (s *Service) ReviewComplaint(ctx context.Context, actor *identity.User, complaintID uuid.UUID, decision models.ReviewDecision, reason string) (*models.Complaint, error) {
	ctx, span := s.tracer.Start(ctx, "cases.ReviewComplaint")
	defer span.End()

	if err := s.authority.RequireAnyRoleKey(ctx, actor, "only cadets may review complaints", access.RoleKeyCadet); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	switch decision {
	case models.DecisionApproved:
		if reason != "" {
			return nil, derrors.New(derrors.CodeValidation, "approval must not carry a rejection reason")
		}
	case models.DecisionRejected:
		if reason == "" {
			return nil, derrors.New(derrors.CodeValidation, "rejection requires a non-blank reason")
		}
	default:
		return nil, derrors.New(derrors.CodeValidation, "decision must be approved or rejected")
	}

	var reviewed *models.Complaint
	err := s.store.InTx(ctx, func(tx store.Store) error {
		complaint, err := tx.GetComplaintForUpdate(ctx, complaintID)
		if err != nil {
			if err == store.ErrNotFound {
				return derrors.New(derrors.CodeNotFound, "complaint not found")
			}
			return derrors.Wrap(err, derrors.CodeInternal, "failed to lock complaint")
		}
		if complaint.Status == models.ComplaintFinalInvalid {
			return derrors.New(derrors.CodeWorkflowPolicy, "complaint is terminally invalid and accepts no further reviews")
		}

		now := time.Now().UTC()
		if decision == models.DecisionApproved {
			if err := s.applyApproval(ctx, tx, complaint, actor, now); err != nil {
				return err
			}
		} else {
			if err := s.applyRejection(ctx, tx, complaint, reason, now); err != nil {
				return err
			}
		}

		complaint.ReviewedAt = &now
		complaint.UpdatedAt = now
		if err := tx.UpdateComplaint(ctx, complaint); err != nil {
			return derrors.Wrap(err, derrors.CodeInternal, "failed to update complaint")
		}
		review := &models.ComplaintReview{
			ID:              uuid.New(),
			ComplaintID:     complaint.ID,
			ReviewerID:      actor.ID,
			Decision:        decision,
			RejectionReason: reason,
			ReviewedAt:      now,
		}
		if err := tx.AppendReview(ctx, review); err != nil {
			return derrors.Wrap(err, derrors.CodeInternal, "failed to record review")
		}
		reviewed = complaint
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ComplaintReviews.WithLabelValues(string(decision)).Inc()
	}
	s.recorder.Record(ctx, timeline.NewEvent(timeline.KindComplaintReviewed, reviewed.CaseID, &actor.ID, map[string]string{
		"complaint_id": reviewed.ID.String(),
		"decision":     string(decision),
		"status":       string(reviewed.Status),
	}))
	return reviewed, nil
}

// applyApproval validates the complaint and, for complaints not yet linked
// to a case, creates the case. Creation is idempotent per complaint.
func (s *Service) applyApproval(ctx context.Context, tx store.Store, complaint *models.Complaint, actor *identity.User, now time.Time) error {
	complaint.Status = models.ComplaintValidated
	if complaint.ValidatedAt == nil {
		stamped := now
		complaint.ValidatedAt = &stamped
	}
	complaint.RejectionReason = ""

	if complaint.CaseID != nil {
		return nil
	}

	c := &models.Case{
		ID:              uuid.New(),
		CaseNumber:      models.NewCaseNumber(),
		Title:           "Complaint " + complaint.ID.String(),
		Summary:         complaint.Description,
		Level:           models.Level3,
		SourceType:      models.SourceComplaint,
		AssignedRoleKey: access.RoleKeyPoliceOfficer,
		CreatedBy:       &actor.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	c.ApplyStatusTransition(models.StatusUnderReview, now)
	c.ApplyDefaults(now)
	if err := tx.CreateCase(ctx, c); err != nil {
		return derrors.Wrap(err, derrors.CodeInternal, "failed to create case from complaint")
	}
	complaint.CaseID = &c.ID

	if complaint.ComplainantID != nil {
		participant := &models.CaseParticipant{
			ID:              uuid.New(),
			CaseID:          c.ID,
			UserID:          complaint.ComplainantID,
			ParticipantKind: models.KindCivilian,
			RoleInCase:      models.RoleComplainant,
			AddedBy:         &actor.ID,
			CreatedAt:       now,
		}
		if err := tx.CreateParticipant(ctx, participant); err != nil && err != store.ErrDuplicate {
			return derrors.Wrap(err, derrors.CodeInternal, "failed to add complainant participant")
		}
	}
	if s.metrics != nil {
		s.metrics.CasesCreated.WithLabelValues(string(models.SourceComplaint)).Inc()
	}
	return nil
}

// applyRejection advances the 3-strike counter and, on the third strike,
// terminally invalidates the complaint and cascades to the linked case.
func (s *Service) applyRejection(ctx context.Context, tx store.Store, complaint *models.Complaint, reason string, now time.Time) error {
	counter, err := tx.GetValidationCounter(ctx, complaint.ID)
	if err != nil {
		if err != store.ErrNotFound {
			return derrors.Wrap(err, derrors.CodeInternal, "failed to load validation counter")
		}
		counter = &models.ValidationCounter{ComplaintID: complaint.ID}
	}
	if counter.InvalidAttemptCount < models.MaxInvalidAttempts {
		counter.InvalidAttemptCount++
	}
	counter.LastRejectionReason = reason
	counter.UpdatedAt = now
	if err := tx.UpsertValidationCounter(ctx, counter); err != nil {
		return derrors.Wrap(err, derrors.CodeInternal, "failed to update validation counter")
	}

	complaint.RejectionReason = reason
	if counter.InvalidAttemptCount < models.MaxInvalidAttempts {
		complaint.Status = models.ComplaintRejected
		return nil
	}

	complaint.Status = models.ComplaintFinalInvalid
	if complaint.InvalidatedAt == nil {
		stamped := now
		complaint.InvalidatedAt = &stamped
	}
	if complaint.CaseID == nil {
		return nil
	}
	c, err := tx.GetCaseForUpdate(ctx, *complaint.CaseID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil
		}
		return derrors.Wrap(err, derrors.CodeInternal, "failed to lock linked case")
	}
	if c.Status == models.StatusFinalInvalid {
		return nil
	}
	// Emergency terminal override; deliberately skips the transition graph.
	c.ApplyStatusTransition(models.StatusFinalInvalid, now)
	if err := tx.UpdateCase(ctx, c); err != nil {
		return derrors.Wrap(err, derrors.CodeInternal, "failed to invalidate linked case")
	}
	return nil
}

// ResubmitComplaint lets the complainant retry a rejected complaint with a
// new description. The rejection counter carries over.
func (s *Service) ResubmitComplaint(ctx context.Context, actor *identity.User, complaintID uuid.UUID, description string) (*models.Complaint, error) {
	if !actor.IsAuthenticated() {
		return nil, derrors.New(derrors.CodeUnauthorized, "authentication required")
	}
	if strings.TrimSpace(description) == "" {
		return nil, derrors.New(derrors.CodeValidation, "description must not be blank")
	}

	var resubmitted *models.Complaint
	err := s.store.InTx(ctx, func(tx store.Store) error {
		complaint, err := tx.GetComplaintForUpdate(ctx, complaintID)
		if err != nil {
			if err == store.ErrNotFound {
				return derrors.New(derrors.CodeNotFound, "complaint not found")
			}
			return derrors.Wrap(err, derrors.CodeInternal, "failed to lock complaint")
		}
		if !actor.IsSuperuser {
			if complaint.ComplainantID == nil || *complaint.ComplainantID != actor.ID {
				return derrors.New(derrors.CodeRolePolicy, "only the complainant may resubmit")
			}
		}
		if complaint.Status != models.ComplaintRejected {
			return derrors.New(derrors.CodeWorkflowPolicy, "only rejected complaints may be resubmitted")
		}
		counter, err := tx.GetValidationCounter(ctx, complaint.ID)
		if err != nil && err != store.ErrNotFound {
			return derrors.Wrap(err, derrors.CodeInternal, "failed to load validation counter")
		}
		if counter != nil && counter.InvalidAttemptCount >= models.MaxInvalidAttempts {
			return derrors.New(derrors.CodeWorkflowPolicy, "rejection budget exhausted")
		}

		now := time.Now().UTC()
		complaint.Status = models.ComplaintSubmitted
		complaint.Description = description
		complaint.UpdatedAt = now
		if err := tx.UpdateComplaint(ctx, complaint); err != nil {
			return derrors.Wrap(err, derrors.CodeInternal, "failed to update complaint")
		}
		resubmitted = complaint
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recorder.Record(ctx, timeline.NewEvent(timeline.KindComplaintResubmit, resubmitted.CaseID, &actor.ID, map[string]string{
		"complaint_id": resubmitted.ID.String(),
	}))
	return resubmitted, nil
}
