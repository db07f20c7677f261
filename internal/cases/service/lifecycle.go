package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"casefile/internal/access"
	"casefile/internal/cases/models"
	"casefile/internal/cases/statemachine"
	"casefile/internal/cases/store"
	"casefile/internal/identity"
	"casefile/internal/timeline"
	derrors "casefile/pkg/domain-errors"
)

// WitnessInput describes one witness on a scene case report.
type WitnessInput struct {
	FullName   string
	Phone      string
	NationalID string
}

// SceneCaseInput is the payload for filing a case from a crime scene.
type SceneCaseInput struct {
	Title           string
	Summary         string
	Level           models.Level
	SceneOccurredAt time.Time
	Witnesses       []WitnessInput
}

// SuspectInput identifies a person to mark as a case suspect.
type SuspectInput struct {
	FullName   string
	Phone      string
	NationalID string
	Notes      string
}

// superiorRoleKey maps a creator's highest rank to the rank that must
// approve the scene report. Chiefs have no superior and approve at their
// own level.
func superiorRoleKey(keys map[string]bool) string {
	switch {
	case keys[access.RoleKeySergeant]:
		return access.RoleKeyCaptain
	case keys[access.RoleKeyCaptain], keys[access.RoleKeyChief]:
		return access.RoleKeyChief
	default:
		return access.RoleKeySergeant
	}
}

// creatorRoleInCase resolves the participant role for the reporting
// officer by rank precedence, first match wins.
func creatorRoleInCase(keys map[string]bool) models.RoleInCase {
	switch {
	case keys[access.RoleKeyChief]:
		return models.RoleChief
	case keys[access.RoleKeyCaptain]:
		return models.RoleCaptain
	case keys[access.RoleKeySergeant]:
		return models.RoleSergeant
	case keys[access.RoleKeyDetective]:
		return models.RoleDetective
	default:
		return models.RolePoliceOfficer
	}
}

// GetCase returns one case by id.
func (s *Service) GetCase(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	c, err := s.store.GetCase(ctx, id)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, derrors.New(derrors.CodeNotFound, "case not found")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to load case")
	}
	return c, nil
}

// ListCases returns cases matching the filter.
func (s *Service) ListCases(ctx context.Context, filter store.Filter) ([]*models.Case, error) {
	cases, err := s.store.ListCases(ctx, filter)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to list cases")
	}
	return cases, nil
}

// ListParticipants returns the participants of one case.
func (s *Service) ListParticipants(ctx context.Context, caseID uuid.UUID) ([]*models.CaseParticipant, error) {
	participants, err := s.store.ListParticipants(ctx, caseID)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to list participants")
	}
	return participants, nil
}

// CreateSceneCase files a case directly from a crime scene. The reporting
// officer becomes a personnel participant and the case is assigned to the
// officer's organizational superior for approval.
func (s *Service) CreateSceneCase(ctx context.Context, actor *identity.User, input SceneCaseInput) (*models.Case, error) {
	ctx, span := s.tracer.Start(ctx, "cases.CreateSceneCase")
	defer span.End()

	if !actor.IsAuthenticated() {
		return nil, derrors.New(derrors.CodeUnauthorized, "authentication required")
	}
	keys, err := s.authority.RoleKeysOf(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !actor.IsSuperuser {
		if keys[access.RoleKeyCadet] {
			return nil, derrors.New(derrors.CodeRolePolicy, "cadets may not file scene cases")
		}
		if !holdsAny(keys, access.PoliceRoleKeys...) {
			return nil, derrors.New(derrors.CodeRolePolicy, "only police personnel may file scene cases")
		}
	}

	if strings.TrimSpace(input.Title) == "" {
		return nil, derrors.New(derrors.CodeValidation, "title must not be blank")
	}
	if !models.ValidLevel(input.Level) {
		return nil, derrors.New(derrors.CodeValidation, "unknown case level")
	}
	if err := validateWitnesses(input.Witnesses); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	c := &models.Case{
		ID:              uuid.New(),
		CaseNumber:      models.NewCaseNumber(),
		Title:           input.Title,
		Summary:         input.Summary,
		Level:           input.Level,
		SourceType:      models.SourceSceneReport,
		AssignedRoleKey: superiorRoleKey(keys),
		CreatedBy:       &actor.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	c.ApplyStatusTransition(models.StatusUnderReview, now)
	c.ApplyDefaults(now)

	err = s.store.InTx(ctx, func(tx store.Store) error {
		if err := tx.CreateCase(ctx, c); err != nil {
			return derrors.Wrap(err, derrors.CodeInternal, "failed to create case")
		}
		report := &models.SceneCaseReport{
			ID:              uuid.New(),
			CaseID:          c.ID,
			ReportedBy:      actor.ID,
			SceneOccurredAt: input.SceneOccurredAt,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := tx.CreateSceneReport(ctx, report); err != nil {
			return derrors.Wrap(err, derrors.CodeInternal, "failed to create scene report")
		}
		creator := &models.CaseParticipant{
			ID:              uuid.New(),
			CaseID:          c.ID,
			UserID:          &actor.ID,
			ParticipantKind: models.KindPersonnel,
			RoleInCase:      creatorRoleInCase(keys),
			AddedBy:         &actor.ID,
			CreatedAt:       now,
		}
		if err := tx.CreateParticipant(ctx, creator); err != nil {
			return derrors.Wrap(err, derrors.CodeInternal, "failed to add reporting officer")
		}
		for _, w := range input.Witnesses {
			witness := &models.CaseParticipant{
				ID:              uuid.New(),
				CaseID:          c.ID,
				ParticipantKind: models.KindCivilian,
				RoleInCase:      models.RoleWitness,
				FullName:        w.FullName,
				Phone:           w.Phone,
				NationalID:      w.NationalID,
				AddedBy:         &actor.ID,
				CreatedAt:       now,
			}
			if err := tx.CreateParticipant(ctx, witness); err != nil {
				return derrors.Wrap(err, derrors.CodeInternal, "failed to add witness")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.CasesCreated.WithLabelValues(string(models.SourceSceneReport)).Inc()
	}
	s.recorder.Record(ctx, timeline.NewEvent(timeline.KindCaseCreated, &c.ID, &actor.ID, map[string]string{
		"case_number": c.CaseNumber,
		"source_type": string(c.SourceType),
	}))
	return c, nil
}

func validateWitnesses(witnesses []WitnessInput) error {
	seen := make(map[string]bool, len(witnesses))
	for _, w := range witnesses {
		if strings.TrimSpace(w.FullName) == "" ||
			strings.TrimSpace(w.Phone) == "" ||
			strings.TrimSpace(w.NationalID) == "" {
			return derrors.New(derrors.CodeValidation, "every witness requires full_name, phone and national_id")
		}
		if seen[w.NationalID] {
			return derrors.Newf(derrors.CodeValidation, "duplicate witness national_id %s", w.NationalID)
		}
		seen[w.NationalID] = true
	}
	return nil
}

// ApproveSceneCase records a superior's sign-off on a scene-sourced case
// and moves it into active investigation. Approval is the transition
// trigger, so no separate transition permission applies.
func (s *Service) ApproveSceneCase(ctx context.Context, actor *identity.User, caseID uuid.UUID) (*models.Case, error) {
	ctx, span := s.tracer.Start(ctx, "cases.ApproveSceneCase")
	defer span.End()

	if !actor.IsAuthenticated() {
		return nil, derrors.New(derrors.CodeUnauthorized, "authentication required")
	}
	keys, err := s.authority.RoleKeysOf(ctx, actor)
	if err != nil {
		return nil, err
	}

	var approved *models.Case
	err = s.store.InTx(ctx, func(tx store.Store) error {
		c, err := tx.GetCaseForUpdate(ctx, caseID)
		if err != nil {
			if err == store.ErrNotFound {
				return derrors.New(derrors.CodeNotFound, "case not found")
			}
			return derrors.Wrap(err, derrors.CodeInternal, "failed to lock case")
		}
		if c.SourceType != models.SourceSceneReport {
			return derrors.New(derrors.CodeRolePolicy, "case is not a scene case")
		}
		report, err := tx.GetSceneReportByCase(ctx, c.ID)
		if err != nil {
			if err == store.ErrNotFound {
				return derrors.New(derrors.CodeNotFound, "scene report not found")
			}
			return derrors.Wrap(err, derrors.CodeInternal, "failed to load scene report")
		}
		if report.IsApproved() {
			return derrors.New(derrors.CodeWorkflowPolicy, "scene case is already approved")
		}
		if report.ReportedBy == actor.ID {
			return derrors.New(derrors.CodeRolePolicy, "the reporting officer may not approve their own scene case")
		}
		if !actor.IsSuperuser {
			if keys[access.RoleKeyCadet] {
				return derrors.New(derrors.CodeRolePolicy, "cadets may not approve scene cases")
			}
			if !holdsAny(keys, access.PoliceRoleKeys...) {
				return derrors.New(derrors.CodeRolePolicy, "only police personnel may approve scene cases")
			}
			if !keys[c.AssignedRoleKey] && !keys[access.RoleKeyChief] {
				return derrors.Newf(derrors.CodeRolePolicy, "approval requires the %s role", c.AssignedRoleKey)
			}
		}

		now := time.Now().UTC()
		report.SuperiorApprovedBy = &actor.ID
		report.SuperiorApprovedAt = &now
		report.UpdatedAt = now
		if err := tx.UpdateSceneReport(ctx, report); err != nil {
			return derrors.Wrap(err, derrors.CodeInternal, "failed to update scene report")
		}
		c.ApplyStatusTransition(models.StatusActiveInvestigation, now)
		if err := tx.UpdateCase(ctx, c); err != nil {
			return derrors.Wrap(err, derrors.CodeInternal, "failed to update case")
		}
		approved = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.CaseTransitions.WithLabelValues(string(models.StatusActiveInvestigation)).Inc()
	}
	s.recorder.Record(ctx, timeline.NewEvent(timeline.KindSceneApproved, &approved.ID, &actor.ID, nil))
	return approved, nil
}

// MarkSuspect attaches a civilian suspect participant to a case under
// investigation. The wanted list reacts to the new participant through the
// suspect hook inside the same transaction.
func (s *Service) MarkSuspect(ctx context.Context, actor *identity.User, caseID uuid.UUID, input SuspectInput) (*models.CaseParticipant, error) {
	ctx, span := s.tracer.Start(ctx, "cases.MarkSuspect")
	defer span.End()

	if !actor.IsAuthenticated() {
		return nil, derrors.New(derrors.CodeUnauthorized, "authentication required")
	}
	keys, err := s.authority.RoleKeysOf(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !actor.IsSuperuser {
		if keys[access.RoleKeyCadet] {
			return nil, derrors.New(derrors.CodeRolePolicy, "cadets may not mark suspects")
		}
		if !holdsAny(keys, access.PoliceRoleKeys...) {
			return nil, derrors.New(derrors.CodeRolePolicy, "only police personnel may mark suspects")
		}
	}
	if strings.TrimSpace(input.FullName) == "" {
		return nil, derrors.New(derrors.CodeValidation, "full_name must not be blank")
	}

	var suspect *models.CaseParticipant
	err = s.store.InTx(ctx, func(tx store.Store) error {
		c, err := tx.GetCaseForUpdate(ctx, caseID)
		if err != nil {
			if err == store.ErrNotFound {
				return derrors.New(derrors.CodeNotFound, "case not found")
			}
			return derrors.Wrap(err, derrors.CodeInternal, "failed to lock case")
		}
		if c.Status != models.StatusActiveInvestigation && c.Status != models.StatusSuspectAssessment {
			return derrors.Newf(derrors.CodeWorkflowPolicy, "suspects cannot be marked while the case is %s", c.Status)
		}

		now := time.Now().UTC()
		p := &models.CaseParticipant{
			ID:              uuid.New(),
			CaseID:          c.ID,
			ParticipantKind: models.KindCivilian,
			RoleInCase:      models.RoleSuspect,
			FullName:        input.FullName,
			Phone:           input.Phone,
			NationalID:      input.NationalID,
			Notes:           input.Notes,
			AddedBy:         &actor.ID,
			CreatedAt:       now,
		}
		if err := tx.CreateParticipant(ctx, p); err != nil {
			if err == store.ErrDuplicate {
				return derrors.New(derrors.CodeWorkflowPolicy, "suspect already attached to this case")
			}
			return derrors.Wrap(err, derrors.CodeInternal, "failed to add suspect")
		}
		if s.suspects != nil {
			if err := s.suspects.OnSuspectMarked(ctx, tx, c, p); err != nil {
				return derrors.Wrap(err, derrors.CodeInternal, "failed to register wanted entry")
			}
		}
		suspect = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.SuspectsMarked.Inc()
	}
	s.recorder.Record(ctx, timeline.NewEvent(timeline.KindSuspectMarked, &caseID, &actor.ID, map[string]string{
		"participant_id": suspect.ID.String(),
	}))
	return suspect, nil
}

// Transition moves a case to target along the workflow graph. Graph
// legality is checked before role policy; the mutation re-validates the
// status under lock and signals a retryable conflict on mismatch.
func (s *Service) Transition(ctx context.Context, actor *identity.User, caseID uuid.UUID, target models.Status) (*models.Case, error) {
	ctx, span := s.tracer.Start(ctx, "cases.Transition")
	defer span.End()

	if !actor.IsAuthenticated() {
		return nil, derrors.New(derrors.CodeUnauthorized, "authentication required")
	}
	c, err := s.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	observed := c.Status
	if !statemachine.IsValidTransition(observed, target) {
		return nil, derrors.Newf(derrors.CodeWorkflowPolicy,
			"cannot move from %s to %s; allowed: %s", observed, target, formatStatuses(statemachine.AllowedNext(observed)))
	}
	if err := s.checkTransitionPolicy(ctx, actor, c, target); err != nil {
		return nil, err
	}

	var updated *models.Case
	err = s.store.InTx(ctx, func(tx store.Store) error {
		locked, err := tx.GetCaseForUpdate(ctx, caseID)
		if err != nil {
			if err == store.ErrNotFound {
				return derrors.New(derrors.CodeNotFound, "case not found")
			}
			return derrors.Wrap(err, derrors.CodeInternal, "failed to lock case")
		}
		if locked.Status != observed {
			return derrors.Newf(derrors.CodeConflict,
				"case status changed to %s while the transition was in flight, retry", locked.Status)
		}
		locked.ApplyStatusTransition(target, time.Now().UTC())
		if err := tx.UpdateCase(ctx, locked); err != nil {
			return derrors.Wrap(err, derrors.CodeInternal, "failed to update case")
		}
		updated = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.CaseTransitions.WithLabelValues(string(target)).Inc()
	}
	s.recorder.Record(ctx, timeline.NewEvent(timeline.KindCaseTransitioned, &updated.ID, &actor.ID, map[string]string{
		"from": string(observed),
		"to":   string(target),
	}))
	return updated, nil
}

// checkTransitionPolicy applies the per-target role gates on top of an
// already graph-legal transition.
func (s *Service) checkTransitionPolicy(ctx context.Context, actor *identity.User, c *models.Case, target models.Status) error {
	switch target {
	case models.StatusSuspectAssessment:
		return s.authority.RequireAnyRoleKey(ctx, actor,
			"moving a case to suspect assessment requires detective or sergeant",
			access.RoleKeyDetective, access.RoleKeySergeant)
	case models.StatusReferralReady:
		if c.Level == models.LevelCritical {
			return s.authority.RequireAnyRoleKey(ctx, actor,
				"critical cases can only be referred by a chief",
				access.RoleKeyChief)
		}
		return s.authority.RequireAnyRoleKey(ctx, actor,
			"referring a case requires captain or chief",
			access.RoleKeyCaptain, access.RoleKeyChief)
	case models.StatusInTrial:
		return s.authority.RequireAnyRoleKey(ctx, actor,
			"only judges may move cases in and out of trial", access.RoleKeyJudge)
	case models.StatusClosed:
		if err := s.authority.RequireAnyRoleKey(ctx, actor,
			"only judges may move cases in and out of trial", access.RoleKeyJudge); err != nil {
			return err
		}
		has, err := s.hasVerdict(ctx, c.ID)
		if err != nil {
			return err
		}
		if !has {
			return derrors.New(derrors.CodeWorkflowPolicy, "a case cannot be closed before a verdict is recorded")
		}
	}
	return nil
}

func (s *Service) hasVerdict(ctx context.Context, caseID uuid.UUID) (bool, error) {
	if s.verdicts == nil {
		return false, nil
	}
	has, err := s.verdicts.HasVerdict(ctx, caseID)
	if err != nil {
		return false, derrors.Wrap(err, derrors.CodeInternal, "failed to check for a verdict")
	}
	return has, nil
}

func holdsAny(keys map[string]bool, required ...string) bool {
	for _, key := range required {
		if keys[key] {
			return true
		}
	}
	return false
}

func formatStatuses(statuses []models.Status) string {
	if len(statuses) == 0 {
		return "none (terminal)"
	}
	parts := make([]string, len(statuses))
	for i, status := range statuses {
		parts[i] = string(status)
	}
	return strings.Join(parts, ", ")
}
