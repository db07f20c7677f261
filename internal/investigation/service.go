package investigation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"casefile/internal/access"
	casemodels "casefile/internal/cases/models"
	"casefile/internal/identity"
	"casefile/internal/platform/metrics"
	"casefile/internal/timeline"
	derrors "casefile/pkg/domain-errors"
)

// CaseDirectory is the slice of the case store the ledger needs: resolving
// cases and their participants.
type CaseDirectory interface {
	GetCase(ctx context.Context, id uuid.UUID) (*casemodels.Case, error)
	GetParticipant(ctx context.Context, id uuid.UUID) (*casemodels.CaseParticipant, error)
}

// UserResolver loads users for cross-user role checks.
type UserResolver interface {
	Resolve(ctx context.Context, userID string) (*identity.User, error)
}

// Service applies the investigation workflow rules.
type Service struct {
	store     Store
	cases     CaseDirectory
	authority *access.Authority

	users    UserResolver
	recorder timeline.Recorder
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithRecorder(recorder timeline.Recorder) Option {
	return func(s *Service) { s.recorder = recorder }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithUserResolver enables the submitter-rank check on reasoning decisions.
func WithUserResolver(users UserResolver) Option {
	return func(s *Service) { s.users = users }
}

// New creates the investigation service.
func New(store Store, cases CaseDirectory, authority *access.Authority, opts ...Option) *Service {
	s := &Service{
		store:     store,
		cases:     cases,
		authority: authority,
		recorder:  timeline.Nop{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAssessment opens the score ledger for one suspect of one case.
func (s *Service) CreateAssessment(ctx context.Context, actor *identity.User, caseID, participantID uuid.UUID) (*SuspectAssessment, error) {
	if err := s.authority.RequireAnyRoleKey(ctx, actor,
		"creating an assessment requires detective or sergeant",
		access.RoleKeyDetective, access.RoleKeySergeant); err != nil {
		return nil, err
	}
	participant, err := s.cases.GetParticipant(ctx, participantID)
	if err != nil {
		return nil, derrors.New(derrors.CodeNotFound, "participant not found")
	}
	if participant.CaseID != caseID {
		return nil, derrors.New(derrors.CodeValidation, "participant does not belong to this case")
	}
	if participant.RoleInCase != casemodels.RoleSuspect {
		return nil, derrors.New(derrors.CodeValidation, "participant is not a suspect")
	}

	assessment := &SuspectAssessment{
		ID:            uuid.New(),
		CaseID:        caseID,
		ParticipantID: participantID,
		CreatedBy:     actor.ID,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.CreateAssessment(ctx, assessment); err != nil {
		if err == ErrDuplicate {
			return nil, derrors.New(derrors.CodeWorkflowPolicy, "an assessment already exists for this suspect")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to create assessment")
	}
	return assessment, nil
}

// SubmitScore appends one score entry to an assessment. The caller must
// hold the role key they are scoring as; history is never rewritten.
func (s *Service) SubmitScore(ctx context.Context, actor *identity.User, assessmentID uuid.UUID, roleKey string, score int) (*ScoreEntry, error) {
	roleKey = strings.ToLower(strings.TrimSpace(roleKey))
	if roleKey != access.RoleKeyDetective && roleKey != access.RoleKeySergeant {
		return nil, derrors.New(derrors.CodeValidation, "scores are submitted as detective or sergeant")
	}
	if err := s.authority.RequireAnyRoleKey(ctx, actor,
		"submitting a "+roleKey+" score requires the "+roleKey+" role", roleKey); err != nil {
		return nil, err
	}
	if score < 1 || score > 10 {
		return nil, derrors.New(derrors.CodeValidation, "score must be between 1 and 10")
	}
	assessment, err := s.store.GetAssessment(ctx, assessmentID)
	if err != nil {
		if err == ErrNotFound {
			return nil, derrors.New(derrors.CodeNotFound, "assessment not found")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to load assessment")
	}

	entry := &ScoreEntry{
		ID:           uuid.New(),
		AssessmentID: assessmentID,
		ScoredBy:     actor.ID,
		RoleKey:      roleKey,
		Score:        score,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.AppendScore(ctx, entry); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to append score")
	}
	if s.metrics != nil {
		s.metrics.ScoresSubmitted.WithLabelValues(roleKey).Inc()
	}
	s.recorder.Record(ctx, timeline.NewEvent(timeline.KindScoreSubmitted, &assessment.CaseID, &actor.ID, map[string]string{
		"assessment_id": assessmentID.String(),
		"role_key":      roleKey,
	}))
	return entry, nil
}

// CurrentScores reduces the score history to the latest entry per role.
func (s *Service) CurrentScores(ctx context.Context, assessmentID uuid.UUID) (map[string]*ScoreEntry, error) {
	entries, err := s.store.ListScores(ctx, assessmentID)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to list scores")
	}
	current := make(map[string]*ScoreEntry)
	for _, entry := range entries {
		latest, ok := current[entry.RoleKey]
		if !ok || entry.CreatedAt.After(latest.CreatedAt) {
			current[entry.RoleKey] = entry
		}
	}
	return current, nil
}

// ScoreHistory returns the full append-only score history in order.
func (s *Service) ScoreHistory(ctx context.Context, assessmentID uuid.UUID) ([]*ScoreEntry, error) {
	entries, err := s.store.ListScores(ctx, assessmentID)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to list scores")
	}
	return entries, nil
}

// requireSuspectOf validates that the participant is a suspect of the case.
func (s *Service) requireSuspectOf(ctx context.Context, caseID, participantID uuid.UUID) error {
	if _, err := s.cases.GetCase(ctx, caseID); err != nil {
		return derrors.New(derrors.CodeNotFound, "case not found")
	}
	participant, err := s.cases.GetParticipant(ctx, participantID)
	if err != nil {
		return derrors.New(derrors.CodeNotFound, "participant not found")
	}
	if participant.CaseID != caseID || participant.RoleInCase != casemodels.RoleSuspect {
		return derrors.New(derrors.CodeValidation, "participant is not a suspect of this case")
	}
	return nil
}

// IssueArrestOrder creates a pending arrest order. Sergeant-only.
func (s *Service) IssueArrestOrder(ctx context.Context, actor *identity.User, caseID, participantID uuid.UUID, reason string) (*ArrestOrder, error) {
	if err := s.authority.RequireAnyRoleKey(ctx, actor,
		"only sergeants may issue arrest orders", access.RoleKeySergeant); err != nil {
		return nil, err
	}
	if err := s.requireSuspectOf(ctx, caseID, participantID); err != nil {
		return nil, err
	}
	order := &ArrestOrder{
		ID:            uuid.New(),
		CaseID:        caseID,
		ParticipantID: participantID,
		IssuedBy:      actor.ID,
		Reason:        reason,
		Status:        OrderPending,
		IssuedAt:      time.Now().UTC(),
	}
	if err := s.store.CreateArrestOrder(ctx, order); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to create arrest order")
	}
	s.recorder.Record(ctx, timeline.NewEvent(timeline.KindOrderIssued, &caseID, &actor.ID, map[string]string{
		"order_type": "arrest", "order_id": order.ID.String(),
	}))
	return order, nil
}

// UpdateArrestOrderStatus mutates an order to one of the enum literals.
func (s *Service) UpdateArrestOrderStatus(ctx context.Context, actor *identity.User, orderID uuid.UUID, status OrderStatus) (*ArrestOrder, error) {
	if err := s.authority.RequireAnyRoleKey(ctx, actor,
		"only sergeants may update arrest orders", access.RoleKeySergeant); err != nil {
		return nil, err
	}
	switch status {
	case OrderPending, OrderExecuted, OrderCancelled:
	default:
		return nil, derrors.New(derrors.CodeValidation, "arrest order status must be pending, executed or cancelled")
	}
	order, err := s.store.GetArrestOrder(ctx, orderID)
	if err != nil {
		if err == ErrNotFound {
			return nil, derrors.New(derrors.CodeNotFound, "arrest order not found")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to load arrest order")
	}
	order.Status = status
	if err := s.store.UpdateArrestOrder(ctx, order); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to update arrest order")
	}
	return order, nil
}

// IssueInterrogationOrder creates a pending interrogation order. Sergeant-only.
func (s *Service) IssueInterrogationOrder(ctx context.Context, actor *identity.User, caseID, participantID uuid.UUID, scheduledAt *time.Time, reason string) (*InterrogationOrder, error) {
	if err := s.authority.RequireAnyRoleKey(ctx, actor,
		"only sergeants may issue interrogation orders", access.RoleKeySergeant); err != nil {
		return nil, err
	}
	if err := s.requireSuspectOf(ctx, caseID, participantID); err != nil {
		return nil, err
	}
	order := &InterrogationOrder{
		ID:            uuid.New(),
		CaseID:        caseID,
		ParticipantID: participantID,
		OrderedBy:     actor.ID,
		ScheduledAt:   scheduledAt,
		Reason:        reason,
		Status:        OrderPending,
		OrderedAt:     time.Now().UTC(),
	}
	if err := s.store.CreateInterrogationOrder(ctx, order); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to create interrogation order")
	}
	s.recorder.Record(ctx, timeline.NewEvent(timeline.KindOrderIssued, &caseID, &actor.ID, map[string]string{
		"order_type": "interrogation", "order_id": order.ID.String(),
	}))
	return order, nil
}

// UpdateInterrogationOrderStatus mutates an order to one of the enum literals.
func (s *Service) UpdateInterrogationOrderStatus(ctx context.Context, actor *identity.User, orderID uuid.UUID, status OrderStatus) (*InterrogationOrder, error) {
	if err := s.authority.RequireAnyRoleKey(ctx, actor,
		"only sergeants may update interrogation orders", access.RoleKeySergeant); err != nil {
		return nil, err
	}
	switch status {
	case OrderPending, OrderCompleted, OrderCancelled:
	default:
		return nil, derrors.New(derrors.CodeValidation, "interrogation order status must be pending, completed or cancelled")
	}
	order, err := s.store.GetInterrogationOrder(ctx, orderID)
	if err != nil {
		if err == ErrNotFound {
			return nil, derrors.New(derrors.CodeNotFound, "interrogation order not found")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to load interrogation order")
	}
	order.Status = status
	if err := s.store.UpdateInterrogationOrder(ctx, order); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to update interrogation order")
	}
	return order, nil
}

// SubmitReasoning files a detective's reasoning for sergeant review.
func (s *Service) SubmitReasoning(ctx context.Context, actor *identity.User, caseReference, title, narrative string) (*ReasoningSubmission, error) {
	if err := s.authority.RequireAnyRoleKey(ctx, actor,
		"only detectives may submit reasoning", access.RoleKeyDetective); err != nil {
		return nil, err
	}
	if strings.TrimSpace(title) == "" || strings.TrimSpace(narrative) == "" {
		return nil, derrors.New(derrors.CodeValidation, "title and narrative must not be blank")
	}
	now := time.Now().UTC()
	submission := &ReasoningSubmission{
		ID:            uuid.New(),
		CaseReference: caseReference,
		Title:         title,
		Narrative:     narrative,
		SubmittedBy:   actor.ID,
		Status:        ReasoningPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateReasoning(ctx, submission); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to create reasoning submission")
	}
	return submission, nil
}

// DecideReasoning records a sergeant's one-shot decision. Deciding on your
// own submission is refused.
func (s *Service) DecideReasoning(ctx context.Context, actor *identity.User, reasoningID uuid.UUID, decision ReasoningStatus, justification string) (*ReasoningSubmission, error) {
	if err := s.authority.RequireAnyRoleKey(ctx, actor,
		"only sergeants may approve or reject reasoning", access.RoleKeySergeant); err != nil {
		return nil, err
	}
	if decision != ReasoningApproved && decision != ReasoningRejected {
		return nil, derrors.New(derrors.CodeValidation, "decision must be approved or rejected")
	}
	submission, err := s.store.GetReasoning(ctx, reasoningID)
	if err != nil {
		if err == ErrNotFound {
			return nil, derrors.New(derrors.CodeNotFound, "reasoning submission not found")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to load reasoning submission")
	}
	if submission.Status != ReasoningPending {
		return nil, derrors.New(derrors.CodeWorkflowPolicy, "only pending submissions can be decided")
	}
	if submission.SubmittedBy == actor.ID {
		return nil, derrors.New(derrors.CodeRolePolicy, "you cannot decide on your own reasoning submission")
	}
	if s.users != nil {
		submitter, err := s.users.Resolve(ctx, submission.SubmittedBy.String())
		if err != nil {
			return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to resolve submitter")
		}
		isDetective, err := s.authority.HasAnyRoleKey(ctx, submitter, access.RoleKeyDetective)
		if err != nil {
			return nil, err
		}
		if !isDetective {
			return nil, derrors.New(derrors.CodeWorkflowPolicy, "reasoning must come from a detective before sergeant review")
		}
	}

	now := time.Now().UTC()
	submission.Status = decision
	submission.UpdatedAt = now
	if err := s.store.UpdateReasoning(ctx, submission); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to update reasoning submission")
	}
	approval := &ReasoningApproval{
		ID:            uuid.New(),
		ReasoningID:   submission.ID,
		DecidedBy:     actor.ID,
		Decision:      decision,
		Justification: justification,
		DecidedAt:     now,
	}
	if err := s.store.CreateReasoningApproval(ctx, approval); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to record reasoning decision")
	}
	return submission, nil
}
