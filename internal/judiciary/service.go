package judiciary

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"casefile/internal/access"
	casemodels "casefile/internal/cases/models"
	casestore "casefile/internal/cases/store"
	"casefile/internal/identity"
	"casefile/internal/platform/metrics"
	"casefile/internal/timeline"
	derrors "casefile/pkg/domain-errors"
)

// EvidenceLister supplies the evidence items of a case. Evidence lives
// outside this service; listing is the only thing the referral package
// needs from it.
type EvidenceLister interface {
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]EvidenceItem, error)
}

// Service assembles referral packages and records verdicts.
type Service struct {
	cases     casestore.Store
	verdicts  VerdictStore
	authority *access.Authority

	evidence EvidenceLister
	recorder timeline.Recorder
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithEvidenceLister wires the evidence reader for referral packages.
func WithEvidenceLister(lister EvidenceLister) Option {
	return func(s *Service) { s.evidence = lister }
}

func WithRecorder(recorder timeline.Recorder) Option {
	return func(s *Service) { s.recorder = recorder }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New creates the judiciary service.
func New(cases casestore.Store, verdicts VerdictStore, authority *access.Authority, opts ...Option) *Service {
	s := &Service{
		cases:     cases,
		verdicts:  verdicts,
		authority: authority,
		recorder:  timeline.Nop{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HasVerdict reports whether a verdict exists for the case.
func (s *Service) HasVerdict(ctx context.Context, caseID uuid.UUID) (bool, error) {
	_, err := s.verdicts.GetByCase(ctx, caseID)
	if err == nil {
		return true, nil
	}
	if err == ErrNotFound {
		return false, nil
	}
	return false, err
}

// ReferralPackage bundles the case summary, participants and evidence for
// the judiciary. Only available once the case is referred or on trial.
func (s *Service) ReferralPackage(ctx context.Context, actor *identity.User, caseID uuid.UUID) (*ReferralPackage, error) {
	if !actor.IsAuthenticated() {
		return nil, derrors.New(derrors.CodeUnauthorized, "authentication required")
	}
	c, err := s.cases.GetCase(ctx, caseID)
	if err != nil {
		if err == casestore.ErrNotFound {
			return nil, derrors.New(derrors.CodeNotFound, "case not found")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to load case")
	}
	if c.Status != casemodels.StatusReferralReady && c.Status != casemodels.StatusInTrial {
		return nil, derrors.Newf(derrors.CodeWorkflowPolicy,
			"referral package is unavailable while the case is %s", c.Status)
	}
	participants, err := s.cases.ListParticipants(ctx, caseID)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to list participants")
	}
	var evidence []EvidenceItem
	if s.evidence != nil {
		evidence, err = s.evidence.ListByCase(ctx, caseID)
		if err != nil {
			return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to list evidence")
		}
	}
	return &ReferralPackage{Case: c, Participants: participants, Evidence: evidence}, nil
}

// RecordVerdict records the judge's one-shot verdict and closes the case.
// Status and closed_at are set in the same transaction as the verdict row.
func (s *Service) RecordVerdict(ctx context.Context, actor *identity.User, caseID uuid.UUID, verdict Verdict, punishmentTitle, punishmentDescription string) (*CaseVerdict, error) {
	if err := s.authority.RequireAnyRoleKey(ctx, actor,
		"only judges may record verdicts", access.RoleKeyJudge); err != nil {
		return nil, err
	}
	switch verdict {
	case VerdictGuilty, VerdictNotGuilty:
	default:
		return nil, derrors.New(derrors.CodeValidation, "verdict must be guilty or not_guilty")
	}

	var recorded *CaseVerdict
	err := s.cases.InTx(ctx, func(tx casestore.Store) error {
		// The verdict row and the case closure must commit together, so
		// the verdict store joins the case transaction.
		verdicts := s.verdicts.JoinCaseTx(tx)

		c, err := tx.GetCaseForUpdate(ctx, caseID)
		if err != nil {
			if err == casestore.ErrNotFound {
				return derrors.New(derrors.CodeNotFound, "case not found")
			}
			return derrors.Wrap(err, derrors.CodeInternal, "failed to lock case")
		}
		if c.Status != casemodels.StatusInTrial {
			return derrors.Newf(derrors.CodeWorkflowPolicy,
				"verdicts can only be recorded while the case is in trial, not %s", c.Status)
		}
		if _, err := verdicts.GetByCase(ctx, caseID); err == nil {
			return derrors.New(derrors.CodeWorkflowPolicy, "a verdict already exists for this case")
		} else if err != ErrNotFound {
			return derrors.Wrap(err, derrors.CodeInternal, "failed to check for an existing verdict")
		}

		now := time.Now().UTC()
		v := &CaseVerdict{
			ID:                    uuid.New(),
			CaseID:                caseID,
			JudgeID:               actor.ID,
			Verdict:               verdict,
			PunishmentTitle:       punishmentTitle,
			PunishmentDescription: punishmentDescription,
			RecordedAt:            now,
		}
		if err := verdicts.Create(ctx, v); err != nil {
			if err == ErrDuplicate {
				return derrors.New(derrors.CodeWorkflowPolicy, "a verdict already exists for this case")
			}
			return derrors.Wrap(err, derrors.CodeInternal, "failed to record verdict")
		}
		c.ApplyStatusTransition(casemodels.StatusClosed, now)
		if err := tx.UpdateCase(ctx, c); err != nil {
			return derrors.Wrap(err, derrors.CodeInternal, "failed to close case")
		}
		recorded = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.VerdictsRecorded.Inc()
		s.metrics.CaseTransitions.WithLabelValues(string(casemodels.StatusClosed)).Inc()
	}
	s.recorder.Record(ctx, timeline.NewEvent(timeline.KindVerdictRecorded, &caseID, &actor.ID, map[string]string{
		"verdict": string(verdict),
	}))
	return recorded, nil
}

// VerdictOf returns the verdict recorded for a case.
func (s *Service) VerdictOf(ctx context.Context, caseID uuid.UUID) (*CaseVerdict, error) {
	v, err := s.verdicts.GetByCase(ctx, caseID)
	if err != nil {
		if err == ErrNotFound {
			return nil, derrors.New(derrors.CodeNotFound, "no verdict recorded for this case")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to load verdict")
	}
	return v, nil
}
