// Package payments handles bail and fine payments for suspects on level 2
// and 3 cases. Transactions are created pending, handed to a gateway
// adapter, and settled through the gateway's callback. A scheduled
// reconcile sweep fails pending transactions that never came back.
package payments

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	casemodels "casefile/internal/cases/models"
	"casefile/internal/identity"
	"casefile/internal/platform/metrics"
	"casefile/internal/timeline"
	derrors "casefile/pkg/domain-errors"
)

// CaseDirectory reads cases and participants for eligibility checks.
type CaseDirectory interface {
	GetCase(ctx context.Context, id uuid.UUID) (*casemodels.Case, error)
	GetParticipant(ctx context.Context, id uuid.UUID) (*casemodels.CaseParticipant, error)
}

// Service orchestrates payment transactions against a gateway adapter.
type Service struct {
	store   Store
	cases   CaseDirectory
	adapter GatewayAdapter

	recorder      timeline.Recorder
	metrics       *metrics.Metrics
	logger        *slog.Logger
	maxPendingAge time.Duration
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

// WithMaxPendingAge overrides the default seven-day reconcile cutoff.
func WithMaxPendingAge(age time.Duration) Option {
	return func(s *Service) {
		if age > 0 {
			s.maxPendingAge = age
		}
	}
}

// New creates the payment service. The adapter defaults to MockGateway.
func New(store Store, cases CaseDirectory, adapter GatewayAdapter, opts ...Option) *Service {
	s := &Service{
		store:         store,
		cases:         cases,
		adapter:       adapter,
		recorder:      timeline.Nop{},
		logger:        slog.Default(),
		maxPendingAge: MaxPendingAge,
	}
	if s.adapter == nil {
		s.adapter = MockGateway{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// callbackFor appends the transaction id to the callback URL so the gateway
// can address the exact transaction when it calls back.
func callbackFor(callbackURL string, id uuid.UUID) string {
	if callbackURL == "" {
		return ""
	}
	sep := "?"
	if strings.Contains(callbackURL, "?") {
		sep = "&"
	}
	return callbackURL + sep + "transaction_id=" + id.String()
}

// checkEligibility enforces who can be paid for: level 2 or 3 cases only,
// and the participant must be a suspect on that case.
func (s *Service) checkEligibility(c *casemodels.Case, p *casemodels.CaseParticipant) error {
	if c.Level != casemodels.Level2 && c.Level != casemodels.Level3 {
		return derrors.New(derrors.CodeWorkflowPolicy, "bail or fine payment is only available for level 2 or 3 cases")
	}
	if p.CaseID != c.ID {
		return derrors.New(derrors.CodeValidation, "participant does not belong to this case")
	}
	if p.RoleInCase != casemodels.RoleSuspect {
		return derrors.New(derrors.CodeWorkflowPolicy, "payments can only be made for a suspect")
	}
	return nil
}

// Initiate creates a pending transaction and registers it with the gateway.
// On gateway failure the transaction is marked failed before the error is
// returned; a transaction is never left pending by a failed initiation.
func (s *Service) Initiate(ctx context.Context, actor *identity.User, caseID, participantID uuid.UUID, amountRials int64, callbackURL string) (*Transaction, string, error) {
	if !actor.IsAuthenticated() {
		return nil, "", derrors.New(derrors.CodeUnauthorized, "authentication required")
	}
	if amountRials <= 0 {
		return nil, "", derrors.New(derrors.CodeValidation, "amount_rials must be positive")
	}
	c, err := s.cases.GetCase(ctx, caseID)
	if err != nil {
		return nil, "", err
	}
	p, err := s.cases.GetParticipant(ctx, participantID)
	if err != nil {
		return nil, "", err
	}
	if err := s.checkEligibility(c, p); err != nil {
		return nil, "", err
	}

	now := time.Now().UTC()
	createdBy := actor.ID
	tx := &Transaction{
		ID:            uuid.New(),
		CaseID:        c.ID,
		ParticipantID: p.ID,
		AmountRials:   amountRials,
		GatewayName:   s.adapter.Name(),
		Status:        StatusPending,
		CreatedBy:     &createdBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Create(ctx, tx); err != nil {
		return nil, "", derrors.Wrap(err, derrors.CodeInternal, "failed to create payment transaction")
	}

	description := fmt.Sprintf("Bail/fine for case %s", c.CaseNumber)
	result, err := s.adapter.RequestPayment(ctx, amountRials, callbackFor(callbackURL, tx.ID), description, tx.ID.String())
	if err != nil {
		tx.Status = StatusFailed
		tx.UpdatedAt = time.Now().UTC()
		if updateErr := s.store.Update(ctx, tx); updateErr != nil {
			s.logger.Error("failed to mark transaction failed after gateway error",
				"transaction_id", tx.ID, "error", updateErr)
		}
		return nil, "", derrors.Wrap(err, derrors.CodeGateway, "payment gateway rejected the request")
	}

	tx.GatewayRef = result.GatewayRef
	tx.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, tx); err != nil {
		return nil, "", derrors.Wrap(err, derrors.CodeInternal, "failed to store gateway reference")
	}
	s.logger.Info("payment initiated",
		"transaction_id", tx.ID, "case_id", c.ID, "gateway", tx.GatewayName)
	return tx, result.RedirectURL, nil
}

// HandleCallback settles a transaction from a gateway callback. Callbacks
// carry no principal; the transaction id is the only credential. Repeated
// callbacks for a settled transaction return its current state unchanged.
func (s *Service) HandleCallback(ctx context.Context, transactionID uuid.UUID, data map[string]string) (*Transaction, error) {
	tx, err := s.store.Get(ctx, transactionID)
	if err != nil {
		if err == ErrNotFound {
			return nil, derrors.New(derrors.CodeNotFound, "transaction not found")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to load transaction")
	}
	if tx.Status != StatusPending {
		return tx, nil
	}

	now := time.Now().UTC()
	result, err := s.adapter.VerifyCallback(ctx, data)
	if err != nil {
		tx.Status = StatusFailed
		tx.CallbackData = data
		tx.UpdatedAt = now
		if updateErr := s.store.Update(ctx, tx); updateErr != nil {
			return nil, derrors.Wrap(updateErr, derrors.CodeInternal, "failed to update transaction")
		}
		return nil, derrors.Wrap(err, derrors.CodeGateway, "gateway callback verification failed")
	}

	tx.CallbackData = data
	tx.VerifiedAt = &now
	tx.UpdatedAt = now
	if result.Success {
		tx.Status = StatusSuccess
	} else {
		tx.Status = StatusFailed
	}
	if err := s.store.Update(ctx, tx); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to update transaction")
	}

	s.recorder.Record(ctx, timeline.NewEvent(timeline.KindPaymentSettled, &tx.CaseID, nil, map[string]string{
		"transaction_id": tx.ID.String(),
		"status":         string(tx.Status),
		"gateway":        tx.GatewayName,
	}))
	s.logger.Info("payment settled", "transaction_id", tx.ID, "status", tx.Status)
	return tx, nil
}

// Transaction returns a single transaction for status polling.
func (s *Service) Transaction(ctx context.Context, actor *identity.User, id uuid.UUID) (*Transaction, error) {
	if !actor.IsAuthenticated() {
		return nil, derrors.New(derrors.CodeUnauthorized, "authentication required")
	}
	tx, err := s.store.Get(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return nil, derrors.New(derrors.CodeNotFound, "transaction not found")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to load transaction")
	}
	return tx, nil
}

// ListByCase returns every transaction attached to a case.
func (s *Service) ListByCase(ctx context.Context, actor *identity.User, caseID uuid.UUID) ([]*Transaction, error) {
	if !actor.IsAuthenticated() {
		return nil, derrors.New(derrors.CodeUnauthorized, "authentication required")
	}
	out, err := s.store.ListByCase(ctx, caseID)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to list transactions")
	}
	return out, nil
}

// Reconcile fails every pending transaction older than the pending age.
// Run from the scheduler; safe to repeat.
func (s *Service) Reconcile(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.maxPendingAge)
	failed, err := s.store.FailPendingOlderThan(ctx, cutoff, now)
	if err != nil {
		return 0, derrors.Wrap(err, derrors.CodeInternal, "failed to reconcile pending payments")
	}
	if failed > 0 {
		if s.metrics != nil {
			s.metrics.PaymentsReconciled.Add(float64(failed))
		}
		s.logger.Info("reconciled stale pending payments", "count", failed)
	}
	return failed, nil
}
