// Package service orchestrates the case workflow: complaint validation,
// scene-case intake and approval, suspect marking and status transitions.
// Role policy is checked first, then workflow legality, then the mutation
// runs inside a transaction holding a row lock on the primary record.
package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"casefile/internal/access"
	"casefile/internal/cases/models"
	"casefile/internal/cases/store"
	"casefile/internal/platform/metrics"
	"casefile/internal/timeline"
)

// SuspectHook reacts to a suspect participant being attached to a case.
// The wanted list implements it; the hook receives the transaction the
// participant was created in so its own writes join it, and failures abort
// the whole transaction.
type SuspectHook interface {
	OnSuspectMarked(ctx context.Context, tx store.Store, c *models.Case, p *models.CaseParticipant) error
}

// VerdictChecker reports whether a verdict exists for a case. Used to keep
// the generic transition path from closing a case that was never judged.
type VerdictChecker interface {
	HasVerdict(ctx context.Context, caseID uuid.UUID) (bool, error)
}

// Service is the case workflow orchestrator.
type Service struct {
	store     store.Store
	authority *access.Authority

	recorder timeline.Recorder
	suspects SuspectHook
	verdicts VerdictChecker
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithRecorder sets the timeline recorder.
func WithRecorder(recorder timeline.Recorder) Option {
	return func(s *Service) { s.recorder = recorder }
}

// WithSuspectHook sets the collaborator reacting to suspect participants.
func WithSuspectHook(hook SuspectHook) Option {
	return func(s *Service) { s.suspects = hook }
}

// WithVerdictChecker sets the verdict existence check used when a caller
// asks for the closed status directly.
func WithVerdictChecker(checker VerdictChecker) Option {
	return func(s *Service) { s.verdicts = checker }
}

// WithMetrics sets the Prometheus metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New creates the case workflow service.
func New(st store.Store, authority *access.Authority, opts ...Option) *Service {
	s := &Service{
		store:     st,
		authority: authority,
		recorder:  timeline.Nop{},
		logger:    slog.Default(),
		tracer:    otel.Tracer("casefile/cases"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
