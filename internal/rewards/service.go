package rewards

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"casefile/internal/access"
	casemodels "casefile/internal/cases/models"
	"casefile/internal/identity"
	"casefile/internal/platform/metrics"
	"casefile/internal/timeline"
	"casefile/internal/wanted"
)

// WantedSource lists wanted entries for the ranking computation.
type WantedSource interface {
	List(ctx context.Context, status wanted.Status) ([]*wanted.Entry, error)
}

// CaseDirectory resolves the case and participant behind a wanted entry.
type CaseDirectory interface {
	GetCase(ctx context.Context, id uuid.UUID) (*casemodels.Case, error)
	GetParticipant(ctx context.Context, id uuid.UUID) (*casemodels.CaseParticipant, error)
}

// UserResolver loads users, used to match a claim to its submitter.
type UserResolver interface {
	Resolve(ctx context.Context, userID string) (*identity.User, error)
}

// Service computes reward rankings and runs the tip workflow.
type Service struct {
	store     Store
	wanted    WantedSource
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

// WithUserResolver enables claim verification against the submitter.
func WithUserResolver(users UserResolver) Option {
	return func(s *Service) { s.users = users }
}

// New creates the rewards service.
func New(store Store, wantedSource WantedSource, cases CaseDirectory, authority *access.Authority, opts ...Option) *Service {
	s := &Service{
		store:     store,
		wanted:    wantedSource,
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
