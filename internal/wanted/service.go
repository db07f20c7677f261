package wanted

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	casemodels "casefile/internal/cases/models"
	casestore "casefile/internal/cases/store"
	"casefile/internal/platform/metrics"
	"casefile/internal/timeline"
	derrors "casefile/pkg/domain-errors"
)

const (
	cacheKeyPrefix = "wanted:list:"
	cacheTTL       = 30 * time.Second
)

// Service maintains the wanted list. It reacts to suspect participants
// through OnSuspectMarked and ages entries via PromoteStale.
type Service struct {
	store Store

	cache        *redis.Client
	recorder     timeline.Recorder
	metrics      *metrics.Metrics
	logger       *slog.Logger
	promotionAge time.Duration
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithCache enables the best-effort Redis listing cache.
func WithCache(client *redis.Client) Option {
	return func(s *Service) { s.cache = client }
}

func WithRecorder(recorder timeline.Recorder) Option {
	return func(s *Service) { s.recorder = recorder }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithPromotionAge overrides the default thirty-day promotion age.
func WithPromotionAge(age time.Duration) Option {
	return func(s *Service) {
		if age > 0 {
			s.promotionAge = age
		}
	}
}

// New creates the wanted list service.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:        store,
		recorder:     timeline.Nop{},
		logger:       slog.Default(),
		promotionAge: PromotionAge,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnSuspectMarked ensures a wanted entry exists for the suspect. The entry
// is written through the case transaction that created the participant, so
// both commit or roll back together. Repeated calls for the same
// (case, participant) are no-ops.
func (s *Service) OnSuspectMarked(ctx context.Context, tx casestore.Store, c *casemodels.Case, p *casemodels.CaseParticipant) error {
	store := s.store.JoinCaseTx(tx)
	if _, err := store.GetByCaseParticipant(ctx, c.ID, p.ID); err == nil {
		return nil
	} else if err != ErrNotFound {
		return err
	}
	entry := &Entry{
		ID:            uuid.New(),
		CaseID:        c.ID,
		ParticipantID: p.ID,
		FullName:      p.FullName,
		Status:        StatusWanted,
		MarkedAt:      time.Now().UTC(),
	}
	if err := store.Create(ctx, entry); err != nil {
		if err == ErrDuplicate {
			return nil
		}
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

// List returns wanted entries, optionally filtered by status. Reads go
// through a short-lived Redis cache when one is configured; cache failures
// fall through to the store.
func (s *Service) List(ctx context.Context, status Status) ([]*Entry, error) {
	key := cacheKeyPrefix + string(status)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var cached []*Entry
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}
	entries, err := s.store.List(ctx, status)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to list wanted entries")
	}
	if s.cache != nil {
		if raw, err := json.Marshal(entries); err == nil {
			if err := s.cache.Set(ctx, key, raw, cacheTTL).Err(); err != nil {
				s.logger.Debug("wanted list cache write failed", "error", err)
			}
		}
	}
	return entries, nil
}

// PromoteStale promotes every plain wanted entry older than the promotion
// age. Safe to run repeatedly; already-promoted entries never match.
func (s *Service) PromoteStale(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.promotionAge)
	promoted, err := s.store.PromoteOlderThan(ctx, cutoff, now)
	if err != nil {
		return 0, derrors.Wrap(err, derrors.CodeInternal, "failed to promote wanted entries")
	}
	if promoted > 0 {
		if s.metrics != nil {
			s.metrics.WantedPromotions.Add(float64(promoted))
		}
		s.invalidateCache(ctx)
		s.recorder.Record(ctx, timeline.NewEvent(timeline.KindWantedPromoted, nil, nil, map[string]string{
			"promoted": strconv.Itoa(promoted),
		}))
		s.logger.Info("promoted stale wanted entries", "count", promoted)
	}
	return promoted, nil
}

func (s *Service) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	keys := []string{
		cacheKeyPrefix,
		cacheKeyPrefix + string(StatusWanted),
		cacheKeyPrefix + string(StatusMostWanted),
	}
	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		s.logger.Debug("wanted list cache invalidation failed", "error", err)
	}
}
