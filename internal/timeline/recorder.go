package timeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Store persists timeline events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]Event, error)
}

// Publisher mirrors events to an external bus.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// StoreRecorder writes events to a Store and optionally mirrors them to a
// Publisher. Failures are logged and swallowed.
type StoreRecorder struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
}

// Option configures a StoreRecorder.
type Option func(*StoreRecorder)

// WithPublisher mirrors recorded events to a bus.
func WithPublisher(p Publisher) Option {
	return func(r *StoreRecorder) { r.publisher = p }
}

// WithLogger sets the recorder's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *StoreRecorder) { r.logger = logger }
}

// NewStoreRecorder creates a recorder over the given store.
func NewStoreRecorder(store Store, opts ...Option) *StoreRecorder {
	r := &StoreRecorder{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *StoreRecorder) Record(ctx context.Context, event Event) {
	if err := r.store.Append(ctx, event); err != nil {
		r.logger.Warn("timeline append failed",
			"kind", event.Kind, "event_id", event.ID, "error", err)
		return
	}
	if r.publisher != nil {
		r.publisher.Publish(ctx, event)
	}
}

// ListByCase returns the recorded events for one case in order.
func (r *StoreRecorder) ListByCase(ctx context.Context, caseID uuid.UUID) ([]Event, error) {
	return r.store.ListByCase(ctx, caseID)
}
