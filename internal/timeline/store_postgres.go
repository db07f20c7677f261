package timeline

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
)

// PostgresStore persists timeline events; Detail is stored as JSONB.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	detail, err := json.Marshal(event.Detail)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO timeline_events (id, kind, case_id, actor_id, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID, event.Kind, event.CaseID, event.ActorID, detail, event.OccurredAt,
	)
	return err
}

func (s *PostgresStore) ListByCase(ctx context.Context, caseID uuid.UUID) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, case_id, actor_id, detail, occurred_at
		FROM timeline_events WHERE case_id = $1 ORDER BY occurred_at ASC`,
		caseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var event Event
		var detail []byte
		if err := rows.Scan(&event.ID, &event.Kind, &event.CaseID,
			&event.ActorID, &detail, &event.OccurredAt); err != nil {
			return nil, err
		}
		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &event.Detail); err != nil {
				return nil, err
			}
		}
		out = append(out, event)
	}
	return out, rows.Err()
}
