package judiciary

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// PostgresEvidenceStore reads registered evidence for the referral package.
// Evidence registration itself happens outside this service; we only list.
type PostgresEvidenceStore struct {
	db *sql.DB
}

func NewPostgresEvidenceStore(db *sql.DB) *PostgresEvidenceStore {
	return &PostgresEvidenceStore{db: db}
}

func (s *PostgresEvidenceStore) ListByCase(ctx context.Context, caseID uuid.UUID) ([]EvidenceItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, evidence_type, registered_at
		FROM evidence_items WHERE case_id = $1 ORDER BY registered_at ASC`,
		caseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EvidenceItem
	for rows.Next() {
		var item EvidenceItem
		if err := rows.Scan(&item.ID, &item.Title, &item.Description,
			&item.EvidenceType, &item.RegisteredAt); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
