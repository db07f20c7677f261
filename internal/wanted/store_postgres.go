package wanted

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	casestore "casefile/internal/cases/store"
	"casefile/internal/platform/postgres"
)

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	q postgres.DBTX
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{q: db}
}

// JoinCaseTx rebinds the store onto the case transaction's querier. The
// entry insert then sees the uncommitted participant row its foreign key
// points at and commits or rolls back with the case mutation.
func (s *PostgresStore) JoinCaseTx(tx casestore.Store) Store {
	if carrier, ok := tx.(casestore.TxQuerier); ok {
		return &PostgresStore{q: carrier.Querier()}
	}
	return s
}

func (s *PostgresStore) Create(ctx context.Context, entry *Entry) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO wanted_entries (id, case_id, participant_id, full_name, status, marked_at, promoted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.CaseID, entry.ParticipantID, entry.FullName,
		entry.Status, entry.MarkedAt, entry.PromotedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *PostgresStore) GetByCaseParticipant(ctx context.Context, caseID, participantID uuid.UUID) (*Entry, error) {
	var entry Entry
	err := s.q.QueryRowContext(ctx, `
		SELECT id, case_id, participant_id, full_name, status, marked_at, promoted_at
		FROM wanted_entries WHERE case_id = $1 AND participant_id = $2`,
		caseID, participantID,
	).Scan(&entry.ID, &entry.CaseID, &entry.ParticipantID, &entry.FullName,
		&entry.Status, &entry.MarkedAt, &entry.PromotedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (s *PostgresStore) List(ctx context.Context, status Status) ([]*Entry, error) {
	query := `SELECT id, case_id, participant_id, full_name, status, marked_at, promoted_at
		FROM wanted_entries`
	var args []any
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY marked_at ASC`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.ID, &entry.CaseID, &entry.ParticipantID,
			&entry.FullName, &entry.Status, &entry.MarkedAt, &entry.PromotedAt); err != nil {
			return nil, err
		}
		out = append(out, &entry)
	}
	return out, rows.Err()
}

func (s *PostgresStore) PromoteOlderThan(ctx context.Context, cutoff, promotedAt time.Time) (int, error) {
	res, err := s.q.ExecContext(ctx, `
		UPDATE wanted_entries
		SET status = $1, promoted_at = $2
		WHERE status = $3 AND marked_at <= $4`,
		StatusMostWanted, promotedAt, StatusWanted, cutoff,
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
