package judiciary

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	casestore "casefile/internal/cases/store"
	"casefile/internal/platform/postgres"
)

// PostgresVerdictStore implements VerdictStore on PostgreSQL.
type PostgresVerdictStore struct {
	q postgres.DBTX
}

func NewPostgresVerdictStore(db *sql.DB) *PostgresVerdictStore {
	return &PostgresVerdictStore{q: db}
}

// JoinCaseTx rebinds the store onto the case transaction's querier so the
// verdict insert commits and rolls back with the case update.
func (s *PostgresVerdictStore) JoinCaseTx(tx casestore.Store) VerdictStore {
	if carrier, ok := tx.(casestore.TxQuerier); ok {
		return &PostgresVerdictStore{q: carrier.Querier()}
	}
	return s
}

func (s *PostgresVerdictStore) Create(ctx context.Context, v *CaseVerdict) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO case_verdicts
			(id, case_id, judge_id, verdict, punishment_title, punishment_description, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		v.ID, v.CaseID, v.JudgeID, v.Verdict,
		v.PunishmentTitle, v.PunishmentDescription, v.RecordedAt,
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

func (s *PostgresVerdictStore) GetByCase(ctx context.Context, caseID uuid.UUID) (*CaseVerdict, error) {
	var v CaseVerdict
	err := s.q.QueryRowContext(ctx, `
		SELECT id, case_id, judge_id, verdict, punishment_title, punishment_description, recorded_at
		FROM case_verdicts WHERE case_id = $1`, caseID,
	).Scan(&v.ID, &v.CaseID, &v.JudgeID, &v.Verdict,
		&v.PunishmentTitle, &v.PunishmentDescription, &v.RecordedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}
