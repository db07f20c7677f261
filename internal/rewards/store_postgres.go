package rewards

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func (s *PostgresStore) AppendSnapshot(ctx context.Context, snapshot *Snapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reward_snapshots
			(id, national_id, full_name, max_days_lj, max_crime_level_di,
			 ranking_score, reward_amount_rials, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		snapshot.ID, snapshot.NationalID, snapshot.FullName,
		snapshot.MaxDaysLj, snapshot.MaxCrimeLevelDi,
		snapshot.RankingScore, snapshot.RewardAmountRials, snapshot.ComputedAt,
	)
	return mapErr(err)
}

func (s *PostgresStore) ListSnapshots(ctx context.Context, nationalID string) ([]*Snapshot, error) {
	query := `SELECT id, national_id, full_name, max_days_lj, max_crime_level_di,
		ranking_score, reward_amount_rials, computed_at FROM reward_snapshots`
	var args []any
	if nationalID != "" {
		query += ` WHERE national_id = $1`
		args = append(args, nationalID)
	}
	query += ` ORDER BY ranking_score DESC, computed_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Snapshot
	for rows.Next() {
		var snapshot Snapshot
		if err := rows.Scan(&snapshot.ID, &snapshot.NationalID, &snapshot.FullName,
			&snapshot.MaxDaysLj, &snapshot.MaxCrimeLevelDi,
			&snapshot.RankingScore, &snapshot.RewardAmountRials, &snapshot.ComputedAt); err != nil {
			return nil, err
		}
		out = append(out, &snapshot)
	}
	return out, rows.Err()
}

const tipColumns = `id, case_reference, subject, content, submitted_by, status,
	reviewed_by_officer, reviewed_by_officer_at,
	reviewed_by_detective, reviewed_by_detective_at,
	reward_claim_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTip(row rowScanner) (*Tip, error) {
	var tip Tip
	var claimID sql.NullString
	err := row.Scan(&tip.ID, &tip.CaseReference, &tip.Subject, &tip.Content,
		&tip.SubmittedBy, &tip.Status,
		&tip.ReviewedByOfficer, &tip.ReviewedByOfficerAt,
		&tip.ReviewedByDetective, &tip.ReviewedByDetectiveAt,
		&claimID, &tip.CreatedAt, &tip.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	tip.RewardClaimID = claimID.String
	return &tip, nil
}

func (s *PostgresStore) CreateTip(ctx context.Context, tip *Tip) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reward_tips (`+tipColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), $12, $13)`,
		tip.ID, tip.CaseReference, tip.Subject, tip.Content,
		tip.SubmittedBy, tip.Status,
		tip.ReviewedByOfficer, tip.ReviewedByOfficerAt,
		tip.ReviewedByDetective, tip.ReviewedByDetectiveAt,
		tip.RewardClaimID, tip.CreatedAt, tip.UpdatedAt,
	)
	return mapErr(err)
}

func (s *PostgresStore) GetTip(ctx context.Context, id uuid.UUID) (*Tip, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+tipColumns+` FROM reward_tips WHERE id = $1`, id)
	return scanTip(row)
}

func (s *PostgresStore) GetTipByClaimID(ctx context.Context, claimID string) (*Tip, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tipColumns+` FROM reward_tips WHERE reward_claim_id = $1`, claimID)
	return scanTip(row)
}

func (s *PostgresStore) UpdateTip(ctx context.Context, tip *Tip) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reward_tips SET
			status = $2,
			reviewed_by_officer = $3, reviewed_by_officer_at = $4,
			reviewed_by_detective = $5, reviewed_by_detective_at = $6,
			reward_claim_id = NULLIF($7, ''), updated_at = $8
		WHERE id = $1`,
		tip.ID, tip.Status,
		tip.ReviewedByOfficer, tip.ReviewedByOfficerAt,
		tip.ReviewedByDetective, tip.ReviewedByDetectiveAt,
		tip.RewardClaimID, tip.UpdatedAt,
	)
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListTips(ctx context.Context, status TipStatus) ([]*Tip, error) {
	query := `SELECT ` + tipColumns + ` FROM reward_tips`
	var args []any
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Tip
	for rows.Next() {
		tip, err := scanTip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tip)
	}
	return out, rows.Err()
}
